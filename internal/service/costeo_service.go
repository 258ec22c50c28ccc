package service

import (
	"context"
	"errors"
	"fmt"

	"comandas/internal/costing"
	"comandas/internal/dto"
	"comandas/internal/model"
	"comandas/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// CosteoService evaluates recipes and dishes against a fresh snapshot and
// keeps lot pins consistent with the ledger.
type CosteoService interface {
	CostearReceta(ctx context.Context, id uuid.UUID) (*dto.CosteoRecetaResponse, error)
	CostearPlato(ctx context.Context, platoID uuid.UUID, varianteID *uuid.UUID) (*dto.CosteoPlatoResponse, error)
	ListarCosteos(ctx context.Context) (*dto.CosteoListResponse, error)
	// PlanificarReconciliacion returns the corrections a pass would write
	// without writing them.
	PlanificarReconciliacion(ctx context.Context) (*dto.ReconciliacionResponse, error)
	Reconciliar(ctx context.Context) (*dto.ReconciliacionResponse, error)
}

type costeoService struct {
	snapshots    repository.SnapshotRepository
	recetas      repository.RecetaRepository
	correcciones repository.CorreccionLoteRepository
	platos       repository.PlatoRepository
	evaluator    *costing.Evaluator
	cache        *CosteoCache
}

func NewCosteoService(
	snapshots repository.SnapshotRepository,
	recetas repository.RecetaRepository,
	correcciones repository.CorreccionLoteRepository,
	platos repository.PlatoRepository,
	evaluator *costing.Evaluator,
	cache *CosteoCache,
) CosteoService {
	return &costeoService{
		snapshots:    snapshots,
		recetas:      recetas,
		correcciones: correcciones,
		platos:       platos,
		evaluator:    evaluator,
		cache:        cache,
	}
}

func (s *costeoService) load(ctx context.Context) (*costingView, error) {
	snap, err := s.snapshots.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("cargando snapshot: %w", err)
	}
	return buildView(snap)
}

func (s *costeoService) CostearReceta(ctx context.Context, id uuid.UUID) (*dto.CosteoRecetaResponse, error) {
	v, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	r, ok := v.byID[id]
	if !ok || !r.Active {
		return nil, noEncontrado("receta", id)
	}
	res, err := s.evaluator.Evaluate(r, v.ledger)
	if err != nil {
		return nil, err
	}
	out := resultToResponse(r, res, v.nombres[r.IngredientID])
	return &out, nil
}

func (s *costeoService) CostearPlato(ctx context.Context, platoID uuid.UUID, varianteID *uuid.UUID) (*dto.CosteoPlatoResponse, error) {
	plato, err := s.platos.FindByID(ctx, platoID)
	if err != nil {
		return nil, lookupErr(err, "plato", platoID)
	}
	v, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	dish, err := s.evaluator.EvaluateDish(platoID, varianteID, v.recipes, v.ledger)
	if err != nil {
		return nil, err
	}

	out := &dto.CosteoPlatoResponse{
		PlatoID:          platoID.String(),
		Nombre:           plato.Nombre,
		VarianteID:       idPtrString(varianteID),
		Lineas:           make([]dto.CosteoRecetaResponse, 0, len(dish.Lines)),
		UnidadesPosibles: dish.ProducibleUnits,
		CostoTotal:       dish.TotalCost,
		PrecioSugerido:   dish.SuggestedPrice,
		Ganancia:         dish.Profit,
		Margen:           dish.Margin,
		MargenObjetivo:   s.evaluator.Policy().Margin,
	}
	for _, line := range dish.Lines {
		out.Lineas = append(out.Lineas, resultToResponse(v.byID[line.RecipeID], line, v.nombres[line.IngredientID]))
	}
	return out, nil
}

func (s *costeoService) ListarCosteos(ctx context.Context) (*dto.CosteoListResponse, error) {
	var cached dto.CosteoListResponse
	if s.cache.Get(ctx, CacheKeyCosteos, &cached) {
		return &cached, nil
	}

	v, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	out := &dto.CosteoListResponse{
		Data:           []dto.CosteoRecetaResponse{},
		Errores:        []dto.CosteoError{},
		MargenObjetivo: s.evaluator.Policy().Margin,
	}
	for _, r := range v.recipes {
		if !r.Active {
			continue
		}
		res, err := s.evaluator.Evaluate(r, v.ledger)
		if err != nil {
			var cfgErr *costing.ConfigurationError
			if !errors.As(err, &cfgErr) {
				return nil, err
			}
			out.Errores = append(out.Errores, dto.CosteoError{RecetaID: r.ID.String(), Detalle: cfgErr.Error()})
			continue
		}
		out.Data = append(out.Data, resultToResponse(r, res, v.nombres[r.IngredientID]))
	}
	out.Total = len(out.Data)

	s.cache.Set(ctx, CacheKeyCosteos, out)
	return out, nil
}

func (s *costeoService) plan(ctx context.Context) ([]costing.Correction, int, error) {
	v, err := s.load(ctx)
	if err != nil {
		return nil, 0, err
	}
	revisadas := 0
	for _, r := range v.recipes {
		if r.Active && r.Pinned() {
			revisadas++
		}
	}
	return costing.Reconcile(v.recipes, v.ledger), revisadas, nil
}

func (s *costeoService) PlanificarReconciliacion(ctx context.Context) (*dto.ReconciliacionResponse, error) {
	corrections, revisadas, err := s.plan(ctx)
	if err != nil {
		return nil, err
	}
	out := &dto.ReconciliacionResponse{Revisadas: revisadas, Correcciones: []dto.CorreccionResultado{}}
	for _, c := range corrections {
		out.Correcciones = append(out.Correcciones, correccionResultado(c, dto.CorreccionPlanificada))
	}
	return out, nil
}

// Reconciliar plans and applies corrections. Each correction is written in
// its own transaction guarded by a compare-and-set on the previous pin, so a
// pin moved by a concurrent pass is skipped instead of overwritten.
func (s *costeoService) Reconciliar(ctx context.Context) (*dto.ReconciliacionResponse, error) {
	corrections, revisadas, err := s.plan(ctx)
	if err != nil {
		return nil, err
	}
	out := &dto.ReconciliacionResponse{Aplicado: true, Revisadas: revisadas, Correcciones: []dto.CorreccionResultado{}}
	for _, c := range corrections {
		estado, err := s.apply(ctx, c)
		item := correccionResultado(c, estado)
		if err != nil {
			item.Error = err.Error()
			log.Error().Err(err).Str("receta_id", c.RecipeID.String()).Msg("reconciliacion: correccion fallida")
		}
		out.Correcciones = append(out.Correcciones, item)
	}
	if out.Aplicadas() > 0 {
		s.cache.Invalidar(ctx, CacheKeyCosteos)
	}
	return out, nil
}

func (s *costeoService) apply(ctx context.Context, c costing.Correction) (string, error) {
	estado := dto.CorreccionAplicada
	prev := c.PreviousLotID
	err := runTx(ctx, s.recetas.DB(), func(tx *gorm.DB) error {
		ok, err := s.recetas.UpdateLoteAsignadoTx(tx, c.RecipeID, &prev, c.NewLotID)
		if err != nil {
			return err
		}
		if !ok {
			estado = dto.CorreccionOmitida
			return nil
		}
		return s.correcciones.CreateTx(tx, &model.CorreccionLote{
			RecetaID:       c.RecipeID,
			LoteAnteriorID: &prev,
			LoteNuevoID:    c.NewLotID,
			Motivo:         c.Reason,
		})
	})
	if err != nil {
		return dto.CorreccionFallida, err
	}
	return estado, nil
}

func correccionResultado(c costing.Correction, estado string) dto.CorreccionResultado {
	return dto.CorreccionResultado{
		RecetaID:       c.RecipeID.String(),
		LoteAnteriorID: c.PreviousLotID.String(),
		LoteNuevoID:    idPtrString(c.NewLotID),
		Motivo:         c.Reason,
		Estado:         estado,
	}
}
