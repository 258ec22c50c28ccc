package service

import (
	"context"
	"fmt"
	"time"

	"comandas/internal/costing"
	"comandas/internal/dto"
	"comandas/internal/model"
	"comandas/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RecetaService interface {
	Crear(ctx context.Context, req dto.CrearRecetaRequest) (*dto.RecetaResponse, error)
	// AsignarLote pins the recipe to req.LoteID, or clears the pin when it is nil.
	AsignarLote(ctx context.Context, id uuid.UUID, req dto.AsignarLoteRequest) (*dto.RecetaResponse, error)
	Desactivar(ctx context.Context, id uuid.UUID) error
	ListarCorrecciones(ctx context.Context, id uuid.UUID, page, limit int) (*dto.CorreccionLoteListResponse, error)
}

type recetaService struct {
	recetas      repository.RecetaRepository
	ingredientes repository.IngredienteRepository
	platos       repository.PlatoRepository
	lotes        repository.LoteRepository
	correcciones repository.CorreccionLoteRepository
	cache        *CosteoCache
}

func NewRecetaService(
	recetas repository.RecetaRepository,
	ingredientes repository.IngredienteRepository,
	platos repository.PlatoRepository,
	lotes repository.LoteRepository,
	correcciones repository.CorreccionLoteRepository,
	cache *CosteoCache,
) RecetaService {
	return &recetaService{
		recetas:      recetas,
		ingredientes: ingredientes,
		platos:       platos,
		lotes:        lotes,
		correcciones: correcciones,
		cache:        cache,
	}
}

func (s *recetaService) Crear(ctx context.Context, req dto.CrearRecetaRequest) (*dto.RecetaResponse, error) {
	platoID, err := parseID("plato_id", req.PlatoID)
	if err != nil {
		return nil, err
	}
	ingredienteID, err := parseID("ingrediente_id", req.IngredienteID)
	if err != nil {
		return nil, err
	}
	varianteID, err := parseOptionalID("variante_id", req.VarianteID)
	if err != nil {
		return nil, err
	}
	loteID, err := parseOptionalID("lote_asignado_id", req.LoteAsignadoID)
	if err != nil {
		return nil, err
	}

	// Same invariants the evaluator enforces on stored rows.
	id := uuid.New()
	if _, err := costing.NewRecipe(id, platoID, ingredienteID, req.CantidadPorUnidad); err != nil {
		return nil, err
	}
	if motivo := fueraDeColumna(req.CantidadPorUnidad, escalaReceta); motivo != "" {
		return nil, &costing.ConfigurationError{RecipeID: id, Field: "cantidad_por_unidad", Reason: motivo}
	}
	if _, err := s.platos.FindByID(ctx, platoID); err != nil {
		return nil, lookupErr(err, "plato", platoID)
	}
	if _, err := s.ingredientes.FindByID(ctx, ingredienteID); err != nil {
		return nil, lookupErr(err, "ingrediente", ingredienteID)
	}
	if loteID != nil {
		if err := s.validarLote(ctx, *loteID, ingredienteID); err != nil {
			return nil, err
		}
	}

	rec := &model.Receta{
		ID:                id,
		PlatoID:           platoID,
		VarianteID:        varianteID,
		IngredienteID:     ingredienteID,
		CantidadPorUnidad: req.CantidadPorUnidad,
		LoteAsignadoID:    loteID,
		Activo:            true,
	}
	if err := s.recetas.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("creando receta: %w", err)
	}
	s.cache.Invalidar(ctx, CacheKeyCosteos)

	resp := recetaToResponse(*rec)
	return &resp, nil
}

// validarLote accepts only lots of the given ingredient with stock left.
func (s *recetaService) validarLote(ctx context.Context, loteID, ingredienteID uuid.UUID) error {
	lote, err := s.lotes.FindByID(ctx, loteID)
	if err != nil {
		return lookupErr(err, "lote", loteID)
	}
	if lote.IngredienteID != ingredienteID {
		return fmt.Errorf("el lote %s no pertenece al ingrediente %s: %w", loteID, ingredienteID, ErrLoteInvalido)
	}
	if !lote.CantidadRestante.IsPositive() {
		return fmt.Errorf("el lote %s esta agotado: %w", loteID, ErrLoteInvalido)
	}
	return nil
}

func (s *recetaService) AsignarLote(ctx context.Context, id uuid.UUID, req dto.AsignarLoteRequest) (*dto.RecetaResponse, error) {
	nuevo, err := parseOptionalID("lote_id", req.LoteID)
	if err != nil {
		return nil, err
	}
	rec, err := s.recetas.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "receta", id)
	}
	if !rec.Activo {
		return nil, noEncontrado("receta", id)
	}
	if sameLote(rec.LoteAsignadoID, nuevo) {
		resp := recetaToResponse(*rec)
		return &resp, nil
	}
	if nuevo != nil {
		if err := s.validarLote(ctx, *nuevo, rec.IngredienteID); err != nil {
			return nil, err
		}
	}

	anterior := rec.LoteAsignadoID
	txErr := runTx(ctx, s.recetas.DB(), func(tx *gorm.DB) error {
		ok, err := s.recetas.UpdateLoteAsignadoTx(tx, id, anterior, nuevo)
		if err != nil {
			return err
		}
		if !ok {
			return ErrConflicto
		}
		return s.correcciones.CreateTx(tx, &model.CorreccionLote{
			RecetaID:       id,
			LoteAnteriorID: anterior,
			LoteNuevoID:    nuevo,
			Motivo:         model.MotivoManual,
		})
	})
	if txErr != nil {
		return nil, txErr
	}
	s.cache.Invalidar(ctx, CacheKeyCosteos)

	rec.LoteAsignadoID = nuevo
	resp := recetaToResponse(*rec)
	return &resp, nil
}

func sameLote(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (s *recetaService) Desactivar(ctx context.Context, id uuid.UUID) error {
	if err := s.recetas.Desactivar(ctx, id); err != nil {
		return lookupErr(err, "receta", id)
	}
	s.cache.Invalidar(ctx, CacheKeyCosteos)
	return nil
}

func (s *recetaService) ListarCorrecciones(ctx context.Context, id uuid.UUID, page, limit int) (*dto.CorreccionLoteListResponse, error) {
	if _, err := s.recetas.FindByID(ctx, id); err != nil {
		return nil, lookupErr(err, "receta", id)
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}
	rows, total, err := s.correcciones.ListByReceta(ctx, id, page, limit)
	if err != nil {
		return nil, err
	}
	out := &dto.CorreccionLoteListResponse{
		Data:  make([]dto.CorreccionLoteItem, 0, len(rows)),
		Total: total,
		Page:  page,
		Limit: limit,
	}
	for _, c := range rows {
		out.Data = append(out.Data, dto.CorreccionLoteItem{
			ID:             c.ID.String(),
			RecetaID:       c.RecetaID.String(),
			LoteAnteriorID: idPtrString(c.LoteAnteriorID),
			LoteNuevoID:    idPtrString(c.LoteNuevoID),
			Motivo:         c.Motivo,
			CreatedAt:      c.CreatedAt.Format(time.RFC3339),
		})
	}
	return out, nil
}
