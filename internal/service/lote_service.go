package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"comandas/internal/costing"
	"comandas/internal/dto"
	"comandas/internal/model"
	"comandas/internal/repository"
	"comandas/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// Lot origins.
const (
	OrigenManual = "manual"
	OrigenXLSX   = "xlsx_import"
)

// ReconciliacionQueue is the part of worker.Dispatcher the lot service needs.
type ReconciliacionQueue interface {
	EnqueueReconciliacion(ctx context.Context, p worker.ReconciliacionPayload) error
}

type LoteService interface {
	Registrar(ctx context.Context, req dto.RegistrarLoteRequest) (*dto.LoteResponse, error)
	// ListarPorIngrediente returns FIFO candidates in consumption order,
	// followed by exhausted lots.
	ListarPorIngrediente(ctx context.Context, ingredienteID uuid.UUID) (*dto.LotesIngredienteResponse, error)
	AjustarRestante(ctx context.Context, id uuid.UUID, req dto.AjustarRestanteRequest) (*dto.LoteResponse, error)
	// ImportarXLSX inserts every row of the first sheet in one transaction.
	// Any invalid row aborts the whole import.
	ImportarXLSX(ctx context.Context, r io.Reader) (*dto.ImportarLotesResponse, error)
	ListarMovimientos(ctx context.Context, loteID uuid.UUID, page, limit int) (*dto.MovimientoLoteListResponse, error)
}

type loteService struct {
	lotes        repository.LoteRepository
	movimientos  repository.MovimientoLoteRepository
	ingredientes repository.IngredienteRepository
	queue        ReconciliacionQueue
	cache        *CosteoCache
}

func NewLoteService(
	lotes repository.LoteRepository,
	movimientos repository.MovimientoLoteRepository,
	ingredientes repository.IngredienteRepository,
	queue ReconciliacionQueue,
	cache *CosteoCache,
) LoteService {
	return &loteService{lotes: lotes, movimientos: movimientos, ingredientes: ingredientes, queue: queue, cache: cache}
}

func (s *loteService) Registrar(ctx context.Context, req dto.RegistrarLoteRequest) (*dto.LoteResponse, error) {
	ingredienteID, err := parseID("ingrediente_id", req.IngredienteID)
	if err != nil {
		return nil, err
	}
	vence, err := parseFecha(req.FechaVencimiento)
	if err != nil {
		return nil, err
	}
	if !req.Cantidad.IsPositive() {
		return nil, fmt.Errorf("cantidad debe ser mayor a cero: %w", ErrEntradaInvalida)
	}
	if req.CostoUnitario.IsNegative() {
		return nil, fmt.Errorf("costo_unitario no puede ser negativo: %w", ErrEntradaInvalida)
	}
	if err := checkColumna("cantidad", req.Cantidad, escalaCantidad); err != nil {
		return nil, err
	}
	if err := checkColumna("costo_unitario", req.CostoUnitario, escalaCosto); err != nil {
		return nil, err
	}
	if _, err := s.ingredientes.FindByID(ctx, ingredienteID); err != nil {
		return nil, lookupErr(err, "ingrediente", ingredienteID)
	}

	lotes := []model.Lote{{
		ID:               uuid.New(),
		IngredienteID:    ingredienteID,
		CantidadInicial:  req.Cantidad,
		CantidadRestante: req.Cantidad,
		CostoUnitario:    req.CostoUnitario,
		FechaVencimiento: vence,
		Origen:           OrigenManual,
	}}
	if err := s.crearLotes(ctx, lotes, model.MovimientoAlta); err != nil {
		return nil, fmt.Errorf("registrando lote: %w", err)
	}
	s.cache.Invalidar(ctx, CacheKeyCosteos)

	resp := loteToResponse(lotes[0], 0)
	return &resp, nil
}

// crearLotes inserts the lots and one opening movement per lot atomically.
// Each lot gets its own created_at, one microsecond apart in slice order:
// GORM would stamp the whole batch with a single time, and FIFO ties between
// equal expiries are broken by created_at.
func (s *loteService) crearLotes(ctx context.Context, lotes []model.Lote, tipo string) error {
	base := time.Now().UTC().Truncate(time.Microsecond)
	for i := range lotes {
		lotes[i].CreatedAt = base.Add(time.Duration(i) * time.Microsecond)
	}
	return runTx(ctx, s.lotes.DB(), func(tx *gorm.DB) error {
		if err := s.lotes.CreateBatchTx(tx, lotes); err != nil {
			return err
		}
		for _, l := range lotes {
			m := &model.MovimientoLote{
				ID:               uuid.New(),
				LoteID:           l.ID,
				IngredienteID:    l.IngredienteID,
				Tipo:             tipo,
				CantidadAnterior: decimal.Zero,
				CantidadNueva:    l.CantidadRestante,
				Motivo:           l.Origen,
			}
			if err := s.movimientos.CreateTx(tx, m); err != nil {
				return err
			}
		}
		return nil
	})
}

func parseFecha(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	t, err := time.Parse(fechaLayout, strings.TrimSpace(*raw))
	if err != nil {
		return nil, fmt.Errorf("fecha %q: se espera YYYY-MM-DD: %w", *raw, ErrEntradaInvalida)
	}
	return &t, nil
}

func (s *loteService) ListarPorIngrediente(ctx context.Context, ingredienteID uuid.UUID) (*dto.LotesIngredienteResponse, error) {
	if _, err := s.ingredientes.FindByID(ctx, ingredienteID); err != nil {
		return nil, lookupErr(err, "ingrediente", ingredienteID)
	}
	rows, err := s.lotes.ListByIngrediente(ctx, ingredienteID)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]model.Lote, len(rows))
	lots := make([]costing.Lot, 0, len(rows))
	for _, r := range rows {
		byID[r.ID] = r
		lots = append(lots, loteToLot(r))
	}
	ledger, err := costing.NewLedger([]uuid.UUID{ingredienteID}, lots)
	if err != nil {
		return nil, err
	}

	out := &dto.LotesIngredienteResponse{
		IngredienteID: ingredienteID.String(),
		StockTotal:    ledger.TotalStock(ingredienteID),
		Lotes:         make([]dto.LoteResponse, 0, len(rows)),
	}
	for i, c := range ledger.Candidates(ingredienteID) {
		out.Lotes = append(out.Lotes, loteToResponse(byID[c.ID], i+1))
	}
	for _, l := range ledger.Lots(ingredienteID) {
		if !l.Available() {
			out.Lotes = append(out.Lotes, loteToResponse(byID[l.ID], 0))
		}
	}
	return out, nil
}

func (s *loteService) AjustarRestante(ctx context.Context, id uuid.UUID, req dto.AjustarRestanteRequest) (*dto.LoteResponse, error) {
	if req.CantidadRestante.IsNegative() {
		return nil, fmt.Errorf("cantidad_restante no puede ser negativa: %w", ErrEntradaInvalida)
	}
	if err := checkColumna("cantidad_restante", req.CantidadRestante, escalaCantidad); err != nil {
		return nil, err
	}

	// The row is read under FOR UPDATE so cantidad_anterior is the value this
	// write replaces, even with concurrent adjustments.
	var l *model.Lote
	err := runTx(ctx, s.lotes.DB(), func(tx *gorm.DB) error {
		cur, err := s.lotes.FindByIDForUpdateTx(tx, id)
		if err != nil {
			return err
		}
		if req.CantidadRestante.GreaterThan(cur.CantidadInicial) {
			return fmt.Errorf("cantidad_restante %s supera la cantidad inicial %s: %w",
				req.CantidadRestante, cur.CantidadInicial, ErrEntradaInvalida)
		}
		if err := s.lotes.UpdateRestanteTx(tx, id, req.CantidadRestante); err != nil {
			return err
		}
		l = cur
		return s.movimientos.CreateTx(tx, &model.MovimientoLote{
			ID:               uuid.New(),
			LoteID:           id,
			IngredienteID:    cur.IngredienteID,
			Tipo:             model.MovimientoAjuste,
			CantidadAnterior: cur.CantidadRestante,
			CantidadNueva:    req.CantidadRestante,
			Motivo:           req.Motivo,
		})
	})
	if errors.Is(err, ErrEntradaInvalida) {
		return nil, err
	}
	if err != nil {
		return nil, lookupErr(err, "lote", id)
	}
	l.CantidadRestante = req.CantidadRestante
	s.cache.Invalidar(ctx, CacheKeyCosteos)

	log.Info().
		Str("lote_id", id.String()).
		Str("cantidad_restante", req.CantidadRestante.String()).
		Str("motivo", req.Motivo).
		Msg("lote: restante ajustado")

	s.encolarReconciliacion(ctx, "ajuste_lote", id.String())

	resp := loteToResponse(*l, 0)
	return &resp, nil
}

func (s *loteService) ListarMovimientos(ctx context.Context, loteID uuid.UUID, page, limit int) (*dto.MovimientoLoteListResponse, error) {
	if _, err := s.lotes.FindByID(ctx, loteID); err != nil {
		return nil, lookupErr(err, "lote", loteID)
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}
	rows, total, err := s.movimientos.List(ctx, repository.MovimientoLoteFilter{LoteID: &loteID, Page: page, Limit: limit})
	if err != nil {
		return nil, err
	}
	out := &dto.MovimientoLoteListResponse{
		Data:  make([]dto.MovimientoLoteItem, 0, len(rows)),
		Total: total,
		Page:  page,
		Limit: limit,
	}
	for _, m := range rows {
		out.Data = append(out.Data, dto.MovimientoLoteItem{
			ID:               m.ID.String(),
			LoteID:           m.LoteID.String(),
			Tipo:             m.Tipo,
			CantidadAnterior: m.CantidadAnterior,
			CantidadNueva:    m.CantidadNueva,
			Motivo:           m.Motivo,
			CreatedAt:        m.CreatedAt.Format(time.RFC3339),
		})
	}
	return out, nil
}

// encolarReconciliacion is fire-and-forget: the periodic cron repairs any
// pin left stale if the queue is unavailable.
func (s *loteService) encolarReconciliacion(ctx context.Context, motivo, ref string) {
	if s.queue == nil {
		return
	}
	err := s.queue.EnqueueReconciliacion(ctx, worker.ReconciliacionPayload{Motivo: motivo, Referencia: ref})
	switch {
	case err == nil:
	case errors.Is(err, worker.ErrSinCola):
		log.Debug().Str("motivo", motivo).Msg("lote: sin cola, reconciliacion queda para el cron")
	default:
		log.Warn().Err(err).Str("motivo", motivo).Msg("lote: no se pudo encolar reconciliacion")
	}
}

// Column headers accepted by ImportarXLSX.
const (
	colIngrediente = "ingrediente_id"
	colCantidad    = "cantidad"
	colCosto       = "costo_unitario"
	colVencimiento = "vencimiento"
)

// filaLote is one parsed spreadsheet row; fila is the 1-based sheet row.
type filaLote struct {
	fila          int
	ingredienteID uuid.UUID
	cantidad      decimal.Decimal
	costo         decimal.Decimal
	vence         *time.Time
}

func (s *loteService) ImportarXLSX(ctx context.Context, r io.Reader) (*dto.ImportarLotesResponse, error) {
	filas, err := parseLotesXLSX(r)
	if err != nil {
		return nil, err
	}

	known := make(map[uuid.UUID]bool)
	lotes := make([]model.Lote, 0, len(filas))
	for _, f := range filas {
		if _, ok := known[f.ingredienteID]; !ok {
			_, err := s.ingredientes.FindByID(ctx, f.ingredienteID)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
			known[f.ingredienteID] = err == nil
		}
		if !known[f.ingredienteID] {
			return nil, fmt.Errorf("fila %d: ingrediente %s no existe: %w", f.fila, f.ingredienteID, ErrEntradaInvalida)
		}
		lotes = append(lotes, model.Lote{
			ID:               uuid.New(),
			IngredienteID:    f.ingredienteID,
			CantidadInicial:  f.cantidad,
			CantidadRestante: f.cantidad,
			CostoUnitario:    f.costo,
			FechaVencimiento: f.vence,
			Origen:           OrigenXLSX,
		})
	}

	if err := s.crearLotes(ctx, lotes, model.MovimientoImportacion); err != nil {
		return nil, fmt.Errorf("importando lotes: %w", err)
	}
	s.cache.Invalidar(ctx, CacheKeyCosteos)

	out := &dto.ImportarLotesResponse{Importados: len(lotes), Lotes: make([]dto.LoteResponse, 0, len(lotes))}
	for _, l := range lotes {
		out.Lotes = append(out.Lotes, loteToResponse(l, 0))
	}
	log.Info().Int("importados", out.Importados).Msg("lote: importacion xlsx completada")
	return out, nil
}

// parseLotesXLSX reads the first sheet. The first row is the header; column
// order is free and header matching ignores case and surrounding spaces.
func parseLotesXLSX(r io.Reader) ([]filaLote, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("archivo xlsx ilegible: %w", ErrEntradaInvalida)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("el archivo no contiene hojas: %w", ErrEntradaInvalida)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("leyendo hoja %s: %w", sheet, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("el archivo no contiene filas de datos: %w", ErrEntradaInvalida)
	}

	cols := make(map[string]int)
	for i, h := range rows[0] {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{colIngrediente, colCantidad, colCosto} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("falta la columna %q: %w", required, ErrEntradaInvalida)
		}
	}
	cell := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var out []filaLote
	for i, row := range rows[1:] {
		n := i + 2
		if blankRow(row) {
			continue
		}
		fila := filaLote{fila: n}
		if fila.ingredienteID, err = uuid.Parse(cell(row, colIngrediente)); err != nil {
			return nil, fmt.Errorf("fila %d: ingrediente_id invalido: %w", n, ErrEntradaInvalida)
		}
		if fila.cantidad, err = decimal.NewFromString(cell(row, colCantidad)); err != nil || !fila.cantidad.IsPositive() {
			return nil, fmt.Errorf("fila %d: cantidad debe ser un numero mayor a cero: %w", n, ErrEntradaInvalida)
		}
		if fila.costo, err = decimal.NewFromString(cell(row, colCosto)); err != nil || fila.costo.IsNegative() {
			return nil, fmt.Errorf("fila %d: costo_unitario debe ser un numero no negativo: %w", n, ErrEntradaInvalida)
		}
		if err := checkColumna("cantidad", fila.cantidad, escalaCantidad); err != nil {
			return nil, fmt.Errorf("fila %d: %w", n, err)
		}
		if err := checkColumna("costo_unitario", fila.costo, escalaCosto); err != nil {
			return nil, fmt.Errorf("fila %d: %w", n, err)
		}
		if v := cell(row, colVencimiento); v != "" {
			if fila.vence, err = parseFecha(&v); err != nil {
				return nil, fmt.Errorf("fila %d: %w", n, err)
			}
		}
		out = append(out, fila)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("el archivo no contiene filas de datos: %w", ErrEntradaInvalida)
	}
	return out, nil
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
