package service_test

import (
	"context"
	"sort"
	"time"

	"comandas/internal/model"
	"comandas/internal/repository"
	"comandas/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── Stubs ─────────────────────────────────────────────────────────────────────

// store is a shared in-memory database for every stub repository.
type store struct {
	ingredientes map[uuid.UUID]*model.Ingrediente
	platos       map[uuid.UUID]*model.Plato
	lotes        map[uuid.UUID]*model.Lote
	recetas      map[uuid.UUID]*model.Receta
	correcciones []model.CorreccionLote
	movimientos  []model.MovimientoLote
	// order keeps insertion order so snapshots are deterministic.
	loteOrder   []uuid.UUID
	recetaOrder []uuid.UUID
	clock       time.Time
}

func newStore() *store {
	return &store{
		ingredientes: make(map[uuid.UUID]*model.Ingrediente),
		platos:       make(map[uuid.UUID]*model.Plato),
		lotes:        make(map[uuid.UUID]*model.Lote),
		recetas:      make(map[uuid.UUID]*model.Receta),
		clock:        time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (s *store) tick() time.Time {
	s.clock = s.clock.Add(time.Minute)
	return s.clock
}

func (s *store) seedIngrediente(nombre string) *model.Ingrediente {
	i := &model.Ingrediente{ID: uuid.New(), Nombre: nombre, UnidadMedida: "kg", Activo: true, CreatedAt: s.tick()}
	s.ingredientes[i.ID] = i
	return i
}

func (s *store) seedPlato(nombre string) *model.Plato {
	p := &model.Plato{ID: uuid.New(), Nombre: nombre, Categoria: "general", Activo: true, CreatedAt: s.tick()}
	s.platos[p.ID] = p
	return p
}

func (s *store) seedLote(ingredienteID uuid.UUID, restante, costo string, vence string) *model.Lote {
	l := &model.Lote{
		ID:               uuid.New(),
		IngredienteID:    ingredienteID,
		CantidadInicial:  decimal.RequireFromString("100"),
		CantidadRestante: decimal.RequireFromString(restante),
		CostoUnitario:    decimal.RequireFromString(costo),
		Origen:           "manual",
		CreatedAt:        s.tick(),
	}
	if vence != "" {
		t, _ := time.Parse("2006-01-02", vence)
		l.FechaVencimiento = &t
	}
	s.lotes[l.ID] = l
	s.loteOrder = append(s.loteOrder, l.ID)
	return l
}

func (s *store) seedReceta(platoID, ingredienteID uuid.UUID, cantidad string, pin *uuid.UUID) *model.Receta {
	r := &model.Receta{
		ID:                uuid.New(),
		PlatoID:           platoID,
		IngredienteID:     ingredienteID,
		CantidadPorUnidad: decimal.RequireFromString(cantidad),
		LoteAsignadoID:    pin,
		Activo:            true,
		CreatedAt:         s.tick(),
	}
	s.recetas[r.ID] = r
	s.recetaOrder = append(s.recetaOrder, r.ID)
	return r
}

// sortLotes applies the repositories' ORDER BY created_at ASC, id ASC.
func sortLotes(lotes []model.Lote) {
	sort.SliceStable(lotes, func(i, j int) bool {
		if !lotes[i].CreatedAt.Equal(lotes[j].CreatedAt) {
			return lotes[i].CreatedAt.Before(lotes[j].CreatedAt)
		}
		return lotes[i].ID.String() < lotes[j].ID.String()
	})
}

// stubSnapshotRepo copies the store, like a read transaction would.
type stubSnapshotRepo struct {
	s     *store
	loads int
}

func (r *stubSnapshotRepo) Load(_ context.Context) (*repository.Snapshot, error) {
	r.loads++
	snap := &repository.Snapshot{}
	for _, i := range r.s.ingredientes {
		snap.Ingredientes = append(snap.Ingredientes, *i)
	}
	for _, id := range r.s.loteOrder {
		snap.Lotes = append(snap.Lotes, *r.s.lotes[id])
	}
	sortLotes(snap.Lotes)
	for _, id := range r.s.recetaOrder {
		snap.Recetas = append(snap.Recetas, *r.s.recetas[id])
	}
	return snap, nil
}

var _ repository.SnapshotRepository = (*stubSnapshotRepo)(nil)

type stubIngredienteRepo struct{ s *store }

func (r *stubIngredienteRepo) Create(_ context.Context, i *model.Ingrediente) error {
	r.s.ingredientes[i.ID] = i
	return nil
}
func (r *stubIngredienteRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Ingrediente, error) {
	i, ok := r.s.ingredientes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return i, nil
}
func (r *stubIngredienteRepo) List(_ context.Context) ([]model.Ingrediente, error) {
	var out []model.Ingrediente
	for _, i := range r.s.ingredientes {
		out = append(out, *i)
	}
	return out, nil
}

var _ repository.IngredienteRepository = (*stubIngredienteRepo)(nil)

type stubPlatoRepo struct{ s *store }

func (r *stubPlatoRepo) Create(_ context.Context, p *model.Plato) error {
	r.s.platos[p.ID] = p
	return nil
}
func (r *stubPlatoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Plato, error) {
	p, ok := r.s.platos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *stubPlatoRepo) List(_ context.Context) ([]model.Plato, error) {
	var out []model.Plato
	for _, p := range r.s.platos {
		if p.Activo {
			out = append(out, *p)
		}
	}
	return out, nil
}

var _ repository.PlatoRepository = (*stubPlatoRepo)(nil)

type stubLoteRepo struct {
	s       *store
	batches int
	// afterRead runs after an unlocked FindByID, to simulate a concurrent
	// writer committing between that read and a later write.
	afterRead func(id uuid.UUID)
	// restanteAlEscribir is the stored quantity each UpdateRestanteTx replaced.
	restanteAlEscribir []decimal.Decimal
}

// CreateBatchTx stamps lots without CreatedAt with one shared time, as GORM
// does for a batch insert.
func (r *stubLoteRepo) CreateBatchTx(_ *gorm.DB, lotes []model.Lote) error {
	r.batches++
	now := r.s.tick()
	for i := range lotes {
		if lotes[i].CreatedAt.IsZero() {
			lotes[i].CreatedAt = now
		}
		l := lotes[i]
		r.s.lotes[l.ID] = &l
		r.s.loteOrder = append(r.s.loteOrder, l.ID)
	}
	return nil
}
func (r *stubLoteRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Lote, error) {
	l, ok := r.s.lotes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *l
	if r.afterRead != nil {
		r.afterRead(id)
	}
	return &cp, nil
}
func (r *stubLoteRepo) FindByIDForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.Lote, error) {
	l, ok := r.s.lotes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *l
	return &cp, nil
}
func (r *stubLoteRepo) ListByIngrediente(_ context.Context, ingredienteID uuid.UUID) ([]model.Lote, error) {
	var out []model.Lote
	for _, id := range r.s.loteOrder {
		if l := r.s.lotes[id]; l.IngredienteID == ingredienteID {
			out = append(out, *l)
		}
	}
	sortLotes(out)
	return out, nil
}
func (r *stubLoteRepo) UpdateRestanteTx(_ *gorm.DB, id uuid.UUID, cantidad decimal.Decimal) error {
	l, ok := r.s.lotes[id]
	if !ok || l.CantidadInicial.LessThan(cantidad) {
		return gorm.ErrRecordNotFound
	}
	r.restanteAlEscribir = append(r.restanteAlEscribir, l.CantidadRestante)
	l.CantidadRestante = cantidad
	return nil
}
func (r *stubLoteRepo) DB() *gorm.DB { return nil }

var _ repository.LoteRepository = (*stubLoteRepo)(nil)

type stubRecetaRepo struct {
	s *store
	// beforeCAS runs right before a compare-and-set, to simulate a
	// concurrent writer.
	beforeCAS func(id uuid.UUID)
}

func (r *stubRecetaRepo) Create(_ context.Context, rec *model.Receta) error {
	rec.CreatedAt = r.s.tick()
	r.s.recetas[rec.ID] = rec
	r.s.recetaOrder = append(r.s.recetaOrder, rec.ID)
	return nil
}
func (r *stubRecetaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Receta, error) {
	rec, ok := r.s.recetas[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *rec
	return &cp, nil
}
func (r *stubRecetaRepo) ListByPlato(_ context.Context, platoID uuid.UUID) ([]model.Receta, error) {
	var out []model.Receta
	for _, id := range r.s.recetaOrder {
		if rec := r.s.recetas[id]; rec.PlatoID == platoID && rec.Activo {
			out = append(out, *rec)
		}
	}
	return out, nil
}
func (r *stubRecetaRepo) Desactivar(_ context.Context, id uuid.UUID) error {
	rec, ok := r.s.recetas[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	rec.Activo = false
	return nil
}
func (r *stubRecetaRepo) UpdateLoteAsignadoTx(_ *gorm.DB, id uuid.UUID, expected, nuevo *uuid.UUID) (bool, error) {
	if r.beforeCAS != nil {
		r.beforeCAS(id)
	}
	rec, ok := r.s.recetas[id]
	if !ok {
		return false, nil
	}
	cur := rec.LoteAsignadoID
	if (cur == nil) != (expected == nil) || (cur != nil && *cur != *expected) {
		return false, nil
	}
	if nuevo == nil {
		rec.LoteAsignadoID = nil
	} else {
		v := *nuevo
		rec.LoteAsignadoID = &v
	}
	return true, nil
}
func (r *stubRecetaRepo) DB() *gorm.DB { return nil }

var _ repository.RecetaRepository = (*stubRecetaRepo)(nil)

type stubCorreccionRepo struct{ s *store }

func (r *stubCorreccionRepo) CreateTx(_ *gorm.DB, c *model.CorreccionLote) error {
	c.ID = uuid.New()
	c.CreatedAt = r.s.tick()
	r.s.correcciones = append(r.s.correcciones, *c)
	return nil
}
func (r *stubCorreccionRepo) ListByReceta(_ context.Context, recetaID uuid.UUID, _, _ int) ([]model.CorreccionLote, int64, error) {
	var out []model.CorreccionLote
	for i := len(r.s.correcciones) - 1; i >= 0; i-- {
		if c := r.s.correcciones[i]; c.RecetaID == recetaID {
			out = append(out, c)
		}
	}
	return out, int64(len(out)), nil
}

var _ repository.CorreccionLoteRepository = (*stubCorreccionRepo)(nil)

type stubMovimientoRepo struct {
	s   *store
	err error
}

func (r *stubMovimientoRepo) CreateTx(_ *gorm.DB, m *model.MovimientoLote) error {
	if r.err != nil {
		return r.err
	}
	m.CreatedAt = r.s.tick()
	r.s.movimientos = append(r.s.movimientos, *m)
	return nil
}
func (r *stubMovimientoRepo) List(_ context.Context, f repository.MovimientoLoteFilter) ([]model.MovimientoLote, int64, error) {
	var out []model.MovimientoLote
	for i := len(r.s.movimientos) - 1; i >= 0; i-- {
		if m := r.s.movimientos[i]; f.LoteID == nil || m.LoteID == *f.LoteID {
			out = append(out, m)
		}
	}
	return out, int64(len(out)), nil
}

var _ repository.MovimientoLoteRepository = (*stubMovimientoRepo)(nil)

// stubQueue records enqueue requests.
type stubQueue struct {
	payloads []worker.ReconciliacionPayload
	err      error
}

func (q *stubQueue) EnqueueReconciliacion(_ context.Context, p worker.ReconciliacionPayload) error {
	q.payloads = append(q.payloads, p)
	return q.err
}

func uuidPtr(id uuid.UUID) *uuid.UUID { return &id }

func strPtr(s string) *string { return &s }
