package repository

import (
	"context"

	"comandas/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MovimientoLoteFilter defines filters for listing lot movements.
type MovimientoLoteFilter struct {
	LoteID        *uuid.UUID
	IngredienteID *uuid.UUID
	Tipo          string
	Page          int
	Limit         int
}

type MovimientoLoteRepository interface {
	CreateTx(tx *gorm.DB, m *model.MovimientoLote) error
	List(ctx context.Context, filter MovimientoLoteFilter) ([]model.MovimientoLote, int64, error)
}

type movimientoLoteRepo struct{ db *gorm.DB }

func NewMovimientoLoteRepository(db *gorm.DB) MovimientoLoteRepository {
	return &movimientoLoteRepo{db: db}
}

func (r *movimientoLoteRepo) CreateTx(tx *gorm.DB, m *model.MovimientoLote) error {
	return tx.Create(m).Error
}

func (r *movimientoLoteRepo) List(ctx context.Context, filter MovimientoLoteFilter) ([]model.MovimientoLote, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.MovimientoLote{})
	if filter.LoteID != nil {
		q = q.Where("lote_id = ?", *filter.LoteID)
	}
	if filter.IngredienteID != nil {
		q = q.Where("ingrediente_id = ?", *filter.IngredienteID)
	}
	if filter.Tipo != "" {
		q = q.Where("tipo = ?", filter.Tipo)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	limit := filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 100
	}
	offset := (page - 1) * limit

	var movimientos []model.MovimientoLote
	err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&movimientos).Error
	return movimientos, total, err
}
