package repository

import (
	"context"

	"comandas/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CorreccionLoteRepository interface {
	CreateTx(tx *gorm.DB, c *model.CorreccionLote) error
	ListByReceta(ctx context.Context, recetaID uuid.UUID, page, limit int) ([]model.CorreccionLote, int64, error)
}

type correccionLoteRepo struct{ db *gorm.DB }

func NewCorreccionLoteRepository(db *gorm.DB) CorreccionLoteRepository {
	return &correccionLoteRepo{db: db}
}

func (r *correccionLoteRepo) CreateTx(tx *gorm.DB, c *model.CorreccionLote) error {
	return tx.Create(c).Error
}

// ListByReceta returns paginated pin changes for one recipe, newest first.
func (r *correccionLoteRepo) ListByReceta(
	ctx context.Context,
	recetaID uuid.UUID,
	page, limit int,
) ([]model.CorreccionLote, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}

	var total int64
	if err := r.db.WithContext(ctx).
		Model(&model.CorreccionLote{}).
		Where("receta_id = ?", recetaID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []model.CorreccionLote
	offset := (page - 1) * limit
	if err := r.db.WithContext(ctx).
		Where("receta_id = ?", recetaID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
