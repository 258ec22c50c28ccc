package repository

import (
	"context"

	"comandas/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RecetaRepository defines data access for recipe lines.
type RecetaRepository interface {
	Create(ctx context.Context, r *model.Receta) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Receta, error)
	ListByPlato(ctx context.Context, platoID uuid.UUID) ([]model.Receta, error)
	Desactivar(ctx context.Context, id uuid.UUID) error

	// UpdateLoteAsignadoTx moves the pin from expected to nuevo (nil = NULL).
	// It is a compare-and-set: if the stored pin no longer equals expected the
	// row is left untouched and false is returned.
	UpdateLoteAsignadoTx(tx *gorm.DB, id uuid.UUID, expected, nuevo *uuid.UUID) (bool, error)

	DB() *gorm.DB
}

type recetaRepo struct{ db *gorm.DB }

func NewRecetaRepository(db *gorm.DB) RecetaRepository { return &recetaRepo{db: db} }

func (r *recetaRepo) Create(ctx context.Context, rec *model.Receta) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *recetaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Receta, error) {
	var rec model.Receta
	err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	return &rec, err
}

func (r *recetaRepo) ListByPlato(ctx context.Context, platoID uuid.UUID) ([]model.Receta, error) {
	var out []model.Receta
	err := r.db.WithContext(ctx).
		Where("plato_id = ? AND activo = true", platoID).
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}

func (r *recetaRepo) Desactivar(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&model.Receta{}).Where("id = ?", id).Update("activo", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *recetaRepo) UpdateLoteAsignadoTx(tx *gorm.DB, id uuid.UUID, expected, nuevo *uuid.UUID) (bool, error) {
	q := tx.Model(&model.Receta{}).Where("id = ?", id)
	if expected == nil {
		q = q.Where("lote_asignado_id IS NULL")
	} else {
		q = q.Where("lote_asignado_id = ?", *expected)
	}

	var value interface{} = gorm.Expr("NULL")
	if nuevo != nil {
		value = *nuevo
	}
	res := q.Update("lote_asignado_id", value)
	return res.RowsAffected == 1, res.Error
}

func (r *recetaRepo) DB() *gorm.DB { return r.db }
