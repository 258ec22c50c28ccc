package repository

import (
	"context"

	"comandas/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type IngredienteRepository interface {
	Create(ctx context.Context, i *model.Ingrediente) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Ingrediente, error)
	List(ctx context.Context) ([]model.Ingrediente, error)
}

type ingredienteRepo struct{ db *gorm.DB }

func NewIngredienteRepository(db *gorm.DB) IngredienteRepository { return &ingredienteRepo{db: db} }

func (r *ingredienteRepo) Create(ctx context.Context, i *model.Ingrediente) error {
	return r.db.WithContext(ctx).Create(i).Error
}

func (r *ingredienteRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Ingrediente, error) {
	var i model.Ingrediente
	err := r.db.WithContext(ctx).First(&i, "id = ?", id).Error
	return &i, err
}

func (r *ingredienteRepo) List(ctx context.Context) ([]model.Ingrediente, error) {
	var out []model.Ingrediente
	err := r.db.WithContext(ctx).Where("activo = true").Order("nombre ASC").Find(&out).Error
	return out, err
}
