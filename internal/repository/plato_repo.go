package repository

import (
	"context"

	"comandas/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PlatoRepository interface {
	Create(ctx context.Context, p *model.Plato) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Plato, error)
	List(ctx context.Context) ([]model.Plato, error)
}

type platoRepo struct{ db *gorm.DB }

func NewPlatoRepository(db *gorm.DB) PlatoRepository { return &platoRepo{db: db} }

func (r *platoRepo) Create(ctx context.Context, p *model.Plato) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *platoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Plato, error) {
	var p model.Plato
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	return &p, err
}

func (r *platoRepo) List(ctx context.Context) ([]model.Plato, error) {
	var out []model.Plato
	err := r.db.WithContext(ctx).Where("activo = ?", true).Order("categoria ASC, nombre ASC").Find(&out).Error
	return out, err
}
