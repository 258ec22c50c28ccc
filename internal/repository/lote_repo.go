package repository

import (
	"context"

	"comandas/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LoteRepository defines data access for ingredient lots.
// Lots are never deleted: exhausted ones stay with cantidad_restante = 0.
type LoteRepository interface {
	// CreateBatchTx inserts all lots inside the caller's transaction.
	CreateBatchTx(tx *gorm.DB, lotes []model.Lote) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Lote, error)
	// FindByIDForUpdateTx reads the lot with a row lock held until tx ends.
	FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Lote, error)
	ListByIngrediente(ctx context.Context, ingredienteID uuid.UUID) ([]model.Lote, error)
	// UpdateRestanteTx sets cantidad_restante, refusing values above
	// cantidad_inicial (reported as gorm.ErrRecordNotFound).
	UpdateRestanteTx(tx *gorm.DB, id uuid.UUID, cantidad decimal.Decimal) error
	DB() *gorm.DB
}

type loteRepo struct{ db *gorm.DB }

func NewLoteRepository(db *gorm.DB) LoteRepository { return &loteRepo{db: db} }

func (r *loteRepo) CreateBatchTx(tx *gorm.DB, lotes []model.Lote) error {
	if len(lotes) == 0 {
		return nil
	}
	return tx.CreateInBatches(&lotes, 100).Error
}

func (r *loteRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Lote, error) {
	var l model.Lote
	err := r.db.WithContext(ctx).First(&l, "id = ?", id).Error
	return &l, err
}

func (r *loteRepo) FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Lote, error) {
	var l model.Lote
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&l, "id = ?", id).Error
	return &l, err
}

// ListByIngrediente returns every lot of the ingredient in creation order;
// FIFO ordering is the costing engine's job, not the query's.
func (r *loteRepo) ListByIngrediente(ctx context.Context, ingredienteID uuid.UUID) ([]model.Lote, error) {
	var lotes []model.Lote
	err := r.db.WithContext(ctx).
		Where("ingrediente_id = ?", ingredienteID).
		Order("created_at ASC, id ASC").
		Find(&lotes).Error
	return lotes, err
}

func (r *loteRepo) UpdateRestanteTx(tx *gorm.DB, id uuid.UUID, cantidad decimal.Decimal) error {
	res := tx.Model(&model.Lote{}).
		Where("id = ? AND cantidad_inicial >= ?", id, cantidad).
		Update("cantidad_restante", cantidad)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *loteRepo) DB() *gorm.DB { return r.db }
