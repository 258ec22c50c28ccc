package repository

import (
	"context"
	"database/sql"

	"comandas/internal/model"

	"gorm.io/gorm"
)

// Snapshot is a consistent view of everything the costing engine reads.
type Snapshot struct {
	Ingredientes []model.Ingrediente
	Lotes        []model.Lote
	Recetas      []model.Receta
}

// SnapshotRepository loads a Snapshot inside a single read-only transaction so
// lots and recipes are never observed mid-update.
type SnapshotRepository interface {
	Load(ctx context.Context) (*Snapshot, error)
}

type snapshotRepo struct{ db *gorm.DB }

func NewSnapshotRepository(db *gorm.DB) SnapshotRepository { return &snapshotRepo{db: db} }

func (r *snapshotRepo) Load(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Order("created_at ASC").Find(&snap.Ingredientes).Error; err != nil {
			return err
		}
		// created_at then id: the engine breaks expiry ties by input order.
		if err := tx.Order("created_at ASC, id ASC").Find(&snap.Lotes).Error; err != nil {
			return err
		}
		return tx.Order("created_at ASC, id ASC").Find(&snap.Recetas).Error
	}, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, err
	}
	return snap, nil
}
