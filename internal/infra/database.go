package infra

import (
	"fmt"

	"comandas/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx and brings the
// schema up to date (AutoMigrate + idempotent SQL patches).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates / updates all tables and applies the patches GORM
// cannot express. Safe to run on every start.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Ingrediente{},
		&model.Lote{},
		&model.Plato{},
		&model.Receta{},
		&model.CorreccionLote{},
		&model.MovimientoLote{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if err := applySchemaPatches(db); err != nil {
		return fmt.Errorf("schema patches: %w", err)
	}
	return nil
}

// applySchemaPatches runs idempotent DDL: CHECK constraints mirroring the
// costing invariants and a partial index for the FIFO candidate scan.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		{"lotes cantidades no negativas", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_lotes_cantidades') THEN
    ALTER TABLE lotes ADD CONSTRAINT chk_lotes_cantidades
      CHECK (cantidad_restante >= 0 AND cantidad_restante <= cantidad_inicial AND costo_unitario >= 0);
  END IF;
END $$`},
		{"recetas cantidad positiva", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_recetas_cantidad_positiva') THEN
    ALTER TABLE recetas ADD CONSTRAINT chk_recetas_cantidad_positiva
      CHECK (cantidad_por_unidad > 0);
  END IF;
END $$`},
		{"indice parcial de lotes con stock", `
CREATE INDEX IF NOT EXISTS idx_lotes_fifo
    ON lotes (ingrediente_id, fecha_vencimiento NULLS LAST, created_at)
    WHERE cantidad_restante > 0`},
		{"indice de recetas fijadas", `
CREATE INDEX IF NOT EXISTS idx_recetas_fijadas
    ON recetas (lote_asignado_id)
    WHERE lote_asignado_id IS NOT NULL AND activo = true`},
	}
	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
