package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Lote is one acquisition of an ingredient with its own cost and expiry.
// Exhausted lots (CantidadRestante = 0) are kept for history and never deleted.
type Lote struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	IngredienteID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	CantidadInicial  decimal.Decimal `gorm:"type:decimal(12,3);not null"`
	CantidadRestante decimal.Decimal `gorm:"type:decimal(12,3);not null"`
	CostoUnitario    decimal.Decimal `gorm:"type:decimal(12,4);not null"`
	// FechaVencimiento NULL means the lot does not expire (consumed last).
	FechaVencimiento *time.Time `gorm:"type:date;index"`
	Origen           string     `gorm:"not null;default:'manual'"` // manual | xlsx_import
	CreatedAt        time.Time
	UpdatedAt        time.Time

	Ingrediente *Ingrediente `gorm:"foreignKey:IngredienteID"`
}
