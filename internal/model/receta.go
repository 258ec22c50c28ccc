package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Receta links a dish (optionally a variant) to one ingredient requirement.
// LoteAsignadoID is the explicit lot pin; NULL means plain FIFO.
type Receta struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PlatoID           uuid.UUID       `gorm:"type:uuid;not null;index:idx_receta_plato,priority:1"`
	VarianteID        *uuid.UUID      `gorm:"type:uuid;index:idx_receta_plato,priority:2"`
	IngredienteID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	CantidadPorUnidad decimal.Decimal `gorm:"type:decimal(12,4);not null"`
	LoteAsignadoID    *uuid.UUID      `gorm:"type:uuid;index"`
	Activo            bool            `gorm:"not null;default:true"`
	CreatedAt         time.Time
	UpdatedAt         time.Time

	Plato       *Plato       `gorm:"foreignKey:PlatoID"`
	Ingrediente *Ingrediente `gorm:"foreignKey:IngredienteID"`
}
