package model

import (
	"time"

	"github.com/google/uuid"
)

// Ingrediente is a stock-keeping raw material (harina, queso, aceite...).
// Stock lives in its Lotes; the ingredient itself carries no quantity.
type Ingrediente struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre       string    `gorm:"uniqueIndex;not null"`
	UnidadMedida string    `gorm:"not null;default:'kg'"` // kg | g | l | ml | unidad
	Activo       bool      `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
