package model

import (
	"time"

	"github.com/google/uuid"
)

// Plato is a menu dish. Its composition is the set of active Recetas with
// this PlatoID.
type Plato struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre    string    `gorm:"index;not null"`
	Categoria string    `gorm:"not null;default:'general'"`
	Activo    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
