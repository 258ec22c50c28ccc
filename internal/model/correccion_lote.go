package model

import (
	"time"

	"github.com/google/uuid"
)

// Motivos de CorreccionLote.
const (
	MotivoAgotado     = "agotado"
	MotivoInexistente = "inexistente"
	MotivoManual      = "manual"
)

// CorreccionLote records every change of a recipe's lot pin.
// Rows are append-only, never updated or deleted.
type CorreccionLote struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RecetaID       uuid.UUID  `gorm:"type:uuid;not null;index"`
	LoteAnteriorID *uuid.UUID `gorm:"type:uuid"`
	LoteNuevoID    *uuid.UUID `gorm:"type:uuid"` // NULL = pin cleared
	Motivo         string     `gorm:"not null"`
	CreatedAt      time.Time
}

// TableName overrides GORM's default pluralization (correccion_lotes → correcciones_lote).
func (CorreccionLote) TableName() string { return "correcciones_lote" }
