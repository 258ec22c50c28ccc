package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Tipos de MovimientoLote.
const (
	MovimientoAlta        = "alta"
	MovimientoAjuste      = "ajuste"
	MovimientoImportacion = "importacion"
)

// MovimientoLote registra cada cambio de cantidad_restante de un lote.
// Se crea al dar de alta, importar o ajustar un lote; nunca se modifica.
type MovimientoLote struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	LoteID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	IngredienteID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	Tipo             string          `gorm:"not null"`
	CantidadAnterior decimal.Decimal `gorm:"type:decimal(12,3);not null"`
	CantidadNueva    decimal.Decimal `gorm:"type:decimal(12,3);not null"`
	Motivo           string
	CreatedAt        time.Time
}

// TableName overrides GORM's default pluralization (movimiento_lotes → movimientos_lote).
func (MovimientoLote) TableName() string { return "movimientos_lote" }
