package service

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Scales of the numeric(12,s) columns in model. A value with more decimals
// would be rounded by Postgres; a larger one would be refused.
const (
	precisionColumna = 12
	escalaCantidad   = 3 // lotes.cantidad_inicial, lotes.cantidad_restante
	escalaCosto      = 4 // lotes.costo_unitario
	escalaReceta     = 4 // recetas.cantidad_por_unidad
)

// fueraDeColumna describes why d does not fit a numeric(12,escala) column
// unchanged, or returns "" when it fits.
func fueraDeColumna(d decimal.Decimal, escala int32) string {
	if !d.Equal(d.Truncate(escala)) {
		return fmt.Sprintf("admite como maximo %d decimales", escala)
	}
	if limite := decimal.New(1, precisionColumna-escala); d.Abs().GreaterThanOrEqual(limite) {
		return fmt.Sprintf("debe ser menor a %s", limite)
	}
	return ""
}

func checkColumna(campo string, d decimal.Decimal, escala int32) error {
	if motivo := fueraDeColumna(d, escala); motivo != "" {
		return fmt.Errorf("%s %s: %w", campo, motivo, ErrEntradaInvalida)
	}
	return nil
}
