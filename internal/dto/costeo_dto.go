package dto

import "github.com/shopspring/decimal"

// CosteoRecetaResponse is one CostingResult as served to the UI.
// SinStock is a normal state, not an error.
type CosteoRecetaResponse struct {
	RecetaID          string          `json:"receta_id"`
	PlatoID           string          `json:"plato_id"`
	VarianteID        *string         `json:"variante_id"`
	IngredienteID     string          `json:"ingrediente_id"`
	Ingrediente       string          `json:"ingrediente,omitempty"`
	CantidadPorUnidad decimal.Decimal `json:"cantidad_por_unidad"`
	StockActual       decimal.Decimal `json:"stock_actual"`
	UnidadesPosibles  int64           `json:"unidades_posibles"`
	LoteID            *string         `json:"lote_id"`
	LoteFijado        bool            `json:"lote_fijado"`
	CostoUnitario     decimal.Decimal `json:"costo_unitario"`
	CostoTotal        decimal.Decimal `json:"costo_total"`
	PrecioSugerido    decimal.Decimal `json:"precio_sugerido"`
	Ganancia          decimal.Decimal `json:"ganancia"`
	Margen            decimal.Decimal `json:"margen"`
	SinStock          bool            `json:"sin_stock"`
}

type CosteoPlatoResponse struct {
	PlatoID          string                 `json:"plato_id"`
	Nombre           string                 `json:"nombre,omitempty"`
	VarianteID       *string                `json:"variante_id"`
	Lineas           []CosteoRecetaResponse `json:"lineas"`
	UnidadesPosibles int64                  `json:"unidades_posibles"`
	CostoTotal       decimal.Decimal        `json:"costo_total"`
	PrecioSugerido   decimal.Decimal        `json:"precio_sugerido"`
	Ganancia         decimal.Decimal        `json:"ganancia"`
	Margen           decimal.Decimal        `json:"margen"`
	MargenObjetivo   decimal.Decimal        `json:"margen_objetivo"`
}

type CosteoListResponse struct {
	Data           []CosteoRecetaResponse `json:"data"`
	Total          int                    `json:"total"`
	MargenObjetivo decimal.Decimal        `json:"margen_objetivo"`
	// Errores lists recipes whose data is invalid; they are excluded from Data.
	Errores []CosteoError `json:"errores"`
}

type CosteoError struct {
	RecetaID string `json:"receta_id"`
	Detalle  string `json:"detalle"`
}

// Estados de CorreccionResultado.
const (
	CorreccionAplicada    = "aplicada"
	CorreccionPlanificada = "planificada"
	// CorreccionOmitida: another pass already moved the pin.
	CorreccionOmitida = "omitida"
	CorreccionFallida = "fallida"
)

type CorreccionResultado struct {
	RecetaID       string  `json:"receta_id"`
	LoteAnteriorID string  `json:"lote_anterior_id"`
	LoteNuevoID    *string `json:"lote_nuevo_id"`
	Motivo         string  `json:"motivo"`
	Estado         string  `json:"estado"`
	Error          string  `json:"error,omitempty"`
}

// ReconciliacionResponse is returned by both the dry-run and the apply endpoint.
type ReconciliacionResponse struct {
	Aplicado     bool                  `json:"aplicado"`
	Revisadas    int                   `json:"revisadas"`
	Correcciones []CorreccionResultado `json:"correcciones"`
}

// Aplicadas counts corrections actually written.
func (r *ReconciliacionResponse) Aplicadas() int {
	n := 0
	for _, c := range r.Correcciones {
		if c.Estado == CorreccionAplicada {
			n++
		}
	}
	return n
}
