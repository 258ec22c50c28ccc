package dto

import "github.com/shopspring/decimal"

// RegistrarLoteRequest is the body of POST /v1/lotes.
// FechaVencimiento is YYYY-MM-DD; omitted means the lot does not expire.
type RegistrarLoteRequest struct {
	IngredienteID    string          `json:"ingrediente_id" validate:"required,uuid"`
	Cantidad         decimal.Decimal `json:"cantidad" validate:"required,gt=0"`
	CostoUnitario    decimal.Decimal `json:"costo_unitario" validate:"gte=0"`
	FechaVencimiento *string         `json:"fecha_vencimiento" validate:"omitempty,datetime=2006-01-02"`
}

// AjustarRestanteRequest sets the remaining quantity after external
// consumption or a physical count.
type AjustarRestanteRequest struct {
	CantidadRestante decimal.Decimal `json:"cantidad_restante" validate:"gte=0"`
	Motivo           string          `json:"motivo" validate:"omitempty,max=200"`
}

type LoteResponse struct {
	ID               string          `json:"id"`
	IngredienteID    string          `json:"ingrediente_id"`
	CantidadInicial  decimal.Decimal `json:"cantidad_inicial"`
	CantidadRestante decimal.Decimal `json:"cantidad_restante"`
	CostoUnitario    decimal.Decimal `json:"costo_unitario"`
	FechaVencimiento *string         `json:"fecha_vencimiento"`
	Origen           string          `json:"origen"`
	// OrdenFIFO is the 1-based consumption position in ingredient listings;
	// 0 for exhausted lots and outside listings.
	OrdenFIFO int    `json:"orden_fifo"`
	CreatedAt string `json:"created_at"`
}

// LotesIngredienteResponse lists FIFO candidates first, then exhausted lots.
type LotesIngredienteResponse struct {
	IngredienteID string          `json:"ingrediente_id"`
	StockTotal    decimal.Decimal `json:"stock_total"`
	Lotes         []LoteResponse  `json:"lotes"`
}

// ImportarLotesResponse summarizes an xlsx import.
type ImportarLotesResponse struct {
	Importados int            `json:"importados"`
	Lotes      []LoteResponse `json:"lotes"`
}

// MovimientoLoteItem is one recorded change of a lot's remaining quantity.
type MovimientoLoteItem struct {
	ID               string          `json:"id"`
	LoteID           string          `json:"lote_id"`
	Tipo             string          `json:"tipo"`
	CantidadAnterior decimal.Decimal `json:"cantidad_anterior"`
	CantidadNueva    decimal.Decimal `json:"cantidad_nueva"`
	Motivo           string          `json:"motivo"`
	CreatedAt        string          `json:"created_at"`
}

type MovimientoLoteListResponse struct {
	Data  []MovimientoLoteItem `json:"data"`
	Total int64                `json:"total"`
	Page  int                  `json:"page"`
	Limit int                  `json:"limit"`
}
