package dto

import "github.com/shopspring/decimal"

// CrearRecetaRequest is the body of POST /v1/recetas. CantidadPorUnidad is
// deliberately not validated here: the costing engine rejects non-positive
// quantities with a ConfigurationError so the response is the same whether
// the bad value comes from the API or from storage.
type CrearRecetaRequest struct {
	PlatoID           string          `json:"plato_id" validate:"required,uuid"`
	VarianteID        *string         `json:"variante_id" validate:"omitempty,uuid"`
	IngredienteID     string          `json:"ingrediente_id" validate:"required,uuid"`
	CantidadPorUnidad decimal.Decimal `json:"cantidad_por_unidad"`
	LoteAsignadoID    *string         `json:"lote_asignado_id" validate:"omitempty,uuid"`
}

// AsignarLoteRequest pins (or, with a null lote_id, unpins) a recipe.
type AsignarLoteRequest struct {
	LoteID *string `json:"lote_id" validate:"omitempty,uuid"`
}

type RecetaResponse struct {
	ID                string          `json:"id"`
	PlatoID           string          `json:"plato_id"`
	VarianteID        *string         `json:"variante_id"`
	IngredienteID     string          `json:"ingrediente_id"`
	CantidadPorUnidad decimal.Decimal `json:"cantidad_por_unidad"`
	LoteAsignadoID    *string         `json:"lote_asignado_id"`
	Activo            bool            `json:"activo"`
}

type CorreccionLoteItem struct {
	ID             string  `json:"id"`
	RecetaID       string  `json:"receta_id"`
	LoteAnteriorID *string `json:"lote_anterior_id"`
	LoteNuevoID    *string `json:"lote_nuevo_id"`
	Motivo         string  `json:"motivo"`
	CreatedAt      string  `json:"created_at"`
}

// CorreccionLoteListResponse is returned by GET /v1/recetas/:id/correcciones.
type CorreccionLoteListResponse struct {
	Data  []CorreccionLoteItem `json:"data"`
	Total int64                `json:"total"`
	Page  int                  `json:"page"`
	Limit int                  `json:"limit"`
}
