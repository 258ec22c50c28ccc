package dto

type CrearIngredienteRequest struct {
	Nombre       string `json:"nombre" validate:"required,min=2,max=120"`
	UnidadMedida string `json:"unidad_medida" validate:"omitempty,oneof=kg g l ml unidad"`
}

type IngredienteResponse struct {
	ID           string `json:"id"`
	Nombre       string `json:"nombre"`
	UnidadMedida string `json:"unidad_medida"`
	Activo       bool   `json:"activo"`
}
