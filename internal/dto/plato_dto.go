package dto

type CrearPlatoRequest struct {
	Nombre    string `json:"nombre" validate:"required,min=2,max=120"`
	Categoria string `json:"categoria" validate:"omitempty,max=60"`
}

type PlatoResponse struct {
	ID        string `json:"id"`
	Nombre    string `json:"nombre"`
	Categoria string `json:"categoria"`
	Activo    bool   `json:"activo"`
}
