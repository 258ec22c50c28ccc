package service

import (
	"context"
	"fmt"

	"comandas/internal/dto"
	"comandas/internal/model"
	"comandas/internal/repository"

	"github.com/google/uuid"
)

type IngredienteService interface {
	Crear(ctx context.Context, req dto.CrearIngredienteRequest) (*dto.IngredienteResponse, error)
	Listar(ctx context.Context) ([]dto.IngredienteResponse, error)
}

type ingredienteService struct {
	repo repository.IngredienteRepository
}

func NewIngredienteService(repo repository.IngredienteRepository) IngredienteService {
	return &ingredienteService{repo: repo}
}

func (s *ingredienteService) Crear(ctx context.Context, req dto.CrearIngredienteRequest) (*dto.IngredienteResponse, error) {
	unidad := req.UnidadMedida
	if unidad == "" {
		unidad = "kg"
	}
	i := &model.Ingrediente{
		ID:           uuid.New(),
		Nombre:       req.Nombre,
		UnidadMedida: unidad,
		Activo:       true,
	}
	if err := s.repo.Create(ctx, i); err != nil {
		return nil, fmt.Errorf("creando ingrediente %q: %w", req.Nombre, err)
	}
	resp := ingredienteToResponse(*i)
	return &resp, nil
}

func (s *ingredienteService) Listar(ctx context.Context) ([]dto.IngredienteResponse, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.IngredienteResponse, 0, len(rows))
	for _, i := range rows {
		out = append(out, ingredienteToResponse(i))
	}
	return out, nil
}

func ingredienteToResponse(i model.Ingrediente) dto.IngredienteResponse {
	return dto.IngredienteResponse{
		ID:           i.ID.String(),
		Nombre:       i.Nombre,
		UnidadMedida: i.UnidadMedida,
		Activo:       i.Activo,
	}
}
