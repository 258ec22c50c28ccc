package service

import (
	"context"
	"fmt"

	"comandas/internal/dto"
	"comandas/internal/model"
	"comandas/internal/repository"

	"github.com/google/uuid"
)

type PlatoService interface {
	Crear(ctx context.Context, req dto.CrearPlatoRequest) (*dto.PlatoResponse, error)
	Listar(ctx context.Context) ([]dto.PlatoResponse, error)
}

type platoService struct {
	repo repository.PlatoRepository
}

func NewPlatoService(repo repository.PlatoRepository) PlatoService {
	return &platoService{repo: repo}
}

func (s *platoService) Crear(ctx context.Context, req dto.CrearPlatoRequest) (*dto.PlatoResponse, error) {
	categoria := req.Categoria
	if categoria == "" {
		categoria = "general"
	}
	p := &model.Plato{ID: uuid.New(), Nombre: req.Nombre, Categoria: categoria, Activo: true}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("creando plato %q: %w", req.Nombre, err)
	}
	resp := platoToResponse(*p)
	return &resp, nil
}

func (s *platoService) Listar(ctx context.Context) ([]dto.PlatoResponse, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PlatoResponse, 0, len(rows))
	for _, p := range rows {
		out = append(out, platoToResponse(p))
	}
	return out, nil
}

func platoToResponse(p model.Plato) dto.PlatoResponse {
	return dto.PlatoResponse{
		ID:        p.ID.String(),
		Nombre:    p.Nombre,
		Categoria: p.Categoria,
		Activo:    p.Activo,
	}
}
