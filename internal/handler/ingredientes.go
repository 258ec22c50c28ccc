package handler

import (
	"net/http"

	"comandas/internal/dto"
	"comandas/internal/service"

	"github.com/gin-gonic/gin"
)

type IngredientesHandler struct{ svc service.IngredienteService }

func NewIngredientesHandler(svc service.IngredienteService) *IngredientesHandler {
	return &IngredientesHandler{svc: svc}
}

func (h *IngredientesHandler) Crear(c *gin.Context) {
	var req dto.CrearIngredienteRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *IngredientesHandler) Listar(c *gin.Context) {
	resp, err := h.svc.Listar(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
