package handler

import (
	"net/http"

	"comandas/internal/dto"
	"comandas/internal/service"

	"github.com/gin-gonic/gin"
)

type PlatosHandler struct{ svc service.PlatoService }

func NewPlatosHandler(svc service.PlatoService) *PlatosHandler {
	return &PlatosHandler{svc: svc}
}

func (h *PlatosHandler) Crear(c *gin.Context) {
	var req dto.CrearPlatoRequest
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

func (h *PlatosHandler) Listar(c *gin.Context) {
	resp, err := h.svc.Listar(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
