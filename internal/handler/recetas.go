package handler

import (
	"net/http"

	"comandas/internal/dto"
	"comandas/internal/service"

	"github.com/gin-gonic/gin"
)

type RecetasHandler struct{ svc service.RecetaService }

func NewRecetasHandler(svc service.RecetaService) *RecetasHandler {
	return &RecetasHandler{svc: svc}
}

func (h *RecetasHandler) Crear(c *gin.Context) {
	var req dto.CrearRecetaRequest
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

// AsignarLote handles PUT /v1/recetas/:id/lote. {"lote_id": null} unpins.
func (h *RecetasHandler) AsignarLote(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.AsignarLoteRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AsignarLote(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RecetasHandler) Desactivar(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Desactivar(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecetasHandler) ListarCorrecciones(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ListarCorrecciones(c.Request.Context(), id, queryInt(c, "page", 1), queryInt(c, "limit", 50))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
