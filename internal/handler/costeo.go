package handler

import (
	"net/http"
	"path/filepath"
	"time"

	"comandas/internal/apierror"
	"comandas/internal/infra"
	"comandas/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type CosteoHandler struct {
	svc        service.CosteoService
	pdfStorage string
}

func NewCosteoHandler(svc service.CosteoService, pdfStorage string) *CosteoHandler {
	return &CosteoHandler{svc: svc, pdfStorage: pdfStorage}
}

func (h *CosteoHandler) CostearReceta(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.CostearReceta(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CosteoHandler) Listar(c *gin.Context) {
	resp, err := h.svc.ListarCosteos(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// varianteQuery reads the optional variante_id query parameter.
func varianteQuery(c *gin.Context) (*uuid.UUID, bool) {
	raw := c.Query("variante_id")
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("variante_id invalido"))
		return nil, false
	}
	return &id, true
}

func (h *CosteoHandler) CostearPlato(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	variante, ok := varianteQuery(c)
	if !ok {
		return
	}
	resp, err := h.svc.CostearPlato(c.Request.Context(), id, variante)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Ficha renders the dish cost sheet as a PDF download.
func (h *CosteoHandler) Ficha(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	variante, ok := varianteQuery(c)
	if !ok {
		return
	}
	costeo, err := h.svc.CostearPlato(c.Request.Context(), id, variante)
	if err != nil {
		respondError(c, err)
		return
	}
	path, err := infra.GenerateFichaCostoPDF(costeo, h.pdfStorage, time.Now())
	if err != nil {
		log.Error().Err(err).Str("plato_id", id.String()).Msg("ficha: generacion de PDF fallida")
		c.JSON(http.StatusInternalServerError, apierror.New("No se pudo generar la ficha de costo"))
		return
	}
	c.FileAttachment(path, filepath.Base(path))
}

// PlanificarReconciliacion handles GET /v1/reconciliacion (dry run).
func (h *CosteoHandler) PlanificarReconciliacion(c *gin.Context) {
	resp, err := h.svc.PlanificarReconciliacion(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CosteoHandler) Reconciliar(c *gin.Context) {
	resp, err := h.svc.Reconciliar(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
