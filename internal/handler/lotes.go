package handler

import (
	"net/http"
	"strings"

	"comandas/internal/apierror"
	"comandas/internal/dto"
	"comandas/internal/service"

	"github.com/gin-gonic/gin"
)

// maxImportBytes caps the uploaded spreadsheet size.
const maxImportBytes = 5 << 20

type LotesHandler struct{ svc service.LoteService }

func NewLotesHandler(svc service.LoteService) *LotesHandler {
	return &LotesHandler{svc: svc}
}

func (h *LotesHandler) Registrar(c *gin.Context) {
	var req dto.RegistrarLoteRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Registrar(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *LotesHandler) ListarPorIngrediente(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ListarPorIngrediente(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AjustarRestante handles PATCH /v1/lotes/:id/restante.
func (h *LotesHandler) AjustarRestante(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.AjustarRestanteRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AjustarRestante(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Importar handles POST /v1/lotes/import with a multipart "archivo" field.
func (h *LotesHandler) Importar(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImportBytes)
	fh, err := c.FormFile("archivo")
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Se requiere el campo 'archivo' con un .xlsx"))
		return
	}
	if !strings.HasSuffix(strings.ToLower(fh.Filename), ".xlsx") {
		c.JSON(http.StatusBadRequest, apierror.New("El archivo debe tener extension .xlsx"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("No se pudo leer el archivo"))
		return
	}
	defer f.Close()

	resp, err := h.svc.ImportarXLSX(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListarMovimientos handles GET /v1/lotes/:id/movimientos?page=&limit=.
func (h *LotesHandler) ListarMovimientos(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ListarMovimientos(c.Request.Context(), id, queryInt(c, "page", 1), queryInt(c, "limit", 50))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
