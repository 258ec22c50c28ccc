package infra

// pdf.go: cost sheet ("ficha de costo") generation using go-pdf/fpdf.
// One A4 page per dish:
//   - Dish name and generation timestamp
//   - One row per ingredient line: lot used, qty per unit, unit cost, line cost
//   - Total cost, suggested price, profit and margin
//   - Producible units with current stock
//
// The output file is saved to storagePath/ficha_{plato_id}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"comandas/internal/dto"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// GenerateFichaCostoPDF renders the costing of one dish and returns the path
// of the written file.
func GenerateFichaCostoPDF(costeo *dto.CosteoPlatoResponse, storagePath string, now time.Time) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("ficha_%s.pdf", costeo.PlatoID)
	if costeo.VarianteID != nil {
		fileName = fmt.Sprintf("ficha_%s_%s.pdf", costeo.PlatoID, *costeo.VarianteID)
	}
	filePath := filepath.Join(storagePath, fileName)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	// ── Header ───────────────────────────────────────────────────────────────
	titulo := costeo.Nombre
	if titulo == "" {
		titulo = "Plato " + costeo.PlatoID
	}
	pdf.SetFont("Helvetica", "B", 15)
	pdf.CellFormat(contentW, 8, "Ficha de costo", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(contentW, 6, titulo, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 5, "Generada "+now.Format("02/01/2006 15:04"), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	// ── Lines ────────────────────────────────────────────────────────────────
	cols := []struct {
		title string
		w     float64
		align string
	}{
		{"Ingrediente", 0.30, "L"},
		{"Lote", 0.22, "L"},
		{"Cant/u", 0.12, "R"},
		{"Costo u.", 0.12, "R"},
		{"Costo", 0.12, "R"},
		{"Stock", 0.12, "R"},
	}
	pdf.SetFont("Helvetica", "B", 8)
	for i, c := range cols {
		ln := 0
		if i == len(cols)-1 {
			ln = 1
		}
		pdf.CellFormat(contentW*c.w, 6, c.title, "B", ln, c.align, false, 0, "")
	}

	pdf.SetFont("Helvetica", "", 8)
	for _, l := range costeo.Lineas {
		nombre := l.Ingrediente
		if nombre == "" {
			nombre = shortID(l.IngredienteID)
		}
		lote := "sin stock"
		if l.LoteID != nil {
			lote = shortID(*l.LoteID)
			if l.LoteFijado {
				lote += " (fijado)"
			}
		}
		cells := []string{
			nombre,
			lote,
			l.CantidadPorUnidad.String(),
			money(l.CostoUnitario),
			money(l.CostoTotal),
			l.StockActual.String(),
		}
		for i, c := range cols {
			ln := 0
			if i == len(cols)-1 {
				ln = 1
			}
			pdf.CellFormat(contentW*c.w, 5, cells[i], "", ln, c.align, false, 0, "")
		}
	}

	pdf.Ln(2)
	pdf.Line(15, pdf.GetY(), pageW-15, pdf.GetY())
	pdf.Ln(3)

	// ── Totals ───────────────────────────────────────────────────────────────
	labelW := contentW * 0.7
	valueW := contentW * 0.3
	row := func(label, value string, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 9)
		pdf.CellFormat(labelW, 6, label, "", 0, "L", false, 0, "")
		pdf.CellFormat(valueW, 6, value, "", 1, "R", false, 0, "")
	}
	row("Costo total por unidad:", money(costeo.CostoTotal), true)
	row(fmt.Sprintf("Precio sugerido (margen %s%%):", costeo.MargenObjetivo.Mul(decimal.NewFromInt(100)).StringFixed(0)), money(costeo.PrecioSugerido), true)
	row("Ganancia por unidad:", money(costeo.Ganancia), false)
	row("Unidades posibles con stock actual:", fmt.Sprintf("%d", costeo.UnidadesPosibles), false)

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}

func money(d decimal.Decimal) string { return "$" + d.StringFixed(2) }

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
