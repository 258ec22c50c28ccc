package service

import (
	"time"

	"comandas/internal/costing"
	"comandas/internal/dto"
	"comandas/internal/model"
	"comandas/internal/repository"

	"github.com/google/uuid"
)

const fechaLayout = "2006-01-02"

func loteToLot(l model.Lote) costing.Lot {
	return costing.Lot{
		ID:                l.ID,
		IngredientID:      l.IngredienteID,
		RemainingQuantity: l.CantidadRestante,
		UnitCost:          l.CostoUnitario,
		Expiry:            l.FechaVencimiento,
		CreatedAt:         l.CreatedAt,
	}
}

func recetaToRecipe(r model.Receta) costing.Recipe {
	return costing.Recipe{
		ID:              r.ID,
		DishID:          r.PlatoID,
		VariantID:       r.VarianteID,
		IngredientID:    r.IngredienteID,
		QuantityPerUnit: r.CantidadPorUnidad,
		PinnedLotID:     r.LoteAsignadoID,
		Active:          r.Activo,
	}
}

// costingView is a snapshot converted to engine types.
type costingView struct {
	ledger  *costing.Ledger
	recipes []costing.Recipe
	byID    map[uuid.UUID]costing.Recipe
	nombres map[uuid.UUID]string // ingrediente_id -> nombre
}

func buildView(snap *repository.Snapshot) (*costingView, error) {
	ids := make([]uuid.UUID, 0, len(snap.Ingredientes))
	nombres := make(map[uuid.UUID]string, len(snap.Ingredientes))
	for _, i := range snap.Ingredientes {
		ids = append(ids, i.ID)
		nombres[i.ID] = i.Nombre
	}
	lots := make([]costing.Lot, 0, len(snap.Lotes))
	for _, l := range snap.Lotes {
		lots = append(lots, loteToLot(l))
	}
	ledger, err := costing.NewLedger(ids, lots)
	if err != nil {
		return nil, err
	}

	v := &costingView{
		ledger:  ledger,
		recipes: make([]costing.Recipe, 0, len(snap.Recetas)),
		byID:    make(map[uuid.UUID]costing.Recipe, len(snap.Recetas)),
		nombres: nombres,
	}
	for _, r := range snap.Recetas {
		rec := recetaToRecipe(r)
		v.recipes = append(v.recipes, rec)
		v.byID[rec.ID] = rec
	}
	return v, nil
}

func idPtrString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func fechaPtrString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(fechaLayout)
	return &s
}

func resultToResponse(r costing.Recipe, res costing.Result, nombre string) dto.CosteoRecetaResponse {
	return dto.CosteoRecetaResponse{
		RecetaID:          r.ID.String(),
		PlatoID:           r.DishID.String(),
		VarianteID:        idPtrString(r.VariantID),
		IngredienteID:     res.IngredientID.String(),
		Ingrediente:       nombre,
		CantidadPorUnidad: res.QuantityPerUnit,
		StockActual:       res.CurrentStock,
		UnidadesPosibles:  res.ProducibleUnits,
		LoteID:            idPtrString(res.SelectedLotID),
		LoteFijado:        res.PinApplied,
		CostoUnitario:     res.UnitCost,
		CostoTotal:        res.TotalCost,
		PrecioSugerido:    res.SuggestedPrice,
		Ganancia:          res.Profit,
		Margen:            res.Margin,
		SinStock:          res.NoStock(),
	}
}

func loteToResponse(l model.Lote, orden int) dto.LoteResponse {
	return dto.LoteResponse{
		ID:               l.ID.String(),
		IngredienteID:    l.IngredienteID.String(),
		CantidadInicial:  l.CantidadInicial,
		CantidadRestante: l.CantidadRestante,
		CostoUnitario:    l.CostoUnitario,
		FechaVencimiento: fechaPtrString(l.FechaVencimiento),
		Origen:           l.Origen,
		OrdenFIFO:        orden,
		CreatedAt:        l.CreatedAt.Format(time.RFC3339),
	}
}

func recetaToResponse(r model.Receta) dto.RecetaResponse {
	return dto.RecetaResponse{
		ID:                r.ID.String(),
		PlatoID:           r.PlatoID.String(),
		VarianteID:        idPtrString(r.VarianteID),
		IngredienteID:     r.IngredienteID.String(),
		CantidadPorUnidad: r.CantidadPorUnidad,
		LoteAsignadoID:    idPtrString(r.LoteAsignadoID),
		Activo:            r.Activo,
	}
}
