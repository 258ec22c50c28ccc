package costing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Recipe links a dish (or one of its variants) to a single ingredient
// requirement. A dish made of several ingredients is several Recipe rows
// sharing DishID / VariantID.
type Recipe struct {
	ID              uuid.UUID
	DishID          uuid.UUID
	VariantID       *uuid.UUID
	IngredientID    uuid.UUID
	QuantityPerUnit decimal.Decimal
	PinnedLotID     *uuid.UUID
	Active          bool
}

// NewRecipe builds an active, unpinned recipe and rejects non-positive
// quantities instead of coercing them.
func NewRecipe(id, dishID, ingredientID uuid.UUID, quantityPerUnit decimal.Decimal) (Recipe, error) {
	r := Recipe{
		ID:              id,
		DishID:          dishID,
		IngredientID:    ingredientID,
		QuantityPerUnit: quantityPerUnit,
		Active:          true,
	}
	if err := r.Validate(); err != nil {
		return Recipe{}, err
	}
	return r, nil
}

// Validate checks the recipe invariants. Recipes loaded from storage go
// through here before every evaluation.
func (r Recipe) Validate() error {
	if r.IngredientID == uuid.Nil {
		return configErr(r.ID, "ingredient_id", "requerido")
	}
	if !r.QuantityPerUnit.IsPositive() {
		return configErr(r.ID, "quantity_per_unit", "debe ser mayor a cero, recibido "+r.QuantityPerUnit.String())
	}
	return nil
}

// Pinned reports whether the recipe carries an explicit lot override.
func (r Recipe) Pinned() bool { return r.PinnedLotID != nil }

// sameDish reports whether r belongs to the given dish/variant pair.
func (r Recipe) sameDish(dishID uuid.UUID, variantID *uuid.UUID) bool {
	if r.DishID != dishID {
		return false
	}
	if variantID == nil || r.VariantID == nil {
		return variantID == nil && r.VariantID == nil
	}
	return *variantID == *r.VariantID
}
