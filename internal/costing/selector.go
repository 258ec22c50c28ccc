package costing

import "github.com/google/uuid"

// Select resolves the lot whose unit cost is charged for the recipe's next
// unit of production. A pin wins while its lot still has stock; otherwise the
// first FIFO candidate is used. ok is false when the ingredient has no stock.
func Select(r Recipe, l *Ledger) (lot Lot, ok bool) {
	if r.PinnedLotID != nil {
		if pinned, found := l.Lot(*r.PinnedLotID); found && pinned.Available() && pinned.IngredientID == r.IngredientID {
			return pinned, true
		}
	}
	return NextLot(r.IngredientID, l)
}

// NextLot returns the earliest-expiring lot with stock, ignoring any pin.
func NextLot(ingredientID uuid.UUID, l *Ledger) (Lot, bool) {
	c := l.candidates[ingredientID]
	if len(c) == 0 {
		return Lot{}, false
	}
	return c[0], true
}
