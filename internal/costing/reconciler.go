package costing

import "github.com/google/uuid"

// Reasons a pin needs to move.
const (
	ReasonExhausted = "agotado"     // pinned lot is in the snapshot with zero stock
	ReasonMissing   = "inexistente" // pinned lot is no longer in the snapshot
)

// Correction moves a recipe's pin. A nil NewLotID clears the pin.
type Correction struct {
	RecipeID      uuid.UUID
	PreviousLotID uuid.UUID
	NewLotID      *uuid.UUID
	Reason        string
}

// Clears reports whether the correction unpins the recipe.
func (c Correction) Clears() bool { return c.NewLotID == nil }

// Apply returns r with the correction's pin. Corrections for other recipes
// leave r unchanged.
func (c Correction) Apply(r Recipe) Recipe {
	if r.ID != c.RecipeID {
		return r
	}
	if c.NewLotID == nil {
		r.PinnedLotID = nil
		return r
	}
	id := *c.NewLotID
	r.PinnedLotID = &id
	return r
}

// Reconcile plans pin corrections for every active recipe whose pinned lot is
// gone or exhausted. Unpinned recipes and valid pins produce nothing, so
// running it again on its own applied output yields no corrections. The
// result follows the order of recipes.
func Reconcile(recipes []Recipe, l *Ledger) []Correction {
	var out []Correction
	for _, r := range recipes {
		if !r.Active || r.PinnedLotID == nil {
			continue
		}
		prev := *r.PinnedLotID
		reason := ""
		lot, found := l.Lot(prev)
		switch {
		case !found:
			reason = ReasonMissing
		case lot.IngredientID != r.IngredientID:
			// A pin on another ingredient's lot can never supply this recipe.
			reason = ReasonMissing
		case !lot.Available():
			reason = ReasonExhausted
		default:
			continue
		}

		c := Correction{RecipeID: r.ID, PreviousLotID: prev, Reason: reason}
		if next, ok := NextLot(r.IngredientID, l); ok {
			id := next.ID
			c.NewLotID = &id
		}
		out = append(out, c)
	}
	return out
}

// ApplyAll returns a copy of recipes with every correction applied.
func ApplyAll(recipes []Recipe, corrections []Correction) []Recipe {
	byRecipe := make(map[uuid.UUID]Correction, len(corrections))
	for _, c := range corrections {
		byRecipe[c.RecipeID] = c
	}
	out := make([]Recipe, len(recipes))
	for i, r := range recipes {
		if c, ok := byRecipe[r.ID]; ok {
			r = c.Apply(r)
		}
		out[i] = r
	}
	return out
}
