package costing

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Lot is a quantity of one ingredient acquired at one time.
// A nil Expiry means the lot does not expire; such lots are consumed last.
type Lot struct {
	ID                uuid.UUID
	IngredientID      uuid.UUID
	RemainingQuantity decimal.Decimal
	UnitCost          decimal.Decimal
	Expiry            *time.Time
	CreatedAt         time.Time
}

// Available reports whether the lot can still supply stock.
func (l Lot) Available() bool { return l.RemainingQuantity.IsPositive() }

// Ledger groups a lot snapshot by ingredient. It is immutable once built, so a
// single Ledger can be shared by any number of concurrent readers.
type Ledger struct {
	ingredients map[uuid.UUID]struct{}
	lots        map[uuid.UUID][]Lot // all lots per ingredient, input order
	candidates  map[uuid.UUID][]Lot // remaining > 0, FIFO order
	byID        map[uuid.UUID]Lot
}

// NewLedger indexes lots by ingredient. ingredientIDs registers ingredients
// that exist in the catalog but may have no lots at all; every lot also
// registers its own ingredient. Lots with negative quantity or cost are
// rejected.
func NewLedger(ingredientIDs []uuid.UUID, lots []Lot) (*Ledger, error) {
	l := &Ledger{
		ingredients: make(map[uuid.UUID]struct{}, len(ingredientIDs)),
		lots:        make(map[uuid.UUID][]Lot),
		candidates:  make(map[uuid.UUID][]Lot),
		byID:        make(map[uuid.UUID]Lot, len(lots)),
	}
	for _, id := range ingredientIDs {
		l.ingredients[id] = struct{}{}
	}

	for _, lot := range lots {
		if lot.RemainingQuantity.IsNegative() {
			return nil, configErr(uuid.Nil, "lot "+lot.ID.String()+" remaining_quantity", "no puede ser negativa")
		}
		if lot.UnitCost.IsNegative() {
			return nil, configErr(uuid.Nil, "lot "+lot.ID.String()+" unit_cost", "no puede ser negativo")
		}
		if _, dup := l.byID[lot.ID]; dup {
			return nil, configErr(uuid.Nil, "lot "+lot.ID.String(), "duplicado en el snapshot")
		}
		l.ingredients[lot.IngredientID] = struct{}{}
		l.lots[lot.IngredientID] = append(l.lots[lot.IngredientID], lot)
		l.byID[lot.ID] = lot
	}

	for ingredientID, all := range l.lots {
		var avail []Lot
		for _, lot := range all {
			if lot.Available() {
				avail = append(avail, lot)
			}
		}
		// Stable: lots that tie on expiry and creation time keep input order.
		sort.SliceStable(avail, func(i, j int) bool { return fifoLess(avail[i], avail[j]) })
		l.candidates[ingredientID] = avail
	}
	return l, nil
}

// fifoLess orders by expiry ascending (undated last), then creation time.
func fifoLess(a, b Lot) bool {
	switch {
	case a.Expiry == nil && b.Expiry != nil:
		return false
	case a.Expiry != nil && b.Expiry == nil:
		return true
	case a.Expiry != nil && b.Expiry != nil && !a.Expiry.Equal(*b.Expiry):
		return a.Expiry.Before(*b.Expiry)
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

// Known reports whether the ingredient is part of the snapshot.
func (l *Ledger) Known(ingredientID uuid.UUID) bool {
	_, ok := l.ingredients[ingredientID]
	return ok
}

// Candidates returns the lots of an ingredient that still have stock, in the
// order they should be consumed. The returned slice is a copy.
func (l *Ledger) Candidates(ingredientID uuid.UUID) []Lot {
	c := l.candidates[ingredientID]
	out := make([]Lot, len(c))
	copy(out, c)
	return out
}

// Lots returns every lot of the ingredient, exhausted ones included, in
// snapshot order.
func (l *Ledger) Lots(ingredientID uuid.UUID) []Lot {
	all := l.lots[ingredientID]
	out := make([]Lot, len(all))
	copy(out, all)
	return out
}

// TotalStock sums remaining quantity over every lot of the ingredient.
func (l *Ledger) TotalStock(ingredientID uuid.UUID) decimal.Decimal {
	total := decimal.Zero
	for _, lot := range l.lots[ingredientID] {
		total = total.Add(lot.RemainingQuantity)
	}
	return total
}

// Lot looks a lot up by id.
func (l *Ledger) Lot(id uuid.UUID) (Lot, bool) {
	lot, ok := l.byID[id]
	return lot, ok
}
