package costing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultMargin is the target gross margin applied when none is configured.
var DefaultMargin = decimal.RequireFromString("0.60")

// MarginPolicy turns a cost into a suggested selling price.
// Margin is the share of the price that is profit, in [0, 1).
type MarginPolicy struct {
	Margin decimal.Decimal
}

// NewMarginPolicy validates m and returns the policy.
func NewMarginPolicy(m decimal.Decimal) (MarginPolicy, error) {
	if m.IsNegative() || m.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return MarginPolicy{}, configErr(uuid.Nil, "margin", "debe estar en el rango [0, 1), recibido "+m.String())
	}
	return MarginPolicy{Margin: m}, nil
}

// Price returns suggested price and profit for a total cost.
// A zero cost yields a zero price.
func (p MarginPolicy) Price(totalCost decimal.Decimal) (price, profit decimal.Decimal) {
	if !totalCost.IsPositive() {
		return decimal.Zero, decimal.Zero
	}
	price = totalCost.Div(decimal.NewFromInt(1).Sub(p.Margin))
	return price, price.Sub(totalCost)
}

// Result is the derived costing of one recipe against a ledger snapshot.
type Result struct {
	RecipeID        uuid.UUID
	IngredientID    uuid.UUID
	QuantityPerUnit decimal.Decimal
	CurrentStock    decimal.Decimal
	ProducibleUnits int64
	SelectedLotID   *uuid.UUID
	PinApplied      bool
	UnitCost        decimal.Decimal
	TotalCost       decimal.Decimal
	SuggestedPrice  decimal.Decimal
	Profit          decimal.Decimal
	Margin          decimal.Decimal
}

// NoStock reports the normal "ingredient out of stock" state.
func (r Result) NoStock() bool {
	return r.SelectedLotID == nil && !r.CurrentStock.IsPositive()
}

// DishResult aggregates the recipe lines of one dish or dish variant.
type DishResult struct {
	DishID          uuid.UUID
	VariantID       *uuid.UUID
	Lines           []Result
	ProducibleUnits int64
	TotalCost       decimal.Decimal
	SuggestedPrice  decimal.Decimal
	Profit          decimal.Decimal
	Margin          decimal.Decimal
}

// Evaluator computes CostingResults under a fixed margin policy.
// It holds no mutable state and is safe for concurrent use.
type Evaluator struct {
	policy MarginPolicy
}

func NewEvaluator(policy MarginPolicy) *Evaluator {
	return &Evaluator{policy: policy}
}

// Policy returns the margin policy the evaluator applies.
func (e *Evaluator) Policy() MarginPolicy { return e.policy }

// Evaluate costs one recipe. Invalid recipes and unknown ingredients return a
// *ConfigurationError; an ingredient without stock returns zero figures.
func (e *Evaluator) Evaluate(r Recipe, l *Ledger) (Result, error) {
	if err := r.Validate(); err != nil {
		return Result{}, err
	}
	if !l.Known(r.IngredientID) {
		return Result{}, configErr(r.ID, "ingredient_id", "ingrediente desconocido "+r.IngredientID.String())
	}

	res := Result{
		RecipeID:        r.ID,
		IngredientID:    r.IngredientID,
		QuantityPerUnit: r.QuantityPerUnit,
		CurrentStock:    l.TotalStock(r.IngredientID),
		UnitCost:        decimal.Zero,
	}
	res.ProducibleUnits = producible(res.CurrentStock, r.QuantityPerUnit)

	if lot, ok := Select(r, l); ok {
		id := lot.ID
		res.SelectedLotID = &id
		res.PinApplied = r.PinnedLotID != nil && *r.PinnedLotID == lot.ID
		res.UnitCost = lot.UnitCost
	}

	res.TotalCost = r.QuantityPerUnit.Mul(res.UnitCost)
	res.SuggestedPrice, res.Profit = e.policy.Price(res.TotalCost)
	res.Margin = marginOf(res.SuggestedPrice, res.Profit)
	return res, nil
}

// EvaluateDish costs every active line of dishID/variantID found in recipes.
// Producible units is the minimum across lines; prices are computed on the
// summed cost.
func (e *Evaluator) EvaluateDish(dishID uuid.UUID, variantID *uuid.UUID, recipes []Recipe, l *Ledger) (DishResult, error) {
	out := DishResult{DishID: dishID, VariantID: variantID, TotalCost: decimal.Zero}
	first := true
	for _, r := range recipes {
		if !r.Active || !r.sameDish(dishID, variantID) {
			continue
		}
		line, err := e.Evaluate(r, l)
		if err != nil {
			return DishResult{}, err
		}
		out.Lines = append(out.Lines, line)
		out.TotalCost = out.TotalCost.Add(line.TotalCost)
		if first || line.ProducibleUnits < out.ProducibleUnits {
			out.ProducibleUnits = line.ProducibleUnits
		}
		first = false
	}
	if len(out.Lines) == 0 {
		return DishResult{}, configErr(uuid.Nil, "dish_id", "el plato "+dishID.String()+" no tiene recetas activas")
	}
	out.SuggestedPrice, out.Profit = e.policy.Price(out.TotalCost)
	out.Margin = marginOf(out.SuggestedPrice, out.Profit)
	return out, nil
}

// producible truncates stock/qty toward zero; QuoRem at precision 0 keeps the
// division exact.
func producible(stock, qty decimal.Decimal) int64 {
	if !stock.IsPositive() {
		return 0
	}
	q, _ := stock.QuoRem(qty, 0)
	return q.IntPart()
}

func marginOf(price, profit decimal.Decimal) decimal.Decimal {
	if !price.IsPositive() {
		return decimal.Zero
	}
	return profit.Div(price)
}
