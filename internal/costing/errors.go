// Package costing computes recipe costs and FIFO lot allocation over an
// in-memory snapshot of lots and recipes. It performs no I/O: callers load the
// snapshot, call Evaluate / Reconcile, and persist whatever comes back.
package costing

import (
	"fmt"

	"github.com/google/uuid"
)

// ConfigurationError reports invalid recipe data (non-positive quantity,
// unknown ingredient, malformed lot). It is the only failure that crosses the
// engine boundary; running out of stock is a normal zero-valued result.
type ConfigurationError struct {
	RecipeID uuid.UUID
	Field    string
	Reason   string
}

func (e *ConfigurationError) Error() string {
	if e.RecipeID == uuid.Nil {
		return fmt.Sprintf("configuracion invalida: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("configuracion invalida en receta %s: %s: %s", e.RecipeID, e.Field, e.Reason)
}

func configErr(recipeID uuid.UUID, field, reason string) error {
	return &ConfigurationError{RecipeID: recipeID, Field: field, Reason: reason}
}
