package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Sentinel errors. Handlers map them to HTTP status codes with errors.Is;
// *costing.ConfigurationError is matched separately with errors.As.
var (
	ErrNoEncontrado    = errors.New("no encontrado")
	ErrLoteInvalido    = errors.New("lote invalido")
	ErrEntradaInvalida = errors.New("entrada invalida")
	// ErrConflicto: the row changed between read and write.
	ErrConflicto = errors.New("el recurso fue modificado por otra operacion")
)

func noEncontrado(entidad string, id uuid.UUID) error {
	return fmt.Errorf("%s %s: %w", entidad, id, ErrNoEncontrado)
}

// lookupErr translates gorm.ErrRecordNotFound into ErrNoEncontrado.
func lookupErr(err error, entidad string, id uuid.UUID) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return noEncontrado(entidad, id)
	}
	return fmt.Errorf("buscando %s %s: %w", entidad, id, err)
}

func parseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s invalido: %w", field, ErrEntradaInvalida)
	}
	return id, nil
}

func parseOptionalID(field string, raw *string) (*uuid.UUID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := parseID(field, *raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}
