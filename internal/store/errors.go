package store

import (
	"errors"
	"fmt"
	"strings"

	"celestial/internal/catalog"
	"celestial/internal/pg"
)

// Ошибки data-access слоя. Всё остальное — UNKNOWN (500 без подробностей).
var (
	ErrValidation       = errors.New("validation failed")
	ErrNotFound         = errors.New("not found")
	ErrUnknownEntity    = errors.New("unknown entity")
	ErrDuplicateKey     = errors.New("duplicate key")
	ErrMissingReference = errors.New("missing reference")
)

// ValidationError несёт ошибки по полям; errors.Is(err, ErrValidation) == true
type ValidationError struct {
	Fields []catalog.FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(errs ...catalog.FieldError) error { return &ValidationError{Fields: errs} }

// Code — строковый тег ошибки для ответа API
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "VALIDATION"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrUnknownEntity):
		return "UNKNOWN_ENTITY"
	case errors.Is(err, ErrDuplicateKey):
		return "DUPLICATE_KEY"
	case errors.Is(err, ErrMissingReference):
		return "MISSING_REFERENCE"
	default:
		return "UNKNOWN"
	}
}

// classify превращает нарушения ограничений в типизированные ошибки
func classify(d pg.Dialect, err error) error {
	switch d.Classify(err) {
	case pg.UniqueViolation:
		return fmt.Errorf("%w: %v", ErrDuplicateKey, err)
	case pg.ForeignKeyViolation:
		return fmt.Errorf("%w: %v", ErrMissingReference, err)
	}
	return err
}
