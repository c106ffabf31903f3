package store

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when no record exists for the requested id.
var ErrNotFound = errors.New("record not found")

// UnavailableError wraps a provider or transport fault. Callers treat it as
// retryable, distinct from ErrNotFound and *model.ValidationError.
type UnavailableError struct {
	Op  string // the failing store operation, e.g. "create record"
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("store unavailable: %s: %v", e.Op, e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// Unavailable wraps err as an UnavailableError for the named operation.
func Unavailable(op string, err error) error {
	return &UnavailableError{Op: op, Err: err}
}
