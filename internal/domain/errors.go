package domain

import "errors"

// Repository errors. Stores translate driver errors into these.
var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate key")
	ErrInvalidID = errors.New("invalid id")
	// ErrConflict is returned when a conditional write lost against a concurrent change.
	ErrConflict = errors.New("conflicting update")
)
