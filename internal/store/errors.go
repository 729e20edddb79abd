package store

import "errors"

// Semantic error kinds shared by every store. Backends return these for the
// conditions the caller can act on; anything else is treated as a transient
// backend failure by the service layer.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrForbidden       = errors.New("forbidden")
	ErrConflict        = errors.New("conflict")
	ErrDuplicate       = errors.New("duplicate")
)
