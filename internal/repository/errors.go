package repository

import "errors"

// ErrNotFound is returned by mutations whose target row does not exist in
// the given shop. Lookups return nil, nil instead.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a shop ID is already registered.
var ErrConflict = errors.New("conflict")
