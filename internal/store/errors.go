package store

import "errors"

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a uniqueness
// constraint (duplicate email, already-existing history row).
var ErrDuplicate = errors.New("duplicate record")
