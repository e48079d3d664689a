// Package storage defines the persistence interfaces for the ledger's four
// collections and the sentinel errors every backend maps onto.
package storage

import "errors"

// Common storage errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when an insert violates a unique constraint.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrInvalidInput is returned when input fails storage-level validation.
	ErrInvalidInput = errors.New("invalid input")
)
