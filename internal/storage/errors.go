package storage

import "errors"

// Storage errors for the object stores.
var (
	// ErrNotFound is returned when a requested object does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when inserting an object whose identifier
	// already exists.
	ErrDuplicateKey = errors.New("duplicate object id")

	// ErrDuplicateSymbol is returned when inserting or renaming an asset to
	// a symbol already held by another asset.
	ErrDuplicateSymbol = errors.New("duplicate asset symbol")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)
