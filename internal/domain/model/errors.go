package model

import "errors"

// Sentinel error kinds shared by the engine and its stores.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidDecision = errors.New("invalid decision")
	ErrInvalidFilters  = errors.New("invalid filters")
)
