package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNilPerson          = errors.New("person is required")
	ErrInvalidInteraction = errors.New("interaction needs user, target and a known type")
	ErrConnectionClosed   = errors.New("postgres: connection pool is closed")
	ErrMigrationFailed    = errors.New("postgres: migration failed")
)
