package repository

import "time"

// PostgresOption configures a Postgres store.
type PostgresOption func(*postgresOptions)

type postgresOptions struct {
	maxConns        int32
	minConns        int32
	maxConnLifetime time.Duration
	maxConnIdleTime time.Duration
	queryTimeout    time.Duration
	migrate         bool
}

func defaultPostgresOptions() postgresOptions {
	return postgresOptions{
		maxConns:        10,
		minConns:        2,
		maxConnLifetime: time.Hour,
		maxConnIdleTime: 30 * time.Minute,
		queryTimeout:    5 * time.Second,
		migrate:         true,
	}
}

// WithMaxConns sets the pool ceiling.
func WithMaxConns(n int32) PostgresOption {
	return func(o *postgresOptions) {
		if n > 0 {
			o.maxConns = n
		}
	}
}

// WithMinConns sets the pool floor.
func WithMinConns(n int32) PostgresOption {
	return func(o *postgresOptions) {
		if n >= 0 {
			o.minConns = n
		}
	}
}

// WithQueryTimeout bounds every statement issued by the store.
func WithQueryTimeout(d time.Duration) PostgresOption {
	return func(o *postgresOptions) {
		if d > 0 {
			o.queryTimeout = d
		}
	}
}

// WithMigrations toggles applying the embedded schema on open.
func WithMigrations(enabled bool) PostgresOption {
	return func(o *postgresOptions) {
		o.migrate = enabled
	}
}
