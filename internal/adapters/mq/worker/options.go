// Package worker delivers queued notifications to a sink.
package worker

import (
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/okian/skillswap/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithBreaker shares a circuit breaker between workers.
func WithBreaker(cb *gobreaker.CircuitBreaker[struct{}]) Option {
	return func(w *InMemoryWorker) {
		if cb != nil {
			w.breaker = cb
		}
	}
}

// WithDeliveryTimeout bounds one sink call.
func WithDeliveryTimeout(d time.Duration) Option {
	return func(w *InMemoryWorker) {
		if d > 0 {
			w.deliveryTimeout = d
		}
	}
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithPoolLogger sets the pool logger.
func WithPoolLogger(l logger.Logger) PoolOption {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithBreakerSettings sets how many consecutive sink failures open the
// breaker and how long it stays open.
func WithBreakerSettings(failureThreshold uint32, openTimeout time.Duration) PoolOption {
	return func(p *Pool) {
		if failureThreshold > 0 {
			p.failureThreshold = failureThreshold
		}
		if openTimeout > 0 {
			p.openTimeout = openTimeout
		}
	}
}

// WithPoolDeliveryTimeout bounds one sink call for every worker.
func WithPoolDeliveryTimeout(d time.Duration) PoolOption {
	return func(p *Pool) {
		if d > 0 {
			p.deliveryTimeout = d
		}
	}
}
