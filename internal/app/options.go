package service

import (
	"time"

	"github.com/okian/skillswap/internal/adapters/mq/worker"
	"github.com/okian/skillswap/internal/domain/matching"
	"github.com/okian/skillswap/internal/domain/scoring"
	"github.com/okian/skillswap/pkg/logger"
)

// Store is the persistence the service needs.
type Store interface {
	matching.Directory
	matching.Ledger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets both the directory and the ledger.
func WithStore(store Store) Option {
	return func(s *Service) {
		if store != nil {
			s.directory = store
			s.ledger = store
		}
	}
}

// WithDirectory sets the people directory.
func WithDirectory(d matching.Directory) Option {
	return func(s *Service) {
		if d != nil {
			s.directory = d
		}
	}
}

// WithLedger sets the interaction ledger.
func WithLedger(l matching.Ledger) Option {
	return func(s *Service) {
		if l != nil {
			s.ledger = l
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithWeights overrides the factor weights. Start rejects weights that do
// not sum to 1.
func WithWeights(w scoring.Weights) Option {
	return func(s *Service) {
		s.weights = w
	}
}

// WithResponseWindow sets how far back candidate decisions count.
func WithResponseWindow(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.responseWindow = d
		}
	}
}

// WithPoolLimit caps the candidate pool per request.
func WithPoolLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.poolLimit = n
		}
	}
}

// WithLimits sets the default and maximum suggestion counts.
func WithLimits(defaultLimit, maxLimit int) Option {
	return func(s *Service) {
		if defaultLimit > 0 {
			s.defaultLimit = defaultLimit
		}
		if maxLimit > 0 {
			s.maxLimit = maxLimit
		}
	}
}

// WithBatchConfig tunes population-wide generation.
func WithBatchConfig(cfg BatchConfig) Option {
	return func(s *Service) {
		s.batchCfg = cfg
	}
}

// WithRetention sets the age after which PASS and VIEW rows are purged.
func WithRetention(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.retention = d
		}
	}
}

// WithNotifier replaces the built-in notification queue.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithSink sets where the built-in queue delivers notifications.
func WithSink(sink worker.Sink) Option {
	return func(s *Service) {
		if sink != nil {
			s.sink = sink
		}
	}
}

// WithQueueCapacity sets the size of the built-in notification queue.
func WithQueueCapacity(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.queueCapacity = n
		}
	}
}

// WithWorkerCount sets the number of notification delivery workers.
func WithWorkerCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workerCount = n
		}
	}
}

// WithBreaker configures the circuit breaker around the sink.
func WithBreaker(failureThreshold uint32, openTimeout time.Duration) Option {
	return func(s *Service) {
		if failureThreshold > 0 {
			s.breakerThreshold = failureThreshold
		}
		if openTimeout > 0 {
			s.breakerTimeout = openTimeout
		}
	}
}

// WithLocker adds cross-process exclusion for batch runs.
func WithLocker(l Locker) Option {
	return func(s *Service) {
		if l != nil {
			s.locker = l
		}
	}
}

// WithRecordViews stores a VIEW for every suggestion served.
func WithRecordViews(enabled bool) Option {
	return func(s *Service) {
		s.recordViews = enabled
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
