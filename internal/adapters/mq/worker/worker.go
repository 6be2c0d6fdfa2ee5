package worker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/okian/skillswap/internal/domain/model"
	"github.com/okian/skillswap/pkg/logger"
	"github.com/okian/skillswap/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerCount      = 2
	defaultDeliveryTimeout  = 5 * time.Second
	defaultFailureThreshold = 5
	defaultOpenTimeout      = 30 * time.Second
	poolShutdownTimeout     = 30 * time.Second
	breakerName             = "notifications"
)

// Queue defines how workers receive notifications.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.Notification
}

// Worker drains a queue into a sink.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)
	// Shutdown stops the worker.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue           Queue
	sink            Sink
	breaker         *gobreaker.CircuitBreaker[struct{}]
	name            string
	deliveryTimeout time.Duration

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker. Without WithBreaker it gets a private
// breaker with default settings.
func NewInMemoryWorker(queue Queue, sink Sink, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:           queue,
		sink:            sink,
		name:            "worker",
		deliveryTimeout: defaultDeliveryTimeout,
		shutdown:        make(chan struct{}),
		done:            make(chan struct{}),
		logger:          logger.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.breaker == nil {
		w.breaker = NewBreaker(breakerName, defaultFailureThreshold, defaultOpenTimeout, w.logger)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	in := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case n, ok := <-in:
			if !ok {
				return
			}
			if err := w.deliver(ctx, n); err != nil {
				w.logger.Warn(ctx, "notification not delivered",
					logger.String("user_id", n.UserID), logger.Error(err))
			}
		}
	}
}

// Shutdown stops the worker and waits for the current delivery.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) deliver(ctx context.Context, n model.Notification) error {
	start := time.Now()
	dctx, cancel := context.WithTimeout(ctx, w.deliveryTimeout)
	defer cancel()

	_, err := w.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, w.sink.Deliver(dctx, n)
	})
	metrics.RecordDeliveryLatency(float64(time.Since(start).Microseconds()) / 1000)

	switch {
	case err == nil:
		metrics.RecordNotification("delivered")
		return nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordNotification("dropped")
		return fmt.Errorf("sink unavailable: %w", err)
	default:
		metrics.RecordNotification("failed")
		return fmt.Errorf("deliver: %w", err)
	}
}

// NewBreaker builds the breaker guarding the sink. It opens after
// failureThreshold consecutive failures and publishes its state.
func NewBreaker(name string, failureThreshold uint32, openTimeout time.Duration, l logger.Logger) *gobreaker.CircuitBreaker[struct{}] {
	if l == nil {
		l = logger.Nop()
	}
	metrics.UpdateBreakerState(name, int(gobreaker.StateClosed))
	return gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.UpdateBreakerState(name, int(to))
			l.Warn(context.Background(), "circuit breaker state changed",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()))
		},
	})
}

// Pool runs several workers over one queue and one breaker.
type Pool struct {
	workers          []*InMemoryWorker
	queue            Queue
	failureThreshold uint32
	openTimeout      time.Duration
	deliveryTimeout  time.Duration
	logger           logger.Logger
}

// NewPool creates a pool of workerCount workers.
func NewPool(workerCount int, queue Queue, sink Sink, opts ...PoolOption) *Pool {
	if workerCount < 1 {
		workerCount = defaultWorkerCount
	}
	p := &Pool{
		workers:          make([]*InMemoryWorker, workerCount),
		queue:            queue,
		failureThreshold: defaultFailureThreshold,
		openTimeout:      defaultOpenTimeout,
		deliveryTimeout:  defaultDeliveryTimeout,
		logger:           logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}

	cb := NewBreaker(breakerName, p.failureThreshold, p.openTimeout, p.logger)
	for i := range p.workers {
		p.workers[i] = NewInMemoryWorker(queue, sink,
			WithName("worker-"+strconv.Itoa(i)),
			WithLogger(p.logger),
			WithBreaker(cb),
			WithDeliveryTimeout(p.deliveryTimeout),
		)
	}
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start launches every worker.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	metrics.UpdateWorkerCount(len(p.workers))
}

// Shutdown closes the queue when it can be closed, lets workers drain it,
// and waits for them up to the pool timeout.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	metrics.UpdateWorkerCount(0)
	if timedOut {
		return fmt.Errorf("worker pool: %w", shutdownCtx.Err())
	}
	return nil
}
