// Package queue buffers notifications between the batch generator and the
// delivery workers. Enqueue never blocks: a full queue drops.
package queue

import (
	"context"
	"sync"

	"github.com/okian/skillswap/internal/domain/model"
	"github.com/okian/skillswap/pkg/metrics"
)

const defaultQueueCapacity = 10000

// Notification is the payload flowing through the queue.
type Notification = model.Notification

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue returns false if the queue is full, closed, or ctx is done.
	Enqueue(ctx context.Context, n Notification) bool
	// Dequeue returns a channel closed once the queue is closed and drained.
	Dequeue(ctx context.Context) <-chan Notification
	Len() int
	Close() error
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	items    chan Notification
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a bounded queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.items = make(chan Notification, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Capacity returns the configured bound.
func (q *InMemoryQueue) Capacity() int { return q.capacity }

// Enqueue adds n without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, n Notification) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed || ctx.Err() != nil {
		metrics.RecordNotification("dropped")
		return false
	}
	select {
	case q.items <- n:
		metrics.RecordNotification("enqueued")
		metrics.UpdateQueueSize(len(q.items))
		return true
	default:
		metrics.RecordNotification("dropped")
		return false
	}
}

// Dequeue returns a channel fed from the queue until it is closed or ctx
// is done.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Notification {
	out := make(chan Notification)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case n, ok := <-q.items:
				if !ok {
					return
				}
				metrics.UpdateQueueSize(len(q.items))
				select {
				case out <- n:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// Len returns the current number of pending notifications.
func (q *InMemoryQueue) Len() int {
	return len(q.items)
}

// Close stops accepting notifications. Pending ones are still delivered.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	close(q.items)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

// Notify enqueues n; it lets the queue stand in wherever a fire-and-forget
// notifier is expected.
func (q *InMemoryQueue) Notify(ctx context.Context, n Notification) bool {
	return q.Enqueue(ctx, n)
}
