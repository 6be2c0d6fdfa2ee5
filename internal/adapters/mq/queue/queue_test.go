package queue

import (
	"context"
	"testing"
	"time"

	"github.com/okian/skillswap/internal/domain/model"
)

func note(user string) Notification {
	return model.Notification{UserID: user, Kind: model.NotificationKindNewMatches, Count: 3}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
	if q.Capacity() != 2 {
		t.Errorf("expected capacity 2, got %d", q.Capacity())
	}

	if !q.Enqueue(ctx, note("u1")) {
		t.Fatal("expected enqueue to succeed")
	}
	if l := q.Len(); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	n := <-q.Dequeue(ctx)
	if n.UserID != "u1" || n.Count != 3 {
		t.Errorf("unexpected notification %+v", n)
	}
}

func TestInMemoryQueue_DropsWhenFull(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(1))
	ctx := context.Background()

	if !q.Enqueue(ctx, note("u1")) {
		t.Fatal("first enqueue should succeed")
	}
	if q.Enqueue(ctx, note("u2")) {
		t.Error("second enqueue should be dropped")
	}
}

func TestInMemoryQueue_CancelledContext(t *testing.T) {
	q := NewInMemoryQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if q.Enqueue(ctx, note("u1")) {
		t.Error("enqueue with a done context should fail")
	}
}

func TestInMemoryQueue_CloseDrains(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(4))
	ctx := context.Background()
	q.Enqueue(ctx, note("u1"))
	q.Enqueue(ctx, note("u2"))

	if err := q.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := q.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed")
	}
	if q.Enqueue(ctx, note("u3")) {
		t.Error("enqueue after close should fail")
	}

	var got []string
	timeout := time.After(time.Second)
	ch := q.Dequeue(ctx)
	for {
		select {
		case n, ok := <-ch:
			if !ok {
				if len(got) != 2 {
					t.Errorf("expected 2 drained notifications, got %v", got)
				}
				return
			}
			got = append(got, n.UserID)
		case <-timeout:
			t.Fatal("dequeue channel never closed")
		}
	}
}
