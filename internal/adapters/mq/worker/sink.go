package worker

import (
	"context"

	"github.com/okian/skillswap/internal/domain/model"
	"github.com/okian/skillswap/pkg/logger"
)

// Sink delivers one notification to the outside world.
type Sink interface {
	Deliver(ctx context.Context, n model.Notification) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, n model.Notification) error

// Deliver implements Sink.
func (f SinkFunc) Deliver(ctx context.Context, n model.Notification) error { return f(ctx, n) }

// LogSink writes notifications to the log. It is the default when no
// broker is configured.
type LogSink struct {
	log logger.Logger
}

// NewLogSink creates a LogSink.
func NewLogSink(l logger.Logger) *LogSink {
	if l == nil {
		l = logger.Nop()
	}
	return &LogSink{log: l}
}

// Deliver implements Sink.
func (s *LogSink) Deliver(ctx context.Context, n model.Notification) error {
	s.log.Info(ctx, "notification",
		logger.String("user_id", n.UserID),
		logger.String("kind", n.Kind),
		logger.Int("count", n.Count),
		logger.String("run_id", n.RunID))
	return nil
}
