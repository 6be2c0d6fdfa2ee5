package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/okian/skillswap/internal/domain/model"
	"github.com/okian/skillswap/internal/domain/scoring"
	"github.com/okian/skillswap/pkg/logger"
	"github.com/okian/skillswap/pkg/metrics"
)

// BatchState is the generator's lifecycle position.
type BatchState int32

const (
	StateIdle BatchState = iota
	StateRunning
	StateCompleted
	StateFailed
)

func (s BatchState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateRunning:
		return "RUNNING"
	case StateCompleted:
		return "COMPLETED"
	case StateFailed:
		return "FAILED"
	}
	return fmt.Sprintf("BatchState(%d)", int32(s))
}

// Batch defaults.
const (
	defaultBatchWidth   = 10
	defaultBatchPause   = 500 * time.Millisecond
	defaultTopK         = 5
	defaultActiveWindow = 30 * 24 * time.Hour
	defaultLockTTL      = 30 * time.Minute
	batchLockName       = "batch-generation"
)

// Suggester computes ranked matches for one person.
type Suggester interface {
	Suggest(ctx context.Context, requester *model.Person, filters model.Filters, limit int) ([]model.RankedMatch, error)
}

// Population lists the people a batch run covers.
type Population interface {
	ListEligible(ctx context.Context, activeSince time.Time) ([]*model.Person, error)
}

// Notifier accepts fire-and-forget notifications. It reports whether the
// notification was accepted.
type Notifier interface {
	Notify(ctx context.Context, n model.Notification) bool
}

// Locker excludes runs across processes.
type Locker interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (release func(context.Context) error, ok bool, err error)
}

// BatchConfig tunes a BatchGenerator.
type BatchConfig struct {
	Width        int
	Pause        time.Duration
	TopK         int
	ActiveWindow time.Duration
	LockTTL      time.Duration
}

func (c BatchConfig) withDefaults() BatchConfig {
	if c.Width <= 0 {
		c.Width = defaultBatchWidth
	}
	if c.Pause < 0 {
		c.Pause = 0
	}
	if c.TopK <= 0 {
		c.TopK = defaultTopK
	}
	if c.ActiveWindow <= 0 {
		c.ActiveWindow = defaultActiveWindow
	}
	if c.LockTTL <= 0 {
		c.LockTTL = defaultLockTTL
	}
	return c
}

// BatchGenerator re-runs matching for the whole eligible population.
// Fan-out is bounded to Width people at a time with a pause between groups
// so the store is never saturated.
type BatchGenerator struct {
	population Population
	suggester  Suggester
	notifier   Notifier
	locker     Locker
	cfg        BatchConfig
	now        func() time.Time
	log        logger.Logger

	state atomic.Int32
	mu    sync.RWMutex
	last  *model.BatchStats
}

// NewBatchGenerator wires a generator. notifier and locker may be nil.
func NewBatchGenerator(population Population, suggester Suggester, notifier Notifier, locker Locker, cfg BatchConfig, log logger.Logger) *BatchGenerator {
	if log == nil {
		log = logger.Nop()
	}
	return &BatchGenerator{
		population: population,
		suggester:  suggester,
		notifier:   notifier,
		locker:     locker,
		cfg:        cfg.withDefaults(),
		now:        time.Now,
		log:        log,
	}
}

// State returns the current lifecycle state.
func (b *BatchGenerator) State() BatchState {
	return BatchState(b.state.Load())
}

// LastStats returns the outcome of the last run that was not skipped.
func (b *BatchGenerator) LastStats() (model.BatchStats, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.last == nil {
		return model.BatchStats{}, false
	}
	return *b.last, true
}

// Run performs one pass. It never returns an error: failures are logged and
// reflected in the returned stats. A run started while another is active,
// here or in another process holding the lock, is skipped.
func (b *BatchGenerator) Run(ctx context.Context) model.BatchStats {
	stats := model.BatchStats{RunID: uuid.NewString(), StartedAt: b.now().UTC()}
	log := b.log.With(logger.String("run_id", stats.RunID))

	if !b.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		log.Warn(ctx, "batch generation skipped", logger.Error(ErrBatchInProgress))
		return b.skipped(stats)
	}

	if b.locker != nil {
		release, ok, err := b.locker.Acquire(ctx, batchLockName, b.cfg.LockTTL)
		switch {
		case err != nil:
			log.Error(ctx, "batch lock unavailable", logger.Error(err))
			return b.finish(ctx, log, stats, StateFailed)
		case !ok:
			b.state.Store(int32(StateIdle))
			log.Warn(ctx, "batch generation skipped, lock held elsewhere")
			return b.skipped(stats)
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				log.Warn(ctx, "batch lock release failed", logger.Error(err))
			}
		}()
	}

	metrics.UpdateBatchRunning(true)
	defer metrics.UpdateBatchRunning(false)

	people, err := b.population.ListEligible(ctx, stats.StartedAt.Add(-b.cfg.ActiveWindow))
	if err != nil {
		log.Error(ctx, "loading eligible population failed", logger.Error(err))
		return b.finish(ctx, log, stats, StateFailed)
	}
	stats.TotalActiveUsers = len(people)
	log.Info(ctx, "batch generation started", logger.Int("active_users", len(people)))

	var withMatches, failed, total atomic.Int64
	for start := 0; start < len(people); start += b.cfg.Width {
		if ctx.Err() != nil {
			break
		}
		end := min(start+b.cfg.Width, len(people))

		g := new(errgroup.Group)
		g.SetLimit(b.cfg.Width)
		for _, p := range people[start:end] {
			g.Go(func() error {
				n, err := b.generateFor(ctx, p, stats.RunID)
				switch {
				case err != nil:
					failed.Add(1)
					metrics.RecordBatchUserFailure()
					log.Warn(ctx, "generation failed for user", logger.String("user_id", p.ID), logger.Error(err))
				case n > 0:
					withMatches.Add(1)
					total.Add(int64(n))
				}
				return nil
			})
		}
		_ = g.Wait()

		if end < len(people) && !b.pause(ctx) {
			break
		}
	}

	stats.UsersWithMatches = int(withMatches.Load())
	stats.FailedUsers = int(failed.Load())
	stats.TotalMatches = int(total.Load())
	if stats.UsersWithMatches > 0 {
		stats.AverageMatchesPerUser = scoring.Round2(float64(stats.TotalMatches) / float64(stats.UsersWithMatches))
	}
	if stats.TotalActiveUsers > 0 {
		stats.GenerationRate = scoring.Round2(float64(stats.UsersWithMatches) / float64(stats.TotalActiveUsers))
	}

	final := StateCompleted
	if ctx.Err() != nil {
		log.Warn(ctx, "batch generation interrupted", logger.Error(ctx.Err()))
		final = StateFailed
	}
	return b.finish(ctx, log, stats, final)
}

// generateFor computes one person's top K and notifies them. A panic is
// turned into an error so one bad profile cannot take the run down.
func (b *BatchGenerator) generateFor(ctx context.Context, p *model.Person, runID string) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	matches, err := b.suggester.Suggest(ctx, p, model.Filters{}, b.cfg.TopK)
	if err != nil {
		return 0, err
	}
	n = len(matches)
	if n > 0 && b.notifier != nil {
		ok := b.notifier.Notify(ctx, model.Notification{
			UserID:    p.ID,
			Kind:      model.NotificationKindNewMatches,
			Count:     n,
			RunID:     runID,
			CreatedAt: b.now().UTC(),
		})
		if !ok {
			b.log.Debug(ctx, "notification dropped", logger.String("user_id", p.ID))
		}
	}
	return n, nil
}

// pause waits between groups; false means ctx ended first.
func (b *BatchGenerator) pause(ctx context.Context) bool {
	if b.cfg.Pause == 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(b.cfg.Pause)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// finish publishes the terminal state, then returns the generator to IDLE.
func (b *BatchGenerator) finish(ctx context.Context, log logger.Logger, stats model.BatchStats, final BatchState) model.BatchStats {
	stats.CompletedAt = b.now().UTC()
	stats.Status = model.BatchCompleted
	if final == StateFailed {
		stats.Status = model.BatchFailed
	}

	b.state.Store(int32(final))
	b.mu.Lock()
	cp := stats
	b.last = &cp
	b.mu.Unlock()

	duration := stats.CompletedAt.Sub(stats.StartedAt)
	metrics.RecordBatchRun(string(stats.Status), duration.Seconds())
	if final == StateCompleted {
		metrics.UpdateBatchResult(stats.UsersWithMatches, stats.TotalMatches, stats.GenerationRate)
	}
	log.Info(ctx, "batch generation finished",
		logger.String("status", string(stats.Status)),
		logger.Int("active_users", stats.TotalActiveUsers),
		logger.Int("users_with_matches", stats.UsersWithMatches),
		logger.Int("failed_users", stats.FailedUsers),
		logger.Int("total_matches", stats.TotalMatches),
		logger.Float64("average_matches_per_user", stats.AverageMatchesPerUser),
		logger.Float64("generation_rate", stats.GenerationRate),
		logger.Duration("duration", duration))

	b.state.Store(int32(StateIdle))
	return stats
}

func (b *BatchGenerator) skipped(stats model.BatchStats) model.BatchStats {
	stats.Status = model.BatchSkipped
	stats.CompletedAt = b.now().UTC()
	metrics.RecordBatchRun(string(stats.Status), 0)
	return stats
}
