// Package service wires the matching engine into a runnable service: the
// on-demand suggestion path, decision recording, the population-wide batch
// generator and the notification pipeline behind it.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/okian/skillswap/internal/adapters/mq/queue"
	"github.com/okian/skillswap/internal/adapters/mq/worker"
	"github.com/okian/skillswap/internal/domain/matching"
	"github.com/okian/skillswap/internal/domain/model"
	"github.com/okian/skillswap/internal/domain/scoring"
	"github.com/okian/skillswap/internal/validation"
	"github.com/okian/skillswap/pkg/logger"
	"github.com/okian/skillswap/pkg/metrics"
)

// Service is the engine facade used by the HTTP API and the scheduler.
type Service struct {
	mu sync.RWMutex

	// Collaborators
	directory matching.Directory
	ledger    matching.Ledger
	notifier  Notifier
	sink      worker.Sink
	locker    Locker

	// Configuration
	weights          scoring.Weights
	responseWindow   time.Duration
	poolLimit        int
	defaultLimit     int
	maxLimit         int
	batchCfg         BatchConfig
	retention        time.Duration
	queueCapacity    int
	workerCount      int
	breakerThreshold uint32
	breakerTimeout   time.Duration
	recordViews      bool
	now              func() time.Time

	// Built on Start
	calculator *scoring.Calculator
	matcher    *matching.Matcher
	recorder   *matching.Recorder
	batch      *BatchGenerator
	purge      *Retention
	queue      *queue.InMemoryQueue
	pool       *worker.Pool

	started bool
	logger  logger.Logger
}

// Stats is a point-in-time view of the service for monitoring.
type Stats struct {
	Started       bool              `json:"started"`
	BatchState    string            `json:"batch_state"`
	LastBatch     *model.BatchStats `json:"last_batch,omitempty"`
	QueueLength   int               `json:"queue_length"`
	QueueCapacity int               `json:"queue_capacity"`
	Workers       int               `json:"workers"`
	PoolLimit     int               `json:"candidate_pool_limit"`
	DefaultLimit  int               `json:"default_limit"`
	MaxLimit      int               `json:"max_limit"`
	Weights       scoring.Weights   `json:"weights"`
}

// New constructs a Service with default configuration. A store must be
// supplied before Start.
func New(opts ...Option) *Service {
	s := &Service{
		weights:          scoring.DefaultWeights(),
		poolLimit:        matching.DefaultPoolLimit,
		defaultLimit:     matching.DefaultLimit,
		maxLimit:         matching.DefaultMaxLimit,
		retention:        defaultRetention,
		queueCapacity:    10000,
		workerCount:      2,
		breakerThreshold: 5,
		breakerTimeout:   30 * time.Second,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the engine and launches the notification workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.directory == nil || s.ledger == nil {
		return errors.New("service: directory and ledger are required")
	}
	if err := s.weights.Validate(); err != nil {
		return err
	}

	s.logger.Info(ctx, "starting matching service...")

	s.calculator = scoring.NewCalculator(
		scoring.WithWeights(s.weights),
		scoring.WithResponseWindow(s.responseWindow),
	)
	selector := matching.NewSelector(s.directory, s.ledger, matching.WithPoolLimit(s.poolLimit))
	ranker := matching.NewRanker(s.calculator, s.ledger,
		matching.WithDefaultLimit(s.defaultLimit),
		matching.WithMaxLimit(s.maxLimit),
		matching.WithHistoryWindow(s.calculator.ResponseWindow()),
		matching.WithClock(s.now),
		matching.WithRankerLogger(s.logger.Named("ranker")),
	)
	s.matcher = matching.NewMatcher(selector, ranker)
	s.recorder = matching.NewRecorder(s.ledger, matching.WithRecorderClock(s.now))

	if s.notifier == nil {
		if s.sink == nil {
			s.sink = worker.NewLogSink(s.logger.Named("notifications"))
		}
		s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueCapacity))
		s.pool = worker.NewPool(s.workerCount, s.queue, s.sink,
			worker.WithPoolLogger(s.logger.Named("worker")),
			worker.WithBreakerSettings(s.breakerThreshold, s.breakerTimeout),
		)
		// Workers outlive the start context; Stop closes the queue and drains them.
		s.pool.Start(context.WithoutCancel(ctx))
		s.notifier = s.queue
	}

	s.batch = NewBatchGenerator(s.directory, s.matcher, s.notifier, s.locker, s.batchCfg, s.logger.Named("batch"))
	s.batch.now = s.now
	s.purge = NewRetention(s.ledger, s.retention, s.logger.Named("retention"))
	s.purge.now = s.now

	s.started = true
	s.logger.Info(ctx, "matching service started",
		logger.Int("candidatePoolLimit", s.poolLimit),
		logger.Int("defaultLimit", s.defaultLimit),
		logger.Int("maxLimit", s.maxLimit),
		logger.Bool("recordViews", s.recordViews),
		logger.Bool("builtinQueue", s.queue != nil),
	)
	return nil
}

// Stop drains the notification workers. It is safe to call more than once.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.logger.Info(ctx, "stopping matching service...")

	if s.pool != nil {
		if err := s.pool.Shutdown(ctx); err != nil {
			s.logger.Warn(ctx, "notification workers did not drain", logger.Error(err))
		}
		s.pool = nil
		s.queue = nil
		s.notifier = nil
	}

	s.started = false
	s.logger.Info(ctx, "matching service stopped")
}

func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// SuggestMatches returns ranked candidates for requesterID.
func (s *Service) SuggestMatches(ctx context.Context, requesterID string, filters model.Filters, limit int) ([]model.RankedMatch, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	start := time.Now()

	if err := validation.Filters(filters); err != nil {
		return nil, err
	}
	requester, err := s.directory.GetPerson(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("requester %q: %w", requesterID, err)
	}

	matches, err := s.matcher.Suggest(ctx, requester, filters, limit)
	if err != nil {
		return nil, err
	}
	if s.recordViews {
		s.recordViewsFor(ctx, requester.ID, matches)
	}

	metrics.RecordSuggestion(float64(time.Since(start).Microseconds()) / 1000)
	s.logger.Debug(ctx, "suggestions served",
		logger.String("requester_id", requester.ID),
		logger.Int("count", len(matches)),
		logger.Duration("elapsed", time.Since(start)))
	return matches, nil
}

func (s *Service) recordViewsFor(ctx context.Context, userID string, matches []model.RankedMatch) {
	for _, m := range matches {
		score := m.Score
		if _, err := s.recorder.Record(ctx, userID, m.Candidate.ID, model.InteractionView, &score, m.Explanation); err != nil {
			s.logger.Warn(ctx, "recording view failed",
				logger.String("user_id", userID),
				logger.String("target_id", m.Candidate.ID),
				logger.Error(err))
		}
	}
}

// RecordDecision stores userID's decision about targetID together with a
// snapshot of the pair's current score and explanation.
func (s *Service) RecordDecision(ctx context.Context, userID, targetID, decision string) (model.MatchInteraction, error) {
	if err := s.ready(); err != nil {
		return model.MatchInteraction{}, err
	}
	userID, targetID = strings.TrimSpace(userID), strings.TrimSpace(targetID)
	if userID == "" || targetID == "" {
		return model.MatchInteraction{}, fmt.Errorf("%w: user and target are required", model.ErrInvalidDecision)
	}
	if userID == targetID {
		return model.MatchInteraction{}, fmt.Errorf("%w: cannot decide on yourself", model.ErrInvalidDecision)
	}
	t, err := validation.DecisionType(validation.Decision{Decision: decision})
	if err != nil {
		return model.MatchInteraction{}, err
	}

	user, err := s.directory.GetPerson(ctx, userID)
	if err != nil {
		return model.MatchInteraction{}, fmt.Errorf("user %q: %w", userID, err)
	}
	target, err := s.directory.GetPerson(ctx, targetID)
	if err != nil {
		return model.MatchInteraction{}, fmt.Errorf("target %q: %w", targetID, err)
	}

	var (
		score       *float64
		explanation string
	)
	if m, err := s.matcher.Ranker().Match(ctx, user, target, s.now()); err != nil {
		s.logger.Warn(ctx, "score snapshot unavailable",
			logger.String("user_id", userID),
			logger.String("target_id", targetID),
			logger.Error(err))
	} else {
		score, explanation = &m.Score, m.Explanation
	}

	rec, err := s.recorder.Record(ctx, userID, targetID, t, score, explanation)
	if err != nil {
		return model.MatchInteraction{}, err
	}
	s.logger.Info(ctx, "decision recorded",
		logger.String("user_id", userID),
		logger.String("target_id", targetID),
		logger.String("type", string(t)))
	return rec, nil
}

// Unblock lifts userID's block on targetID.
func (s *Service) Unblock(ctx context.Context, userID, targetID string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if userID == "" || targetID == "" || userID == targetID {
		return fmt.Errorf("%w: invalid unblock pair", model.ErrInvalidDecision)
	}
	if err := s.recorder.Unblock(ctx, userID, targetID); err != nil {
		return fmt.Errorf("unblock %q: %w", targetID, err)
	}
	return nil
}

// ListFavorites returns userID's favorites re-scored as of now, newest
// favorite first. Favorites that no longer resolve are skipped.
func (s *Service) ListFavorites(ctx context.Context, userID string) ([]model.RankedMatch, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	user, err := s.directory.GetPerson(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user %q: %w", userID, err)
	}
	rows, err := s.ledger.ListByType(ctx, userID, model.InteractionFavorite)
	if err != nil {
		return nil, err
	}

	now := s.now()
	out := make([]model.RankedMatch, 0, len(rows))
	for _, row := range rows {
		target, err := s.directory.GetPerson(ctx, row.TargetUserID)
		if err != nil {
			s.logger.Debug(ctx, "favorite no longer resolves",
				logger.String("target_id", row.TargetUserID), logger.Error(err))
			continue
		}
		m, err := s.matcher.Ranker().Match(ctx, user, target, now)
		if err != nil {
			s.logger.Warn(ctx, "favorite could not be scored",
				logger.String("target_id", row.TargetUserID), logger.Error(err))
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// RunBatchGeneration runs one population-wide pass synchronously.
func (s *Service) RunBatchGeneration(ctx context.Context) (model.BatchStats, error) {
	if err := s.ready(); err != nil {
		return model.BatchStats{}, err
	}
	return s.batch.Run(ctx), nil
}

// BatchState reports the generator's lifecycle state.
func (s *Service) BatchState() BatchState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.batch == nil {
		return StateIdle
	}
	return s.batch.State()
}

// PurgeStaleInteractions applies the retention policy once.
func (s *Service) PurgeStaleInteractions(ctx context.Context) (int64, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	return s.purge.Run(ctx)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{
		Started:      s.started,
		BatchState:   StateIdle.String(),
		PoolLimit:    s.poolLimit,
		DefaultLimit: s.defaultLimit,
		MaxLimit:     s.maxLimit,
		Weights:      s.weights,
	}
	if s.batch != nil {
		st.BatchState = s.batch.State().String()
		if last, ok := s.batch.LastStats(); ok {
			st.LastBatch = &last
		}
	}
	if s.queue != nil {
		st.QueueLength = s.queue.Len()
		st.QueueCapacity = s.queue.Capacity()
		metrics.UpdateQueueSize(st.QueueLength)
	}
	if s.pool != nil {
		st.Workers = s.pool.Size()
	}
	return st
}
