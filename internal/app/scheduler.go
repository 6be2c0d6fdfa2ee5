package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/okian/skillswap/pkg/logger"
)

// Scheduler runs batch generation and retention on fixed intervals. Each
// job is a singleton: a tick that lands while the previous run is still
// going is rescheduled rather than stacked.
type Scheduler struct {
	svc   *Service
	sched gocron.Scheduler
	log   logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
	jobs   []string
}

// NewScheduler registers the periodic jobs. A non-positive interval
// disables that job.
func NewScheduler(svc *Service, batchEvery, retentionEvery time.Duration, log logger.Logger) (*Scheduler, error) {
	if svc == nil {
		return nil, errors.New("scheduler: nil service")
	}
	if log == nil {
		log = logger.Nop()
	}
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	s := &Scheduler{svc: svc, sched: sched, log: log}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	if batchEvery > 0 {
		if err := s.add("batch-generation", batchEvery, s.runBatch); err != nil {
			return nil, err
		}
	}
	if retentionEvery > 0 {
		if err := s.add("retention", retentionEvery, s.runRetention); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Scheduler) add(name string, every time.Duration, fn func()) error {
	_, err := s.sched.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(fn),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		s.cancel()
		_ = s.sched.Shutdown()
		return fmt.Errorf("schedule %s: %w", name, err)
	}
	s.jobs = append(s.jobs, name)
	s.log.Info(s.ctx, "job scheduled", logger.String("job", name), logger.Duration("every", every))
	return nil
}

// Jobs returns the names of the registered jobs.
func (s *Scheduler) Jobs() []string { return s.jobs }

// Start begins ticking.
func (s *Scheduler) Start() {
	s.sched.Start()
}

// Stop cancels running jobs and waits for them to return.
func (s *Scheduler) Stop() error {
	s.cancel()
	if err := s.sched.Shutdown(); err != nil {
		return fmt.Errorf("scheduler shutdown: %w", err)
	}
	return nil
}

func (s *Scheduler) runBatch() {
	if _, err := s.svc.RunBatchGeneration(s.ctx); err != nil {
		s.log.Warn(s.ctx, "scheduled batch generation not run", logger.Error(err))
	}
}

func (s *Scheduler) runRetention() {
	if _, err := s.svc.PurgeStaleInteractions(s.ctx); err != nil {
		s.log.Warn(s.ctx, "scheduled retention not run", logger.Error(err))
	}
}
