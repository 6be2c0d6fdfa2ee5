package service

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/skillswap/internal/domain/model"
	"github.com/okian/skillswap/pkg/logger"
	"github.com/okian/skillswap/pkg/metrics"
)

const defaultRetention = 90 * 24 * time.Hour

// purgeable lists the interaction types that age out. Decisions that shape
// future matching (FAVORITE, BLOCK) are kept forever.
var purgeable = []model.InteractionType{model.InteractionPass, model.InteractionView}

// Purger deletes old ledger rows.
type Purger interface {
	PurgeOlderThan(ctx context.Context, types []model.InteractionType, cutoff time.Time) (int64, error)
}

// Retention removes stale PASS and VIEW rows.
type Retention struct {
	purger Purger
	maxAge time.Duration
	now    func() time.Time
	log    logger.Logger
}

// NewRetention creates a retention job. A non-positive maxAge selects 90 days.
func NewRetention(purger Purger, maxAge time.Duration, log logger.Logger) *Retention {
	if maxAge <= 0 {
		maxAge = defaultRetention
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Retention{purger: purger, maxAge: maxAge, now: time.Now, log: log}
}

// MaxAge returns the retention period.
func (r *Retention) MaxAge() time.Duration { return r.maxAge }

// Run deletes every purgeable row last updated before now minus MaxAge.
func (r *Retention) Run(ctx context.Context) (int64, error) {
	cutoff := r.now().UTC().Add(-r.maxAge)
	n, err := r.purger.PurgeOlderThan(ctx, purgeable, cutoff)
	if err != nil {
		r.log.Error(ctx, "retention purge failed", logger.Error(err))
		return 0, fmt.Errorf("purge interactions: %w", err)
	}
	metrics.RecordRetentionPurged(n)
	r.log.Info(ctx, "retention purge finished",
		logger.Int64("purged", n),
		logger.String("cutoff", cutoff.Format(time.RFC3339)))
	return n, nil
}
