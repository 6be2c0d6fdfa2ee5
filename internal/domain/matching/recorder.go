package matching

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okian/skillswap/internal/domain/model"
	"github.com/okian/skillswap/pkg/metrics"
)

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithRecorderClock overrides time.Now.
func WithRecorderClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) {
		if now != nil {
			r.now = now
		}
	}
}

// Recorder writes interactions with one-row-per-pair semantics.
type Recorder struct {
	ledger Ledger
	now    func() time.Time
}

// NewRecorder creates a recorder over ledger.
func NewRecorder(ledger Ledger, opts ...RecorderOption) *Recorder {
	r := &Recorder{ledger: ledger, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record stores the requester's stance toward target. A decision replaces
// whatever the pair held before. A VIEW is only stored when the pair has
// no row, so it never masks a decision. Input validation is the caller's
// job.
func (r *Recorder) Record(ctx context.Context, userID, targetID string, t model.InteractionType, score *float64, explanation string) (model.MatchInteraction, error) {
	now := r.now().UTC()
	m := model.MatchInteraction{
		ID:           uuid.NewString(),
		UserID:       userID,
		TargetUserID: targetID,
		Type:         t,
		Score:        score,
		Explanation:  explanation,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if t == model.InteractionView {
		inserted, err := r.ledger.InsertIfAbsent(ctx, m)
		if err != nil {
			return model.MatchInteraction{}, fmt.Errorf("%w: %w", ErrRecordFailed, err)
		}
		if !inserted {
			return r.ledger.Get(ctx, userID, targetID)
		}
		metrics.RecordDecision(string(t))
		return m, nil
	}

	stored, err := r.ledger.Upsert(ctx, m)
	if err != nil {
		return model.MatchInteraction{}, fmt.Errorf("%w: %w", ErrRecordFailed, err)
	}
	metrics.RecordDecision(string(t))
	return stored, nil
}

// Unblock removes a BLOCK row. It returns model.ErrNotFound when the pair
// is not blocked; other decisions are left alone.
func (r *Recorder) Unblock(ctx context.Context, userID, targetID string) error {
	return r.ledger.Delete(ctx, userID, targetID, model.InteractionBlock)
}
