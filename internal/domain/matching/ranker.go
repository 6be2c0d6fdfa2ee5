package matching

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/okian/skillswap/internal/domain/explain"
	"github.com/okian/skillswap/internal/domain/model"
	"github.com/okian/skillswap/internal/domain/scoring"
	"github.com/okian/skillswap/internal/domain/skills"
	"github.com/okian/skillswap/pkg/logger"
	"github.com/okian/skillswap/pkg/metrics"
)

// Ranking defaults.
const (
	DefaultLimit         = 20
	DefaultMaxLimit      = 100
	defaultHistoryWindow = 30 * 24 * time.Hour
)

// RankerOption configures a Ranker.
type RankerOption func(*Ranker)

// WithDefaultLimit sets the result size used when the caller passes none.
func WithDefaultLimit(n int) RankerOption {
	return func(r *Ranker) {
		if n > 0 {
			r.defaultLimit = n
		}
	}
}

// WithMaxLimit caps the result size a caller may ask for.
func WithMaxLimit(n int) RankerOption {
	return func(r *Ranker) {
		if n > 0 {
			r.maxLimit = n
		}
	}
}

// WithHistoryWindow sets how much candidate history is loaded for the
// response-rate factor.
func WithHistoryWindow(d time.Duration) RankerOption {
	return func(r *Ranker) {
		if d > 0 {
			r.historyWindow = d
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) RankerOption {
	return func(r *Ranker) {
		if now != nil {
			r.now = now
		}
	}
}

// WithRankerLogger sets the logger.
func WithRankerLogger(l logger.Logger) RankerOption {
	return func(r *Ranker) {
		if l != nil {
			r.log = l
		}
	}
}

// Ranker scores a candidate pool and orders it.
type Ranker struct {
	scorer        scoring.Scorer
	ledger        Ledger
	defaultLimit  int
	maxLimit      int
	historyWindow time.Duration
	now           func() time.Time
	log           logger.Logger
}

// NewRanker creates a ranker. The ledger supplies candidate history.
func NewRanker(scorer scoring.Scorer, ledger Ledger, opts ...RankerOption) *Ranker {
	r := &Ranker{
		scorer:        scorer,
		ledger:        ledger,
		defaultLimit:  DefaultLimit,
		maxLimit:      DefaultMaxLimit,
		historyWindow: defaultHistoryWindow,
		now:           time.Now,
		log:           logger.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.defaultLimit > r.maxLimit {
		r.defaultLimit = r.maxLimit
	}
	return r
}

// Limit normalizes a requested result size.
func (r *Ranker) Limit(requested int) int {
	switch {
	case requested <= 0:
		return r.defaultLimit
	case requested > r.maxLimit:
		return r.maxLimit
	default:
		return requested
	}
}

// Rank scores every candidate, sorts by score descending with ties broken
// by candidate id, and keeps the first limit entries. A candidate that
// cannot be scored is logged and left out. Only context cancellation
// fails the call.
func (r *Ranker) Rank(ctx context.Context, requester *model.Person, candidates []*model.Person, limit int) ([]model.RankedMatch, error) {
	if requester == nil {
		return nil, ErrNilRequester
	}
	limit = r.Limit(limit)
	now := r.now()

	out := make([]model.RankedMatch, 0, len(candidates))
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m, err := r.Match(ctx, requester, c, now)
		if err != nil {
			metrics.RecordScoringError()
			id := ""
			if c != nil {
				id = c.ID
			}
			r.log.Warn(ctx, "skipping candidate",
				logger.String("requester_id", requester.ID),
				logger.String("candidate_id", id),
				logger.Error(err))
			continue
		}
		out = append(out, m)
	}
	metrics.RecordCandidatesScored(len(out))

	Sort(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Match scores one pair and decorates it with skills and an explanation.
func (r *Ranker) Match(ctx context.Context, requester, candidate *model.Person, now time.Time) (m model.RankedMatch, err error) {
	if candidate == nil {
		return m, ErrNilCandidate
	}
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("scoring panicked: %v", p)
		}
	}()

	history, err := r.ledger.RecentInteractions(ctx, candidate.ID, now.Add(-r.historyWindow))
	if err != nil {
		return m, fmt.Errorf("candidate history: %w", err)
	}
	res := r.scorer.Score(scoring.Input{
		Requester:        requester,
		Candidate:        candidate,
		CandidateHistory: history,
		Now:              now,
	})
	common := skills.Common(requester, candidate)

	return model.RankedMatch{
		Candidate: candidate,
		Score:     res.Score(),
		Breakdown: res.Breakdown,
		Explanation: explain.Generate(explain.Input{
			Breakdown:       res.Breakdown,
			CandidateRating: candidate.Rating,
			CommonSkills:    len(common),
		}),
		CommonSkills:        common,
		ComplementarySkills: skills.ComplementaryPairs(requester, candidate),
	}, nil
}

// Sort orders matches by score descending, then candidate id ascending.
func Sort(ms []model.RankedMatch) {
	sort.SliceStable(ms, func(i, j int) bool {
		if ms[i].Score != ms[j].Score {
			return ms[i].Score > ms[j].Score
		}
		return ms[i].Candidate.ID < ms[j].Candidate.ID
	})
}
