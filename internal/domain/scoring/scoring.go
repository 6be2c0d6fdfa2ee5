// Package scoring combines the compatibility factors into one weighted score.
package scoring

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/okian/skillswap/internal/domain/availability"
	"github.com/okian/skillswap/internal/domain/model"
	"github.com/okian/skillswap/internal/domain/skills"
)

// Default scoring configuration constants.
const (
	defaultResponseWindow = 30 * 24 * time.Hour
	neutralResponseRate   = 0.5
	maxRating             = 5.0
	sessionBonusCap       = 0.2
	sessionBonusFullAt    = 50.0
	weightSumTolerance    = 1e-9
)

// ErrInvalidWeights is returned when weights are negative or do not sum to 1.
var ErrInvalidWeights = errors.New("scoring weights must be non-negative and sum to 1.0")

// Weights are the fixed factor weights. They are passed by value and never
// mutated after construction.
type Weights struct {
	Complementarity     float64 `json:"complementarity"`
	AvailabilityOverlap float64 `json:"availability_overlap"`
	LearningStyle       float64 `json:"learning_style"`
	RatingHistory       float64 `json:"rating_history"`
	ResponseRate        float64 `json:"response_rate"`
}

// DefaultWeights returns the production weighting.
func DefaultWeights() Weights {
	return Weights{
		Complementarity:     0.40,
		AvailabilityOverlap: 0.20,
		LearningStyle:       0.15,
		RatingHistory:       0.15,
		ResponseRate:        0.10,
	}
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.Complementarity + w.AvailabilityOverlap + w.LearningStyle + w.RatingHistory + w.ResponseRate
}

// Validate checks the weights are usable.
func (w Weights) Validate() error {
	for _, v := range []float64{w.Complementarity, w.AvailabilityOverlap, w.LearningStyle, w.RatingHistory, w.ResponseRate} {
		if v < 0 || math.IsNaN(v) {
			return ErrInvalidWeights
		}
	}
	if math.Abs(w.Sum()-1) > weightSumTolerance {
		return fmt.Errorf("%w: got %.4f", ErrInvalidWeights, w.Sum())
	}
	return nil
}

// Option applies a configuration option to the Calculator.
type Option func(*Calculator)

// WithWeights replaces the default weights. Invalid weights are ignored.
func WithWeights(w Weights) Option {
	return func(c *Calculator) {
		if w.Validate() == nil {
			c.weights = w
		}
	}
}

// WithResponseWindow sets how far back candidate decisions count toward the
// response rate.
func WithResponseWindow(d time.Duration) Option {
	return func(c *Calculator) {
		if d > 0 {
			c.responseWindow = d
		}
	}
}

// Input is everything needed to score one (requester, candidate) pair.
type Input struct {
	Requester *model.Person
	Candidate *model.Person
	// CandidateHistory holds the candidate's own recent interactions.
	CandidateHistory []model.MatchInteraction
	Now              time.Time
}

// Result carries the breakdown and the raw overlap used to derive it.
type Result struct {
	Breakdown      model.Breakdown
	OverlapMinutes int
}

// Score returns the rounded weighted total.
func (r Result) Score() float64 { return r.Breakdown.Total }

// Scorer computes a pair score.
type Scorer interface {
	Score(in Input) Result
}

// Calculator implements Scorer. It holds no mutable state and is safe for
// concurrent use.
type Calculator struct {
	weights        Weights
	responseWindow time.Duration
}

// NewCalculator creates a calculator with the default weights.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{
		weights:        DefaultWeights(),
		responseWindow: defaultResponseWindow,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Weights returns the weights in use.
func (c *Calculator) Weights() Weights { return c.weights }

// ResponseWindow returns the response-rate look-back.
func (c *Calculator) ResponseWindow() time.Duration { return c.responseWindow }

// Score computes the breakdown for in.
func (c *Calculator) Score(in Input) Result {
	reqSlots := in.Requester.ActiveAvailability()
	candSlots := in.Candidate.ActiveAvailability()

	b := model.Breakdown{
		Complementarity:     skills.Complementarity(in.Requester, in.Candidate),
		AvailabilityOverlap: availability.Ratio(reqSlots, candSlots),
		LearningStyle:       skills.LearningStyle(in.Requester, in.Candidate),
		RatingHistory:       RatingHistory(in.Candidate.Rating, in.Candidate.TotalSessions),
		ResponseRate:        ResponseRate(in.CandidateHistory, in.Now.Add(-c.responseWindow)),
	}
	b.Total = c.Total(b)

	return Result{
		Breakdown:      b,
		OverlapMinutes: availability.Compute(reqSlots, candSlots).TotalMinutes,
	}
}

// Total is the weighted sum of the sub-scores rounded to two decimals and
// clamped to [0,1].
func (c *Calculator) Total(b model.Breakdown) float64 {
	w := c.weights
	sum := w.Complementarity*b.Complementarity +
		w.AvailabilityOverlap*b.AvailabilityOverlap +
		w.LearningStyle*b.LearningStyle +
		w.RatingHistory*b.RatingHistory +
		w.ResponseRate*b.ResponseRate
	return Round2(math.Max(0, math.Min(1, sum)))
}

// RatingHistory rewards a high rating and, up to 0.2, a larger sample of
// completed sessions.
func RatingHistory(rating float64, sessions int) float64 {
	r := math.Max(0, math.Min(maxRating, rating)) / maxRating
	bonus := math.Min(sessionBonusCap, float64(max(0, sessions))/sessionBonusFullAt*sessionBonusCap)
	return math.Min(1, r+bonus)
}

// ResponseRate is the share of FAVORITE among the candidate's decisions
// made at or after since. VIEW rows are not decisions. With no decisions
// the neutral prior 0.5 is returned.
func ResponseRate(history []model.MatchInteraction, since time.Time) float64 {
	decisions, favorites := 0, 0
	for _, it := range history {
		if !it.Type.IsDecision() || it.UpdatedAt.Before(since) {
			continue
		}
		decisions++
		if it.Type == model.InteractionFavorite {
			favorites++
		}
	}
	if decisions == 0 {
		return neutralResponseRate
	}
	return float64(favorites) / float64(decisions)
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
