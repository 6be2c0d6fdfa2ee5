// Package matching selects, ranks and records candidate matches for one
// requester. Persistence sits behind Directory and Ledger.
package matching

import (
	"context"
	"time"

	"github.com/okian/skillswap/internal/domain/model"
)

// CandidateQuery is what the selector asks the directory for.
type CandidateQuery struct {
	ExcludeIDs   []string
	VerifiedOnly bool
	Filters      model.Filters
	Limit        int
}

// Directory reads people. Profiles are owned elsewhere.
type Directory interface {
	// GetPerson returns model.ErrNotFound for an unknown id.
	GetPerson(ctx context.Context, id string) (*model.Person, error)
	// QueryCandidates applies q and returns at most q.Limit people.
	QueryCandidates(ctx context.Context, q CandidateQuery) ([]*model.Person, error)
	// ListEligible returns verified, opted-in people active at or after
	// activeSince, ordered by id.
	ListEligible(ctx context.Context, activeSince time.Time) ([]*model.Person, error)
}

// Ledger stores the single current interaction per ordered pair.
type Ledger interface {
	// BlockedTargets lists the ids userID has blocked.
	BlockedTargets(ctx context.Context, userID string) ([]string, error)
	// RecentInteractions lists rows authored by userID updated at or after since.
	RecentInteractions(ctx context.Context, userID string, since time.Time) ([]model.MatchInteraction, error)
	// Get returns model.ErrNotFound when the pair has no row.
	Get(ctx context.Context, userID, targetID string) (model.MatchInteraction, error)
	// Upsert replaces the pair's row, keeping its id and creation time.
	Upsert(ctx context.Context, m model.MatchInteraction) (model.MatchInteraction, error)
	// InsertIfAbsent stores m only when the pair has no row yet.
	InsertIfAbsent(ctx context.Context, m model.MatchInteraction) (bool, error)
	// Delete removes the pair's row only when it has type t. It returns
	// model.ErrNotFound otherwise.
	Delete(ctx context.Context, userID, targetID string, t model.InteractionType) error
	// ListByType lists userID's rows of type t, newest first.
	ListByType(ctx context.Context, userID string, t model.InteractionType) ([]model.MatchInteraction, error)
	// PurgeOlderThan deletes rows of the given types last updated before
	// cutoff and returns how many went.
	PurgeOlderThan(ctx context.Context, types []model.InteractionType, cutoff time.Time) (int64, error)
}
