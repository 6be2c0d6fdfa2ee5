package matching

import (
	"context"
	"fmt"

	"github.com/okian/skillswap/internal/domain/model"
)

// DefaultPoolLimit bounds how many candidates one request scores.
const DefaultPoolLimit = 100

// SelectorOption configures a Selector.
type SelectorOption func(*Selector)

// WithPoolLimit sets the candidate pool bound.
func WithPoolLimit(n int) SelectorOption {
	return func(s *Selector) {
		if n > 0 {
			s.poolLimit = n
		}
	}
}

// Selector produces the candidate pool for a requester.
type Selector struct {
	directory Directory
	ledger    Ledger
	poolLimit int
}

// NewSelector creates a selector over the given stores.
func NewSelector(directory Directory, ledger Ledger, opts ...SelectorOption) *Selector {
	s := &Selector{directory: directory, ledger: ledger, poolLimit: DefaultPoolLimit}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PoolLimit returns the configured pool bound.
func (s *Selector) PoolLimit() int { return s.poolLimit }

// Select returns verified candidates other than the requester and the
// people the requester has blocked, narrowed by filters. Exclusions are
// re-checked on the store's answer so a lax store cannot leak them.
func (s *Selector) Select(ctx context.Context, requester *model.Person, filters model.Filters) ([]*model.Person, error) {
	if requester == nil {
		return nil, ErrNilRequester
	}
	blocked, err := s.ledger.BlockedTargets(ctx, requester.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: blocked targets: %w", ErrSelectFailed, err)
	}
	exclude := make(map[string]struct{}, len(blocked)+1)
	exclude[requester.ID] = struct{}{}
	ids := make([]string, 0, len(blocked)+1)
	ids = append(ids, requester.ID)
	for _, id := range blocked {
		if _, dup := exclude[id]; !dup {
			exclude[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	found, err := s.directory.QueryCandidates(ctx, CandidateQuery{
		ExcludeIDs:   ids,
		VerifiedOnly: true,
		Filters:      filters,
		Limit:        s.poolLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: query: %w", ErrSelectFailed, err)
	}

	out := make([]*model.Person, 0, len(found))
	for _, p := range found {
		if p == nil || !p.Verified {
			continue
		}
		if _, skip := exclude[p.ID]; skip {
			continue
		}
		if !filters.Matches(p) {
			continue
		}
		out = append(out, p)
		if len(out) == s.poolLimit {
			break
		}
	}
	return out, nil
}
