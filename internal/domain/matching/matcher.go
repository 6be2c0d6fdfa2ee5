package matching

import (
	"context"

	"github.com/okian/skillswap/internal/domain/model"
)

// Matcher runs selection then ranking for one requester.
type Matcher struct {
	selector *Selector
	ranker   *Ranker
}

// NewMatcher joins a selector and a ranker.
func NewMatcher(selector *Selector, ranker *Ranker) *Matcher {
	return &Matcher{selector: selector, ranker: ranker}
}

// Ranker returns the underlying ranker.
func (m *Matcher) Ranker() *Ranker { return m.ranker }

// Suggest returns the ranked top limit candidates for requester.
func (m *Matcher) Suggest(ctx context.Context, requester *model.Person, filters model.Filters, limit int) ([]model.RankedMatch, error) {
	pool, err := m.selector.Select(ctx, requester, filters)
	if err != nil {
		return nil, err
	}
	return m.ranker.Rank(ctx, requester, pool, limit)
}
