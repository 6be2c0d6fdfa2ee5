// Package repository holds the people directory and interaction ledger
// implementations: an in-memory store and a PostgreSQL store.
package repository

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/okian/skillswap/internal/domain/matching"
	"github.com/okian/skillswap/internal/domain/model"
)

var (
	_ matching.Directory = (*Memory)(nil)
	_ matching.Ledger    = (*Memory)(nil)
)

// Memory is a mutex-guarded store for tests and single-node runs.
type Memory struct {
	mu     sync.RWMutex
	people map[string]*model.Person
	rows   map[model.PairKey]model.MatchInteraction
}

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{
		people: make(map[string]*model.Person),
		rows:   make(map[model.PairKey]model.MatchInteraction),
	}
}

// Put adds or replaces a person.
func (m *Memory) Put(p *model.Person) error {
	if p == nil || p.ID == "" {
		return ErrNilPerson
	}
	cp := *p
	m.mu.Lock()
	m.people[p.ID] = &cp
	m.mu.Unlock()
	return nil
}

// SavePerson is Put with the store signature shared with Postgres.
func (m *Memory) SavePerson(ctx context.Context, p *model.Person) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.Put(p)
}

// Count returns the number of people.
func (m *Memory) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.people)
}

// GetPerson implements matching.Directory.
func (m *Memory) GetPerson(_ context.Context, id string) (*model.Person, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.people[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// QueryCandidates implements matching.Directory. Results are ordered most
// recently active first.
func (m *Memory) QueryCandidates(ctx context.Context, q matching.CandidateQuery) ([]*model.Person, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*model.Person, 0)
	for _, p := range m.people {
		if q.VerifiedOnly && !p.Verified {
			continue
		}
		if slices.Contains(q.ExcludeIDs, p.ID) {
			continue
		}
		if !q.Filters.Matches(p) {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sortByActivity(out)
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// ListEligible implements matching.Directory.
func (m *Memory) ListEligible(ctx context.Context, activeSince time.Time) ([]*model.Person, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*model.Person, 0)
	for _, p := range m.people {
		if !p.Verified || !p.NotificationsOptIn || p.LastActiveAt.Before(activeSince) {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// BlockedTargets implements matching.Ledger.
func (m *Memory) BlockedTargets(_ context.Context, userID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0)
	for k, r := range m.rows {
		if k.UserID == userID && r.Type == model.InteractionBlock {
			out = append(out, k.TargetUserID)
		}
	}
	sort.Strings(out)
	return out, nil
}

// RecentInteractions implements matching.Ledger.
func (m *Memory) RecentInteractions(_ context.Context, userID string, since time.Time) ([]model.MatchInteraction, error) {
	return m.collect(func(r model.MatchInteraction) bool {
		return r.UserID == userID && !r.UpdatedAt.Before(since)
	}), nil
}

// Get implements matching.Ledger.
func (m *Memory) Get(_ context.Context, userID, targetID string) (model.MatchInteraction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rows[model.PairKey{UserID: userID, TargetUserID: targetID}]
	if !ok {
		return model.MatchInteraction{}, model.ErrNotFound
	}
	return r, nil
}

// Upsert implements matching.Ledger.
func (m *Memory) Upsert(_ context.Context, in model.MatchInteraction) (model.MatchInteraction, error) {
	if err := validInteraction(in); err != nil {
		return model.MatchInteraction{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	k := in.Key()
	if prev, ok := m.rows[k]; ok {
		in.ID = prev.ID
		in.CreatedAt = prev.CreatedAt
	}
	m.rows[k] = in
	return in, nil
}

// InsertIfAbsent implements matching.Ledger.
func (m *Memory) InsertIfAbsent(_ context.Context, in model.MatchInteraction) (bool, error) {
	if err := validInteraction(in); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[in.Key()]; ok {
		return false, nil
	}
	m.rows[in.Key()] = in
	return true, nil
}

// Delete implements matching.Ledger.
func (m *Memory) Delete(_ context.Context, userID, targetID string, t model.InteractionType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := model.PairKey{UserID: userID, TargetUserID: targetID}
	r, ok := m.rows[k]
	if !ok || r.Type != t {
		return model.ErrNotFound
	}
	delete(m.rows, k)
	return nil
}

// ListByType implements matching.Ledger.
func (m *Memory) ListByType(_ context.Context, userID string, t model.InteractionType) ([]model.MatchInteraction, error) {
	return m.collect(func(r model.MatchInteraction) bool {
		return r.UserID == userID && r.Type == t
	}), nil
}

// PurgeOlderThan implements matching.Ledger.
func (m *Memory) PurgeOlderThan(ctx context.Context, types []model.InteractionType, cutoff time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for k, r := range m.rows {
		if slices.Contains(types, r.Type) && r.UpdatedAt.Before(cutoff) {
			delete(m.rows, k)
			n++
		}
	}
	return n, nil
}

// collect returns matching rows newest first.
func (m *Memory) collect(keep func(model.MatchInteraction) bool) []model.MatchInteraction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.MatchInteraction, 0)
	for _, r := range m.rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].TargetUserID < out[j].TargetUserID
	})
	return out
}

func validInteraction(in model.MatchInteraction) error {
	if in.UserID == "" || in.TargetUserID == "" || !in.Type.IsValid() {
		return ErrInvalidInteraction
	}
	return nil
}

func sortByActivity(ps []*model.Person) {
	sort.Slice(ps, func(i, j int) bool {
		if !ps[i].LastActiveAt.Equal(ps[j].LastActiveAt) {
			return ps[i].LastActiveAt.After(ps[j].LastActiveAt)
		}
		return ps[i].ID < ps[j].ID
	})
}
