package model

import "time"

// InteractionType is a requester's recorded stance toward a candidate.
type InteractionType string

const (
	InteractionFavorite InteractionType = "FAVORITE"
	InteractionPass     InteractionType = "PASS"
	InteractionBlock    InteractionType = "BLOCK"
	InteractionView     InteractionType = "VIEW"
)

// IsValid reports whether t is one of the known types.
func (t InteractionType) IsValid() bool {
	switch t {
	case InteractionFavorite, InteractionPass, InteractionBlock, InteractionView:
		return true
	}
	return false
}

// IsDecision is true for explicit requester choices; VIEW is instrumentation.
func (t InteractionType) IsDecision() bool {
	return t == InteractionFavorite || t == InteractionPass || t == InteractionBlock
}

// MatchInteraction is the single current row for an ordered (UserID,
// TargetUserID) pair. A newer decision replaces the older one.
type MatchInteraction struct {
	ID           string          `json:"id"`
	UserID       string          `json:"user_id"`
	TargetUserID string          `json:"target_user_id"`
	Type         InteractionType `json:"type"`
	Score        *float64        `json:"score,omitempty"`
	Explanation  string          `json:"explanation,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// PairKey identifies a MatchInteraction row.
type PairKey struct {
	UserID       string
	TargetUserID string
}

// Key returns the row's pair key.
func (m MatchInteraction) Key() PairKey {
	return PairKey{UserID: m.UserID, TargetUserID: m.TargetUserID}
}

// Notification is the fire-and-forget "you have N new matches" signal.
type Notification struct {
	UserID    string    `json:"user_id"`
	Kind      string    `json:"kind"`
	Count     int       `json:"count"`
	RunID     string    `json:"run_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NotificationKindNewMatches is the only kind the engine emits.
const NotificationKindNewMatches = "new-matches"
