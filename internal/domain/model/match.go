package model

import "time"

// Breakdown is the per-factor view of a match score. Sub-scores are in
// [0,1]; Total is their weighted sum rounded to two decimals.
type Breakdown struct {
	Complementarity     float64 `json:"complementarity"`
	AvailabilityOverlap float64 `json:"availability_overlap"`
	LearningStyle       float64 `json:"learning_style"`
	RatingHistory       float64 `json:"rating_history"`
	ResponseRate        float64 `json:"response_rate"`
	Total               float64 `json:"total"`
}

// SkillPair is one direction of a teach/learn match.
type SkillPair struct {
	SkillID            string `json:"skill_id"`
	SkillName          string `json:"skill_name"`
	TeacherID          string `json:"teacher_id"`
	LearnerID          string `json:"learner_id"`
	TeacherProficiency int    `json:"teacher_proficiency"`
	LearnerProficiency int    `json:"learner_proficiency"`
}

// RankedMatch is one scored candidate.
type RankedMatch struct {
	Candidate           *Person     `json:"candidate"`
	Score               float64     `json:"score"`
	Breakdown           Breakdown   `json:"breakdown"`
	Explanation         string      `json:"explanation"`
	CommonSkills        []string    `json:"common_skills"`
	ComplementarySkills []SkillPair `json:"complementary_skills"`
}

// BatchStatus is the outcome of one batch generation run.
type BatchStatus string

const (
	BatchCompleted BatchStatus = "completed"
	BatchFailed    BatchStatus = "failed"
	BatchSkipped   BatchStatus = "skipped"
)

// BatchStats aggregates one population-wide generation run.
type BatchStats struct {
	RunID                 string      `json:"run_id"`
	Status                BatchStatus `json:"status"`
	TotalActiveUsers      int         `json:"total_active_users"`
	UsersWithMatches      int         `json:"users_with_matches"`
	FailedUsers           int         `json:"failed_users"`
	TotalMatches          int         `json:"total_matches"`
	AverageMatchesPerUser float64     `json:"average_matches_per_user"`
	GenerationRate        float64     `json:"generation_rate"`
	StartedAt             time.Time   `json:"started_at"`
	CompletedAt           time.Time   `json:"completed_at"`
}
