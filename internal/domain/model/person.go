// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"time"
)

// Person is a member who can be matched. Profiles are owned by other
// subsystems; the engine only reads them.
type Person struct {
	ID                 string             `json:"id"`
	DisplayName        string             `json:"display_name"`
	Verified           bool               `json:"verified"`
	Rating             float64            `json:"rating"`         // aggregate, 0-5
	TotalSessions      int                `json:"total_sessions"` // lifetime completed sessions
	LastActiveAt       time.Time          `json:"last_active_at"`
	Location           string             `json:"location,omitempty"`
	NotificationsOptIn bool               `json:"notifications_opt_in"`
	Skills             []SkillDeclaration `json:"skills,omitempty"`
	Availability       []AvailabilitySlot `json:"availability,omitempty"`
}

// ActiveAvailability returns the slots flagged active, in declaration order.
func (p *Person) ActiveAvailability() []AvailabilitySlot {
	out := make([]AvailabilitySlot, 0, len(p.Availability))
	for _, s := range p.Availability {
		if s.Active {
			out = append(out, s)
		}
	}
	return out
}

// SkillDeclaration is one person's relation to one skill.
type SkillDeclaration struct {
	SkillID      string `json:"skill_id"`
	SkillName    string `json:"skill_name"`
	Category     string `json:"category"`
	Proficiency  int    `json:"proficiency"` // 0-100
	CanTeach     bool   `json:"can_teach"`
	WantsToLearn bool   `json:"wants_to_learn"`
	Verified     bool   `json:"verified"`
}

// Level reports the proficiency band of the declaration.
func (d SkillDeclaration) Level() ProficiencyLevel {
	return LevelFor(d.Proficiency)
}

// ProficiencyLevel is a coarse band over the 0-100 proficiency scale.
type ProficiencyLevel string

const (
	LevelBeginner     ProficiencyLevel = "BEGINNER"
	LevelIntermediate ProficiencyLevel = "INTERMEDIATE"
	LevelAdvanced     ProficiencyLevel = "ADVANCED"
	LevelExpert       ProficiencyLevel = "EXPERT"
)

// LevelFor maps a proficiency value to its band.
func LevelFor(proficiency int) ProficiencyLevel {
	switch {
	case proficiency <= 25:
		return LevelBeginner
	case proficiency <= 50:
		return LevelIntermediate
	case proficiency <= 75:
		return LevelAdvanced
	default:
		return LevelExpert
	}
}

// Range returns the inclusive proficiency bounds of the band.
func (l ProficiencyLevel) Range() (lo, hi int) {
	switch l {
	case LevelBeginner:
		return 0, 25
	case LevelIntermediate:
		return 26, 50
	case LevelAdvanced:
		return 51, 75
	case LevelExpert:
		return 76, 100
	}
	return -1, -1
}

// AvailabilitySlot is a weekly wall-clock window. Times are minutes since
// midnight; Timezone is carried but never used for conversion.
type AvailabilitySlot struct {
	DayOfWeek   int    `json:"day_of_week"` // 0 = Sunday
	StartMinute int    `json:"start_minute"`
	EndMinute   int    `json:"end_minute"`
	Timezone    string `json:"timezone,omitempty"`
	Active      bool   `json:"active"`
}

// Valid reports whether the slot has a known day and a positive length.
func (s AvailabilitySlot) Valid() bool {
	return s.DayOfWeek >= 0 && s.DayOfWeek <= 6 &&
		s.StartMinute >= 0 && s.EndMinute <= MinutesPerDay &&
		s.StartMinute < s.EndMinute
}

// Minutes returns the slot length, 0 for invalid slots.
func (s AvailabilitySlot) Minutes() int {
	if !s.Valid() {
		return 0
	}
	return s.EndMinute - s.StartMinute
}

// MinutesPerDay bounds slot times.
const MinutesPerDay = 24 * 60

// ParseClock parses "HH:MM" into minutes since midnight. "24:00" is accepted
// as end of day.
func ParseClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("parse clock %q: %w", s, err)
	}
	if h < 0 || h > 24 || m < 0 || m > 59 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("parse clock %q: out of range", s)
	}
	return h*60 + m, nil
}

// FormatClock renders minutes since midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
