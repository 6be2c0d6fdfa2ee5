package model

import "strings"

// Filters are conjunctive constraints on the candidate pool. The zero value
// matches everyone.
type Filters struct {
	// Categories keeps candidates teaching at least one skill in any listed category.
	Categories []string `json:"categories,omitempty" validate:"omitempty,dive,required"`
	// ProficiencyLevels keeps candidates teaching at least one skill in any listed band.
	ProficiencyLevels []ProficiencyLevel `json:"proficiency_levels,omitempty" validate:"omitempty,dive,oneof=BEGINNER INTERMEDIATE ADVANCED EXPERT"`
	// Location is a case-insensitive substring of the candidate's location.
	Location string `json:"location,omitempty" validate:"max=200"`
	// MinRating is an inclusive lower bound on the aggregate rating.
	MinRating float64 `json:"min_rating,omitempty" validate:"gte=0,lte=5"`
	// AvailabilityDays keeps candidates with an active slot on any listed day.
	AvailabilityDays []int `json:"availability_days,omitempty" validate:"omitempty,dive,gte=0,lte=6"`
	// AvailableFrom/AvailableTo ("HH:MM") keep candidates with an active slot
	// overlapping the window.
	AvailableFrom string `json:"available_from,omitempty" validate:"omitempty,clock"`
	AvailableTo   string `json:"available_to,omitempty" validate:"omitempty,clock"`
}

// IsZero reports whether no constraint is set.
func (f Filters) IsZero() bool {
	return len(f.Categories) == 0 && len(f.ProficiencyLevels) == 0 &&
		f.Location == "" && f.MinRating == 0 && len(f.AvailabilityDays) == 0 &&
		f.AvailableFrom == "" && f.AvailableTo == ""
}

// Window returns the time-of-day window in minutes. Missing bounds default
// to the whole day.
func (f Filters) Window() (from, to int, ok bool) {
	if f.AvailableFrom == "" && f.AvailableTo == "" {
		return 0, MinutesPerDay, false
	}
	from, to = 0, MinutesPerDay
	if f.AvailableFrom != "" {
		v, err := ParseClock(f.AvailableFrom)
		if err != nil {
			return 0, MinutesPerDay, false
		}
		from = v
	}
	if f.AvailableTo != "" {
		v, err := ParseClock(f.AvailableTo)
		if err != nil {
			return 0, MinutesPerDay, false
		}
		to = v
	}
	return from, to, true
}

// Matches applies every filter to p. Stores that cannot push a filter down
// use this as the reference predicate.
func (f Filters) Matches(p *Person) bool {
	if f.MinRating > 0 && p.Rating < f.MinRating {
		return false
	}
	if f.Location != "" && !strings.Contains(strings.ToLower(p.Location), strings.ToLower(strings.TrimSpace(f.Location))) {
		return false
	}
	if len(f.Categories) > 0 && !teachesAny(p, func(d SkillDeclaration) bool {
		return containsFold(f.Categories, d.Category)
	}) {
		return false
	}
	if len(f.ProficiencyLevels) > 0 && !teachesAny(p, func(d SkillDeclaration) bool {
		for _, l := range f.ProficiencyLevels {
			if d.Level() == l {
				return true
			}
		}
		return false
	}) {
		return false
	}
	from, to, windowed := f.Window()
	if len(f.AvailabilityDays) == 0 && !windowed {
		return true
	}
	for _, s := range p.ActiveAvailability() {
		if !s.Valid() {
			continue
		}
		if len(f.AvailabilityDays) > 0 && !containsInt(f.AvailabilityDays, s.DayOfWeek) {
			continue
		}
		if windowed && (s.EndMinute <= from || s.StartMinute >= to) {
			continue
		}
		return true
	}
	return false
}

func teachesAny(p *Person, pred func(SkillDeclaration) bool) bool {
	for _, d := range p.Skills {
		if d.CanTeach && pred(d) {
			return true
		}
	}
	return false
}

func containsFold(list []string, v string) bool {
	for _, s := range list {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}

func containsInt(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
