// Package availability computes weekly schedule overlap between two people.
//
// Slot times are compared as raw wall-clock minutes. The declared timezone
// of each slot is ignored, so two people in different zones are scored as
// if they shared one clock.
package availability

import (
	"math"

	"github.com/okian/skillswap/internal/domain/model"
)

// DaysPerWeek is the number of calendar days tracked.
const DaysPerWeek = 7

// Interval is an overlapping window within one day, in minutes since midnight.
type Interval struct {
	Start int
	End   int
}

// Minutes returns the interval length.
func (i Interval) Minutes() int { return i.End - i.Start }

// Day holds the overlap found on one weekday.
type Day struct {
	Intervals []Interval
	Minutes   int
}

// Overlap is the weekly overlap between two slot sets.
type Overlap struct {
	Days         [DaysPerWeek]Day
	TotalMinutes int
}

// Compute sums pairwise overlap per day. Every (a, b) pair on the same day
// contributes, so overlapping slots on one side are counted more than once;
// this approximates rather than unions. Invalid slots are skipped.
func Compute(a, b []model.AvailabilitySlot) Overlap {
	var out Overlap
	byDayA := groupByDay(a)
	byDayB := groupByDay(b)
	for day := 0; day < DaysPerWeek; day++ {
		for _, sa := range byDayA[day] {
			for _, sb := range byDayB[day] {
				start := max(sa.StartMinute, sb.StartMinute)
				end := min(sa.EndMinute, sb.EndMinute)
				if end <= start {
					continue
				}
				iv := Interval{Start: start, End: end}
				out.Days[day].Intervals = append(out.Days[day].Intervals, iv)
				out.Days[day].Minutes += iv.Minutes()
			}
		}
		out.TotalMinutes += out.Days[day].Minutes
	}
	return out
}

// WeeklyMinutes is the summed length of all valid slots.
func WeeklyMinutes(slots []model.AvailabilitySlot) int {
	total := 0
	for _, s := range slots {
		total += s.Minutes()
	}
	return total
}

// Ratio is total overlap divided by the larger weekly total, in [0,1].
// It is 0 when either side has no availability.
func Ratio(a, b []model.AvailabilitySlot) float64 {
	wa, wb := WeeklyMinutes(a), WeeklyMinutes(b)
	if wa == 0 || wb == 0 {
		return 0
	}
	r := float64(Compute(a, b).TotalMinutes) / float64(max(wa, wb))
	return math.Max(0, math.Min(1, r))
}

func groupByDay(slots []model.AvailabilitySlot) [DaysPerWeek][]model.AvailabilitySlot {
	var out [DaysPerWeek][]model.AvailabilitySlot
	for _, s := range slots {
		if !s.Valid() {
			continue
		}
		out[s.DayOfWeek] = append(out[s.DayOfWeek], s)
	}
	return out
}
