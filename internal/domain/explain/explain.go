// Package explain renders a short human-readable reason for a match score.
package explain

import (
	"fmt"
	"math"
	"strings"

	"github.com/okian/skillswap/internal/domain/model"
)

// Thresholds for each fragment.
const (
	excellentSkill  = 0.7
	goodSkill       = 0.4
	highOverlap     = 0.6
	someOverlap     = 0.3
	highlyRatedAt   = 4.5
	wellRatedAt     = 4.0
	fallbackMessage = "potential learning opportunity"
)

// Input is what the explanation is derived from.
type Input struct {
	Breakdown       model.Breakdown
	CandidateRating float64
	CommonSkills    int
}

// Generate returns "<pct>% match: <fragments>". Fragments appear in a fixed
// order: skills, schedule, reputation, shared skills.
func Generate(in Input) string {
	b := in.Breakdown
	var parts []string

	switch {
	case b.Complementarity > excellentSkill:
		parts = append(parts, "excellent skill exchange potential")
	case b.Complementarity > goodSkill:
		parts = append(parts, "good skill complementarity")
	}

	switch {
	case b.AvailabilityOverlap > highOverlap:
		parts = append(parts, "highly compatible schedules")
	case b.AvailabilityOverlap > someOverlap:
		parts = append(parts, "some schedule overlap")
	}

	switch {
	case in.CandidateRating >= highlyRatedAt:
		parts = append(parts, "highly rated")
	case in.CandidateRating >= wellRatedAt:
		parts = append(parts, "well rated")
	}

	switch {
	case in.CommonSkills == 1:
		parts = append(parts, "1 shared skill")
	case in.CommonSkills > 1:
		parts = append(parts, fmt.Sprintf("%d shared skills", in.CommonSkills))
	}

	if len(parts) == 0 {
		parts = append(parts, fallbackMessage)
	}
	return fmt.Sprintf("%d%% match: %s", Percent(b.Total), strings.Join(parts, ", "))
}

// Percent converts a [0,1] score to a whole percentage.
func Percent(score float64) int {
	return int(math.Round(score * 100))
}
