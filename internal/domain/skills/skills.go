// Package skills scores how well two people's skill declarations fit together.
package skills

import (
	"math"
	"strings"

	"github.com/okian/skillswap/internal/domain/model"
)

// Contribution constants for one teach/learn match.
const (
	matchBase      = 0.5
	matchGapWeight = 0.3

	affinityCategoryShare = 0.7
	affinitySessionShare  = 0.3
	sessionGapScale       = 100.0
)

// Complementarity measures how much each side can teach what the other
// wants to learn. Each match contributes 0.5 plus up to 0.3 for the
// proficiency gap in the teacher's favor. The sum is normalized by the
// larger side's count of teachable skills and clamped to [0,1]; with no
// teachable skills on either side the score is 0.
func Complementarity(requester, candidate *model.Person) float64 {
	reqTeach := countTeachable(requester)
	candTeach := countTeachable(candidate)
	checks := max(reqTeach, candTeach)
	if checks == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range ComplementaryPairs(requester, candidate) {
		gap := math.Max(0, float64(p.TeacherProficiency-p.LearnerProficiency))
		sum += matchBase + matchGapWeight*gap/100
	}
	return clamp01(sum / float64(checks))
}

// ComplementaryPairs lists teach/learn matches in both directions: first the
// requester's teachable skills the candidate wants, then the reverse. Order
// follows the teacher's declaration order.
func ComplementaryPairs(requester, candidate *model.Person) []model.SkillPair {
	pairs := directional(requester, candidate)
	return append(pairs, directional(candidate, requester)...)
}

func directional(teacher, learner *model.Person) []model.SkillPair {
	wants := make(map[string]model.SkillDeclaration)
	for _, d := range learner.Skills {
		if d.WantsToLearn {
			wants[key(d)] = d
		}
	}
	var out []model.SkillPair
	for _, d := range teacher.Skills {
		if !d.CanTeach {
			continue
		}
		l, ok := wants[key(d)]
		if !ok {
			continue
		}
		out = append(out, model.SkillPair{
			SkillID:            d.SkillID,
			SkillName:          d.SkillName,
			TeacherID:          teacher.ID,
			LearnerID:          learner.ID,
			TeacherProficiency: d.Proficiency,
			LearnerProficiency: l.Proficiency,
		})
	}
	return out
}

// Common returns the names of skills both people declare in any role, in the
// requester's declaration order.
func Common(requester, candidate *model.Person) []string {
	theirs := make(map[string]struct{}, len(candidate.Skills))
	for _, d := range candidate.Skills {
		theirs[key(d)] = struct{}{}
	}
	out := make([]string, 0)
	seen := make(map[string]struct{})
	for _, d := range requester.Skills {
		k := key(d)
		if _, ok := theirs[k]; !ok {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, d.SkillName)
	}
	return out
}

// CategoryAffinity is the Jaccard ratio of the two people's skill categories.
func CategoryAffinity(a, b *model.Person) float64 {
	ca, cb := categories(a), categories(b)
	union := len(ca)
	shared := 0
	for c := range cb {
		if _, ok := ca[c]; ok {
			shared++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}

// SessionSimilarity is 1 for equal completed-session counts, falling to 0
// at a gap of 100 sessions.
func SessionSimilarity(a, b *model.Person) float64 {
	gap := math.Abs(float64(a.TotalSessions - b.TotalSessions))
	return math.Max(0, 1-gap/sessionGapScale)
}

// LearningStyle blends category affinity 70/30 with session similarity.
func LearningStyle(a, b *model.Person) float64 {
	return clamp01(affinityCategoryShare*CategoryAffinity(a, b) + affinitySessionShare*SessionSimilarity(a, b))
}

func countTeachable(p *model.Person) int {
	n := 0
	for _, d := range p.Skills {
		if d.CanTeach {
			n++
		}
	}
	return n
}

func categories(p *model.Person) map[string]struct{} {
	out := make(map[string]struct{}, len(p.Skills))
	for _, d := range p.Skills {
		c := strings.ToLower(strings.TrimSpace(d.Category))
		if c != "" {
			out[c] = struct{}{}
		}
	}
	return out
}

// key identifies a skill across people, preferring the catalog id.
func key(d model.SkillDeclaration) string {
	if d.SkillID != "" {
		return d.SkillID
	}
	return "name:" + strings.ToLower(strings.TrimSpace(d.SkillName))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
