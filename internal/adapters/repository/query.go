package repository

import (
	"fmt"
	"strings"

	"github.com/okian/skillswap/internal/domain/matching"
	"github.com/okian/skillswap/internal/domain/model"
)

const personColumns = `p.id, p.display_name, p.verified, p.rating, p.total_sessions,
	p.last_active_at, p.location, p.notifications_opt_in`

// sqlBuilder accumulates WHERE clauses with positional arguments.
type sqlBuilder struct {
	where []string
	args  []any
}

func (b *sqlBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *sqlBuilder) add(clause string) {
	b.where = append(b.where, clause)
}

// buildCandidateQuery pushes every filter down to SQL. The caller still
// re-applies model.Filters.Matches, so this only has to be a superset.
func buildCandidateQuery(q matching.CandidateQuery) (string, []any) {
	b := &sqlBuilder{}
	f := q.Filters

	if q.VerifiedOnly {
		b.add("p.verified")
	}
	if len(q.ExcludeIDs) > 0 {
		b.add("NOT (p.id = ANY(" + b.arg(q.ExcludeIDs) + "))")
	}
	if f.MinRating > 0 {
		b.add("p.rating >= " + b.arg(f.MinRating))
	}
	if loc := strings.TrimSpace(f.Location); loc != "" {
		b.add("p.location ILIKE " + b.arg("%"+escapeLike(loc)+"%"))
	}
	if len(f.Categories) > 0 {
		lower := make([]string, 0, len(f.Categories))
		for _, c := range f.Categories {
			lower = append(lower, strings.ToLower(c))
		}
		b.add("EXISTS (SELECT 1 FROM person_skills s WHERE s.person_id = p.id AND s.can_teach AND lower(s.category) = ANY(" + b.arg(lower) + "))")
	}
	if len(f.ProficiencyLevels) > 0 {
		bands := make([]string, 0, len(f.ProficiencyLevels))
		for _, l := range f.ProficiencyLevels {
			lo, hi := l.Range()
			bands = append(bands, "s.proficiency BETWEEN "+b.arg(lo)+" AND "+b.arg(hi))
		}
		b.add("EXISTS (SELECT 1 FROM person_skills s WHERE s.person_id = p.id AND s.can_teach AND (" + strings.Join(bands, " OR ") + "))")
	}
	if slot := availabilityClause(b, f); slot != "" {
		b.add(slot)
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(personColumns)
	sb.WriteString(" FROM people p")
	if len(b.where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(b.where, " AND "))
	}
	sb.WriteString(" ORDER BY p.last_active_at DESC, p.id ASC")
	if q.Limit > 0 {
		sb.WriteString(" LIMIT ")
		sb.WriteString(b.arg(q.Limit))
	}
	return sb.String(), b.args
}

func availabilityClause(b *sqlBuilder, f model.Filters) string {
	from, to, windowed := f.Window()
	if len(f.AvailabilityDays) == 0 && !windowed {
		return ""
	}
	conds := []string{"a.person_id = p.id", "a.active", "a.start_minute < a.end_minute"}
	if len(f.AvailabilityDays) > 0 {
		conds = append(conds, "a.day_of_week = ANY("+b.arg(f.AvailabilityDays)+")")
	}
	if windowed {
		conds = append(conds, "a.end_minute > "+b.arg(from), "a.start_minute < "+b.arg(to))
	}
	return "EXISTS (SELECT 1 FROM availability_slots a WHERE " + strings.Join(conds, " AND ") + ")"
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
