package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okian/skillswap/internal/domain/matching"
	"github.com/okian/skillswap/internal/domain/model"
	"github.com/okian/skillswap/pkg/metrics"
)

var (
	_ matching.Directory = (*Postgres)(nil)
	_ matching.Ledger    = (*Postgres)(nil)
)

const interactionColumns = `id, user_id, target_user_id, type, score, explanation, created_at, updated_at`

// Postgres is the pgx-backed directory and ledger.
type Postgres struct {
	pool   *pgxpool.Pool
	opts   postgresOptions
	mu     sync.RWMutex
	closed bool
}

// NewPostgres opens a pool for databaseURL, pings it and, unless disabled,
// applies the embedded migrations.
func NewPostgres(ctx context.Context, databaseURL string, opts ...PostgresOption) (*Postgres, error) {
	o := defaultPostgresOptions()
	for _, opt := range opts {
		opt(&o)
	}

	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to parse database URL: %w", err)
	}
	cfg.MaxConns = o.maxConns
	cfg.MinConns = o.minConns
	cfg.MaxConnLifetime = o.maxConnLifetime
	cfg.MaxConnIdleTime = o.maxConnIdleTime
	cfg.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: failed to ping database: %w", err)
	}

	s := &Postgres{pool: pool, opts: o}
	if o.migrate {
		if err := s.Migrate(ctx); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return s, nil
}

// Migrate applies pending migrations, each in its own transaction.
func (s *Postgres) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`); err != nil {
		return fmt.Errorf("%w: %w", ErrMigrationFailed, err)
	}
	for _, m := range Migrations() {
		err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
			var applied bool
			if err := tx.QueryRow(ctx,
				`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)`, m.Version,
			).Scan(&applied); err != nil {
				return err
			}
			if applied {
				return nil
			}
			if _, err := tx.Exec(ctx, m.UpSQL); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`, m.Version, m.Name)
			return err
		})
		if err != nil {
			return fmt.Errorf("%w: %d %s: %w", ErrMigrationFailed, m.Version, m.Name, err)
		}
	}
	return nil
}

// Ping checks the pool is alive.
func (s *Postgres) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrConnectionClosed
	}
	return s.pool.Ping(ctx)
}

// Close releases the pool.
func (s *Postgres) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.pool.Close()
}

// timed bounds one store operation and records its latency.
func (s *Postgres) timed(ctx context.Context, op string) (context.Context, func()) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.queryTimeout)
	start := time.Now()
	return ctx, func() {
		cancel()
		metrics.RecordStoreQueryLatency(op, float64(time.Since(start).Microseconds())/1000)
	}
}

// SavePerson writes a person with their skills and availability.
func (s *Postgres) SavePerson(ctx context.Context, p *model.Person) error {
	if p == nil || p.ID == "" {
		return ErrNilPerson
	}
	ctx, done := s.timed(ctx, "save_person")
	defer done()

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO people (id, display_name, verified, rating, total_sessions, last_active_at, location, notifications_opt_in)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (id) DO UPDATE SET
				display_name = EXCLUDED.display_name,
				verified = EXCLUDED.verified,
				rating = EXCLUDED.rating,
				total_sessions = EXCLUDED.total_sessions,
				last_active_at = EXCLUDED.last_active_at,
				location = EXCLUDED.location,
				notifications_opt_in = EXCLUDED.notifications_opt_in`,
			p.ID, p.DisplayName, p.Verified, p.Rating, p.TotalSessions, p.LastActiveAt, p.Location, p.NotificationsOptIn,
		); err != nil {
			return fmt.Errorf("upsert person: %w", err)
		}

		batch := &pgx.Batch{}
		batch.Queue(`DELETE FROM person_skills WHERE person_id = $1`, p.ID)
		batch.Queue(`DELETE FROM availability_slots WHERE person_id = $1`, p.ID)
		for i, d := range p.Skills {
			batch.Queue(`INSERT INTO person_skills (person_id, position, skill_id, skill_name, category, proficiency, can_teach, wants_to_learn, verified)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
				p.ID, i, d.SkillID, d.SkillName, d.Category, d.Proficiency, d.CanTeach, d.WantsToLearn, d.Verified)
		}
		for i, a := range p.Availability {
			batch.Queue(`INSERT INTO availability_slots (person_id, position, day_of_week, start_minute, end_minute, timezone, active)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				p.ID, i, a.DayOfWeek, a.StartMinute, a.EndMinute, a.Timezone, a.Active)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}

// GetPerson implements matching.Directory.
func (s *Postgres) GetPerson(ctx context.Context, id string) (*model.Person, error) {
	ctx, done := s.timed(ctx, "get_person")
	defer done()

	rows, err := s.pool.Query(ctx, `SELECT `+personColumns+` FROM people p WHERE p.id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get person: %w", err)
	}
	people, err := s.scanPeople(ctx, rows)
	if err != nil {
		return nil, err
	}
	if len(people) == 0 {
		return nil, model.ErrNotFound
	}
	return people[0], nil
}

// QueryCandidates implements matching.Directory.
func (s *Postgres) QueryCandidates(ctx context.Context, q matching.CandidateQuery) ([]*model.Person, error) {
	ctx, done := s.timed(ctx, "query_candidates")
	defer done()

	sql, args := buildCandidateQuery(q)
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	return s.scanPeople(ctx, rows)
}

// ListEligible implements matching.Directory.
func (s *Postgres) ListEligible(ctx context.Context, activeSince time.Time) ([]*model.Person, error) {
	ctx, done := s.timed(ctx, "list_eligible")
	defer done()

	rows, err := s.pool.Query(ctx, `SELECT `+personColumns+` FROM people p
		WHERE p.verified AND p.notifications_opt_in AND p.last_active_at >= $1
		ORDER BY p.id`, activeSince)
	if err != nil {
		return nil, fmt.Errorf("list eligible: %w", err)
	}
	return s.scanPeople(ctx, rows)
}

// scanPeople reads person rows and loads their skills and slots in two
// follow-up queries.
func (s *Postgres) scanPeople(ctx context.Context, rows pgx.Rows) ([]*model.Person, error) {
	people, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (*model.Person, error) {
		p := &model.Person{}
		err := r.Scan(&p.ID, &p.DisplayName, &p.Verified, &p.Rating, &p.TotalSessions,
			&p.LastActiveAt, &p.Location, &p.NotificationsOptIn)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan people: %w", err)
	}
	if len(people) == 0 {
		return people, nil
	}

	byID := make(map[string]*model.Person, len(people))
	ids := make([]string, 0, len(people))
	for _, p := range people {
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}

	skillRows, err := s.pool.Query(ctx, `SELECT person_id, skill_id, skill_name, category, proficiency, can_teach, wants_to_learn, verified
		FROM person_skills WHERE person_id = ANY($1) ORDER BY person_id, position`, ids)
	if err != nil {
		return nil, fmt.Errorf("load skills: %w", err)
	}
	var pid string
	var d model.SkillDeclaration
	if _, err := pgx.ForEachRow(skillRows, []any{&pid, &d.SkillID, &d.SkillName, &d.Category, &d.Proficiency, &d.CanTeach, &d.WantsToLearn, &d.Verified}, func() error {
		if p := byID[pid]; p != nil {
			p.Skills = append(p.Skills, d)
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("scan skills: %w", err)
	}

	slotRows, err := s.pool.Query(ctx, `SELECT person_id, day_of_week, start_minute, end_minute, timezone, active
		FROM availability_slots WHERE person_id = ANY($1) ORDER BY person_id, position`, ids)
	if err != nil {
		return nil, fmt.Errorf("load availability: %w", err)
	}
	var a model.AvailabilitySlot
	if _, err := pgx.ForEachRow(slotRows, []any{&pid, &a.DayOfWeek, &a.StartMinute, &a.EndMinute, &a.Timezone, &a.Active}, func() error {
		if p := byID[pid]; p != nil {
			p.Availability = append(p.Availability, a)
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("scan availability: %w", err)
	}
	return people, nil
}

// BlockedTargets implements matching.Ledger.
func (s *Postgres) BlockedTargets(ctx context.Context, userID string) ([]string, error) {
	ctx, done := s.timed(ctx, "blocked_targets")
	defer done()

	rows, err := s.pool.Query(ctx, `SELECT target_user_id FROM match_interactions
		WHERE user_id = $1 AND type = $2 ORDER BY target_user_id`, userID, string(model.InteractionBlock))
	if err != nil {
		return nil, fmt.Errorf("blocked targets: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// RecentInteractions implements matching.Ledger.
func (s *Postgres) RecentInteractions(ctx context.Context, userID string, since time.Time) ([]model.MatchInteraction, error) {
	ctx, done := s.timed(ctx, "recent_interactions")
	defer done()

	rows, err := s.pool.Query(ctx, `SELECT `+interactionColumns+` FROM match_interactions
		WHERE user_id = $1 AND updated_at >= $2 ORDER BY updated_at DESC`, userID, since)
	if err != nil {
		return nil, fmt.Errorf("recent interactions: %w", err)
	}
	return pgx.CollectRows(rows, scanInteraction)
}

// Get implements matching.Ledger.
func (s *Postgres) Get(ctx context.Context, userID, targetID string) (model.MatchInteraction, error) {
	ctx, done := s.timed(ctx, "get_interaction")
	defer done()

	rows, err := s.pool.Query(ctx, `SELECT `+interactionColumns+` FROM match_interactions
		WHERE user_id = $1 AND target_user_id = $2`, userID, targetID)
	if err != nil {
		return model.MatchInteraction{}, fmt.Errorf("get interaction: %w", err)
	}
	m, err := pgx.CollectExactlyOneRow(rows, scanInteraction)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.MatchInteraction{}, model.ErrNotFound
	}
	return m, err
}

// Upsert implements matching.Ledger. The unique (user_id, target_user_id)
// constraint makes concurrent writes for one pair last-write-wins.
func (s *Postgres) Upsert(ctx context.Context, in model.MatchInteraction) (model.MatchInteraction, error) {
	if err := validInteraction(in); err != nil {
		return model.MatchInteraction{}, err
	}
	ctx, done := s.timed(ctx, "upsert_interaction")
	defer done()

	rows, err := s.pool.Query(ctx, `
		INSERT INTO match_interactions (`+interactionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, target_user_id) DO UPDATE SET
			type = EXCLUDED.type,
			score = EXCLUDED.score,
			explanation = EXCLUDED.explanation,
			updated_at = EXCLUDED.updated_at
		RETURNING `+interactionColumns,
		in.ID, in.UserID, in.TargetUserID, string(in.Type), in.Score, in.Explanation, in.CreatedAt, in.UpdatedAt)
	if err != nil {
		return model.MatchInteraction{}, fmt.Errorf("upsert interaction: %w", err)
	}
	return pgx.CollectExactlyOneRow(rows, scanInteraction)
}

// InsertIfAbsent implements matching.Ledger.
func (s *Postgres) InsertIfAbsent(ctx context.Context, in model.MatchInteraction) (bool, error) {
	if err := validInteraction(in); err != nil {
		return false, err
	}
	ctx, done := s.timed(ctx, "insert_interaction")
	defer done()

	tag, err := s.pool.Exec(ctx, `
		INSERT INTO match_interactions (`+interactionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, target_user_id) DO NOTHING`,
		in.ID, in.UserID, in.TargetUserID, string(in.Type), in.Score, in.Explanation, in.CreatedAt, in.UpdatedAt)
	if err != nil {
		return false, fmt.Errorf("insert interaction: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Delete implements matching.Ledger.
func (s *Postgres) Delete(ctx context.Context, userID, targetID string, t model.InteractionType) error {
	ctx, done := s.timed(ctx, "delete_interaction")
	defer done()

	tag, err := s.pool.Exec(ctx, `DELETE FROM match_interactions
		WHERE user_id = $1 AND target_user_id = $2 AND type = $3`, userID, targetID, string(t))
	if err != nil {
		return fmt.Errorf("delete interaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// ListByType implements matching.Ledger.
func (s *Postgres) ListByType(ctx context.Context, userID string, t model.InteractionType) ([]model.MatchInteraction, error) {
	ctx, done := s.timed(ctx, "list_by_type")
	defer done()

	rows, err := s.pool.Query(ctx, `SELECT `+interactionColumns+` FROM match_interactions
		WHERE user_id = $1 AND type = $2 ORDER BY updated_at DESC, target_user_id`, userID, string(t))
	if err != nil {
		return nil, fmt.Errorf("list interactions: %w", err)
	}
	return pgx.CollectRows(rows, scanInteraction)
}

// PurgeOlderThan implements matching.Ledger.
func (s *Postgres) PurgeOlderThan(ctx context.Context, types []model.InteractionType, cutoff time.Time) (int64, error) {
	ctx, done := s.timed(ctx, "purge_interactions")
	defer done()

	names := make([]string, 0, len(types))
	for _, t := range types {
		names = append(names, string(t))
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM match_interactions WHERE type = ANY($1) AND updated_at < $2`, names, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge interactions: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanInteraction(r pgx.CollectableRow) (model.MatchInteraction, error) {
	var m model.MatchInteraction
	var t string
	err := r.Scan(&m.ID, &m.UserID, &m.TargetUserID, &t, &m.Score, &m.Explanation, &m.CreatedAt, &m.UpdatedAt)
	m.Type = model.InteractionType(t)
	return m, err
}
