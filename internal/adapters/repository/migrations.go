package repository

// Migration is one forward schema step.
type Migration struct {
	Version int
	Name    string
	UpSQL   string
}

const migration001Up = `
CREATE TABLE IF NOT EXISTS people (
    id                   TEXT PRIMARY KEY,
    display_name         TEXT NOT NULL DEFAULT '',
    verified             BOOLEAN NOT NULL DEFAULT FALSE,
    rating               DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (rating >= 0 AND rating <= 5),
    total_sessions       INTEGER NOT NULL DEFAULT 0,
    last_active_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    location             TEXT NOT NULL DEFAULT '',
    notifications_opt_in BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE INDEX IF NOT EXISTS idx_people_eligible ON people (last_active_at DESC) WHERE verified;

CREATE TABLE IF NOT EXISTS person_skills (
    person_id      TEXT NOT NULL REFERENCES people(id) ON DELETE CASCADE,
    position       INTEGER NOT NULL,
    skill_id       TEXT NOT NULL,
    skill_name     TEXT NOT NULL,
    category       TEXT NOT NULL DEFAULT '',
    proficiency    INTEGER NOT NULL CHECK (proficiency >= 0 AND proficiency <= 100),
    can_teach      BOOLEAN NOT NULL DEFAULT FALSE,
    wants_to_learn BOOLEAN NOT NULL DEFAULT FALSE,
    verified       BOOLEAN NOT NULL DEFAULT FALSE,
    PRIMARY KEY (person_id, position)
);

CREATE TABLE IF NOT EXISTS availability_slots (
    person_id    TEXT NOT NULL REFERENCES people(id) ON DELETE CASCADE,
    position     INTEGER NOT NULL,
    day_of_week  SMALLINT NOT NULL CHECK (day_of_week BETWEEN 0 AND 6),
    start_minute SMALLINT NOT NULL,
    end_minute   SMALLINT NOT NULL,
    timezone     TEXT NOT NULL DEFAULT '',
    active       BOOLEAN NOT NULL DEFAULT TRUE,
    PRIMARY KEY (person_id, position)
);
`

const migration002Up = `
CREATE TABLE IF NOT EXISTS match_interactions (
    id             UUID PRIMARY KEY,
    user_id        TEXT NOT NULL,
    target_user_id TEXT NOT NULL,
    type           TEXT NOT NULL CHECK (type IN ('FAVORITE', 'PASS', 'BLOCK', 'VIEW')),
    score          DOUBLE PRECISION,
    explanation    TEXT NOT NULL DEFAULT '',
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (user_id, target_user_id)
);

CREATE INDEX IF NOT EXISTS idx_interactions_user_type ON match_interactions (user_id, type);
CREATE INDEX IF NOT EXISTS idx_interactions_retention ON match_interactions (type, updated_at);
`

// Migrations returns the embedded schema in order.
func Migrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_people", UpSQL: migration001Up},
		{Version: 2, Name: "create_match_interactions", UpSQL: migration002Up},
	}
}
