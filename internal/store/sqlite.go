package store

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLite implements Store using modernc.org/sqlite. One connection per
// process; SQLite serialises writes so concurrent BeginRun calls with the
// same idempotency key observe a single winning insert.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path with WAL journaling
// and foreign-key enforcement.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLite{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS pipeline_runs (
	id                TEXT PRIMARY KEY,
	idempotency_key   TEXT,
	status            TEXT NOT NULL DEFAULT 'running',
	role_key          TEXT NOT NULL,
	role_title        TEXT NOT NULL,
	target_candidates INTEGER NOT NULL,
	config_json       TEXT,
	summary_json      TEXT,
	started_at        INTEGER NOT NULL,
	finished_at       INTEGER
);

-- A failed run releases its key so the same role/day can be restarted.
CREATE UNIQUE INDEX IF NOT EXISTS uq_pipeline_runs_idem
	ON pipeline_runs(idempotency_key)
	WHERE idempotency_key IS NOT NULL AND status != 'failed';

CREATE TABLE IF NOT EXISTS run_roles (
	run_id        TEXT NOT NULL REFERENCES pipeline_runs(id),
	role_key      TEXT NOT NULL,
	criteria_json TEXT,
	UNIQUE(run_id, role_key)
);

CREATE TABLE IF NOT EXISTS candidates (
	id                TEXT PRIMARY KEY,
	provider          TEXT NOT NULL,
	provider_id       TEXT,
	public_identifier TEXT,
	profile_url       TEXT,
	profile_url_hash  TEXT,
	name              TEXT NOT NULL,
	headline          TEXT,
	location          TEXT,
	current_company   TEXT,
	current_role      TEXT,
	open_to_work      INTEGER NOT NULL DEFAULT 0,
	first_seen_at     INTEGER NOT NULL,
	last_seen_at      INTEGER NOT NULL,
	UNIQUE(provider, provider_id),
	UNIQUE(provider, public_identifier),
	UNIQUE(provider, profile_url_hash)
);

CREATE TABLE IF NOT EXISTS candidate_source_records (
	candidate_id TEXT NOT NULL REFERENCES candidates(id),
	run_id       TEXT NOT NULL REFERENCES pipeline_runs(id),
	source       TEXT NOT NULL,
	source_rank  INTEGER NOT NULL,
	payload_json TEXT,
	created_at   INTEGER NOT NULL,
	UNIQUE(candidate_id, run_id, source, source_rank)
);

CREATE TABLE IF NOT EXISTS candidate_identities (
	candidate_id       TEXT NOT NULL REFERENCES candidates(id),
	platform           TEXT NOT NULL,
	handle             TEXT,
	url                TEXT,
	confidence         REAL NOT NULL,
	band               TEXT NOT NULL,
	reasons_json       TEXT,
	shortlist_eligible INTEGER NOT NULL DEFAULT 0,
	UNIQUE(candidate_id, platform)
);

CREATE TABLE IF NOT EXISTS candidate_signals (
	candidate_id  TEXT NOT NULL REFERENCES candidates(id),
	run_id        TEXT NOT NULL REFERENCES pipeline_runs(id),
	key           TEXT NOT NULL,
	numeric_value REAL,
	source        TEXT,
	details       TEXT,
	created_at    INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS candidate_scores (
	candidate_id       TEXT NOT NULL REFERENCES candidates(id),
	run_id             TEXT NOT NULL REFERENCES pipeline_runs(id),
	total              REAL NOT NULL,
	breakdown_json     TEXT NOT NULL,
	concerns_json      TEXT,
	shortlist_eligible INTEGER NOT NULL DEFAULT 0,
	outreach_angle     TEXT,
	created_at         INTEGER NOT NULL,
	UNIQUE(candidate_id, run_id)
);

CREATE INDEX IF NOT EXISTS idx_scores_run_total
	ON candidate_scores(run_id, total DESC);

CREATE TABLE IF NOT EXISTS candidate_evidence_links (
	candidate_id TEXT NOT NULL REFERENCES candidates(id),
	run_id       TEXT NOT NULL REFERENCES pipeline_runs(id),
	url          TEXT NOT NULL,
	title        TEXT,
	source       TEXT,
	relevance    REAL NOT NULL DEFAULT 0,
	created_at   INTEGER NOT NULL,
	UNIQUE(candidate_id, run_id, url)
);

CREATE TABLE IF NOT EXISTS run_failures (
	run_id        TEXT NOT NULL REFERENCES pipeline_runs(id),
	stage         TEXT NOT NULL,
	candidate_ref TEXT,
	error_type    TEXT NOT NULL,
	message       TEXT,
	retryable     INTEGER NOT NULL DEFAULT 0,
	payload_json  TEXT,
	created_at    INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_run_failures_run_created
	ON run_failures(run_id, created_at DESC);

CREATE TABLE IF NOT EXISTS candidate_reviews (
	candidate_id TEXT NOT NULL REFERENCES candidates(id),
	run_id       TEXT NOT NULL REFERENCES pipeline_runs(id),
	status       TEXT NOT NULL,
	priority     INTEGER NOT NULL DEFAULT 0,
	notes        TEXT,
	created_at   INTEGER NOT NULL,
	updated_at   INTEGER NOT NULL,
	UNIQUE(candidate_id, run_id)
);

CREATE INDEX IF NOT EXISTS idx_reviews_run_status
	ON candidate_reviews(run_id, status);

CREATE TABLE IF NOT EXISTS candidate_verifications (
	candidate_id      TEXT NOT NULL REFERENCES candidates(id),
	run_id            TEXT NOT NULL REFERENCES pipeline_runs(id),
	method            TEXT NOT NULL,
	outcome           TEXT NOT NULL,
	confidence_before REAL NOT NULL DEFAULT 0,
	confidence_after  REAL NOT NULL DEFAULT 0,
	proof_links_json  TEXT,
	notes             TEXT,
	created_at        INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_verifications_run_created
	ON candidate_verifications(run_id, created_at DESC);

CREATE TABLE IF NOT EXISTS candidate_promotions (
	candidate_id        TEXT NOT NULL REFERENCES candidates(id),
	run_id              TEXT NOT NULL REFERENCES pipeline_runs(id),
	promotion_reason    TEXT,
	confidence_override REAL,
	outreach_angle      TEXT,
	proof_links_json    TEXT NOT NULL,
	promoted_at         INTEGER NOT NULL,
	UNIQUE(candidate_id, run_id)
);

CREATE TABLE IF NOT EXISTS daily_run_outputs (
	run_id     TEXT NOT NULL REFERENCES pipeline_runs(id),
	role_key   TEXT NOT NULL,
	date       TEXT NOT NULL,
	sourced    INTEGER NOT NULL DEFAULT 0,
	reviewed   INTEGER NOT NULL DEFAULT 0,
	verified   INTEGER NOT NULL DEFAULT 0,
	promoted   INTEGER NOT NULL DEFAULT 0,
	updated_at INTEGER NOT NULL,
	UNIQUE(run_id, role_key, date)
);
`

// Migrate creates the schema.
func (s *SQLite) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// nullable converts empty strings to NULL so the three candidate dedup keys
// stay unique without colliding on blanks.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
