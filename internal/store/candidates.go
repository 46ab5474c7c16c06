package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/recruiting-cli/internal/model"
)

const candidateColumns = `id, provider, provider_id, public_identifier, profile_url,
	profile_url_hash, name, headline, location, current_company, current_role,
	open_to_work, first_seen_at, last_seen_at`

// UpsertCandidate resolves an existing candidate by the three dedup paths in
// priority order (provider ID, public identifier, profile URL hash) and
// updates its mutable fields, or inserts a new row with a generated ID.
// Returns the candidate ID.
func (s *SQLite) UpsertCandidate(ctx context.Context, c model.Candidate) (string, error) {
	if c.Provider == "" {
		c.Provider = model.ProviderLinkedIn
	}
	if c.ProfileURLHash == "" && c.ProfileURL != "" {
		c.ProfileURLHash = model.ProfileURLHash(c.ProfileURL)
	}
	now := model.NowMillis()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: begin upsert candidate")
	}
	defer tx.Rollback() //nolint:errcheck

	existingID, err := resolveCandidateID(ctx, tx, c)
	if err != nil {
		return "", err
	}

	if existingID != "" {
		_, err = tx.ExecContext(ctx,
			`UPDATE candidates SET
				name = ?, headline = ?, location = ?, current_company = ?,
				current_role = ?, open_to_work = ?, last_seen_at = ?,
				provider_id = COALESCE(provider_id, ?),
				public_identifier = COALESCE(public_identifier, ?),
				profile_url = COALESCE(profile_url, ?),
				profile_url_hash = COALESCE(profile_url_hash, ?)
			 WHERE id = ?`,
			c.Name, c.Headline, c.Location, c.CurrentCompany,
			c.CurrentRole, boolToInt(c.OpenToWork), now,
			nullable(c.ProviderID), nullable(c.PublicIdentifier),
			nullable(c.ProfileURL), nullable(c.ProfileURLHash),
			existingID,
		)
		if err != nil {
			return "", eris.Wrapf(err, "sqlite: update candidate %s", existingID)
		}
		if err := tx.Commit(); err != nil {
			return "", eris.Wrap(err, "sqlite: commit upsert candidate")
		}
		return existingID, nil
	}

	id := generateCandidateID(c)
	_, err = tx.ExecContext(ctx,
		`INSERT INTO candidates
			(id, provider, provider_id, public_identifier, profile_url, profile_url_hash,
			 name, headline, location, current_company, current_role, open_to_work,
			 first_seen_at, last_seen_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, c.Provider, nullable(c.ProviderID), nullable(c.PublicIdentifier),
		nullable(c.ProfileURL), nullable(c.ProfileURLHash),
		c.Name, c.Headline, c.Location, c.CurrentCompany, c.CurrentRole,
		boolToInt(c.OpenToWork), now, now,
	)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: insert candidate")
	}
	if err := tx.Commit(); err != nil {
		return "", eris.Wrap(err, "sqlite: commit insert candidate")
	}
	return id, nil
}

func resolveCandidateID(ctx context.Context, tx *sql.Tx, c model.Candidate) (string, error) {
	lookups := []struct {
		column string
		value  string
	}{
		{"provider_id", c.ProviderID},
		{"public_identifier", c.PublicIdentifier},
		{"profile_url_hash", c.ProfileURLHash},
	}
	for _, l := range lookups {
		if l.value == "" {
			continue
		}
		var id string
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM candidates WHERE provider = ? AND `+l.column+` = ?`,
			c.Provider, l.value,
		).Scan(&id)
		if err == nil {
			return id, nil
		}
		if err != sql.ErrNoRows {
			return "", eris.Wrapf(err, "sqlite: lookup candidate by %s", l.column)
		}
	}
	return "", nil
}

func generateCandidateID(c model.Candidate) string {
	switch {
	case c.ProviderID != "":
		return "li:" + c.ProviderID
	case c.PublicIdentifier != "":
		return "li_pub:" + c.PublicIdentifier
	case c.ProfileURLHash != "":
		return "li_url:" + c.ProfileURLHash[:24]
	default:
		return "li_rand:" + uuid.New().String()
	}
}

// GetCandidate returns a candidate by ID, or nil when absent.
func (s *SQLite) GetCandidate(ctx context.Context, id string) (*model.Candidate, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+candidateColumns+` FROM candidates WHERE id = ?`, id)
	c, err := scanCandidate(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get candidate %s", id)
	}
	return c, nil
}

// AddSourceRecord appends a sourcing snapshot; duplicate (candidate, run,
// source, rank) tuples are ignored.
func (s *SQLite) AddSourceRecord(ctx context.Context, rec model.SourceRecord) error {
	if rec.CreatedAt == 0 {
		rec.CreatedAt = model.NowMillis()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO candidate_source_records
			(candidate_id, run_id, source, source_rank, payload_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.CandidateID, rec.RunID, rec.Source, rec.SourceRank,
		nullable(rec.Payload), rec.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert source record")
}

func scanCandidate(row scannable) (*model.Candidate, error) {
	var c model.Candidate
	var providerID, publicID, profileURL, urlHash sql.NullString
	var headline, location, company, role sql.NullString
	var openToWork int

	err := row.Scan(&c.ID, &c.Provider, &providerID, &publicID, &profileURL,
		&urlHash, &c.Name, &headline, &location, &company, &role,
		&openToWork, &c.FirstSeenAt, &c.LastSeenAt)
	if err != nil {
		return nil, err
	}

	c.ProviderID = providerID.String
	c.PublicIdentifier = publicID.String
	c.ProfileURL = profileURL.String
	c.ProfileURLHash = urlHash.String
	c.Headline = headline.String
	c.Location = location.String
	c.CurrentCompany = company.String
	c.CurrentRole = role.String
	c.OpenToWork = openToWork != 0
	return &c, nil
}
