package store

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/sells-group/recruiting-cli/internal/model"
)

// AddSignals appends a batch of signals in one transaction.
func (s *SQLite) AddSignals(ctx context.Context, signals []model.Signal) error {
	if len(signals) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin signals tx")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO candidate_signals
			(candidate_id, run_id, key, numeric_value, source, details, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare signal insert")
	}
	defer stmt.Close() //nolint:errcheck

	now := model.NowMillis()
	for _, sig := range signals {
		createdAt := sig.CreatedAt
		if createdAt == 0 {
			createdAt = now
		}
		var numeric any
		if sig.NumericValue != nil {
			numeric = *sig.NumericValue
		}
		if _, err := stmt.ExecContext(ctx,
			sig.CandidateID, sig.RunID, sig.Key, numeric,
			nullable(sig.Source), nullable(sig.Details), createdAt,
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert signal %s", sig.Key)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit signals")
}

// AddEvidenceLinks appends evidence in one transaction; duplicate URLs per
// (candidate, run) are ignored, first seen wins.
func (s *SQLite) AddEvidenceLinks(ctx context.Context, links []model.EvidenceLink) error {
	if len(links) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin evidence tx")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO candidate_evidence_links
			(candidate_id, run_id, url, title, source, relevance, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare evidence insert")
	}
	defer stmt.Close() //nolint:errcheck

	now := model.NowMillis()
	for _, l := range links {
		createdAt := l.CreatedAt
		if createdAt == 0 {
			createdAt = now
		}
		if _, err := stmt.ExecContext(ctx,
			l.CandidateID, l.RunID, l.URL, nullable(l.Title),
			nullable(l.Source), l.Relevance, createdAt,
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert evidence %s", l.URL)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit evidence")
}

// UpsertIdentity writes the (candidate, platform) identity row, replacing a
// previous resolution.
func (s *SQLite) UpsertIdentity(ctx context.Context, id model.Identity) error {
	reasons, err := json.Marshal(id.Reasons)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal identity reasons")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO candidate_identities
			(candidate_id, platform, handle, url, confidence, band, reasons_json, shortlist_eligible)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(candidate_id, platform) DO UPDATE SET
			handle = excluded.handle,
			url = excluded.url,
			confidence = excluded.confidence,
			band = excluded.band,
			reasons_json = excluded.reasons_json,
			shortlist_eligible = excluded.shortlist_eligible`,
		id.CandidateID, id.Platform, nullable(id.Handle), nullable(id.URL),
		id.Confidence, string(id.Band), string(reasons), boolToInt(id.ShortlistEligible),
	)
	return eris.Wrapf(err, "sqlite: upsert identity %s/%s", id.CandidateID, id.Platform)
}

// UpsertScore writes the (candidate, run) score row.
func (s *SQLite) UpsertScore(ctx context.Context, sc model.Score) error {
	breakdown, err := json.Marshal(sc.Breakdown)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal score breakdown")
	}
	concerns, err := json.Marshal(sc.Concerns)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal score concerns")
	}
	createdAt := sc.CreatedAt
	if createdAt == 0 {
		createdAt = model.NowMillis()
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO candidate_scores
			(candidate_id, run_id, total, breakdown_json, concerns_json,
			 shortlist_eligible, outreach_angle, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(candidate_id, run_id) DO UPDATE SET
			total = excluded.total,
			breakdown_json = excluded.breakdown_json,
			concerns_json = excluded.concerns_json,
			shortlist_eligible = excluded.shortlist_eligible,
			outreach_angle = excluded.outreach_angle,
			created_at = excluded.created_at`,
		sc.CandidateID, sc.RunID, sc.Total, string(breakdown), string(concerns),
		boolToInt(sc.ShortlistEligible), nullable(sc.OutreachAngle), createdAt,
	)
	return eris.Wrapf(err, "sqlite: upsert score %s", sc.CandidateID)
}
