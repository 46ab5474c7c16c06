package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/sells-group/recruiting-cli/internal/model"
)

// ErrPromotionExists is returned when a (candidate, run) pair already holds
// a promotion.
var ErrPromotionExists = eris.New("promotion already exists for candidate in run")

// UpsertReviewStatus writes the (candidate, run) review row. On update only
// status, notes, and (when provided) priority change.
func (s *SQLite) UpsertReviewStatus(ctx context.Context, upd ReviewUpdate) error {
	now := model.NowMillis()
	priority := 0
	if upd.Priority != nil {
		priority = *upd.Priority
	}

	if upd.Priority != nil {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO candidate_reviews
				(candidate_id, run_id, status, priority, notes, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(candidate_id, run_id) DO UPDATE SET
				status = excluded.status,
				priority = excluded.priority,
				notes = excluded.notes,
				updated_at = excluded.updated_at`,
			upd.CandidateID, upd.RunID, string(upd.Status), priority,
			nullable(upd.Notes), now, now,
		)
		return eris.Wrapf(err, "sqlite: upsert review %s", upd.CandidateID)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO candidate_reviews
			(candidate_id, run_id, status, priority, notes, created_at, updated_at)
		 VALUES (?, ?, ?, 0, ?, ?, ?)
		 ON CONFLICT(candidate_id, run_id) DO UPDATE SET
			status = excluded.status,
			notes = excluded.notes,
			updated_at = excluded.updated_at`,
		upd.CandidateID, upd.RunID, string(upd.Status),
		nullable(upd.Notes), now, now,
	)
	return eris.Wrapf(err, "sqlite: upsert review %s", upd.CandidateID)
}

// GetReview returns the review row for a (candidate, run) pair, or nil.
func (s *SQLite) GetReview(ctx context.Context, candidateID, runID string) (*model.Review, error) {
	var r model.Review
	var notes sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT candidate_id, run_id, status, priority, notes, created_at, updated_at
		 FROM candidate_reviews WHERE candidate_id = ? AND run_id = ?`,
		candidateID, runID,
	).Scan(&r.CandidateID, &r.RunID, &r.Status, &r.Priority, &notes, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get review")
	}
	r.Notes = notes.String
	return &r, nil
}

// AddVerification appends a verification attempt.
func (s *SQLite) AddVerification(ctx context.Context, v model.Verification) error {
	proofs, err := json.Marshal(v.ProofLinks)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal proof links")
	}
	createdAt := v.CreatedAt
	if createdAt == 0 {
		createdAt = model.NowMillis()
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO candidate_verifications
			(candidate_id, run_id, method, outcome, confidence_before,
			 confidence_after, proof_links_json, notes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.CandidateID, v.RunID, v.Method, v.Outcome, v.ConfidenceBefore,
		v.ConfidenceAfter, string(proofs), nullable(v.Notes), createdAt,
	)
	return eris.Wrap(err, "sqlite: insert verification")
}

// HasConfirmedVerification reports whether the pair has at least one
// confirmed verification.
func (s *SQLite) HasConfirmedVerification(ctx context.Context, candidateID, runID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM candidate_verifications
			WHERE candidate_id = ? AND run_id = ? AND outcome = ?)`,
		candidateID, runID, model.VerificationConfirmed,
	).Scan(&exists)
	return exists, eris.Wrap(err, "sqlite: check confirmed verification")
}

// AddPromotion inserts the single promotion record for a (candidate, run)
// pair and transitions the review to promoted_shortlist in the same
// transaction. Returns ErrPromotionExists on a duplicate.
func (s *SQLite) AddPromotion(ctx context.Context, in PromotionInput) error {
	exists, err := s.HasPromotion(ctx, in.CandidateID, in.RunID)
	if err != nil {
		return err
	}
	if exists {
		return ErrPromotionExists
	}

	proofs, err := json.Marshal(in.ProofLinks)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal proof links")
	}
	now := model.NowMillis()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin promotion tx")
	}
	defer tx.Rollback() //nolint:errcheck

	var override any
	if in.ConfidenceOverride != nil {
		override = *in.ConfidenceOverride
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO candidate_promotions
			(candidate_id, run_id, promotion_reason, confidence_override,
			 outreach_angle, proof_links_json, promoted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		in.CandidateID, in.RunID, nullable(in.PromotionReason), override,
		nullable(in.OutreachAngle), string(proofs), now,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert promotion")
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO candidate_reviews
			(candidate_id, run_id, status, priority, notes, created_at, updated_at)
		 VALUES (?, ?, ?, 0, NULL, ?, ?)
		 ON CONFLICT(candidate_id, run_id) DO UPDATE SET
			status = excluded.status,
			updated_at = excluded.updated_at`,
		in.CandidateID, in.RunID, string(model.ReviewPromotedShortlist), now, now,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: promote review")
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit promotion")
}

// HasPromotion reports whether the pair already holds a promotion.
func (s *SQLite) HasPromotion(ctx context.Context, candidateID, runID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM candidate_promotions WHERE candidate_id = ? AND run_id = ?)`,
		candidateID, runID,
	).Scan(&exists)
	return exists, eris.Wrap(err, "sqlite: check promotion")
}

// GetCrossPlatformIdentity returns the cross-platform identity row for a
// candidate, or nil.
func (s *SQLite) GetCrossPlatformIdentity(ctx context.Context, candidateID string) (*model.Identity, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT candidate_id, platform, handle, url, confidence, band, reasons_json, shortlist_eligible
		 FROM candidate_identities WHERE candidate_id = ? AND platform = ?`,
		candidateID, model.PlatformCrossPlatform,
	)
	id, err := scanIdentity(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get cross-platform identity")
	}
	return id, nil
}

// GetVerificationQueue returns candidates in under_verification for the
// run, ordered by review priority then score.
func (s *SQLite) GetVerificationQueue(ctx context.Context, runID string, f QueueFilter) ([]model.VerificationQueueEntry, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT ` + prefixColumns("c", candidateColumns) + `,
			r.candidate_id, r.run_id, r.status, r.priority, r.notes, r.created_at, r.updated_at,
			COALESCE(s.total, 0),
			COALESCE(i.confidence, 0)
		FROM candidate_reviews r
		JOIN candidates c ON c.id = r.candidate_id
		LEFT JOIN candidate_scores s ON s.candidate_id = r.candidate_id AND s.run_id = r.run_id
		LEFT JOIN candidate_identities i ON i.candidate_id = r.candidate_id AND i.platform = ?
		WHERE r.run_id = ? AND r.status = ?`
	args := []any{model.PlatformCrossPlatform, runID, string(model.ReviewUnderVerification)}

	if f.Priority == "high" {
		query += ` AND r.priority >= 50`
	}
	query += ` ORDER BY r.priority DESC, COALESCE(s.total, 0) DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: verification queue")
	}
	defer rows.Close()

	var entries []model.VerificationQueueEntry
	for rows.Next() {
		var e model.VerificationQueueEntry
		var notes sql.NullString
		dests := candidateScanDests(&e.Candidate)
		dests = append(dests,
			&e.Review.CandidateID, &e.Review.RunID, &e.Review.Status,
			&e.Review.Priority, &notes, &e.Review.CreatedAt, &e.Review.UpdatedAt,
			&e.TotalScore, &e.Confidence,
		)
		if err := rows.Scan(dests...); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan queue entry")
		}
		e.Review.Notes = notes.String
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "sqlite: verification queue iterate")
}

// UpsertDailyOutput writes the (run, role, date) aggregate counters.
func (s *SQLite) UpsertDailyOutput(ctx context.Context, out model.DailyOutput) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO daily_run_outputs
			(run_id, role_key, date, sourced, reviewed, verified, promoted, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(run_id, role_key, date) DO UPDATE SET
			sourced = excluded.sourced,
			reviewed = excluded.reviewed,
			verified = excluded.verified,
			promoted = excluded.promoted,
			updated_at = excluded.updated_at`,
		out.RunID, out.RoleKey, out.Date, out.Sourced, out.Reviewed,
		out.Verified, out.Promoted, model.NowMillis(),
	)
	return eris.Wrap(err, "sqlite: upsert daily output")
}

// GetDailyOutput returns the aggregate row for (run, role, date), or nil.
func (s *SQLite) GetDailyOutput(ctx context.Context, runID, roleKey, date string) (*model.DailyOutput, error) {
	var out model.DailyOutput
	err := s.db.QueryRowContext(ctx,
		`SELECT run_id, role_key, date, sourced, reviewed, verified, promoted, updated_at
		 FROM daily_run_outputs WHERE run_id = ? AND role_key = ? AND date = ?`,
		runID, roleKey, date,
	).Scan(&out.RunID, &out.RoleKey, &out.Date, &out.Sourced, &out.Reviewed,
		&out.Verified, &out.Promoted, &out.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get daily output")
	}
	return &out, nil
}

func scanIdentity(row scannable) (*model.Identity, error) {
	var id model.Identity
	var handle, url, reasons sql.NullString
	var eligible int
	err := row.Scan(&id.CandidateID, &id.Platform, &handle, &url,
		&id.Confidence, &id.Band, &reasons, &eligible)
	if err != nil {
		return nil, err
	}
	id.Handle = handle.String
	id.URL = url.String
	id.ShortlistEligible = eligible != 0
	if reasons.Valid && reasons.String != "" {
		if err := json.Unmarshal([]byte(reasons.String), &id.Reasons); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal identity reasons")
		}
	}
	return &id, nil
}
