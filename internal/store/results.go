package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/recruiting-cli/internal/model"
)

// GetResults returns the top-N scored candidates for a run, each with its
// cross-platform identity and top-3 evidence links, partitioned into
// shortlist and review queue by shortlist eligibility. Run diagnostics ride
// along in meta.
func (s *SQLite) GetResults(ctx context.Context, runID string, limit int) (*model.PipelineResults, error) {
	if limit <= 0 {
		limit = 100
	}

	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + prefixColumns("c", candidateColumns) + `,
			sc.candidate_id, sc.run_id, sc.total, sc.breakdown_json, sc.concerns_json,
			sc.shortlist_eligible, sc.outreach_angle, sc.created_at,
			i.candidate_id, i.platform, i.handle, i.url, i.confidence, i.band,
			i.reasons_json, i.shortlist_eligible
		FROM candidate_scores sc
		JOIN candidates c ON c.id = sc.candidate_id
		LEFT JOIN candidate_identities i
			ON i.candidate_id = sc.candidate_id AND i.platform = ?
		WHERE sc.run_id = ?
		ORDER BY sc.total DESC
		LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, model.PlatformCrossPlatform, runID, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get results")
	}
	defer rows.Close()

	results := &model.PipelineResults{
		Shortlist:   []model.ResultRow{},
		ReviewQueue: []model.ResultRow{},
		Meta: model.ResultsMeta{
			RunID:     run.ID,
			Status:    run.Status,
			RoleKey:   run.RoleKey,
			RoleTitle: run.RoleTitle,
		},
	}
	if run.Diagnostics != nil {
		results.Meta.Diagnostics = run.Diagnostics
		results.Meta.Modes = run.Diagnostics.Modes
		results.Meta.EffectiveQuery = run.Diagnostics.EffectiveQuery
	}

	var scored []model.ResultRow
	for rows.Next() {
		var row model.ResultRow
		var breakdown string
		var concerns, outreach sql.NullString
		var scoreEligible int

		var idCandidate, idPlatform, idHandle, idURL, idBand, idReasons sql.NullString
		var idConfidence sql.NullFloat64
		var idEligible sql.NullInt64

		dests := candidateScanDests(&row.Candidate)
		dests = append(dests,
			&row.Score.CandidateID, &row.Score.RunID, &row.Score.Total,
			&breakdown, &concerns, &scoreEligible, &outreach, &row.Score.CreatedAt,
			&idCandidate, &idPlatform, &idHandle, &idURL, &idConfidence, &idBand,
			&idReasons, &idEligible,
		)
		if err := rows.Scan(dests...); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan result row")
		}

		if err := json.Unmarshal([]byte(breakdown), &row.Score.Breakdown); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal score breakdown")
		}
		if concerns.Valid && concerns.String != "" {
			if err := json.Unmarshal([]byte(concerns.String), &row.Score.Concerns); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal score concerns")
			}
		}
		row.Score.ShortlistEligible = scoreEligible != 0
		row.Score.OutreachAngle = outreach.String

		if idCandidate.Valid {
			identity := model.Identity{
				CandidateID:       idCandidate.String,
				Platform:          idPlatform.String,
				Handle:            idHandle.String,
				URL:               idURL.String,
				Confidence:        idConfidence.Float64,
				Band:              model.ConfidenceBand(idBand.String),
				ShortlistEligible: idEligible.Int64 != 0,
			}
			if idReasons.Valid && idReasons.String != "" {
				if err := json.Unmarshal([]byte(idReasons.String), &identity.Reasons); err != nil {
					return nil, eris.Wrap(err, "sqlite: unmarshal identity reasons")
				}
			}
			row.Identity = &identity
		}

		scored = append(scored, row)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: get results iterate")
	}
	// The pool holds a single connection; drain and release the score rows
	// before running the per-candidate evidence queries.
	if err := rows.Close(); err != nil {
		return nil, eris.Wrap(err, "sqlite: get results close")
	}

	for _, row := range scored {
		row.Evidence, err = s.topEvidence(ctx, row.Candidate.ID, runID, 3)
		if err != nil {
			return nil, err
		}

		if row.Score.ShortlistEligible {
			results.Shortlist = append(results.Shortlist, row)
		} else {
			results.ReviewQueue = append(results.ReviewQueue, row)
		}
	}
	return results, nil
}

func (s *SQLite) topEvidence(ctx context.Context, candidateID, runID string, limit int) ([]model.EvidenceLink, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT candidate_id, run_id, url, title, source, relevance, created_at
		 FROM candidate_evidence_links
		 WHERE candidate_id = ? AND run_id = ?
		 ORDER BY relevance DESC, created_at DESC
		 LIMIT ?`,
		candidateID, runID, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: top evidence")
	}
	defer rows.Close()
	return scanEvidence(rows)
}

// GetCandidateDetail assembles the full document for one candidate across
// all runs.
func (s *SQLite) GetCandidateDetail(ctx context.Context, id string) (*model.CandidateDetail, error) {
	c, err := s.GetCandidate(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, nil
	}
	detail := &model.CandidateDetail{Candidate: *c}

	// Identities
	idRows, err := s.db.QueryContext(ctx,
		`SELECT candidate_id, platform, handle, url, confidence, band, reasons_json, shortlist_eligible
		 FROM candidate_identities WHERE candidate_id = ?`, id)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: detail identities")
	}
	defer idRows.Close()
	for idRows.Next() {
		identity, err := scanIdentity(idRows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan detail identity")
		}
		detail.Identities = append(detail.Identities, *identity)
	}
	if err := idRows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: detail identities iterate")
	}

	// Signals
	sigRows, err := s.db.QueryContext(ctx,
		`SELECT candidate_id, run_id, key, numeric_value, source, details, created_at
		 FROM candidate_signals WHERE candidate_id = ? ORDER BY created_at`, id)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: detail signals")
	}
	defer sigRows.Close()
	for sigRows.Next() {
		var sig model.Signal
		var numeric sql.NullFloat64
		var source, details sql.NullString
		if err := sigRows.Scan(&sig.CandidateID, &sig.RunID, &sig.Key, &numeric,
			&source, &details, &sig.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan detail signal")
		}
		if numeric.Valid {
			v := numeric.Float64
			sig.NumericValue = &v
		}
		sig.Source = source.String
		sig.Details = details.String
		detail.Signals = append(detail.Signals, sig)
	}
	if err := sigRows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: detail signals iterate")
	}

	// Scores
	scoreRows, err := s.db.QueryContext(ctx,
		`SELECT candidate_id, run_id, total, breakdown_json, concerns_json,
			shortlist_eligible, outreach_angle, created_at
		 FROM candidate_scores WHERE candidate_id = ? ORDER BY created_at DESC`, id)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: detail scores")
	}
	defer scoreRows.Close()
	for scoreRows.Next() {
		var sc model.Score
		var breakdown string
		var concerns, outreach sql.NullString
		var eligible int
		if err := scoreRows.Scan(&sc.CandidateID, &sc.RunID, &sc.Total, &breakdown,
			&concerns, &eligible, &outreach, &sc.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan detail score")
		}
		if err := json.Unmarshal([]byte(breakdown), &sc.Breakdown); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal detail breakdown")
		}
		if concerns.Valid && concerns.String != "" {
			if err := json.Unmarshal([]byte(concerns.String), &sc.Concerns); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal detail concerns")
			}
		}
		sc.ShortlistEligible = eligible != 0
		sc.OutreachAngle = outreach.String
		detail.Scores = append(detail.Scores, sc)
	}
	if err := scoreRows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: detail scores iterate")
	}

	// Evidence
	evRows, err := s.db.QueryContext(ctx,
		`SELECT candidate_id, run_id, url, title, source, relevance, created_at
		 FROM candidate_evidence_links WHERE candidate_id = ?
		 ORDER BY relevance DESC, created_at DESC`, id)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: detail evidence")
	}
	defer evRows.Close()
	detail.Evidence, err = scanEvidence(evRows)
	if err != nil {
		return nil, err
	}

	// Reviews
	revRows, err := s.db.QueryContext(ctx,
		`SELECT candidate_id, run_id, status, priority, notes, created_at, updated_at
		 FROM candidate_reviews WHERE candidate_id = ?`, id)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: detail reviews")
	}
	defer revRows.Close()
	for revRows.Next() {
		var r model.Review
		var notes sql.NullString
		if err := revRows.Scan(&r.CandidateID, &r.RunID, &r.Status, &r.Priority,
			&notes, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan detail review")
		}
		r.Notes = notes.String
		detail.Reviews = append(detail.Reviews, r)
	}
	if err := revRows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: detail reviews iterate")
	}

	// Verifications
	verRows, err := s.db.QueryContext(ctx,
		`SELECT candidate_id, run_id, method, outcome, confidence_before,
			confidence_after, proof_links_json, notes, created_at
		 FROM candidate_verifications WHERE candidate_id = ? ORDER BY created_at DESC`, id)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: detail verifications")
	}
	defer verRows.Close()
	for verRows.Next() {
		var v model.Verification
		var proofs, notes sql.NullString
		if err := verRows.Scan(&v.CandidateID, &v.RunID, &v.Method, &v.Outcome,
			&v.ConfidenceBefore, &v.ConfidenceAfter, &proofs, &notes, &v.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan detail verification")
		}
		if proofs.Valid && proofs.String != "" {
			if err := json.Unmarshal([]byte(proofs.String), &v.ProofLinks); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal proof links")
			}
		}
		v.Notes = notes.String
		detail.Verifications = append(detail.Verifications, v)
	}
	if err := verRows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: detail verifications iterate")
	}

	// Promotions
	promRows, err := s.db.QueryContext(ctx,
		`SELECT candidate_id, run_id, promotion_reason, confidence_override,
			outreach_angle, proof_links_json, promoted_at
		 FROM candidate_promotions WHERE candidate_id = ?`, id)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: detail promotions")
	}
	defer promRows.Close()
	for promRows.Next() {
		var p model.Promotion
		var reason, angle sql.NullString
		var override sql.NullFloat64
		var proofs string
		if err := promRows.Scan(&p.CandidateID, &p.RunID, &reason, &override,
			&angle, &proofs, &p.PromotedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan detail promotion")
		}
		p.PromotionReason = reason.String
		p.OutreachAngle = angle.String
		if override.Valid {
			v := override.Float64
			p.ConfidenceOverride = &v
		}
		if err := json.Unmarshal([]byte(proofs), &p.ProofLinks); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal promotion proofs")
		}
		detail.Promotions = append(detail.Promotions, p)
	}
	if err := promRows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: detail promotions iterate")
	}

	return detail, nil
}

// GetWorkflowStats counts review states touched within the UTC day.
func (s *SQLite) GetWorkflowStats(ctx context.Context, runID, date string) (*model.WorkflowStats, error) {
	start, end, ok := model.DayBoundsUTC(date)
	if !ok {
		return nil, eris.Errorf("invalid date: %s", date)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM candidate_reviews
		 WHERE run_id = ? AND updated_at >= ? AND updated_at < ?
		 GROUP BY status`,
		runID, start, end,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: workflow stats")
	}
	defer rows.Close()

	stats := &model.WorkflowStats{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan workflow stat")
		}
		switch model.ReviewStatus(status) {
		case model.ReviewNew:
			stats.NewReview = count
		case model.ReviewUnderVerification:
			stats.UnderVerification = count
		case model.ReviewPromotedShortlist:
			stats.PromotedShortlist = count
		case model.ReviewRejected:
			stats.Rejected = count
		case model.ReviewDeferred:
			stats.Deferred = count
		}
	}
	return stats, eris.Wrap(rows.Err(), "sqlite: workflow stats iterate")
}

// GetVerificationStats counts verification outcomes within the UTC day.
func (s *SQLite) GetVerificationStats(ctx context.Context, runID, date string) (*model.VerificationStats, error) {
	start, end, ok := model.DayBoundsUTC(date)
	if !ok {
		return nil, eris.Errorf("invalid date: %s", date)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT outcome, COUNT(*) FROM candidate_verifications
		 WHERE run_id = ? AND created_at >= ? AND created_at < ?
		 GROUP BY outcome`,
		runID, start, end,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: verification stats")
	}
	defer rows.Close()

	stats := &model.VerificationStats{}
	for rows.Next() {
		var outcome string
		var count int
		if err := rows.Scan(&outcome, &count); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan verification stat")
		}
		stats.Submitted += count
		switch outcome {
		case model.VerificationConfirmed:
			stats.Confirmed = count
		case model.VerificationRejected:
			stats.Rejected = count
		case model.VerificationInconclusive:
			stats.Inconclusive = count
		}
	}
	return stats, eris.Wrap(rows.Err(), "sqlite: verification stats iterate")
}

// GetQuotaStatus counts the day's promoted / reviewed / verified activity.
// Targets are filled in by the caller from config.
func (s *SQLite) GetQuotaStatus(ctx context.Context, runID, date string) (*model.QuotaStatus, error) {
	start, end, ok := model.DayBoundsUTC(date)
	if !ok {
		return nil, eris.Errorf("invalid date: %s", date)
	}
	qs := &model.QuotaStatus{Date: date}

	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM candidate_promotions
		 WHERE run_id = ? AND promoted_at >= ? AND promoted_at < ?`,
		runID, start, end,
	).Scan(&qs.PromotedToday)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: quota promoted")
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM candidate_reviews
		 WHERE run_id = ? AND updated_at >= ? AND updated_at < ?`,
		runID, start, end,
	).Scan(&qs.ReviewedToday)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: quota reviewed")
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM candidate_verifications
		 WHERE run_id = ? AND created_at >= ? AND created_at < ?`,
		runID, start, end,
	).Scan(&qs.VerificationsToday)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: quota verifications")
	}

	return qs, nil
}

// column helpers

func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

func candidateScanDests(c *model.Candidate) []any {
	// Parallel to candidateColumns; nullable columns go through temporaries
	// the caller never sees, so we scan into a shadow struct instead.
	return []any{
		&c.ID, &c.Provider,
		&nullString{&c.ProviderID}, &nullString{&c.PublicIdentifier},
		&nullString{&c.ProfileURL}, &nullString{&c.ProfileURLHash},
		&c.Name, &nullString{&c.Headline}, &nullString{&c.Location},
		&nullString{&c.CurrentCompany}, &nullString{&c.CurrentRole},
		&nullBool{&c.OpenToWork}, &c.FirstSeenAt, &c.LastSeenAt,
	}
}

// nullString scans a nullable TEXT column into a plain string.
type nullString struct{ dest *string }

func (n *nullString) Scan(v any) error {
	switch t := v.(type) {
	case nil:
		*n.dest = ""
	case string:
		*n.dest = t
	case []byte:
		*n.dest = string(t)
	}
	return nil
}

// nullBool scans a nullable INTEGER column into a bool.
type nullBool struct{ dest *bool }

func (n *nullBool) Scan(v any) error {
	switch t := v.(type) {
	case nil:
		*n.dest = false
	case int64:
		*n.dest = t != 0
	case bool:
		*n.dest = t
	}
	return nil
}

func scanEvidence(rows *sql.Rows) ([]model.EvidenceLink, error) {
	var links []model.EvidenceLink
	for rows.Next() {
		var l model.EvidenceLink
		var title, source sql.NullString
		if err := rows.Scan(&l.CandidateID, &l.RunID, &l.URL, &title, &source,
			&l.Relevance, &l.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan evidence")
		}
		l.Title = title.String
		l.Source = source.String
		links = append(links, l)
	}
	return links, eris.Wrap(rows.Err(), "sqlite: evidence iterate")
}
