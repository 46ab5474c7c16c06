package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/recruiting-cli/internal/model"
)

// BeginRun creates a run or returns the existing one for the idempotency
// key. A run in status running or completed wins; a failed run releases its
// key and a fresh run is created.
func (s *SQLite) BeginRun(ctx context.Context, in BeginRunInput) (*BeginRunResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin run tx")
	}
	defer tx.Rollback() //nolint:errcheck

	if in.IdempotencyKey != "" {
		var existingID string
		var existingStatus string
		err = tx.QueryRowContext(ctx,
			`SELECT id, status FROM pipeline_runs
			 WHERE idempotency_key = ? AND status != 'failed'
			 LIMIT 1`,
			in.IdempotencyKey,
		).Scan(&existingID, &existingStatus)
		switch {
		case err == nil:
			return &BeginRunResult{
				RunID:   existingID,
				Resumed: true,
				Status:  model.RunStatus(existingStatus),
			}, nil
		case err != sql.ErrNoRows:
			return nil, eris.Wrap(err, "sqlite: lookup idempotency key")
		}
	}

	runID := uuid.New().String()
	now := model.NowMillis()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO pipeline_runs
			(id, idempotency_key, status, role_key, role_title, target_candidates, config_json, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, nullable(in.IdempotencyKey), string(model.RunStatusRunning),
		in.RoleKey, in.RoleTitle, in.TargetCandidates, nullable(in.Criteria), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO run_roles (run_id, role_key, criteria_json) VALUES (?, ?, ?)`,
		runID, in.RoleKey, nullable(in.Criteria),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run role")
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit begin run")
	}

	return &BeginRunResult{RunID: runID, Resumed: false, Status: model.RunStatusRunning}, nil
}

const runColumns = `id, idempotency_key, status, role_key, role_title,
	target_candidates, config_json, summary_json, started_at, finished_at`

// GetRun returns a run by ID, with diagnostics decoded from summary_json.
func (s *SQLite) GetRun(ctx context.Context, runID string) (*model.PipelineRun, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM pipeline_runs WHERE id = ?`, runID)
	return scanRun(row)
}

// ListRecentRuns returns the most recent runs, newest first.
func (s *SQLite) ListRecentRuns(ctx context.Context, limit int) ([]model.PipelineRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM pipeline_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list recent runs")
	}
	defer rows.Close()

	var runs []model.PipelineRun
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list recent runs iterate")
}

// MarkRunCompleted finalises a run as completed with its diagnostics blob.
func (s *SQLite) MarkRunCompleted(ctx context.Context, runID string, diag *model.Diagnostics) error {
	return s.finishRun(ctx, runID, model.RunStatusCompleted, diag)
}

// MarkRunFailed finalises a run as failed with its diagnostics blob.
func (s *SQLite) MarkRunFailed(ctx context.Context, runID string, diag *model.Diagnostics) error {
	return s.finishRun(ctx, runID, model.RunStatusFailed, diag)
}

func (s *SQLite) finishRun(ctx context.Context, runID string, status model.RunStatus, diag *model.Diagnostics) error {
	var summary any
	if diag != nil {
		b, err := json.Marshal(diag)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal diagnostics")
		}
		summary = string(b)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE pipeline_runs SET status = ?, summary_json = ?, finished_at = ? WHERE id = ?`,
		string(status), summary, model.NowMillis(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: finish run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

// AddRunFailure appends a failure row.
func (s *SQLite) AddRunFailure(ctx context.Context, f model.RunFailure) error {
	if f.CreatedAt == 0 {
		f.CreatedAt = model.NowMillis()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO run_failures
			(run_id, stage, candidate_ref, error_type, message, retryable, payload_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		f.RunID, f.Stage, nullable(f.CandidateRef), f.ErrorType, f.Message,
		boolToInt(f.Retryable), nullable(f.Payload), f.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert run failure")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.PipelineRun, error) {
	var r model.PipelineRun
	var idemKey, cfg, summary sql.NullString
	var finished sql.NullInt64

	err := row.Scan(&r.ID, &idemKey, &r.Status, &r.RoleKey, &r.RoleTitle,
		&r.TargetCandidates, &cfg, &summary, &r.StartedAt, &finished)
	if err == sql.ErrNoRows {
		return nil, eris.New("run not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}

	r.IdempotencyKey = idemKey.String
	r.Config = cfg.String
	if finished.Valid {
		v := finished.Int64
		r.FinishedAt = &v
	}
	if summary.Valid && summary.String != "" {
		r.Diagnostics = &model.Diagnostics{}
		if err := json.Unmarshal([]byte(summary.String), r.Diagnostics); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal diagnostics")
		}
	}
	return &r, nil
}
