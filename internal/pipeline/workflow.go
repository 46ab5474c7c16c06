package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/recruiting-cli/internal/model"
	"github.com/sells-group/recruiting-cli/internal/store"
)

// Note prefixes applied when a verification outcome transitions the review.
const (
	noteVerified = "Verified via browser."
	noteRejected = "Verification rejected."
)

// UpdateReviewStatus moves a (candidate, run) pair to a workflow state.
func (p *Pipeline) UpdateReviewStatus(ctx context.Context, candidateID, runID string, status model.ReviewStatus, notes string, priority *int) error {
	if !model.ValidReviewStatus(status) {
		return eris.Errorf("invalid review status: %s", status)
	}
	return p.store.UpsertReviewStatus(ctx, store.ReviewUpdate{
		CandidateID: candidateID,
		RunID:       runID,
		Status:      status,
		Notes:       notes,
		Priority:    priority,
	})
}

// VerificationInput is a human verification submission.
type VerificationInput struct {
	CandidateID     string
	RunID           string
	Method          string
	Outcome         string
	ConfidenceAfter *float64
	ProofLinks      []string
	Notes           string
}

// SubmitVerification records a verification attempt and applies the outcome
// to the review: confirmed promotes, rejected rejects, inconclusive leaves
// the review untouched.
func (p *Pipeline) SubmitVerification(ctx context.Context, in VerificationInput) error {
	before := 0.0
	if id, err := p.store.GetCrossPlatformIdentity(ctx, in.CandidateID); err != nil {
		return err
	} else if id != nil {
		before = id.Confidence
	}

	after := before
	if in.ConfidenceAfter != nil {
		after = model.Clamp01(*in.ConfidenceAfter)
	}

	method := in.Method
	if method == "" {
		method = model.VerificationMethodBrowser
	}

	if err := p.store.AddVerification(ctx, model.Verification{
		CandidateID:      in.CandidateID,
		RunID:            in.RunID,
		Method:           method,
		Outcome:          in.Outcome,
		ConfidenceBefore: before,
		ConfidenceAfter:  after,
		ProofLinks:       in.ProofLinks,
		Notes:            in.Notes,
	}); err != nil {
		return err
	}

	switch in.Outcome {
	case model.VerificationConfirmed:
		return p.store.UpsertReviewStatus(ctx, store.ReviewUpdate{
			CandidateID: in.CandidateID,
			RunID:       in.RunID,
			Status:      model.ReviewPromotedShortlist,
			Notes:       prefixNote(noteVerified, in.Notes),
		})
	case model.VerificationRejected:
		return p.store.UpsertReviewStatus(ctx, store.ReviewUpdate{
			CandidateID: in.CandidateID,
			RunID:       in.RunID,
			Status:      model.ReviewRejected,
			Notes:       prefixNote(noteRejected, in.Notes),
		})
	case model.VerificationInconclusive:
		return nil
	default:
		return eris.Errorf("invalid verification outcome: %s", in.Outcome)
	}
}

// PromoteInput is a shortlist promotion request.
type PromoteInput struct {
	CandidateID        string
	RunID              string
	PromotionReason    string
	ConfidenceOverride *float64
	OutreachAngle      string
	ProofLinks         []string
}

// PromoteResult reports a business-precondition verdict rather than an
// error; store failures still surface as errors.
type PromoteResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// PromoteCandidate enforces the promotion preconditions (proof count,
// verification unless configured otherwise, single promotion per pair) and
// records the promotion.
func (p *Pipeline) PromoteCandidate(ctx context.Context, in PromoteInput) (*PromoteResult, error) {
	if len(in.ProofLinks) < p.cfg.Promotion.MinProofLinks {
		return &PromoteResult{Error: "insufficient proof links"}, nil
	}

	if !p.cfg.Promotion.AllowUnverifiedPromotion {
		verified, err := p.store.HasConfirmedVerification(ctx, in.CandidateID, in.RunID)
		if err != nil {
			return nil, err
		}
		if !verified {
			return &PromoteResult{Error: "candidate has no confirmed verification"}, nil
		}
	}

	err := p.store.AddPromotion(ctx, store.PromotionInput{
		CandidateID:        in.CandidateID,
		RunID:              in.RunID,
		PromotionReason:    in.PromotionReason,
		ConfidenceOverride: in.ConfidenceOverride,
		OutreachAngle:      in.OutreachAngle,
		ProofLinks:         in.ProofLinks,
	})
	if err == store.ErrPromotionExists {
		return &PromoteResult{Error: "promotion already exists"}, nil
	}
	if err != nil {
		return nil, err
	}

	zap.L().Info("candidate promoted to shortlist",
		zap.String("candidate_id", in.CandidateID),
		zap.String("run_id", in.RunID),
	)
	return &PromoteResult{Success: true}, nil
}

// VerificationQueue lists candidates awaiting verification for a run.
func (p *Pipeline) VerificationQueue(ctx context.Context, runID string, f store.QueueFilter) ([]model.VerificationQueueEntry, error) {
	return p.store.GetVerificationQueue(ctx, runID, f)
}

// Status returns one run, or the 20 most recent when runID is empty.
func (p *Pipeline) Status(ctx context.Context, runID string) (*model.PipelineRun, []model.PipelineRun, error) {
	if runID != "" {
		run, err := p.store.GetRun(ctx, runID)
		return run, nil, err
	}
	runs, err := p.store.ListRecentRuns(ctx, 20)
	return nil, runs, err
}

// Results returns the scored output for a run.
func (p *Pipeline) Results(ctx context.Context, runID string, limit int) (*model.PipelineResults, error) {
	return p.store.GetResults(ctx, runID, limit)
}

// CandidateDetail returns the full candidate document.
func (p *Pipeline) CandidateDetail(ctx context.Context, id string) (*model.CandidateDetail, error) {
	return p.store.GetCandidateDetail(ctx, id)
}

// DailyReport builds the quota report for a role's run and date. An empty
// runID resolves to the most recent run with the role key; an empty date
// defaults to today UTC.
func (p *Pipeline) DailyReport(ctx context.Context, runID, roleKey, date string) (*model.DailyReport, error) {
	if date == "" {
		date = model.TodayUTC()
	}

	run, err := p.resolveRun(ctx, runID, roleKey)
	if err != nil {
		return nil, err
	}

	workflow, err := p.store.GetWorkflowStats(ctx, run.ID, date)
	if err != nil {
		return nil, err
	}
	verification, err := p.store.GetVerificationStats(ctx, run.ID, date)
	if err != nil {
		return nil, err
	}
	quota, err := p.store.GetQuotaStatus(ctx, run.ID, date)
	if err != nil {
		return nil, err
	}
	quota.PromotedTarget = p.cfg.DailyQuotas.PromotedTarget
	quota.ReviewedTarget = p.cfg.DailyQuotas.ReviewedTarget
	quota.VerificationBudget = p.cfg.DailyQuotas.VerificationBudget

	report := &model.DailyReport{
		RunID:        run.ID,
		RoleKey:      run.RoleKey,
		Date:         date,
		Workflow:     *workflow,
		Verification: *verification,
		Quota:        *quota,
	}
	if run.Diagnostics != nil {
		report.Contract = run.Diagnostics.Counts
	}
	return report, nil
}

func (p *Pipeline) resolveRun(ctx context.Context, runID, roleKey string) (*model.PipelineRun, error) {
	if runID != "" {
		return p.store.GetRun(ctx, runID)
	}
	runs, err := p.store.ListRecentRuns(ctx, 20)
	if err != nil {
		return nil, err
	}
	for i := range runs {
		if runs[i].RoleKey == roleKey {
			return &runs[i], nil
		}
	}
	return nil, eris.Errorf("no recent run found for role %s", roleKey)
}

func prefixNote(prefix, notes string) string {
	if notes == "" {
		return prefix
	}
	return prefix + " " + notes
}
