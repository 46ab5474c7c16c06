package store

import (
	"context"

	"github.com/sells-group/recruiting-cli/internal/model"
)

// BeginRunInput carries everything needed to create or resume a run.
type BeginRunInput struct {
	IdempotencyKey   string
	RoleKey          string
	RoleTitle        string
	TargetCandidates int
	Criteria         string
}

// BeginRunResult reports the winning run for an idempotency key.
type BeginRunResult struct {
	RunID   string
	Resumed bool
	Status  model.RunStatus
}

// ReviewUpdate is the upsert payload for a (candidate, run) review row.
// Priority is applied only when non-nil so workflow transitions keep the
// operator-assigned priority.
type ReviewUpdate struct {
	CandidateID string
	RunID       string
	Status      model.ReviewStatus
	Notes       string
	Priority    *int
}

// QueueFilter bounds a verification queue query. Priority "high" filters to
// review priority >= 50.
type QueueFilter struct {
	Priority string
	Limit    int
}

// PromotionInput is the AddPromotion payload.
type PromotionInput struct {
	CandidateID        string
	RunID              string
	PromotionReason    string
	ConfidenceOverride *float64
	OutreachAngle      string
	ProofLinks         []string
}

// Store defines persistence for the candidate pipeline.
type Store interface {
	// Runs
	BeginRun(ctx context.Context, in BeginRunInput) (*BeginRunResult, error)
	GetRun(ctx context.Context, runID string) (*model.PipelineRun, error)
	ListRecentRuns(ctx context.Context, limit int) ([]model.PipelineRun, error)
	MarkRunCompleted(ctx context.Context, runID string, diag *model.Diagnostics) error
	MarkRunFailed(ctx context.Context, runID string, diag *model.Diagnostics) error
	AddRunFailure(ctx context.Context, f model.RunFailure) error

	// Candidates
	UpsertCandidate(ctx context.Context, c model.Candidate) (string, error)
	GetCandidate(ctx context.Context, id string) (*model.Candidate, error)
	AddSourceRecord(ctx context.Context, rec model.SourceRecord) error

	// Enrichment artifacts
	AddSignals(ctx context.Context, signals []model.Signal) error
	AddEvidenceLinks(ctx context.Context, links []model.EvidenceLink) error
	UpsertIdentity(ctx context.Context, id model.Identity) error
	UpsertScore(ctx context.Context, s model.Score) error

	// Hybrid review workflow
	UpsertReviewStatus(ctx context.Context, upd ReviewUpdate) error
	GetReview(ctx context.Context, candidateID, runID string) (*model.Review, error)
	AddVerification(ctx context.Context, v model.Verification) error
	HasConfirmedVerification(ctx context.Context, candidateID, runID string) (bool, error)
	AddPromotion(ctx context.Context, in PromotionInput) error
	HasPromotion(ctx context.Context, candidateID, runID string) (bool, error)
	GetCrossPlatformIdentity(ctx context.Context, candidateID string) (*model.Identity, error)
	GetVerificationQueue(ctx context.Context, runID string, f QueueFilter) ([]model.VerificationQueueEntry, error)

	// Read side
	GetResults(ctx context.Context, runID string, limit int) (*model.PipelineResults, error)
	GetCandidateDetail(ctx context.Context, id string) (*model.CandidateDetail, error)
	GetWorkflowStats(ctx context.Context, runID, date string) (*model.WorkflowStats, error)
	GetVerificationStats(ctx context.Context, runID, date string) (*model.VerificationStats, error)
	GetQuotaStatus(ctx context.Context, runID, date string) (*model.QuotaStatus, error)
	UpsertDailyOutput(ctx context.Context, out model.DailyOutput) error
	GetDailyOutput(ctx context.Context, runID, roleKey, date string) (*model.DailyOutput, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
