package model

// RunStatus is the lifecycle state of a pipeline run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// PipelineRun is one logical sourcing run for a role.
type PipelineRun struct {
	ID               string       `json:"id"`
	IdempotencyKey   string       `json:"idempotencyKey"`
	Status           RunStatus    `json:"status"`
	RoleKey          string       `json:"roleKey"`
	RoleTitle        string       `json:"roleTitle"`
	TargetCandidates int          `json:"targetCandidates"`
	Config           string       `json:"config,omitempty"`
	StartedAt        Millis       `json:"startedAt"`
	FinishedAt       *Millis      `json:"finishedAt,omitempty"`
	Diagnostics      *Diagnostics `json:"diagnostics,omitempty"`
}

// RunCounts aggregates per-run candidate counters.
type RunCounts struct {
	Sourced             int `json:"sourced"`
	Enriched            int `json:"enriched"`
	EnrichFailed        int `json:"enrichFailed"`
	ExternalDiscovered  int `json:"externalDiscovered"`
	IdentityConfirmedHi int `json:"identityConfirmedHigh"`
	IdentityMediumLow   int `json:"identityMediumLow"`
	ShortlistEligible   int `json:"shortlistEligible"`
}

// StageMessage is one aggregated failure message within a stage.
type StageMessage struct {
	Message   string `json:"message"`
	ErrorType string `json:"errorType"`
	Count     int    `json:"count"`
}

// StageError aggregates failures observed in one pipeline stage. TopMessages
// holds the three most frequent messages.
type StageError struct {
	Stage       string         `json:"stage"`
	Count       int            `json:"count"`
	TopMessages []StageMessage `json:"topMessages"`
}

// RunModes records the query modes a run executed with.
type RunModes struct {
	SourceQueryMode   string `json:"sourceQueryMode"`
	EvidenceQueryMode string `json:"evidenceQueryMode"`
}

// AccountHealth describes the LinkedIn account the run used.
type AccountHealth struct {
	AccountID          string   `json:"accountId"`
	Enabled            bool     `json:"enabled"`
	APIKeySource       string   `json:"apiKeySource"`
	MissingCredentials []string `json:"missingCredentials,omitempty"`
}

// RunFailureInfo describes the fatal failure that ended a run.
type RunFailureInfo struct {
	Stage     string `json:"stage"`
	ErrorType string `json:"errorType"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// Diagnostics is the summary blob attached to a completed or failed run.
// Surfaced on both status and results so operators get one view.
type Diagnostics struct {
	Counts         RunCounts       `json:"counts"`
	StageErrors    []StageError    `json:"stageErrors,omitempty"`
	Account        *AccountHealth  `json:"account,omitempty"`
	EffectiveQuery string          `json:"effectiveQuery,omitempty"`
	Modes          RunModes        `json:"modes"`
	Failure        *RunFailureInfo `json:"failure,omitempty"`
}

// RunFailure is one persisted failure row. Append-only.
type RunFailure struct {
	RunID        string `json:"runId"`
	Stage        string `json:"stage"`
	CandidateRef string `json:"candidateRef,omitempty"`
	ErrorType    string `json:"errorType"`
	Message      string `json:"message"`
	Retryable    bool   `json:"retryable"`
	Payload      string `json:"payload,omitempty"`
	CreatedAt    Millis `json:"createdAt"`
}
