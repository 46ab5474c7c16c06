package model

// Signal keys. The scorer takes the max numeric value per key.
const (
	SignalBuilderActivity     = "builder_activity"
	SignalAINativeEvidence    = "ai_native_evidence"
	SignalTechnicalDepth      = "technical_depth"
	SignalRoleFit             = "role_fit"
	SignalBrowserVerifyNeeded = "browser_verification_needed"
)

// Signal is an append-only observation about a candidate within a run.
type Signal struct {
	CandidateID  string   `json:"candidateId"`
	RunID        string   `json:"runId"`
	Key          string   `json:"key"`
	NumericValue *float64 `json:"numericValue,omitempty"`
	Source       string   `json:"source,omitempty"`
	Details      string   `json:"details,omitempty"`
	CreatedAt    Millis   `json:"createdAt"`
}

// EvidenceLink is a supporting URL for a candidate within a run. Unique by
// URL per (candidate, run).
type EvidenceLink struct {
	CandidateID string  `json:"candidateId"`
	RunID       string  `json:"runId"`
	URL         string  `json:"url"`
	Title       string  `json:"title,omitempty"`
	Source      string  `json:"source,omitempty"`
	Relevance   float64 `json:"relevance"`
	CreatedAt   Millis  `json:"createdAt"`
}
