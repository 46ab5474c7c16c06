package model

// ReviewStatus is the human-in-the-loop workflow state for a candidate
// within a run.
type ReviewStatus string

const (
	ReviewNew               ReviewStatus = "new_review"
	ReviewUnderVerification ReviewStatus = "under_verification"
	ReviewPromotedShortlist ReviewStatus = "promoted_shortlist"
	ReviewRejected          ReviewStatus = "rejected"
	ReviewDeferred          ReviewStatus = "deferred"
)

// ValidReviewStatus reports whether s is a known workflow state.
func ValidReviewStatus(s ReviewStatus) bool {
	switch s {
	case ReviewNew, ReviewUnderVerification, ReviewPromotedShortlist, ReviewRejected, ReviewDeferred:
		return true
	}
	return false
}

// Review is the upsertable (candidate, run) workflow row.
type Review struct {
	CandidateID string       `json:"candidateId"`
	RunID       string       `json:"runId"`
	Status      ReviewStatus `json:"status"`
	Priority    int          `json:"priority"`
	Notes       string       `json:"notes,omitempty"`
	CreatedAt   Millis       `json:"createdAt"`
	UpdatedAt   Millis       `json:"updatedAt"`
}

// Verification outcomes.
const (
	VerificationConfirmed    = "confirmed"
	VerificationRejected     = "rejected"
	VerificationInconclusive = "inconclusive"
)

// Verification methods.
const (
	VerificationMethodBrowser = "browser"
	VerificationMethodAPI     = "api"
)

// Verification is one append-only verification attempt for a (candidate,
// run) pair.
type Verification struct {
	CandidateID      string   `json:"candidateId"`
	RunID            string   `json:"runId"`
	Method           string   `json:"method"`
	Outcome          string   `json:"outcome"`
	ConfidenceBefore float64  `json:"confidenceBefore"`
	ConfidenceAfter  float64  `json:"confidenceAfter"`
	ProofLinks       []string `json:"proofLinks,omitempty"`
	Notes            string   `json:"notes,omitempty"`
	CreatedAt        Millis   `json:"createdAt"`
}

// Promotion is the single shortlist promotion record for a (candidate, run)
// pair.
type Promotion struct {
	CandidateID        string   `json:"candidateId"`
	RunID              string   `json:"runId"`
	PromotionReason    string   `json:"promotionReason"`
	ConfidenceOverride *float64 `json:"confidenceOverride,omitempty"`
	OutreachAngle      string   `json:"outreachAngle,omitempty"`
	ProofLinks         []string `json:"proofLinks"`
	PromotedAt         Millis   `json:"promotedAt"`
}

// DailyOutput aggregates per-(run, role, date) counters.
type DailyOutput struct {
	RunID     string `json:"runId"`
	RoleKey   string `json:"roleKey"`
	Date      string `json:"date"`
	Sourced   int    `json:"sourced"`
	Reviewed  int    `json:"reviewed"`
	Verified  int    `json:"verified"`
	Promoted  int    `json:"promoted"`
	UpdatedAt Millis `json:"updatedAt"`
}
