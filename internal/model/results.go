package model

// ResultRow is one scored candidate joined with its cross-platform identity
// and top evidence links.
type ResultRow struct {
	Candidate Candidate      `json:"candidate"`
	Score     Score          `json:"score"`
	Identity  *Identity      `json:"identity,omitempty"`
	Evidence  []EvidenceLink `json:"evidence,omitempty"`
}

// ResultsMeta carries run-level context alongside the result rows.
type ResultsMeta struct {
	RunID          string       `json:"runId"`
	Status         RunStatus    `json:"status"`
	RoleKey        string       `json:"roleKey"`
	RoleTitle      string       `json:"roleTitle"`
	Modes          RunModes     `json:"modes"`
	Diagnostics    *Diagnostics `json:"diagnostics,omitempty"`
	EffectiveQuery string       `json:"effectiveQuery,omitempty"`
}

// PipelineResults partitions scored candidates into shortlist and review
// queue by shortlist eligibility.
type PipelineResults struct {
	Shortlist   []ResultRow `json:"shortlist"`
	ReviewQueue []ResultRow `json:"reviewQueue"`
	Meta        ResultsMeta `json:"meta"`
}

// CandidateDetail is the full document for one candidate.
type CandidateDetail struct {
	Candidate     Candidate      `json:"candidate"`
	Identities    []Identity     `json:"identities,omitempty"`
	Signals       []Signal       `json:"signals,omitempty"`
	Scores        []Score        `json:"scores,omitempty"`
	Evidence      []EvidenceLink `json:"evidence,omitempty"`
	Reviews       []Review       `json:"reviews,omitempty"`
	Verifications []Verification `json:"verifications,omitempty"`
	Promotions    []Promotion    `json:"promotions,omitempty"`
}

// WorkflowStats counts review states inside one UTC day window.
type WorkflowStats struct {
	NewReview         int `json:"newReview"`
	UnderVerification int `json:"underVerification"`
	PromotedShortlist int `json:"promotedShortlist"`
	Rejected          int `json:"rejected"`
	Deferred          int `json:"deferred"`
}

// VerificationStats counts verification outcomes inside one UTC day window.
type VerificationStats struct {
	Submitted    int `json:"submitted"`
	Confirmed    int `json:"confirmed"`
	Rejected     int `json:"rejected"`
	Inconclusive int `json:"inconclusive"`
}

// QuotaStatus compares daily activity with configured quotas.
type QuotaStatus struct {
	Date               string `json:"date"`
	PromotedToday      int    `json:"promotedToday"`
	PromotedTarget     int    `json:"promotedTarget"`
	ReviewedToday      int    `json:"reviewedToday"`
	ReviewedTarget     int    `json:"reviewedTarget"`
	VerificationsToday int    `json:"verificationsToday"`
	VerificationBudget int    `json:"verificationBudget"`
}

// DailyReport is the getDailyReport response document.
type DailyReport struct {
	RunID        string            `json:"runId"`
	RoleKey      string            `json:"roleKey"`
	Date         string            `json:"date"`
	Contract     RunCounts         `json:"contract"`
	Workflow     WorkflowStats     `json:"workflow"`
	Verification VerificationStats `json:"verification"`
	Quota        QuotaStatus       `json:"quota"`
}

// VerificationQueueEntry is one candidate awaiting verification.
type VerificationQueueEntry struct {
	Candidate  Candidate `json:"candidate"`
	Review     Review    `json:"review"`
	TotalScore float64   `json:"totalScore"`
	Confidence float64   `json:"confidence"`
}
