package model

// Rubric weights. The total is the weighted sum of the five components.
var ScoreWeights = map[string]float64{
	SignalBuilderActivity:  0.25,
	SignalAINativeEvidence: 0.25,
	SignalTechnicalDepth:   0.20,
	SignalRoleFit:          0.20,
	ComponentIdentity:      0.10,
}

// ComponentIdentity names the identity-confidence rubric component.
const ComponentIdentity = "identity_confidence"

// ScoreBreakdown holds the five rubric components, each rounded to 3
// decimals.
type ScoreBreakdown struct {
	BuilderActivity    float64 `json:"builder_activity"`
	AINativeEvidence   float64 `json:"ai_native_evidence"`
	TechnicalDepth     float64 `json:"technical_depth"`
	RoleFit            float64 `json:"role_fit"`
	IdentityConfidence float64 `json:"identity_confidence"`
}

// Score is the per-(candidate, run) rubric result.
type Score struct {
	CandidateID       string         `json:"candidateId"`
	RunID             string         `json:"runId"`
	Total             float64        `json:"total"`
	Breakdown         ScoreBreakdown `json:"breakdown"`
	Concerns          []string       `json:"concerns,omitempty"`
	ShortlistEligible bool           `json:"shortlistEligible"`
	OutreachAngle     string         `json:"outreachAngle"`
	CreatedAt         Millis         `json:"createdAt"`
}
