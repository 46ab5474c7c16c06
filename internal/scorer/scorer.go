// Package scorer computes the weighted rubric score for a candidate from its
// run signals, resolved identity, and evidence links. Scoring is pure: the
// same input always produces the same output.
package scorer

import (
	"strings"

	"github.com/sells-group/recruiting-cli/internal/model"
)

// evidence keywords that floor ai_native_evidence at 0.7 when present in any
// evidence URL or title
var aiEvidenceKeywords = []string{"codex", "claude code", "mcp", "agent", "agents", "automation"}

// Concern tags, appended in this order.
const (
	ConcernIdentityUnconfirmed = "identity_unconfirmed"
	ConcernLowBuilderActivity  = "low_recent_builder_activity"
	ConcernLimitedAIEvidence   = "limited_ai_native_evidence"
	ConcernWeakRoleFit         = "weak_role_fit"
	ConcernOpenToWork          = "open_to_work_signal_recorded_no_penalty"
)

// Outreach angle strings chosen by the dominant component.
const (
	AngleAINative = "Lead with AI-native shipping evidence and ask about current build velocity."
	AngleBuilder  = "Lead with recent shipped work and invite a builder-focused conversation."
	AngleRoleFit  = "Lead with role fit and verify current hands-on project scope."
)

// Input is everything Compute reads.
type Input struct {
	CandidateID string
	RunID       string
	Signals     []model.Signal
	Identity    model.Identity
	Evidence    []model.EvidenceLink
	OpenToWork  bool
}

// Compute evaluates the rubric. Components are rounded to 3 decimals before
// the weighted sum; the total is rounded again.
func Compute(in Input) model.Score {
	breakdown := model.ScoreBreakdown{
		BuilderActivity:    component(in.Signals, model.SignalBuilderActivity),
		AINativeEvidence:   aiNativeComponent(in.Signals, in.Evidence),
		TechnicalDepth:     component(in.Signals, model.SignalTechnicalDepth),
		RoleFit:            component(in.Signals, model.SignalRoleFit),
		IdentityConfidence: model.Round3(model.Clamp01(in.Identity.Confidence)),
	}

	total := breakdown.BuilderActivity*model.ScoreWeights[model.SignalBuilderActivity] +
		breakdown.AINativeEvidence*model.ScoreWeights[model.SignalAINativeEvidence] +
		breakdown.TechnicalDepth*model.ScoreWeights[model.SignalTechnicalDepth] +
		breakdown.RoleFit*model.ScoreWeights[model.SignalRoleFit] +
		breakdown.IdentityConfidence*model.ScoreWeights[model.ComponentIdentity]

	return model.Score{
		CandidateID:       in.CandidateID,
		RunID:             in.RunID,
		Total:             model.Round3(total),
		Breakdown:         breakdown,
		Concerns:          concerns(breakdown, in.Identity, in.OpenToWork),
		ShortlistEligible: in.Identity.ShortlistEligible,
		OutreachAngle:     outreachAngle(breakdown),
	}
}

func component(signals []model.Signal, key string) float64 {
	best := 0.0
	for _, s := range signals {
		if s.Key != key || s.NumericValue == nil {
			continue
		}
		if v := *s.NumericValue; v > best {
			best = v
		}
	}
	return model.Round3(model.Clamp01(best))
}

func aiNativeComponent(signals []model.Signal, evidence []model.EvidenceLink) float64 {
	best := component(signals, model.SignalAINativeEvidence)
	if evidenceMentionsAI(evidence) && best < 0.7 {
		best = 0.7
	}
	return model.Round3(best)
}

func evidenceMentionsAI(evidence []model.EvidenceLink) bool {
	for _, e := range evidence {
		haystack := strings.ToLower(e.URL + " " + e.Title)
		for _, kw := range aiEvidenceKeywords {
			if strings.Contains(haystack, kw) {
				return true
			}
		}
	}
	return false
}

func concerns(b model.ScoreBreakdown, identity model.Identity, openToWork bool) []string {
	var out []string
	if !identity.ShortlistEligible {
		out = append(out, ConcernIdentityUnconfirmed)
	}
	if b.BuilderActivity < 0.3 {
		out = append(out, ConcernLowBuilderActivity)
	}
	if b.AINativeEvidence < 0.3 {
		out = append(out, ConcernLimitedAIEvidence)
	}
	if b.RoleFit < 0.3 {
		out = append(out, ConcernWeakRoleFit)
	}
	if openToWork {
		out = append(out, ConcernOpenToWork)
	}
	return out
}

func outreachAngle(b model.ScoreBreakdown) string {
	switch {
	case b.AINativeEvidence >= 0.6:
		return AngleAINative
	case b.BuilderActivity >= 0.6:
		return AngleBuilder
	default:
		return AngleRoleFit
	}
}
