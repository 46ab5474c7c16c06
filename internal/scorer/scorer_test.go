package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/recruiting-cli/internal/model"
)

func sig(key string, v float64) model.Signal {
	return model.Signal{Key: key, NumericValue: &v}
}

func eligibleIdentity(confidence float64) model.Identity {
	return model.Identity{
		Confidence:        confidence,
		Band:              model.BandFor(confidence),
		ShortlistEligible: confidence >= 0.8,
	}
}

func TestComputeWeightedTotal(t *testing.T) {
	score := Compute(Input{
		CandidateID: "c1",
		RunID:       "r1",
		Signals: []model.Signal{
			sig(model.SignalBuilderActivity, 0.8),
			sig(model.SignalAINativeEvidence, 0.6),
			sig(model.SignalTechnicalDepth, 0.5),
			sig(model.SignalRoleFit, 0.6),
		},
		Identity: eligibleIdentity(0.9),
	})

	// 0.8*0.25 + 0.6*0.25 + 0.5*0.2 + 0.6*0.2 + 0.9*0.1
	assert.Equal(t, 0.66, score.Total)
	assert.Equal(t, 0.8, score.Breakdown.BuilderActivity)
	assert.Equal(t, 0.9, score.Breakdown.IdentityConfidence)
	assert.True(t, score.ShortlistEligible)
	assert.Empty(t, score.Concerns)
}

func TestComputeTakesMaxPerKey(t *testing.T) {
	score := Compute(Input{
		Signals: []model.Signal{
			sig(model.SignalBuilderActivity, 0.2),
			sig(model.SignalBuilderActivity, 0.7),
			sig(model.SignalBuilderActivity, 0.4),
		},
		Identity: eligibleIdentity(0.9),
	})
	assert.Equal(t, 0.7, score.Breakdown.BuilderActivity)
}

func TestComputeAIEvidenceFloorFromLinks(t *testing.T) {
	score := Compute(Input{
		Signals:  []model.Signal{sig(model.SignalAINativeEvidence, 0.2)},
		Identity: eligibleIdentity(0.9),
		Evidence: []model.EvidenceLink{
			{URL: "https://github.com/jane/mcp-server", Title: "An MCP server"},
		},
	})
	assert.Equal(t, 0.7, score.Breakdown.AINativeEvidence)
}

func TestComputeAIEvidenceFloorDoesNotLower(t *testing.T) {
	score := Compute(Input{
		Signals:  []model.Signal{sig(model.SignalAINativeEvidence, 0.9)},
		Identity: eligibleIdentity(0.9),
		Evidence: []model.EvidenceLink{{Title: "claude code agent"}},
	})
	assert.Equal(t, 0.9, score.Breakdown.AINativeEvidence)
}

func TestComputeClampsComponents(t *testing.T) {
	score := Compute(Input{
		Signals:  []model.Signal{sig(model.SignalBuilderActivity, 1.8)},
		Identity: eligibleIdentity(0.9),
	})
	assert.Equal(t, 1.0, score.Breakdown.BuilderActivity)
}

func TestComputeConcernsInOrder(t *testing.T) {
	score := Compute(Input{
		Signals:    []model.Signal{},
		Identity:   model.Identity{Confidence: 0.1, Band: model.BandLow},
		OpenToWork: true,
	})

	assert.Equal(t, []string{
		ConcernIdentityUnconfirmed,
		ConcernLowBuilderActivity,
		ConcernLimitedAIEvidence,
		ConcernWeakRoleFit,
		ConcernOpenToWork,
	}, score.Concerns)
	assert.False(t, score.ShortlistEligible)
}

func TestComputeOpenToWorkHasNoScoreEffect(t *testing.T) {
	base := Input{
		Signals:  []model.Signal{sig(model.SignalBuilderActivity, 0.5)},
		Identity: eligibleIdentity(0.9),
	}
	withFlag := base
	withFlag.OpenToWork = true

	assert.Equal(t, Compute(base).Total, Compute(withFlag).Total)
	assert.Contains(t, Compute(withFlag).Concerns, ConcernOpenToWork)
}

func TestComputeOutreachAngle(t *testing.T) {
	tests := []struct {
		name    string
		signals []model.Signal
		want    string
	}{
		{"ai native leads", []model.Signal{sig(model.SignalAINativeEvidence, 0.7)}, AngleAINative},
		{"builder fallback", []model.Signal{sig(model.SignalBuilderActivity, 0.8)}, AngleBuilder},
		{"role fit default", nil, AngleRoleFit},
		{
			"ai native beats builder",
			[]model.Signal{sig(model.SignalAINativeEvidence, 0.6), sig(model.SignalBuilderActivity, 0.9)},
			AngleAINative,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := Compute(Input{Signals: tt.signals, Identity: eligibleIdentity(0.9)})
			assert.Equal(t, tt.want, score.OutreachAngle)
		})
	}
}

func TestComputeDeterministic(t *testing.T) {
	in := Input{
		CandidateID: "c1",
		RunID:       "r1",
		Signals: []model.Signal{
			sig(model.SignalBuilderActivity, 0.333),
			sig(model.SignalAINativeEvidence, 0.111),
			sig(model.SignalTechnicalDepth, 0.777),
			sig(model.SignalRoleFit, 0.6),
		},
		Identity: eligibleIdentity(0.82),
		Evidence: []model.EvidenceLink{{URL: "https://jane.dev"}},
	}
	first := Compute(in)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Compute(in))
	}
}
