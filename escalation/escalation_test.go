package escalation_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agentsafe/runtime/escalation"
)

func TestEvaluateNoSignalsNone(t *testing.T) {
	p := escalation.NewPolicy()
	out := p.Evaluate(escalation.Input{})
	require.Equal(t, escalation.None, out.Level)
	require.Empty(t, out.Message)
}

func TestEvaluateViolationHardStopOutranksDrift(t *testing.T) {
	p := escalation.NewPolicy()
	out := p.Evaluate(escalation.Input{ViolationCount: 1, DriftScore: 0.9})
	require.Equal(t, escalation.HardStop, out.Level)
	require.Equal(t, "block", out.Action)
	require.Equal(t, escalation.PublicMessageHardStopViolation, out.Message)
}

func TestEvaluateSevereDriftHardStop(t *testing.T) {
	p := escalation.NewPolicy()
	out := p.Evaluate(escalation.Input{DriftScore: 0.85})
	require.Equal(t, escalation.HardStop, out.Level)
	require.Equal(t, escalation.PublicMessageHardStopDrift, out.Message)
}

func TestEvaluateDriftWithUncertaintyHumanReview(t *testing.T) {
	p := escalation.NewPolicy()
	out := p.Evaluate(escalation.Input{DriftScore: 0.65, Uncertainty: 0.5})
	require.Equal(t, escalation.HumanReview, out.Level)
}

func TestEvaluateDriftThresholdSoftStop(t *testing.T) {
	p := escalation.NewPolicy()
	out := p.Evaluate(escalation.Input{DriftScore: 0.55})
	require.Equal(t, escalation.SoftStop, out.Level)
}

func TestEvaluateToolRiskSoftStop(t *testing.T) {
	p := escalation.NewPolicy()
	out := p.Evaluate(escalation.Input{ToolRisk: 0.8})
	require.Equal(t, escalation.SoftStop, out.Level)
	require.Equal(t, escalation.PublicMessageSoftStopTool, out.Message)
}

func TestEvaluateUncertaintyClarify(t *testing.T) {
	p := escalation.NewPolicy()
	out := p.Evaluate(escalation.Input{Uncertainty: 0.45})
	require.Equal(t, escalation.Clarify, out.Level)
}

func TestEvaluateMinorDriftWarnHasNoMessage(t *testing.T) {
	p := escalation.NewPolicy()
	out := p.Evaluate(escalation.Input{DriftScore: 0.35})
	require.Equal(t, escalation.Warn, out.Level)
	require.Empty(t, out.Message)
}

func TestAdaptivePolicyScalesThresholdsBySensitivity(t *testing.T) {
	lenient := escalation.NewAdaptivePolicy(0.1)
	strict := escalation.NewAdaptivePolicy(0.9)
	require.Greater(t, lenient.DriftThreshold, strict.DriftThreshold)
}

func TestAdjustForContextTightensThresholds(t *testing.T) {
	p := escalation.NewAdaptivePolicy(0.5)
	before := p.DriftThreshold
	p.AdjustForContext(1.0)
	require.Less(t, p.DriftThreshold, before)
}
