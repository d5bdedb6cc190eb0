package telemetry_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/agentsafe/runtime/telemetry"
)

func TestSummarizeCountsMatchLiteralStream(t *testing.T) {
	base := time.Date(2026, 1, 30, 14, 30, 0, 0, time.UTC)
	events := []telemetry.Event{
		{RunID: "run-1", Step: 0, Timestamp: base, Decision: "PROCEED", LatencyMs: 10, Features: map[string]any{"drift": 0.1}},
		{RunID: "run-1", Step: 1, Timestamp: base.Add(time.Second), Decision: "SOFT_STOP", LatencyMs: 20, Features: map[string]any{"drift": 0.35}},
		{RunID: "run-1", Step: 2, Timestamp: base.Add(2 * time.Second), Decision: "HARD_STOP", LatencyMs: 30, Features: map[string]any{"drift": 0.75, "violation": true}},
	}

	summary := telemetry.Summarize(events)

	require.Equal(t, "run-1", summary.RunID)
	require.Equal(t, 3, summary.TotalSteps)
	require.Equal(t, 1, summary.ProceedCount)
	require.Equal(t, 1, summary.SoftStopCount)
	require.Equal(t, 1, summary.HardStopCount)
	require.InDelta(t, 0.75, summary.MaxDrift, 1e-9)
	require.Equal(t, 1, summary.TotalViolations)
	require.InDelta(t, 20.0, summary.MeanLatencyMs, 1e-9)
	require.Equal(t, "HARD_STOP", summary.FinalDecision)
	require.True(t, summary.EscalationTriggered)
}

func TestSummarizeEmptyStream(t *testing.T) {
	summary := telemetry.Summarize(nil)
	require.Equal(t, telemetry.RunSummary{}, summary)
}
