package violation_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agentsafe/runtime/event"
	"github.com/agentsafe/runtime/hooks/violation"
	"github.com/agentsafe/runtime/runstate"
	"github.com/agentsafe/runtime/verdict"
)

func TestCleanOutputProceeds(t *testing.T) {
	m := violation.NewMonitor()
	v, err := m.Evaluate(context.Background(), &runstate.Context{RunID: "r1"}, event.Event{RawContent: "task completed successfully"})
	require.NoError(t, err)
	require.Equal(t, verdict.Proceed, v.Decision)
}

func TestUnauthorizedKeywordHardStops(t *testing.T) {
	m := violation.NewMonitor()
	v, err := m.Evaluate(context.Background(), &runstate.Context{RunID: "r1"}, event.Event{RawContent: "unauthorized access detected in logs"})
	require.NoError(t, err)
	require.Equal(t, verdict.HardStop, v.Decision)
	require.Equal(t, true, v.Features["violation"])
}

func TestHighRiskTagSoftStops(t *testing.T) {
	m := violation.NewMonitor()
	v, err := m.Evaluate(context.Background(), &runstate.Context{RunID: "r1"}, event.Event{RiskTag: "high"})
	require.NoError(t, err)
	require.Equal(t, verdict.SoftStop, v.Decision)
}
