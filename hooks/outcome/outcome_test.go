package outcome_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agentsafe/runtime/event"
	"github.com/agentsafe/runtime/hooks/outcome"
	"github.com/agentsafe/runtime/runstate"
	"github.com/agentsafe/runtime/verdict"
)

func TestNonResultEventProceeds(t *testing.T) {
	v := outcome.NewVerifier()
	out, err := v.Evaluate(context.Background(), &runstate.Context{RunID: "r1"}, event.Event{Kind: event.UserInput})
	require.NoError(t, err)
	require.Equal(t, verdict.Proceed, out.Decision)
}

func TestCleanResultProceeds(t *testing.T) {
	v := outcome.NewVerifier()
	out, err := v.Evaluate(context.Background(), &runstate.Context{RunID: "r1"}, event.Event{
		Kind: event.ToolResult, ToolName: "search", RawContent: "three results found",
	})
	require.NoError(t, err)
	require.Equal(t, verdict.Proceed, out.Decision)
}

func TestErrorStatusLogsOnly(t *testing.T) {
	v := outcome.NewVerifier()
	out, err := v.Evaluate(context.Background(), &runstate.Context{RunID: "r1"}, event.Event{
		Kind: event.ToolResult, ToolName: "search", RiskTag: outcome.StatusError, RawContent: "request failed",
	})
	require.NoError(t, err)
	require.Equal(t, verdict.LogOnly, out.Decision)
}

func TestHighRiskScoreSoftStops(t *testing.T) {
	v := outcome.NewVerifier()
	out, err := v.Evaluate(context.Background(), &runstate.Context{RunID: "r1"}, event.Event{
		Kind: event.ToolResult, ToolName: "exec", RawContent: "done", ToolParameters: []byte(`{"risk_score": 0.9}`),
	})
	require.NoError(t, err)
	require.Equal(t, verdict.SoftStop, out.Decision)
}

func TestAnomalyKeywordsLogOnly(t *testing.T) {
	v := outcome.NewVerifier()
	out, err := v.Evaluate(context.Background(), &runstate.Context{RunID: "r1"}, event.Event{
		Kind: event.ToolResult, ToolName: "fetch", RawContent: "request denied, malformed response",
	})
	require.NoError(t, err)
	require.Equal(t, verdict.LogOnly, out.Decision)
}
