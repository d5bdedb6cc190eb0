// Package outcome implements a post-action hook auditing a completed tool
// call, grounded on post_action.py's OutcomeVerifier and AnomalyDetector.
// It never escalates past SoftStop: post-action audit informs, it does not
// block an action that already happened.
package outcome

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/agentsafe/runtime/event"
	"github.com/agentsafe/runtime/runstate"
	"github.com/agentsafe/runtime/verdict"
)

var anomalyIndicators = []string{
	"error", "failed", "denied", "unauthorized",
	"unexpected", "malformed", "invalid",
}

// toolResultStatus mirrors the subset of ToolStatus values the original's
// ToolResult carries; callers set Event.RiskTag to one of these and
// Event.ToolParameters to the tool's structured output.
const (
	StatusOK      = "ok"
	StatusError   = "error"
	StatusBlocked = "blocked"
)

// Verifier is a post-action hook auditing a tool result's status, risk
// score, and output text for anomalies.
type Verifier struct{}

// NewVerifier returns an outcome Verifier.
func NewVerifier() *Verifier { return &Verifier{} }

func (v *Verifier) Name() string           { return "outcome_verifier" }
func (v *Verifier) Point() event.HookPoint { return event.PostAction }

func (v *Verifier) Evaluate(_ context.Context, _ *runstate.Context, ev event.Event) (verdict.Verdict, error) {
	if ev.Kind != event.ToolResult {
		return verdict.Verdict{Decision: verdict.Proceed, Confidence: 1.0, Reason: "No tool result to verify"}, nil
	}

	status, riskScore := decodeResult(ev)
	anomalies := detectAnomalies(ev.RawContent)

	features := map[string]any{
		"status":         status,
		"tool":           ev.ToolName,
		"outcome_score":  0.0,
		"anomaly_score":  anomalyScore(anomalies),
		"anomalies":      anomalies,
	}

	switch {
	case status == StatusError:
		features["outcome_score"] = 0.3
		return verdict.Verdict{Decision: verdict.LogOnly, Confidence: 0.6, Reason: "Tool execution error", Features: features}, nil
	case status == StatusBlocked:
		features["outcome_score"] = 0.5
		return verdict.Verdict{Decision: verdict.LogOnly, Confidence: 0.6, Reason: "Tool was blocked", Features: features}, nil
	case riskScore > 0.7:
		features["outcome_score"] = riskScore
		features["status"] = "high_risk"
		return verdict.Verdict{Decision: verdict.SoftStop, Confidence: 0.65, Reason: "High-risk tool execution completed", Features: features}, nil
	case len(anomalies) > 0:
		return verdict.Verdict{Decision: verdict.LogOnly, Confidence: 0.6, Reason: "Anomalies detected: " + strings.Join(anomalies, ", "), Features: features}, nil
	default:
		return verdict.Verdict{Decision: verdict.Proceed, Confidence: 0.9, Reason: "Outcome verified", Features: features}, nil
	}
}

type resultPayload struct {
	RiskScore float64 `json:"risk_score"`
}

func decodeResult(ev event.Event) (status string, riskScore float64) {
	status = strings.ToLower(ev.RiskTag)
	if status == "" {
		status = StatusOK
	}
	if len(ev.ToolParameters) > 0 {
		var p resultPayload
		if err := json.Unmarshal(ev.ToolParameters, &p); err == nil {
			riskScore = p.RiskScore
		}
	}
	return status, riskScore
}

func detectAnomalies(output string) []string {
	lower := strings.ToLower(output)
	var found []string
	for _, ind := range anomalyIndicators {
		if strings.Contains(lower, ind) {
			found = append(found, ind)
		}
	}
	return found
}

func anomalyScore(anomalies []string) float64 {
	score := float64(len(anomalies)) / 3
	if score > 1.0 {
		return 1.0
	}
	return score
}
