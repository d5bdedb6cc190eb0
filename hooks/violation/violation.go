// Package violation implements a mid-step hook scanning tool output and
// action risk for policy violations, grounded on trajectory_monitor.py's
// ViolationMonitor. It feeds runstate's violation_count by returning
// Verdict.Features["violation"] = true on a hard-stop match, which the
// orchestrator's caller folds into Context.Advance.
package violation

import (
	"context"
	"strings"

	"github.com/agentsafe/runtime/event"
	"github.com/agentsafe/runtime/runstate"
	"github.com/agentsafe/runtime/verdict"
)

var violationPatterns = []string{
	"unauthorized", "illegal", "prohibited", "restricted",
	"confidential", "classified", "harmful", "dangerous",
}

// Monitor is a mid-step hook checking for policy-violation keywords in
// tool output and for high action risk.
type Monitor struct{}

// NewMonitor returns a violation Monitor.
func NewMonitor() *Monitor { return &Monitor{} }

func (m *Monitor) Name() string           { return "violation_monitor" }
func (m *Monitor) Point() event.HookPoint { return event.MidStep }

func (m *Monitor) Evaluate(_ context.Context, _ *runstate.Context, ev event.Event) (verdict.Verdict, error) {
	if ev.RawContent != "" {
		lower := strings.ToLower(ev.RawContent)
		var hit []string
		for _, p := range violationPatterns {
			if strings.Contains(lower, p) {
				hit = append(hit, p)
			}
		}
		if len(hit) > 0 {
			return verdict.Verdict{
				Decision:   verdict.HardStop,
				Confidence: 0.9,
				Reason:     "Violation detected: " + hit[0],
				Features:   map[string]any{"violations": hit, "violation": true},
			}, nil
		}
	}

	if risk := riskTagScore(ev.RiskTag); risk >= 0.8 {
		return verdict.Verdict{
			Decision:   verdict.SoftStop,
			Confidence: 0.7,
			Reason:     "High-risk action",
			Features:   map[string]any{"action_risk": risk},
		}, nil
	}

	return verdict.Verdict{Decision: verdict.Proceed, Confidence: 0.9, Reason: "No violations detected"}, nil
}

func riskTagScore(tag string) float64 {
	switch strings.ToLower(tag) {
	case "high":
		return 0.9
	case "medium":
		return 0.5
	case "low":
		return 0.1
	default:
		return 0.0
	}
}
