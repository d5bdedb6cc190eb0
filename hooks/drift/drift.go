// Package drift implements a mid-step hook that scores semantic drift from
// a run's stated goal, grounded on trajectory_monitor.py's DriftMonitor.
package drift

import (
	"context"
	"strings"
	"sync"

	"github.com/agentsafe/runtime/event"
	"github.com/agentsafe/runtime/runstate"
	"github.com/agentsafe/runtime/verdict"
)

// topicKeywords buckets vocabulary into coarse categories used to estimate
// how far the conversation has moved from its stated goal.
var topicKeywords = map[string][]string{
	"benign":    {"help", "learn", "understand", "plan", "create", "write"},
	"risky":     {"hack", "bypass", "exploit", "attack", "steal", "trick"},
	"sensitive": {"password", "credential", "private", "secret", "personal"},
}

// Monitor is a mid-step hook scoring trajectory drift against a per-run
// baseline established from the run's stated goal on first invocation.
type Monitor struct {
	Sensitivity float64

	mu        sync.Mutex
	baselines map[string]map[string]int // run_id -> topic counts
}

// NewMonitor returns a Monitor at the given sensitivity in [0, 1].
func NewMonitor(sensitivity float64) *Monitor {
	return &Monitor{Sensitivity: sensitivity, baselines: make(map[string]map[string]int)}
}

func (m *Monitor) Name() string             { return "drift_monitor" }
func (m *Monitor) Point() event.HookPoint   { return event.MidStep }

// RunStarted implements runstate.Lifecycle. The baseline for runID is
// established on its first Evaluate, so nothing happens here.
func (m *Monitor) RunStarted(string) {}

// RunEnded implements runstate.Lifecycle, releasing runID's baseline.
func (m *Monitor) RunEnded(runID string) {
	m.mu.Lock()
	delete(m.baselines, runID)
	m.mu.Unlock()
}

// adjustThreshold scales base by sensitivity the way BaseSafeguard does:
// higher sensitivity lowers the threshold, making the hook trigger sooner.
func (m *Monitor) adjustThreshold(base float64) float64 {
	return base * (1 - m.Sensitivity*0.5)
}

func (m *Monitor) Evaluate(_ context.Context, rc *runstate.Context, ev event.Event) (verdict.Verdict, error) {
	currentTopics := extractTopics(conversationText(rc) + " " + ev.RawContent)

	m.mu.Lock()
	baseline, seen := m.baselines[rc.RunID]
	if !seen {
		baseline = extractTopics(rc.StatedGoal)
		m.baselines[rc.RunID] = baseline
	}
	m.mu.Unlock()

	driftScore := calculateDrift(baseline, currentTopics)
	escalationScore := checkEscalation(currentTopics)
	combined := 0.6*driftScore + 0.4*escalationScore

	totalDrift := rc.CumulativeDrift + combined*0.2

	hardThreshold := m.adjustThreshold(0.7)
	softThreshold := 0.6 * hardThreshold

	features := map[string]any{
		"drift": combined,
		"total_drift": totalDrift,
		"escalation": escalationScore,
	}

	switch {
	case totalDrift >= hardThreshold:
		features["violation"] = true
		return verdict.Verdict{
			Decision:   verdict.HardStop,
			Confidence: 0.8,
			Reason:     "Significant drift detected",
			Features:   features,
		}, nil
	case totalDrift >= softThreshold:
		return verdict.Verdict{
			Decision:   verdict.SoftStop,
			Confidence: 0.7,
			Reason:     "Drift threshold approaching",
			Features:   features,
		}, nil
	case combined >= 0.2:
		return verdict.Verdict{
			Decision:   verdict.LogOnly,
			Confidence: 0.6,
			Reason:     "Minor drift detected",
			Features:   features,
		}, nil
	default:
		return verdict.Verdict{
			Decision:   verdict.Proceed,
			Confidence: 0.9,
			Reason:     "Trajectory on track",
			Features:   features,
		}, nil
	}
}

func conversationText(rc *runstate.Context) string {
	var b strings.Builder
	for _, t := range rc.Conversation {
		b.WriteString(t.Content)
		b.WriteString(" ")
	}
	return b.String()
}

func extractTopics(text string) map[string]int {
	lower := strings.ToLower(text)
	topics := make(map[string]int, len(topicKeywords))
	for category, keywords := range topicKeywords {
		count := 0
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				count++
			}
		}
		topics[category] = count
	}
	return topics
}

func calculateDrift(baseline, current map[string]int) float64 {
	if len(baseline) == 0 || len(current) == 0 {
		return 0.0
	}
	baselineRisky := baseline["risky"]
	currentRisky := current["risky"]
	if currentRisky > baselineRisky {
		return min1(float64(currentRisky-baselineRisky) / 3)
	}
	return 0.0
}

func checkEscalation(topics map[string]int) float64 {
	return min1(float64(topics["risky"]+topics["sensitive"]) / 4)
}

func min1(v float64) float64 {
	if v > 1.0 {
		return 1.0
	}
	return v
}
