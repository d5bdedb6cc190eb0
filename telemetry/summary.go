package telemetry

import "time"

// RunSummary is the derived record offered to downstream consumers
// (spec.md §6 "Run summary"), grounded on
// original_source/telemetry/event_schema.py's get_run_summary.
type RunSummary struct {
	RunID               string
	StartTime           time.Time
	EndTime             time.Time
	TotalSteps          int
	ProceedCount        int
	LogOnlyCount        int
	SoftStopCount       int
	HumanReviewCount    int
	HardStopCount       int
	MaxDrift            float64
	TotalViolations     int
	MeanLatencyMs       float64
	FinalDecision       string
	EscalationTriggered bool
}

// Summarize derives a RunSummary from a sequence of telemetry events
// belonging to the same run, assumed to be in emission order (spec.md §3
// "total order per run by (step, emission order)"). Summarize is a pure
// function of its input; it does not read or write any sink.
//
// MaxDrift reads the "drift" feature emitted by hooks/drift.Monitor, and
// TotalViolations counts events carrying a true "violation" feature, as
// emitted by hooks/drift.Monitor and hooks/violation.Monitor on a hard-stop
// match — the signal shape original_source/telemetry/event_schema.py's
// get_run_summary reads off of features.get('drift', 0).
func Summarize(events []Event) RunSummary {
	var summary RunSummary
	if len(events) == 0 {
		return summary
	}

	summary.RunID = events[0].RunID
	summary.StartTime = events[0].Timestamp
	summary.EndTime = events[len(events)-1].Timestamp
	summary.TotalSteps = len(events)

	var latencyTotal float64
	for _, e := range events {
		switch e.Decision {
		case "PROCEED":
			summary.ProceedCount++
		case "LOG_ONLY":
			summary.LogOnlyCount++
		case "SOFT_STOP":
			summary.SoftStopCount++
		case "HUMAN_REVIEW":
			summary.HumanReviewCount++
			summary.EscalationTriggered = true
		case "HARD_STOP":
			summary.HardStopCount++
			summary.EscalationTriggered = true
		}

		if drift, ok := numericFeature(e.Features, "drift"); ok && drift > summary.MaxDrift {
			summary.MaxDrift = drift
		}
		if flagged, ok := e.Features["violation"].(bool); ok && flagged {
			summary.TotalViolations++
		}
		latencyTotal += e.LatencyMs
	}

	summary.MeanLatencyMs = latencyTotal / float64(len(events))
	summary.FinalDecision = events[len(events)-1].Decision
	return summary
}

func numericFeature(features map[string]any, key string) (float64, bool) {
	v, ok := features[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
