package hook

import (
	"strings"

	"github.com/agentsafe/runtime/verdict"
)

// AggregationRule names a strategy for combining an already-collected
// slice of verdicts into one. The orchestrator's Step always applies
// mostRestrictive internally to compute its primary return value
// (spec.md §4.1); the other rules are exposed for composed strategies
// layered on top — e.g. a caller that collects verdicts across several
// Step calls and wants a second opinion (spec.md §4.5 lists these as
// recognized configuration values).
type AggregationRule string

const (
	// MostRestrictive picks the decision of maximum priority, ties broken
	// by first occurrence, and is the orchestrator's fixed rule.
	MostRestrictive AggregationRule = "most_restrictive"
	// MajorityVote picks the most frequently occurring decision, ties
	// broken by priority then first occurrence.
	MajorityVote AggregationRule = "majority_vote"
	// ConfidenceWeighted picks the decision with the highest summed
	// confidence, ties broken by priority then first occurrence.
	ConfidenceWeighted AggregationRule = "confidence_weighted"
)

// Aggregate combines verdicts under rule. verdicts must be in the order
// they were produced (registration order for a single dispatch); features
// are unioned later-wins and hook names comma-joined in that same order
// regardless of rule, matching the orchestrator's own aggregation for
// consistency across the exposed rules.
func Aggregate(rule AggregationRule, verdicts []verdict.Verdict) verdict.Verdict {
	if len(verdicts) == 0 {
		return verdict.Verdict{Decision: verdict.Proceed, Confidence: 1.0, Reason: "no hooks registered"}
	}

	var winner int
	switch rule {
	case MajorityVote:
		winner = majorityVoteWinner(verdicts)
	case ConfidenceWeighted:
		winner = confidenceWeightedWinner(verdicts)
	default:
		winner = mostRestrictiveWinner(verdicts)
	}

	return combine(verdicts, winner)
}

func mostRestrictiveWinner(verdicts []verdict.Verdict) int {
	best := 0
	for i, v := range verdicts {
		if v.Decision.Priority() > verdicts[best].Decision.Priority() {
			best = i
		}
	}
	return best
}

func majorityVoteWinner(verdicts []verdict.Verdict) int {
	counts := make(map[verdict.Decision]int)
	firstIndex := make(map[verdict.Decision]int)
	for i, v := range verdicts {
		if _, seen := firstIndex[v.Decision]; !seen {
			firstIndex[v.Decision] = i
		}
		counts[v.Decision]++
	}

	var bestDecision verdict.Decision
	bestCount := -1
	first := true
	for d, c := range counts {
		better := c > bestCount ||
			(c == bestCount && d.Priority() > bestDecision.Priority()) ||
			(c == bestCount && d.Priority() == bestDecision.Priority() && firstIndex[d] < firstIndex[bestDecision])
		if first || better {
			bestDecision, bestCount, first = d, c, false
		}
	}
	return firstIndex[bestDecision]
}

func confidenceWeightedWinner(verdicts []verdict.Verdict) int {
	weights := make(map[verdict.Decision]float64)
	firstIndex := make(map[verdict.Decision]int)
	for i, v := range verdicts {
		if _, seen := firstIndex[v.Decision]; !seen {
			firstIndex[v.Decision] = i
		}
		weights[v.Decision] += v.Confidence
	}

	var bestDecision verdict.Decision
	bestWeight := -1.0
	first := true
	for d, w := range weights {
		better := w > bestWeight ||
			(w == bestWeight && d.Priority() > bestDecision.Priority()) ||
			(w == bestWeight && d.Priority() == bestDecision.Priority() && firstIndex[d] < firstIndex[bestDecision])
		if first || better {
			bestDecision, bestWeight, first = d, w, false
		}
	}
	return firstIndex[bestDecision]
}

// combine builds the aggregated verdict: winner's decision and reason,
// union of all feature maps (later contributor overwrites earlier on key
// collision — spec.md §4.1/§9 documented quirk), summed latency, and
// comma-joined hook names in contribution order.
func combine(verdicts []verdict.Verdict, winner int) verdict.Verdict {
	var features map[string]any
	var totalLatency float64
	names := make([]string, 0, len(verdicts))

	for _, v := range verdicts {
		features = verdict.MergeFeatures(features, v.Features)
		totalLatency += v.Latency
		if v.HookName != "" {
			names = append(names, v.HookName)
		}
	}

	return verdict.Verdict{
		Decision:   verdicts[winner].Decision,
		Confidence: verdicts[winner].Confidence,
		Reason:     verdicts[winner].Reason,
		Features:   features,
		Latency:    totalLatency,
		HookName:   strings.Join(names, ","),
	}
}
