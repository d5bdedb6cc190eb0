// Package intent implements a pre-action hook that classifies the risk of
// an about-to-happen action, grounded on pre_action.py's IntentClassifier.
package intent

import (
	"context"
	"regexp"
	"strings"

	"github.com/agentsafe/runtime/event"
	"github.com/agentsafe/runtime/runstate"
	"github.com/agentsafe/runtime/verdict"
)

var maliciousPatterns = compileAll([]string{
	`bypass\s+(safety|security|filter|moderation)`,
	`ignore\s+(previous|prior|safety|guidelines)`,
	`(hack|exploit|attack|breach)\s+`,
	`(disable|remove)\s+(safety|filter|restriction)`,
	`pretend\s+(you\s+are|to\s+be)`,
})

var highRiskKeywords = []string{
	"password", "credential", "secret", "private",
	"hack", "exploit", "vulnerability", "bypass",
	"injection", "malware", "virus", "attack",
}

func compileAll(patterns []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(`(?i)` + p)
	}
	return out
}

// Classifier is a pre-action hook scoring how malicious or high-risk an
// about-to-happen action appears, from conversation context, its
// description, and the caller-supplied RiskTag.
type Classifier struct {
	Sensitivity float64
}

// NewClassifier returns a Classifier at the given sensitivity in [0, 1].
func NewClassifier(sensitivity float64) *Classifier {
	return &Classifier{Sensitivity: sensitivity}
}

func (c *Classifier) Name() string           { return "intent_classifier" }
func (c *Classifier) Point() event.HookPoint { return event.PreAction }

func (c *Classifier) adjustThreshold(base float64) float64 {
	return base * (1 - c.Sensitivity*0.5)
}

func (c *Classifier) Evaluate(_ context.Context, rc *runstate.Context, ev event.Event) (verdict.Verdict, error) {
	text := conversationText(rc) + " " + ev.RawContent + " " + ev.ToolName

	maliciousScore := matchScore(maliciousPatterns, text, 3)
	riskScore := keywordScore(text, highRiskKeywords, 5)
	actionRisk := riskTagScore(ev.RiskTag)

	combined := 0.4*maliciousScore + 0.3*riskScore + 0.3*actionRisk

	hardThreshold := c.adjustThreshold(0.7)
	softThreshold := 0.6 * hardThreshold

	features := map[string]any{
		"malicious_score": maliciousScore,
		"risk_score":      riskScore,
		"action_risk":     actionRisk,
	}

	switch {
	case combined >= hardThreshold:
		return verdict.Verdict{Decision: verdict.HardStop, Confidence: 0.85, Reason: "High-risk intent detected", Features: features}, nil
	case combined >= softThreshold:
		return verdict.Verdict{Decision: verdict.SoftStop, Confidence: 0.7, Reason: "Potentially risky intent", Features: features}, nil
	case combined >= 0.2:
		return verdict.Verdict{Decision: verdict.LogOnly, Confidence: 0.6, Reason: "Minor risk indicators", Features: features}, nil
	default:
		return verdict.Verdict{Decision: verdict.Proceed, Confidence: 0.9, Reason: "Intent appears benign", Features: features}, nil
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

func matchScore(patterns []*regexp.Regexp, text string, scale float64) float64 {
	matches := 0
	for _, p := range patterns {
		if p.MatchString(text) {
			matches++
		}
	}
	return min1(float64(matches) / scale)
}

func keywordScore(text string, keywords []string, scale float64) float64 {
	lower := strings.ToLower(text)
	matches := 0
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			matches++
		}
	}
	return min1(float64(matches) / scale)
}

// riskTagScore maps the caller-supplied coarse RiskTag to a numeric risk
// level, standing in for the original's continuous action.risk_level.
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

func min1(v float64) float64 {
	if v > 1.0 {
		return 1.0
	}
	return v
}
