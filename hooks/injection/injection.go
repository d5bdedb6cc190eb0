// Package injection implements a pre-action hook that detects prompt
// injection attempts in conversation context, grounded on pre_action.py's
// InjectionDetector. Any match is an unconditional hard stop: this hook
// carries no sensitivity knob and no graduated scoring.
package injection

import (
	"context"
	"regexp"
	"strings"

	"github.com/agentsafe/runtime/event"
	"github.com/agentsafe/runtime/runstate"
	"github.com/agentsafe/runtime/verdict"
)

var injectionPatterns = compileAll([]string{
	`ignore\s+(all\s+)?(previous|prior)\s+instructions`,
	`new\s+instructions?\s*:`,
	`system\s*prompt\s*:`,
	`---\s*end\s*(of)?\s*(text|input)`,
	`admin(istrator)?\s+override`,
})

func compileAll(patterns []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(`(?i)` + p)
	}
	return out
}

// Detector is a pre-action hook scanning conversation context for fixed
// injection patterns. A single match is sufficient to hard-stop.
type Detector struct{}

// NewDetector returns an injection Detector.
func NewDetector() *Detector { return &Detector{} }

func (d *Detector) Name() string           { return "injection_detector" }
func (d *Detector) Point() event.HookPoint { return event.PreAction }

func (d *Detector) Evaluate(_ context.Context, rc *runstate.Context, ev event.Event) (verdict.Verdict, error) {
	text := conversationText(rc) + " " + ev.RawContent

	var matched []string
	for _, p := range injectionPatterns {
		if p.MatchString(text) {
			matched = append(matched, p.String())
		}
	}

	if len(matched) == 0 {
		return verdict.Verdict{Decision: verdict.Proceed, Confidence: 0.95, Reason: "No injection detected"}, nil
	}

	score := float64(len(matched)) / 2
	if score > 1.0 {
		score = 1.0
	}
	return verdict.Verdict{
		Decision:   verdict.HardStop,
		Confidence: 0.5 + 0.5*score,
		Reason:     "Injection attempt detected",
		Features:   map[string]any{"patterns_matched": matched},
	}, nil
}

func conversationText(rc *runstate.Context) string {
	var b strings.Builder
	for _, t := range rc.Conversation {
		b.WriteString(t.Content)
		b.WriteString(" ")
	}
	return b.String()
}
