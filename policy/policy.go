// Package policy implements the declarative rule engine: a prioritized
// rule list evaluated against a feature namespace built from run context
// and hook-provided features (spec.md §4.3).
package policy

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/agentsafe/runtime/event"
	"github.com/agentsafe/runtime/hook"
	"github.com/agentsafe/runtime/policy/condition"
	"github.com/agentsafe/runtime/runstate"
	"github.com/agentsafe/runtime/verdict"
)

// Rule is one declarative policy rule: if Condition evaluates true against
// the feature namespace, Action/Reason/Priority determine the verdict.
type Rule struct {
	Name      string
	Condition string
	Action    verdict.Decision
	Reason    string
	Priority  int

	compiled *condition.Expr
}

// ErrDuplicateRuleName is returned by Load when two rules share a name.
var ErrDuplicateRuleName = errors.New("policy: duplicate rule name")

// Engine evaluates a prioritized rule list against a feature namespace and
// returns the first matching rule's verdict, or PROCEED if none match
// (spec.md §4.3). The engine is stateless between evaluations: Evaluate
// never mutates Engine or the rules it holds.
type Engine struct {
	rules []Rule
}

// NewEngine constructs an empty Engine. Call Load or LoadYAML before
// Evaluate, or wrap DefaultRules().
func NewEngine() *Engine {
	return &Engine{}
}

// Load compiles and installs rules, replacing any previously loaded
// ruleset. Rules are sorted by descending priority; duplicate names and
// malformed conditions are rejected as configuration errors (spec.md §7)
// and leave the previously loaded ruleset untouched.
func (e *Engine) Load(rules []Rule) error {
	compiled := make([]Rule, len(rules))
	seen := make(map[string]struct{}, len(rules))

	for i, r := range rules {
		if r.Name == "" {
			return fmt.Errorf("policy: rule at index %d has an empty name", i)
		}
		if _, dup := seen[r.Name]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateRuleName, r.Name)
		}
		seen[r.Name] = struct{}{}

		expr, err := condition.Parse(r.Condition)
		if err != nil {
			return fmt.Errorf("policy: rule %q: %w", r.Name, err)
		}
		r.compiled = expr
		compiled[i] = r
	}

	sort.SliceStable(compiled, func(i, j int) bool {
		return compiled[i].Priority > compiled[j].Priority
	})

	e.rules = compiled
	return nil
}

// Rules returns the currently loaded ruleset, sorted by descending
// priority. The returned slice is a defensive copy.
func (e *Engine) Rules() []Rule {
	out := make([]Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

// Evaluate builds the feature namespace from rc and features, then returns
// the verdict of the first (highest-priority) rule whose condition is
// true. If no rule matches, it returns PROCEED/confidence 1.0/"no policy
// rule triggered".
func (e *Engine) Evaluate(rc runstate.Context, features map[string]any) verdict.Verdict {
	namespace := make(map[string]any, len(features)+3)
	namespace["drift_score"] = rc.CumulativeDrift
	namespace["violation_count"] = rc.ViolationCount
	namespace["step"] = rc.Step
	for k, v := range features {
		namespace[k] = v
	}

	for _, rule := range e.rules {
		if rule.compiled.Eval(namespace) {
			return verdict.Verdict{
				Decision:   rule.Action,
				Confidence: 0.9,
				Reason:     rule.Reason,
				Features:   map[string]any{"matched_rule": rule.Name},
			}
		}
	}

	return verdict.Verdict{Decision: verdict.Proceed, Confidence: 1.0, Reason: "no policy rule triggered"}
}

// DefaultRules returns the four seed rules from spec.md §4.3, grounded on
// original_source/safeguards/policy_dsl.py's DEFAULT_POLICY.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "high_drift_block", Condition: "drift_score > 0.5", Action: verdict.HardStop, Reason: "Trajectory drift beyond safety threshold", Priority: 10},
		{Name: "moderate_drift_warn", Condition: "drift_score > 0.3", Action: verdict.SoftStop, Reason: "Trajectory drift approaching threshold - requesting clarification", Priority: 5},
		{Name: "violation_block", Condition: "violation_count > 0", Action: verdict.HardStop, Reason: "Policy violation detected", Priority: 15},
		{Name: "high_risk_tool", Condition: "tool_risk == 'high'", Action: verdict.SoftStop, Reason: "High-risk tool usage requires confirmation", Priority: 8},
	}
}

// policyHook wraps an Engine as a hook.Hook, per spec.md §4.3 "Can be
// wrapped as a hook". It is defined here rather than in package hook to
// avoid an import cycle (hook is a lower-level dependency of policy).
type policyHook struct {
	name   string
	point  event.HookPoint
	engine *Engine
}

// NewHook wraps engine as a pluggable hook at the given hook-point.
func NewHook(engine *Engine, point event.HookPoint) hook.Hook {
	return &policyHook{name: "policy_engine", point: point, engine: engine}
}

func (p *policyHook) Name() string           { return p.name }
func (p *policyHook) Point() event.HookPoint { return p.point }

func (p *policyHook) Evaluate(_ context.Context, rc *runstate.Context, ev event.Event) (verdict.Verdict, error) {
	features := ev.Features()
	if ev.RiskTag != "" {
		if _, exists := features["tool_risk"]; !exists {
			merged := make(map[string]any, len(features)+1)
			for k, v := range features {
				merged[k] = v
			}
			merged["tool_risk"] = ev.RiskTag
			features = merged
		}
	}
	return p.engine.Evaluate(*rc, features), nil
}
