// Package safeguard is the external facade for the runtime: register
// hooks, install a telemetry sink, load a policy ruleset, and dispatch
// steps (spec.md §6 "External Interfaces").
package safeguard

import (
	"context"
	"io"

	"github.com/agentsafe/runtime/event"
	"github.com/agentsafe/runtime/hook"
	"github.com/agentsafe/runtime/policy"
	"github.com/agentsafe/runtime/runstate"
	"github.com/agentsafe/runtime/telemetry"
	"github.com/agentsafe/runtime/verdict"
)

// Runtime wires a hook.Registry, hook.Orchestrator, and policy.Engine
// together behind the four operations spec.md §6 names: register,
// set_telemetry_sink, step, load_policy.
type Runtime struct {
	registry     *hook.Registry
	orchestrator *hook.Orchestrator
	store        *runstate.Store
	policy       *policy.Engine
	policyPoint  event.HookPoint
}

// Options configures a new Runtime.
type Options struct {
	// Config overrides the orchestrator's default configuration. A nil
	// Config uses hook.DefaultConfig(); this is a pointer rather than a
	// plain hook.Config specifically so an explicit
	// &hook.Config{FailOpenOnHookError: false} (the fail-closed knob) is
	// distinguishable from "not set" — both have the same zero value.
	Config *hook.Config
	// PolicyPoint is the hook-point at which the policy engine is wired in
	// as a hook. Defaults to event.PreAction.
	PolicyPoint event.HookPoint
	// PolicyRules seeds the policy engine; defaults to policy.DefaultRules().
	PolicyRules []policy.Rule
}

// New constructs a Runtime with its own registry, orchestrator, run-state
// store, and policy engine, registering the policy engine as a hook at
// opts.PolicyPoint.
func New(opts Options) (*Runtime, error) {
	registry := hook.NewRegistry()
	store := runstate.NewStore()

	rules := opts.PolicyRules
	if rules == nil {
		rules = policy.DefaultRules()
	}
	engine := policy.NewEngine()
	if err := engine.Load(rules); err != nil {
		return nil, err
	}

	point := opts.PolicyPoint
	cfg := hook.DefaultConfig()
	if opts.Config != nil {
		cfg = *opts.Config
	}

	if err := registry.Register(policy.NewHook(engine, point)); err != nil {
		return nil, err
	}

	orchestrator := hook.NewOrchestrator(registry, cfg, nil)

	return &Runtime{
		registry:     registry,
		orchestrator: orchestrator,
		store:        store,
		policy:       engine,
		policyPoint:  point,
	}, nil
}

// Register adds h to the runtime's hook registry. A name that is already
// registered is rejected with hook.ErrDuplicateName regardless of point,
// so registering the same hook twice is an error.
func (r *Runtime) Register(h hook.Hook) error {
	return r.registry.Register(h)
}

// SetTelemetrySink installs sink as the destination for per-hook telemetry
// events emitted during Step.
func (r *Runtime) SetTelemetrySink(sink telemetry.Sink) {
	r.orchestrator.SetTelemetrySink(sink)
}

// SetMetrics installs the recorder used for per-hook latency/failure
// instrumentation, typically a telemetry.OtelMetrics backed by the caller's
// MeterProvider. Defaults to a no-op recorder.
func (r *Runtime) SetMetrics(metrics telemetry.Metrics) {
	r.orchestrator.SetMetrics(metrics)
}

// SetTracer installs the tracer used to open a span around each hook
// invocation, typically a telemetry.OtelTracer backed by the caller's
// TracerProvider. Defaults to a no-op tracer.
func (r *Runtime) SetTracer(tracer telemetry.Tracer) {
	r.orchestrator.SetTracer(tracer)
}

// Step runs one hook-point pass: fan out ev to every hook registered at
// point, aggregate their verdicts under "most restrictive wins", and
// return the aggregate. It does not call rc.Advance — the caller is
// responsible for folding the verdict's drift/violation signal into its
// own Advance call between dispatches (spec.md §3 "never mutated
// mid-dispatch").
func (r *Runtime) Step(ctx context.Context, point event.HookPoint, rc *runstate.Context, ev event.Event) (verdict.Verdict, error) {
	return r.orchestrator.Step(ctx, point, rc, ev)
}

// LoadPolicy replaces the ruleset evaluated by the policy-engine hook.
func (r *Runtime) LoadPolicy(rules []policy.Rule) error {
	return r.policy.Load(rules)
}

// LoadPolicyYAML replaces the ruleset from a YAML document.
func (r *Runtime) LoadPolicyYAML(src io.Reader) error {
	return r.policy.LoadYAML(src)
}

// RunStarted registers runID as active, for hooks with internal per-run
// state to key cleanup against.
func (r *Runtime) RunStarted(runID string) {
	r.store.RunStarted(runID)
}

// RunEnded marks runID inactive and notifies registered lifecycle
// listeners so they can release per-run state.
func (r *Runtime) RunEnded(runID string) {
	r.store.RunEnded(runID)
}

// Store exposes the runtime's run-state store so hooks with per-run
// baselines (e.g. drift.Monitor) can register as lifecycle listeners.
func (r *Runtime) Store() *runstate.Store {
	return r.store
}
