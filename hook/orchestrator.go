package hook

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/codes"

	"github.com/agentsafe/runtime/event"
	"github.com/agentsafe/runtime/runstate"
	"github.com/agentsafe/runtime/telemetry"
	"github.com/agentsafe/runtime/verdict"
)

// Config holds the runtime-wide configuration options spec.md §4.5
// recognizes for the composed runtime.
type Config struct {
	// FailOpenOnHookError, when true (the default), reports a failing hook
	// as a LOG_ONLY telemetry event and leaves it out of the aggregated
	// verdict so redundant hooks can carry the dispatch; only when every
	// hook at the point fails is the aggregate LOG_ONLY. When false, a
	// failing hook contributes HARD_STOP instead — the "production
	// fail-closed" knob from spec.md §9.
	FailOpenOnHookError bool
	// Timeout bounds each individual hook invocation. Zero means no
	// timeout (the default), matching spec.md §5's "default: none".
	Timeout time.Duration
	// AggregationRule records the configured value for composed
	// strategies built on top of the orchestrator (spec.md §4.5); Step's
	// own primary return value always uses MostRestrictive.
	AggregationRule AggregationRule
}

// DefaultConfig returns the spec-mandated defaults: fail-open, no
// per-hook timeout, most-restrictive aggregation.
func DefaultConfig() Config {
	return Config{FailOpenOnHookError: true, AggregationRule: MostRestrictive}
}

// Orchestrator fans a step event out to every hook registered at a
// hook-point, times each invocation, emits one telemetry event per
// invocation, and returns one aggregated verdict (spec.md §4.1).
type Orchestrator struct {
	registry *Registry
	sink     telemetry.Sink
	logger   telemetry.Logger
	metrics  telemetry.Metrics
	tracer   telemetry.Tracer
	cfg      Config
}

// NewOrchestrator constructs an Orchestrator over registry with cfg. A nil
// logger, metrics, or tracer defaults to its telemetry.Noop* implementation,
// so an Orchestrator is always safe to use without a configured OTEL
// provider.
func NewOrchestrator(registry *Registry, cfg Config, logger telemetry.Logger) *Orchestrator {
	if logger == nil {
		logger = telemetry.NewNoopLogger()
	}
	return &Orchestrator{
		registry: registry,
		cfg:      cfg,
		logger:   logger,
		metrics:  telemetry.NewNoopMetrics(),
		tracer:   telemetry.NewNoopTracer(),
	}
}

// SetMetrics installs the recorder used for per-hook latency instrumentation.
func (o *Orchestrator) SetMetrics(metrics telemetry.Metrics) {
	o.metrics = metrics
}

// SetTracer installs the tracer used to open a span around each hook
// invocation.
func (o *Orchestrator) SetTracer(tracer telemetry.Tracer) {
	o.tracer = tracer
}

// SetTelemetrySink installs the sink invoked per verdict. A nil sink
// disables telemetry emission.
func (o *Orchestrator) SetTelemetrySink(sink telemetry.Sink) {
	o.sink = sink
}

// Config returns the orchestrator's current configuration.
func (o *Orchestrator) Config() Config { return o.cfg }

// Step invokes every hook registered at point, in registration order, and
// returns the aggregated verdict. If no hooks are registered, it returns
// PROCEED/confidence 1.0/"no hooks registered" and emits no telemetry
// (spec.md §4.1). Under fail-open, a failed hook's LOG_ONLY verdict is
// emitted but not aggregated unless every hook at point failed.
func (o *Orchestrator) Step(ctx context.Context, point event.HookPoint, rc *runstate.Context, ev event.Event) (verdict.Verdict, error) {
	hooks := o.registry.At(point)
	if len(hooks) == 0 {
		return verdict.Verdict{Decision: verdict.Proceed, Confidence: 1.0, Reason: "no hooks registered"}, nil
	}

	verdicts := make([]verdict.Verdict, 0, len(hooks))
	var failed []verdict.Verdict
	var accumulated map[string]any
	current := ev

	for _, h := range hooks {
		v, latency, failedOpen := o.invoke(ctx, h, rc, current)
		v.HookName = h.Name()
		v.Latency = latency

		o.emit(ctx, rc, point, v, current)

		if failedOpen {
			failed = append(failed, v)
			continue
		}
		accumulated = verdict.MergeFeatures(accumulated, v.Features)
		current = current.WithFeatures(accumulated)
		verdicts = append(verdicts, v)
	}

	if len(verdicts) == 0 {
		return Aggregate(MostRestrictive, failed), nil
	}
	return Aggregate(MostRestrictive, verdicts), nil
}

// invoke runs a single hook with panic recovery and an optional timeout,
// converting any failure into the configured failure verdict (spec.md
// §4.1 "Failure mode"). The third result reports a failure converted under
// the fail-open setting.
func (o *Orchestrator) invoke(ctx context.Context, h Hook, rc *runstate.Context, ev event.Event) (verdict.Verdict, float64, bool) {
	spanCtx, span := o.tracer.Start(ctx, "safeguard.hook."+h.Name())
	defer span.End()

	start := time.Now()

	type result struct {
		v   verdict.Verdict
		err error
	}
	done := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		v, err := h.Evaluate(spanCtx, rc, ev)
		done <- result{v: v, err: err}
	}()

	var (
		v   verdict.Verdict
		err error
	)
	if o.cfg.Timeout > 0 {
		timer := time.NewTimer(o.cfg.Timeout)
		defer timer.Stop()
		select {
		case r := <-done:
			v, err = r.v, r.err
		case <-timer.C:
			err = fmt.Errorf("hook %q timed out after %s", h.Name(), o.cfg.Timeout)
		}
	} else {
		r := <-done
		v, err = r.v, r.err
	}

	elapsed := time.Since(start)
	latency := float64(elapsed) / float64(time.Millisecond)
	o.metrics.RecordTimer("safeguard.hook.latency", elapsed, "hook", h.Name())

	if err != nil {
		o.logger.Warn(ctx, "hook failed", "hook", h.Name(), "error", err.Error())
		o.metrics.IncCounter("safeguard.hook.failure", 1, "hook", h.Name())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		decision := verdict.LogOnly
		if !o.cfg.FailOpenOnHookError {
			decision = verdict.HardStop
		}
		return verdict.Verdict{
			Decision:   decision,
			Confidence: 0.0,
			Reason:     fmt.Sprintf("hook failed: %s", err.Error()),
		}, latency, o.cfg.FailOpenOnHookError
	}

	span.SetStatus(codes.Ok, v.Decision.String())
	return v, latency, false
}

func (o *Orchestrator) emit(ctx context.Context, rc *runstate.Context, point event.HookPoint, v verdict.Verdict, ev event.Event) {
	if o.sink == nil {
		return
	}
	te := telemetry.Event{
		RunID:      rc.RunID,
		Step:       rc.Step,
		Timestamp:  time.Now(),
		HookPoint:  point.String(),
		HookName:   v.HookName,
		Decision:   v.Decision.String(),
		Confidence: v.Confidence,
		Reason:     v.Reason,
		Features:   v.Features,
		LatencyMs:  v.Latency,
	}
	switch ev.Kind {
	case event.UserInput:
		te.UserInput = ev.RawContent
	case event.ToolCall:
		te.ToolCall = ev.RawContent
	case event.ToolResult:
		te.ToolResult = ev.RawContent
	}
	telemetry.SafeEmit(ctx, o.sink, o.logger, te)
}
