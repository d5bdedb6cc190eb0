package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type (
	// OtelMetrics backs Metrics with an OpenTelemetry meter. Counters and
	// histograms are created lazily and cached by name, since the otel
	// API has no "get or create" call.
	OtelMetrics struct {
		meter    metric.Meter
		counters map[string]metric.Float64Counter
		timers   map[string]metric.Float64Histogram
		gauges   map[string]metric.Float64Gauge
	}

	// OtelTracer backs Tracer with an OpenTelemetry tracer.
	OtelTracer struct {
		tracer trace.Tracer
	}

	otelSpan struct {
		span trace.Span
	}
)

// NewOtelMetrics constructs an OtelMetrics recorder from an OpenTelemetry
// meter, typically obtained from a MeterProvider configured by the caller.
func NewOtelMetrics(meter metric.Meter) *OtelMetrics {
	return &OtelMetrics{
		meter:    meter,
		counters: make(map[string]metric.Float64Counter),
		timers:   make(map[string]metric.Float64Histogram),
		gauges:   make(map[string]metric.Float64Gauge),
	}
}

// NewOtelTracer constructs an OtelTracer from an OpenTelemetry tracer,
// typically obtained from a TracerProvider configured by the caller.
func NewOtelTracer(tracer trace.Tracer) *OtelTracer {
	return &OtelTracer{tracer: tracer}
}

func tagsToAttrs(tags []string) []attrPair {
	pairs := make([]attrPair, 0, len(tags)/2)
	for i := 0; i+1 < len(tags); i += 2 {
		pairs = append(pairs, attrPair{tags[i], tags[i+1]})
	}
	return pairs
}

type attrPair struct{ key, value string }

func attrsFromPairs(pairs []attrPair) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(pairs))
	for _, p := range pairs {
		attrs = append(attrs, attribute.String(p.key, p.value))
	}
	return attrs
}

// IncCounter records value on the named counter, creating it on first use.
func (m *OtelMetrics) IncCounter(name string, value float64, tags ...string) {
	c, ok := m.counters[name]
	if !ok {
		var err error
		c, err = m.meter.Float64Counter(name)
		if err != nil {
			return
		}
		m.counters[name] = c
	}
	c.Add(context.Background(), value, metric.WithAttributes(attrsFromPairs(tagsToAttrs(tags))...))
}

// RecordTimer records duration on the named histogram, creating it on
// first use.
func (m *OtelMetrics) RecordTimer(name string, duration time.Duration, tags ...string) {
	h, ok := m.timers[name]
	if !ok {
		var err error
		h, err = m.meter.Float64Histogram(name)
		if err != nil {
			return
		}
		m.timers[name] = h
	}
	h.Record(context.Background(), duration.Seconds()*1000, metric.WithAttributes(attrsFromPairs(tagsToAttrs(tags))...))
}

// RecordGauge records value on the named gauge, creating it on first use.
func (m *OtelMetrics) RecordGauge(name string, value float64, tags ...string) {
	g, ok := m.gauges[name]
	if !ok {
		var err error
		g, err = m.meter.Float64Gauge(name)
		if err != nil {
			return
		}
		m.gauges[name] = g
	}
	g.Record(context.Background(), value, metric.WithAttributes(attrsFromPairs(tagsToAttrs(tags))...))
}

// Start begins a new span named name under ctx.
func (t *OtelTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, Span) {
	spanCtx, span := t.tracer.Start(ctx, name, opts...)
	return spanCtx, otelSpan{span: span}
}

// Span returns the current span in ctx, or a detached no-op span if none.
func (t *OtelTracer) Span(ctx context.Context) Span {
	return otelSpan{span: trace.SpanFromContext(ctx)}
}

func (s otelSpan) End(opts ...trace.SpanEndOption)             { s.span.End(opts...) }
func (s otelSpan) SetStatus(code codes.Code, description string) { s.span.SetStatus(code, description) }
func (s otelSpan) RecordError(err error, opts ...trace.EventOption) {
	s.span.RecordError(err, opts...)
}

func (s otelSpan) AddEvent(name string, attrs ...any) {
	pairs := make([]string, 0, len(attrs))
	for _, a := range attrs {
		if str, ok := a.(string); ok {
			pairs = append(pairs, str)
		}
	}
	s.span.AddEvent(name, trace.WithAttributes(attrsFromPairs(tagsToAttrs(pairs))...))
}
