package telemetry

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"sync"
)

// Sink is the append-only structured-event stream the orchestrator emits
// through — "a callback injected into the orchestrator" (spec.md §2). A
// Sink must be safe for concurrent use from different runs (spec.md §5).
type Sink interface {
	Emit(ctx context.Context, event Event) error
}

// SinkFunc adapts a plain function to Sink.
type SinkFunc func(ctx context.Context, event Event) error

// Emit calls f.
func (f SinkFunc) Emit(ctx context.Context, event Event) error { return f(ctx, event) }

// JSONLSink writes newline-delimited JSON to w, the default sink format
// from spec.md §6. Writes are serialized so the sink is safe under
// concurrent writers from different runs.
type JSONLSink struct {
	mu sync.Mutex
	w  *bufio.Writer
}

// NewJSONLSink wraps w as a JSONLSink.
func NewJSONLSink(w io.Writer) *JSONLSink {
	return &JSONLSink{w: bufio.NewWriter(w)}
}

// Emit writes event as one JSON line followed by a newline, then flushes.
func (s *JSONLSink) Emit(_ context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.w.Write(data); err != nil {
		return err
	}
	if err := s.w.WriteByte('\n'); err != nil {
		return err
	}
	return s.w.Flush()
}

// SafeEmit emits event to sink, retrying once on error and then swallowing
// the failure after logging an internal warning — "sink errors are
// swallowed after one retry and an internal warning — never allowed to
// break the agent loop" (spec.md §7). Used internally by hook.Orchestrator;
// exported so other dispatchers (e.g. engine/temporal) can reuse the same
// propagation policy.
func SafeEmit(ctx context.Context, sink Sink, logger Logger, event Event) {
	if sink == nil {
		return
	}
	if err := sink.Emit(ctx, event); err != nil {
		if err := sink.Emit(ctx, event); err != nil {
			if logger != nil {
				logger.Warn(ctx, "telemetry sink emit failed, dropping event",
					"run_id", event.RunID, "step", event.Step, "error", err.Error())
			}
		}
	}
}
