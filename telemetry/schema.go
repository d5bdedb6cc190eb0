package telemetry

import (
	"encoding/json"
	"time"
)

// Event is the stable telemetry wire schema (spec.md §6): emitted once per
// hook invocation, append-only, never mutated once emitted. Field ordering
// is not significant and consumers must tolerate unknown fields — this
// implementation reflects that by round-tripping through a plain map on
// decode rather than a strict struct, so a field added by a newer producer
// is ignored rather than rejected.
type Event struct {
	RunID      string
	Step       int
	Timestamp  time.Time
	HookPoint  string
	HookName   string
	Decision   string
	Confidence float64
	Reason     string
	Features   map[string]any
	LatencyMs  float64
	UserInput  string
	ToolCall   string
	ToolResult string
}

// MarshalJSON renders e using the wire-schema field names, an RFC3339
// millisecond timestamp with a trailing "Z", and omits the optional replay
// fields when empty.
func (e Event) MarshalJSON() ([]byte, error) {
	aux := struct {
		RunID      string         `json:"run_id"`
		Step       int            `json:"step"`
		Timestamp  string         `json:"timestamp"`
		HookPoint  string         `json:"hook_point"`
		HookName   string         `json:"hook_name"`
		Decision   string         `json:"decision"`
		Confidence float64        `json:"confidence"`
		Reason     string         `json:"reason"`
		Features   map[string]any `json:"features"`
		LatencyMs  float64        `json:"latency_ms"`
		UserInput  string         `json:"user_input,omitempty"`
		ToolCall   string         `json:"tool_call,omitempty"`
		ToolResult string         `json:"tool_result,omitempty"`
	}{
		RunID:      e.RunID,
		Step:       e.Step,
		Timestamp:  e.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z"),
		HookPoint:  e.HookPoint,
		HookName:   e.HookName,
		Decision:   e.Decision,
		Confidence: e.Confidence,
		Reason:     e.Reason,
		Features:   e.Features,
		LatencyMs:  e.LatencyMs,
		UserInput:  e.UserInput,
		ToolCall:   e.ToolCall,
		ToolResult: e.ToolResult,
	}
	return json.Marshal(aux)
}

// UnmarshalJSON tolerates unknown fields: it decodes through a generic map
// first and only reads the fields this schema version knows about,
// per spec.md §6 "consumers must tolerate unknown fields for forward
// compatibility".
func (e *Event) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	str := func(key string) string {
		var v string
		if msg, ok := raw[key]; ok {
			_ = json.Unmarshal(msg, &v)
		}
		return v
	}

	if msg, ok := raw["run_id"]; ok {
		_ = json.Unmarshal(msg, &e.RunID)
	}
	if msg, ok := raw["step"]; ok {
		_ = json.Unmarshal(msg, &e.Step)
	}
	if ts := str("timestamp"); ts != "" {
		if parsed, err := time.Parse("2006-01-02T15:04:05.000Z", ts); err == nil {
			e.Timestamp = parsed
		} else if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			e.Timestamp = parsed
		}
	}
	e.HookPoint = str("hook_point")
	e.HookName = str("hook_name")
	e.Decision = str("decision")
	if msg, ok := raw["confidence"]; ok {
		_ = json.Unmarshal(msg, &e.Confidence)
	}
	e.Reason = str("reason")
	if msg, ok := raw["features"]; ok {
		_ = json.Unmarshal(msg, &e.Features)
	}
	if msg, ok := raw["latency_ms"]; ok {
		_ = json.Unmarshal(msg, &e.LatencyMs)
	}
	e.UserInput = str("user_input")
	e.ToolCall = str("tool_call")
	e.ToolResult = str("tool_result")
	return nil
}
