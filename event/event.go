// Package event defines the step event the orchestrator dispatches to
// hooks, and the three lifecycle points at which dispatch happens.
package event

import "encoding/json"

// HookPoint identifies one of the three lifecycle locations at which the
// orchestrator invokes hooks.
type HookPoint int

const (
	// PreAction fires before an action (tool call) is taken.
	PreAction HookPoint = iota
	// MidStep fires between an action and its result becoming available.
	MidStep
	// PostAction fires after a tool result has been observed.
	PostAction
)

// String renders p using the wire-schema spelling (spec.md §6).
func (p HookPoint) String() string {
	switch p {
	case PreAction:
		return "pre_action"
	case MidStep:
		return "mid_step"
	case PostAction:
		return "post_action"
	default:
		return "unknown"
	}
}

// PayloadKind identifies the shape of Event.RawContent and which fields of
// Event are meaningful. Payload kind fixes which hook-point is legal for an
// event: user-input events belong at PreAction, tool-call events at
// PreAction or MidStep, tool-result events at PostAction.
type PayloadKind int

const (
	// UserInput carries a raw user message.
	UserInput PayloadKind = iota
	// ToolCall carries a tool invocation about to happen.
	ToolCall
	// ToolResult carries the outcome of a tool invocation.
	ToolResult
)

// String renders k for telemetry and logging.
func (k PayloadKind) String() string {
	switch k {
	case UserInput:
		return "user_input"
	case ToolCall:
		return "tool_call"
	case ToolResult:
		return "tool_result"
	default:
		return "unknown"
	}
}

// Event is created once per step and is read-only to hooks: hooks must not
// mutate it, and the orchestrator only ever hands hooks a fresh copy
// enriched with accumulated Features (see Features below).
type Event struct {
	// Kind fixes which fields below are populated.
	Kind PayloadKind
	// RawContent is the literal text the event concerns: a user message,
	// an action description, or a tool result body, depending on Kind.
	RawContent string
	// ToolName is set for ToolCall and ToolResult events.
	ToolName string
	// ToolParameters carries the tool's declared arguments (ToolCall) or
	// its structured result (ToolResult), verbatim.
	ToolParameters json.RawMessage
	// RiskTag is a caller-supplied coarse risk label for the action, e.g.
	// "low", "medium", "high". Hooks may fold it into scoring but the
	// orchestrator never interprets it itself.
	RiskTag string

	// features holds the accumulating feature namespace the orchestrator
	// threads through a single hook-point dispatch: after each hook
	// returns, its Verdict.Features are merged in before the next hook in
	// the same dispatch is invoked. Hooks read Features via the exported
	// accessor below; only the orchestrator package may populate it,
	// which is why the field itself stays unexported.
	features map[string]any
}

// Features returns the feature namespace accumulated so far in the current
// hook-point dispatch (nil before any hook has contributed one). The
// returned map must not be mutated by callers.
func (e Event) Features() map[string]any { return e.features }

// WithFeatures returns a copy of e carrying the given feature namespace.
// Only the orchestrator calls this, between successive hook invocations
// within one dispatch; hooks never mutate Event themselves.
func (e Event) WithFeatures(features map[string]any) Event {
	e.features = features
	return e
}
