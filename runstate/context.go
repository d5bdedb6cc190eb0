// Package runstate tracks per-run state: step index, cumulative drift,
// violation count, conversation history, and free-form metadata. It is the
// leaf dependency of the runtime (spec.md §2): everything else reads from
// it. Its only mutator, Context.Advance, is not called by hook.Orchestrator
// or by hooks; the code driving Orchestrator.Step calls it between
// hook-point dispatches.
package runstate

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Turn is one exchange in the run's conversation, kept for hooks that score
// drift or intent against conversation history.
type Turn struct {
	Role    string
	Content string
}

// Context carries per-run state. It is created at run start, mutated only
// via Advance between hook-point dispatches, and never mutated
// mid-dispatch (spec.md §3).
type Context struct {
	// RunID stably identifies the run.
	RunID string
	// Step is the current step index; strictly increasing.
	Step int
	// Conversation is the ordered sequence of turns observed so far.
	Conversation []Turn
	// StatedGoal is the run's declared objective, if any. Hooks such as
	// the drift monitor baseline against it.
	StatedGoal string
	// CumulativeDrift is the running drift total; never negative.
	CumulativeDrift float64
	// ViolationCount is the running count of detected policy violations.
	ViolationCount int
	// Metadata is a free-form map for caller-defined run attributes.
	Metadata map[string]any
}

// ErrStepNotMonotonic is returned by Advance when called in a way that
// would not strictly increase Step.
var ErrStepNotMonotonic = errors.New("runstate: step must strictly increase")

// ErrNegativeDrift is returned by Advance when the resulting cumulative
// drift would go negative.
var ErrNegativeDrift = errors.New("runstate: cumulative drift must not be negative")

// Advance is the sole mutator of Context. It increments Step by one, adds
// drift to CumulativeDrift, and increments ViolationCount when violation is
// true. hook.Orchestrator.Step does not call it; the code driving Step
// calls it once per completed hook-point dispatch, never while hooks are
// still running (spec.md §3 "never mutated mid-dispatch").
func (c *Context) Advance(drift float64, violation bool) error {
	nextStep := c.Step + 1
	if nextStep <= c.Step {
		return fmt.Errorf("%w: from %d", ErrStepNotMonotonic, c.Step)
	}
	nextDrift := c.CumulativeDrift + drift
	if nextDrift < 0 {
		return fmt.Errorf("%w: %.4f", ErrNegativeDrift, nextDrift)
	}
	c.Step = nextStep
	c.CumulativeDrift = nextDrift
	if violation {
		c.ViolationCount++
	}
	return nil
}

// NewRunID generates a stable, globally unique run identifier.
func NewRunID() string {
	return uuid.NewString()
}
