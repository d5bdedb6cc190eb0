// Package temporal adapts hook.Orchestrator.Step to run as a Temporal
// Activity, for deployments that want each safeguard decision recorded in
// workflow history and covered by Temporal's retry/backoff. It is entirely
// optional: the orchestrator itself has no Temporal dependency, and the
// single-threaded synchronous Step call remains the default path. Narrowed
// from the teacher's general engine.Engine/WorkflowContext abstraction down
// to this one operation.
package temporal

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/worker"

	"github.com/agentsafe/runtime/event"
	"github.com/agentsafe/runtime/hook"
	"github.com/agentsafe/runtime/runstate"
	"github.com/agentsafe/runtime/verdict"
)

// ActivityName is the Temporal activity type registered by RegisterStepActivity.
const ActivityName = "SafeguardStep"

// StepInput is the Temporal-serializable request for the SafeguardStep
// activity. Context is passed by value (not pointer) because Temporal
// activity inputs/outputs must round-trip through its data converter.
// Step does not mutate the run-state context itself; the calling workflow
// remains responsible for folding the returned verdict into its own
// Context.Advance call between dispatches, same as the synchronous path.
type StepInput struct {
	Point   event.HookPoint
	Context runstate.Context
	Event   event.Event
}

// StepOutput is the Temporal-serializable result of a SafeguardStep
// activity execution.
type StepOutput struct {
	Verdict verdict.Verdict
}

// StepActivity wraps an Orchestrator so its Step method can be registered
// as a Temporal activity function.
type StepActivity struct {
	orchestrator *hook.Orchestrator
}

// NewStepActivity returns a StepActivity wrapping o.
func NewStepActivity(o *hook.Orchestrator) *StepActivity {
	return &StepActivity{orchestrator: o}
}

// Execute is the Temporal activity function. Step is expected to complete
// quickly, so no heartbeating is needed; Execute simply delegates to the
// wrapped Orchestrator.
func (a *StepActivity) Execute(ctx context.Context, in StepInput) (StepOutput, error) {
	rc := in.Context
	v, err := a.orchestrator.Step(ctx, in.Point, &rc, in.Event)
	if err != nil {
		return StepOutput{}, fmt.Errorf("safeguard step activity: %w", err)
	}
	return StepOutput{Verdict: v}, nil
}

// RegisterStepActivity registers a.Execute as the SafeguardStep activity on
// w, so a Temporal workflow can call it via workflow.ExecuteActivity with
// ActivityName.
func RegisterStepActivity(w worker.Worker, a *StepActivity) {
	w.RegisterActivityWithOptions(a.Execute, activity.RegisterOptions{Name: ActivityName})
}
