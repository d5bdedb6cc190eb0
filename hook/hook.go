// Package hook defines the hook contract, the hook registry, and the
// orchestrator that fans a step event out to registered hooks and
// aggregates their verdicts under the "most restrictive wins" rule
// (spec.md §4.1, §4.2).
package hook

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/agentsafe/runtime/event"
	"github.com/agentsafe/runtime/runstate"
	"github.com/agentsafe/runtime/verdict"
)

// Hook is the narrow contract every safeguard implements: a stable
// identity (Name, Point) plus a pure evaluation function. Evaluate must be
// pure with respect to ctx and ev — no mutation of either, and no hidden
// state that changes results across calls with identical inputs, though a
// hook may carry its own internal baselines keyed by run_id (spec.md §4.2).
type Hook interface {
	// Name uniquely identifies the hook across the whole registry.
	Name() string
	// Point declares the single hook-point this hook is registered at.
	Point() event.HookPoint
	// Evaluate computes a verdict for the given run context and event.
	// Implementations must not mutate rc or ev.
	Evaluate(ctx context.Context, rc *runstate.Context, ev event.Event) (verdict.Verdict, error)
}

// ErrDuplicateName is returned by Registry.Register when a hook with the
// same name is already registered, regardless of hook-point (spec.md §3:
// "Two hooks may not share a name").
var ErrDuplicateName = errors.New("hook: duplicate name")

// ErrNilHook is returned by Registry.Register when h is nil.
var ErrNilHook = errors.New("hook: nil hook")

// Registry maps hook-points to ordered lists of hooks. Registration order
// is preserved and governs tie-breaking during aggregation. A Registry is
// read-only after startup registration completes (spec.md §5).
type Registry struct {
	mu    sync.RWMutex
	names map[string]struct{}
	byPoint map[event.HookPoint][]Hook
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		names:   make(map[string]struct{}),
		byPoint: make(map[event.HookPoint][]Hook),
	}
}

// Register adds h to the registry at h.Point(), preserving registration
// order. It rejects a nil hook, an empty name, and a name already in use by
// any previously registered hook.
func (r *Registry) Register(h Hook) error {
	if h == nil {
		return ErrNilHook
	}
	name := h.Name()
	if name == "" {
		return errors.New("hook: name must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.names[name]; dup {
		return fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	r.names[name] = struct{}{}
	r.byPoint[h.Point()] = append(r.byPoint[h.Point()], h)
	return nil
}

// At returns the hooks registered at point, in registration order. The
// returned slice is a defensive copy.
func (r *Registry) At(point event.HookPoint) []Hook {
	r.mu.RLock()
	defer r.mu.RUnlock()
	hooks := r.byPoint[point]
	out := make([]Hook, len(hooks))
	copy(out, hooks)
	return out
}
