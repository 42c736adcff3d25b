package retrace

import (
	"context"
	"fmt"

	"github.com/retracehq/retrace/internal/ctxlog"
)

// Body is the user-supplied computation behind a step. It reads other
// inputs and steps through the engine and returns the step's value. Bodies
// are expected to be pure functions of what they read; the engine performs
// no cancellation, so a body that blocks holds up the whole evaluation.
type Body func(ctx context.Context) (any, error)

// State is the cache state of a step.
type State int

const (
	// Unevaluated means the step has never run; it has no cached value and
	// no recorded dependencies.
	Unevaluated State = iota
	// Valid means the cached value is current and may be returned without
	// re-running the body.
	Valid
	// Dirty means invalidation reached this step; the body must re-run
	// before the value can be read.
	Dirty
)

// String returns the state's name.
func (s State) String() string {
	switch s {
	case Unevaluated:
		return "unevaluated"
	case Valid:
		return "valid"
	case Dirty:
		return "dirty"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Step is a named, memoized operation whose value is derived from inputs
// and other steps. Its dependency set is rediscovered on every recompute by
// observing the reads its body actually performs.
type Step struct {
	model *Model
	name  string
	body  Body

	state  State
	cached any

	// deps holds the nodes this step read during its most recent
	// successful trace. Cleared and rebuilt each time the body re-runs.
	deps map[string]depNode
	// dependents holds every step whose most recent trace read this step.
	dependents map[string]*Step
}

// Name returns the step's declared name.
func (st *Step) Name() string {
	return st.name
}

// State returns the step's current cache state.
func (st *Step) State() State {
	return st.state
}

// Evaluate returns the step's value, re-running the body only if the step
// is not Valid. Whether or not the body ran, the step registers itself as a
// dependency of any step whose body is currently evaluating. A failure from
// the body propagates unchanged and leaves the step's state and cache
// exactly as they were.
func (st *Step) Evaluate(ctx context.Context) (any, error) {
	if st.state != Valid {
		if err := st.recompute(ctx); err != nil {
			return nil, err
		}
	}
	st.model.registerRead(st)
	return st.cached, nil
}

// recompute runs the body under a fresh trace. The previous dependency set
// is dropped first so the edges rebuilt by the body's reads reflect this
// run, not an earlier one.
func (st *Step) recompute(ctx context.Context) error {
	if err := st.model.stack.push(st); err != nil {
		return err
	}
	defer st.model.stack.pop()

	st.dropDeps()
	ctxlog.FromContext(ctx).Debug("running step body", "step", st.name, "state", st.state.String())

	value, err := st.body(ctx)
	if err != nil {
		return err
	}
	st.cached = value
	st.state = Valid
	return nil
}

// dropDeps removes this step from the dependent set of every node it read
// on its previous trace and empties its own dependency set.
func (st *Step) dropDeps() {
	for name, dep := range st.deps {
		delete(dep.dependentSteps(), st.name)
		delete(st.deps, name)
	}
}

// invalidate marks a Valid step Dirty and drops its cached value. It is a
// no-op for Dirty and Unevaluated steps.
func (st *Step) invalidate() {
	if st.state != Valid {
		return
	}
	st.state = Dirty
	st.cached = nil
}

// String describes the step for logs and test failures.
func (st *Step) String() string {
	return fmt.Sprintf("Step(%s, %s)", st.name, st.state)
}

func (st *Step) nodeName() string {
	return st.name
}

func (st *Step) dependentSteps() map[string]*Step {
	return st.dependents
}
