package retrace

import (
	"context"

	"github.com/retracehq/retrace/internal/ctxlog"
)

// Input is a named, externally settable leaf value of a model. Reads inside
// a running step body register the reading step as a dependent; writes
// replace the value and dirty every step that transitively read it.
type Input struct {
	model *Model
	name  string

	value any
	// set records whether any value was ever written. Reading before the
	// first write is an error, not a nil value.
	set bool

	// dependents holds every step whose most recent trace read this input.
	dependents map[string]*Step
}

// Name returns the input's declared name.
func (in *Input) Name() string {
	return in.name
}

// Read returns the input's current value. If a step body is being evaluated
// it first records the edge from this input to that step, so the read is
// part of the step's trace. Reading before the first Write returns an
// UninitializedInputError.
func (in *Input) Read(ctx context.Context) (any, error) {
	in.model.registerRead(in)
	if !in.set {
		return nil, &UninitializedInputError{Input: in.name}
	}
	return in.value, nil
}

// Write replaces the input's value and synchronously invalidates every step
// that transitively depends on it. The value is an opaque payload; no
// comparison with the previous value is made.
func (in *Input) Write(ctx context.Context, value any) {
	in.value = value
	in.set = true
	ctxlog.FromContext(ctx).Debug("input written, invalidating dependents",
		"input", in.name, "direct_dependents", len(in.dependents))
	propagate(ctx, in.dependents)
}

func (in *Input) nodeName() string {
	return in.name
}

func (in *Input) dependentSteps() map[string]*Step {
	return in.dependents
}
