package retrace

import (
	"context"
	"fmt"
	"sort"

	"github.com/retracehq/retrace/internal/nodename"
)

// depNode is a vertex a step body can read during a trace: an input slot or
// another step. Edges always point from a depNode to the step that read it.
type depNode interface {
	nodeName() string
	dependentSteps() map[string]*Step
}

// Model owns one set of inputs and steps plus the evaluation stack that
// ties their reads together. Inputs and steps share a single namespace.
// Two models never share state, even when declared identically.
type Model struct {
	inputs map[string]*Input
	steps  map[string]*Step
	stack  evalStack
}

// NewModel creates an empty model.
func NewModel() *Model {
	return &Model{
		inputs: make(map[string]*Input),
		steps:  make(map[string]*Step),
	}
}

// AddInput declares a named input slot. The slot holds no value until its
// first Write; the model constructor is expected to write every input
// before any step is evaluated. An error is returned if the name is invalid
// or already taken by an input or step.
func (m *Model) AddInput(name string) (*Input, error) {
	if err := nodename.Validate(name); err != nil {
		return nil, fmt.Errorf("declaring input: %w", err)
	}
	if m.exists(name) {
		return nil, fmt.Errorf("node %q already declared", name)
	}
	in := &Input{
		model:      m,
		name:       name,
		dependents: make(map[string]*Step),
	}
	m.inputs[name] = in
	return in, nil
}

// AddStep declares a named computed step backed by the given body. The step
// starts Unevaluated; its dependency edges are discovered the first time it
// runs. An error is returned if the name is invalid or already taken, or if
// the body is nil.
func (m *Model) AddStep(name string, body Body) (*Step, error) {
	if err := nodename.Validate(name); err != nil {
		return nil, fmt.Errorf("declaring step: %w", err)
	}
	if m.exists(name) {
		return nil, fmt.Errorf("node %q already declared", name)
	}
	if body == nil {
		return nil, fmt.Errorf("step %q declared with nil body", name)
	}
	st := &Step{
		model:      m,
		name:       name,
		body:       body,
		state:      Unevaluated,
		deps:       make(map[string]depNode),
		dependents: make(map[string]*Step),
	}
	m.steps[name] = st
	return st, nil
}

// Input looks up a declared input by name.
func (m *Model) Input(name string) (*Input, bool) {
	in, ok := m.inputs[name]
	return in, ok
}

// Step looks up a declared step by name.
func (m *Model) Step(name string) (*Step, bool) {
	st, ok := m.steps[name]
	return st, ok
}

// SetInput writes a value to the named input. It is a convenience over
// Input plus Write and fails only if the input does not exist.
func (m *Model) SetInput(ctx context.Context, name string, value any) error {
	in, ok := m.inputs[name]
	if !ok {
		return fmt.Errorf("input not found: %s", name)
	}
	in.Write(ctx, value)
	return nil
}

// Evaluate evaluates the named step and returns its value. It is a
// convenience over Step plus Evaluate.
func (m *Model) Evaluate(ctx context.Context, name string) (any, error) {
	st, ok := m.steps[name]
	if !ok {
		return nil, fmt.Errorf("step not found: %s", name)
	}
	return st.Evaluate(ctx)
}

// Dependencies returns the sorted names of the nodes the given step read on
// its most recent trace. Inputs have no dependencies; an unknown name is an
// error.
func (m *Model) Dependencies(name string) ([]string, error) {
	if st, ok := m.steps[name]; ok {
		deps := make([]string, 0, len(st.deps))
		for depName := range st.deps {
			deps = append(deps, depName)
		}
		sort.Strings(deps)
		return deps, nil
	}
	if _, ok := m.inputs[name]; ok {
		return nil, nil
	}
	return nil, fmt.Errorf("node not found: %s", name)
}

// Dependents returns the sorted names of the steps whose most recent trace
// read the given node.
func (m *Model) Dependents(name string) ([]string, error) {
	var dependents map[string]*Step
	switch {
	case m.steps[name] != nil:
		dependents = m.steps[name].dependents
	case m.inputs[name] != nil:
		dependents = m.inputs[name].dependents
	default:
		return nil, fmt.Errorf("node not found: %s", name)
	}

	names := make([]string, 0, len(dependents))
	for depName := range dependents {
		names = append(names, depName)
	}
	sort.Strings(names)
	return names, nil
}

// exists reports whether a name is taken in either namespace half.
func (m *Model) exists(name string) bool {
	if _, ok := m.inputs[name]; ok {
		return true
	}
	_, ok := m.steps[name]
	return ok
}

// registerRead records that the step currently being evaluated, if any,
// read the given node. Outside of an active evaluation it does nothing.
func (m *Model) registerRead(n depNode) {
	top := m.stack.current()
	if top == nil {
		return
	}
	if _, ok := top.deps[n.nodeName()]; ok {
		return
	}
	top.deps[n.nodeName()] = n
	n.dependentSteps()[top.name] = top
}
