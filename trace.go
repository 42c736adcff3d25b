package retrace

// evalStack tracks which steps are currently being evaluated, innermost
// last. Because evaluation is synchronous and single-goroutine per model,
// the stack exactly mirrors the nesting of the running step bodies. It is
// empty whenever no evaluation is in flight.
type evalStack struct {
	frames []*Step
}

// current returns the step whose body is running right now, or nil if no
// evaluation is active. Reads that happen while current is non-nil are
// recorded as dependencies of that step.
func (s *evalStack) current() *Step {
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

// push adds a step to the stack before its body runs. If the step is
// already anywhere on the stack the evaluation is re-entrant, so push
// refuses with a CycleError carrying the full path.
func (s *evalStack) push(st *Step) error {
	for _, frame := range s.frames {
		if frame == st {
			path := make([]string, 0, len(s.frames)+1)
			for _, f := range s.frames {
				path = append(path, f.name)
			}
			return &CycleError{Path: append(path, st.name)}
		}
	}
	s.frames = append(s.frames, st)
	return nil
}

// pop removes the innermost step. Every successful push is matched by
// exactly one pop, on success and failure paths alike.
func (s *evalStack) pop() {
	s.frames = s.frames[:len(s.frames)-1]
}
