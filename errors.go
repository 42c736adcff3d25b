package retrace

import (
	"fmt"
	"strings"
)

// UninitializedInputError is returned when an input slot is read before any
// value was written to it. The model constructor is expected to write every
// input before the first step evaluation.
type UninitializedInputError struct {
	// Input is the name of the slot that was read.
	Input string
}

// Error implements the error interface.
func (e *UninitializedInputError) Error() string {
	return fmt.Sprintf("input %q read before a value was written", e.Input)
}

// CycleError is returned when a step's evaluation attempts to re-enter a
// step that is already on the evaluation stack. It is detected at the
// moment of re-entry, before any part of the offending body runs.
type CycleError struct {
	// Path is the evaluation stack at the time of detection, outermost
	// first, with the re-entered step appended last.
	Path []string
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	offender := ""
	if len(e.Path) > 0 {
		offender = e.Path[len(e.Path)-1]
	}
	return fmt.Sprintf("cycle detected: step %q is already being evaluated (%s)",
		offender, strings.Join(e.Path, " -> "))
}
