package engine

import (
	"errors"
	"fmt"
)

// ErrNotPrivileged means the process lacks the privileges provisioning needs.
var ErrNotPrivileged = errors.New("root privileges required")

// PreconditionError means a step's Check could not be evaluated at all.
// This is distinct from the precondition merely being unsatisfied: the
// system's state is ambiguous and the run must not continue.
type PreconditionError struct {
	StepID StepID
	Err    error
}

// Error returns the formatted error message.
func (e *PreconditionError) Error() string {
	return fmt.Sprintf("step %q: precondition check failed: %v", e.StepID.String(), e.Err)
}

// Unwrap returns the underlying error.
func (e *PreconditionError) Unwrap() error {
	return e.Err
}

// ApplyError means a step's apply action failed. The run halts; state
// recorded for earlier steps is preserved so a re-run resumes at this step.
type ApplyError struct {
	StepID StepID
	Output string // captured output of the failing external command, if any
	Err    error
}

// Error returns the formatted error message.
func (e *ApplyError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("step %q failed: %v: %s", e.StepID.String(), e.Err, e.Output)
	}
	return fmt.Sprintf("step %q failed: %v", e.StepID.String(), e.Err)
}

// Unwrap returns the underlying error.
func (e *ApplyError) Unwrap() error {
	return e.Err
}
