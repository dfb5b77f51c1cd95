package engine

import (
	"time"
)

// StepResult captures the outcome of executing a single step.
type StepResult struct {
	stepID   StepID
	status   StepStatus
	err      error
	duration time.Duration
	applied  bool
}

// NewStepResult creates a new StepResult.
func NewStepResult(stepID StepID, status StepStatus, err error) StepResult {
	return StepResult{
		stepID: stepID,
		status: status,
		err:    err,
	}
}

// StepID returns the ID of the step that was executed.
func (r StepResult) StepID() StepID {
	return r.stepID
}

// Status returns the final status of the step.
func (r StepResult) Status() StepStatus {
	return r.status
}

// Error returns any error that occurred during execution.
func (r StepResult) Error() error {
	return r.err
}

// Duration returns how long the step took to execute.
func (r StepResult) Duration() time.Duration {
	return r.duration
}

// Applied reports whether the step's apply action actually ran, as opposed
// to being skipped because the precondition already held.
func (r StepResult) Applied() bool {
	return r.applied
}

// Success returns true if the step completed successfully.
func (r StepResult) Success() bool {
	return r.status == StatusSatisfied
}

// WithDuration returns a copy with duration set.
func (r StepResult) WithDuration(d time.Duration) StepResult {
	r.duration = d
	return r
}

// WithApplied returns a copy with the applied flag set.
func (r StepResult) WithApplied(applied bool) StepResult {
	r.applied = applied
	return r
}
