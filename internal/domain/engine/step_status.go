package engine

// StepStatus represents the current state of a step within one run.
type StepStatus string

const (
	// StatusSatisfied indicates the step's desired state is already met.
	StatusSatisfied StepStatus = "satisfied"
	// StatusNeedsApply indicates the step needs to be applied.
	StatusNeedsApply StepStatus = "needs-apply"
	// StatusUnknown indicates the step's state could not be determined.
	StatusUnknown StepStatus = "unknown"
	// StatusFailed indicates the step failed during apply.
	StatusFailed StepStatus = "failed"
	// StatusSkipped indicates the step was not reached (a dependency failed
	// or the run halted earlier).
	StatusSkipped StepStatus = "skipped"
)

// String returns the string representation of the status.
func (s StepStatus) String() string {
	return string(s)
}

// NeedsAction returns true if this status requires execution or attention.
func (s StepStatus) NeedsAction() bool {
	switch s {
	case StatusNeedsApply, StatusUnknown, StatusFailed:
		return true
	case StatusSatisfied, StatusSkipped:
		return false
	}
	return false
}
