// Package engine orders and executes idempotent provisioning steps.
package engine

// Step is an idempotent unit of provisioning work.
// Check evaluates the precondition ("is the effect already in place?");
// Apply performs the effect. Apply must be safe to re-run even after a
// partial earlier execution, since an interrupted run re-attempts the step.
type Step interface {
	// ID returns the unique, run-stable identifier for this step.
	ID() StepID

	// Description returns a short human-readable summary of the step.
	Description() string

	// DependsOn returns the IDs of steps that must complete before this one.
	DependsOn() []StepID

	// Check determines the current status of this step.
	// Returns StatusSatisfied if no action is needed, StatusNeedsApply if
	// the apply action must run. An error means the check itself could not
	// be evaluated, which is distinct from "unsatisfied".
	Check(ctx RunContext) (StepStatus, error)

	// Apply executes the step's effect. It must be idempotent.
	Apply(ctx RunContext) error
}
