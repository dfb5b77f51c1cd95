package engine

import (
	"fmt"
	"time"

	"github.com/wpforge/wpforge/internal/domain/state"
)

// Executor runs steps from a Plan in order, fail-fast at step granularity.
//
// Completion is recorded in the run state and persisted after every step,
// so a halted run resumes instead of restarting: steps already done are
// skipped and the failed step is retried on the next invocation.
type Executor struct {
	dryRun bool
}

// NewExecutor creates a new Executor.
func NewExecutor() *Executor {
	return &Executor{}
}

// WithDryRun returns an Executor that simulates execution without applying.
func (e *Executor) WithDryRun(dryRun bool) *Executor {
	return &Executor{dryRun: dryRun}
}

// Execute runs all plan entries in order. persist is called after every
// state mutation so an interrupt loses at most the current step.
//
// An entry satisfied only by persisted state is re-checked live when one of
// its dependencies re-applied during this run: the recorded effect may be
// stale. The re-check keeps non-clobber semantics: a step whose live
// precondition still holds is not re-applied.
func (e *Executor) Execute(runCtx RunContext, plan *Plan, persist func() error) (*Report, error) {
	runCtx = runCtx.WithDryRun(e.dryRun)
	report := NewReport()
	applied := make(map[string]bool)
	entries := plan.Entries()

	for i, entry := range entries {
		select {
		case <-runCtx.Context().Done():
			return report, runCtx.Context().Err()
		default:
		}

		step := entry.Step()
		stepID := step.ID()
		status := entry.Status()

		if entry.FromState() && !e.dryRun && dependencyApplied(step, applied) {
			rechecked, err := step.Check(runCtx)
			if err != nil {
				return report, &PreconditionError{StepID: stepID, Err: err}
			}
			status = rechecked
		}

		if status == StatusSatisfied {
			if !e.dryRun {
				if err := e.record(runCtx, stepID, state.StatusDone, persist); err != nil {
					return report, err
				}
			}
			report.Add(NewStepResult(stepID, StatusSatisfied, nil))
			continue
		}

		if e.dryRun {
			report.Add(NewStepResult(stepID, StatusNeedsApply, nil))
			continue
		}

		start := time.Now()
		err := step.Apply(runCtx)
		duration := time.Since(start)

		if err != nil {
			if recordErr := e.record(runCtx, stepID, state.StatusFailed, persist); recordErr != nil {
				return report, recordErr
			}
			applyErr := asApplyError(stepID, err)
			report.Add(NewStepResult(stepID, StatusFailed, applyErr).WithDuration(duration))
			// Entries after the failure never run; their state stays
			// pending so the next run picks them up.
			for _, rest := range entries[i+1:] {
				report.Add(NewStepResult(rest.Step().ID(), StatusSkipped, nil))
			}
			return report, applyErr
		}

		if err := e.record(runCtx, stepID, state.StatusDone, persist); err != nil {
			return report, err
		}
		applied[stepID.String()] = true
		report.Add(NewStepResult(stepID, StatusSatisfied, nil).
			WithDuration(duration).
			WithApplied(true))
	}

	return report, nil
}

func (e *Executor) record(runCtx RunContext, stepID StepID, status state.Status, persist func() error) error {
	if err := runCtx.State().SetStepStatus(stepID.String(), status); err != nil {
		return err
	}
	if persist == nil {
		return nil
	}
	if err := persist(); err != nil {
		return fmt.Errorf("persist state after step %q: %w", stepID.String(), err)
	}
	return nil
}

func dependencyApplied(step Step, applied map[string]bool) bool {
	for _, dep := range step.DependsOn() {
		if applied[dep.String()] {
			return true
		}
	}
	return false
}

func asApplyError(stepID StepID, err error) *ApplyError {
	if applyErr, ok := err.(*ApplyError); ok {
		return applyErr
	}
	return &ApplyError{StepID: stepID, Err: err}
}
