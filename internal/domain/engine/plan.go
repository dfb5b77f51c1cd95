package engine

// PlanEntry is a single step's planned execution.
type PlanEntry struct {
	step      Step
	status    StepStatus
	fromState bool
}

// NewPlanEntry creates a new PlanEntry.
func NewPlanEntry(step Step, status StepStatus, fromState bool) PlanEntry {
	return PlanEntry{
		step:      step,
		status:    status,
		fromState: fromState,
	}
}

// Step returns the step to be executed.
func (e PlanEntry) Step() Step {
	return e.step
}

// Status returns the planned status of the step.
func (e PlanEntry) Status() StepStatus {
	return e.status
}

// FromState reports whether the step was deemed satisfied because the
// persisted state already records it as done, rather than by a live check.
func (e PlanEntry) FromState() bool {
	return e.fromState
}

// PlanSummary provides aggregate statistics about a plan.
type PlanSummary struct {
	Total      int
	NeedsApply int
	Satisfied  int
}

// Plan is the ordered set of step executions for one run.
type Plan struct {
	entries []PlanEntry
}

// NewPlan creates an empty Plan.
func NewPlan() *Plan {
	return &Plan{entries: make([]PlanEntry, 0)}
}

// Add appends a plan entry.
func (p *Plan) Add(entry PlanEntry) {
	p.entries = append(p.entries, entry)
}

// Len returns the number of entries.
func (p *Plan) Len() int {
	return len(p.entries)
}

// Entries returns all plan entries in execution order.
func (p *Plan) Entries() []PlanEntry {
	return p.entries
}

// HasChanges returns true if any steps need to be applied.
func (p *Plan) HasChanges() bool {
	for _, e := range p.entries {
		if e.status == StatusNeedsApply {
			return true
		}
	}
	return false
}

// Summary returns aggregate statistics.
func (p *Plan) Summary() PlanSummary {
	summary := PlanSummary{Total: len(p.entries)}
	for _, e := range p.entries {
		switch e.status {
		case StatusNeedsApply:
			summary.NeedsApply++
		case StatusSatisfied:
			summary.Satisfied++
		}
	}
	return summary
}
