package engine

import (
	"fmt"

	"github.com/wpforge/wpforge/internal/domain/state"
)

// Planner generates a Plan from a StepGraph.
// A step recorded as done in the persisted state is satisfied without a
// live check; everything else has its precondition evaluated.
type Planner struct{}

// NewPlanner creates a new Planner.
func NewPlanner() *Planner {
	return &Planner{}
}

// Plan orders the graph topologically and checks each step's status.
func (p *Planner) Plan(runCtx RunContext, graph *StepGraph) (*Plan, error) {
	if err := graph.Validate(); err != nil {
		return nil, fmt.Errorf("invalid step graph: %w", err)
	}

	steps, err := graph.TopologicalSort()
	if err != nil {
		return nil, fmt.Errorf("failed to sort steps: %w", err)
	}

	plan := NewPlan()

	for _, step := range steps {
		if runCtx.State().StepStatus(step.ID().String()) == state.StatusDone {
			plan.Add(NewPlanEntry(step, StatusSatisfied, true))
			continue
		}

		status, err := step.Check(runCtx)
		if err != nil {
			return nil, &PreconditionError{StepID: step.ID(), Err: err}
		}

		plan.Add(NewPlanEntry(step, status, false))
	}

	return plan, nil
}
