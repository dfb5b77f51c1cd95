package engine

import (
	"time"

	"github.com/google/uuid"
)

// Report is the ordered log of step outcomes for one run.
// It is produced fresh each run and never persisted.
type Report struct {
	id        string
	startedAt time.Time
	results   []StepResult
}

// NewReport creates an empty Report for a run starting now.
func NewReport() *Report {
	return &Report{
		id:        uuid.NewString(),
		startedAt: time.Now(),
		results:   make([]StepResult, 0),
	}
}

// ID returns the report's unique identifier.
func (r *Report) ID() string {
	return r.id
}

// StartedAt returns when the run started.
func (r *Report) StartedAt() time.Time {
	return r.startedAt
}

// Add appends a step result.
func (r *Report) Add(result StepResult) {
	r.results = append(r.results, result)
}

// Results returns all step results in execution order.
func (r *Report) Results() []StepResult {
	return r.results
}

// AppliedCount returns how many apply actions actually ran.
func (r *Report) AppliedCount() int {
	count := 0
	for _, res := range r.results {
		if res.Applied() {
			count++
		}
	}
	return count
}

// Failed returns the first failed result, if any.
func (r *Report) Failed() (StepResult, bool) {
	for _, res := range r.results {
		if res.Status() == StatusFailed {
			return res, true
		}
	}
	return StepResult{}, false
}

// Succeeded returns true when no step failed.
func (r *Report) Succeeded() bool {
	_, failed := r.Failed()
	return !failed
}
