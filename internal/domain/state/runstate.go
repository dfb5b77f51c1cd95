// Package state models the persisted provisioning run state.
package state

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// StateVersion is the current state file format version.
const StateVersion = 1

// Status is the persisted completion status of a step.
type Status string

const (
	// StatusPending means the step has not completed yet.
	StatusPending Status = "pending"
	// StatusDone means the step completed successfully in some run.
	StatusDone Status = "done"
	// StatusFailed means the step failed in the most recent run that reached it.
	StatusFailed Status = "failed"
)

// RunState errors.
var (
	ErrEmptyStepID     = errors.New("step id cannot be empty")
	ErrEmptySecretName = errors.New("secret name cannot be empty")
)

// RunState is the aggregate root for provisioning progress.
// It records which steps completed and which secrets were generated, so a
// re-run resumes instead of redoing work or rotating credentials.
type RunState struct {
	version   int
	runID     string
	createdAt time.Time
	updatedAt time.Time
	steps     map[string]Status
	secrets   map[string]string
}

// NewRunState creates an empty RunState with a fresh run id.
func NewRunState() *RunState {
	now := time.Now().UTC()
	return &RunState{
		version:   StateVersion,
		runID:     uuid.NewString(),
		createdAt: now,
		updatedAt: now,
		steps:     make(map[string]Status),
		secrets:   make(map[string]string),
	}
}

// Version returns the state file format version.
func (s *RunState) Version() int {
	return s.version
}

// RunID returns the identifier assigned when the state was first created.
func (s *RunState) RunID() string {
	return s.runID
}

// CreatedAt returns when the state was first created.
func (s *RunState) CreatedAt() time.Time {
	return s.createdAt
}

// UpdatedAt returns when the state was last mutated.
func (s *RunState) UpdatedAt() time.Time {
	return s.updatedAt
}

// StepStatus returns the persisted status for a step id.
// Unknown steps are pending.
func (s *RunState) StepStatus(stepID string) Status {
	if status, ok := s.steps[stepID]; ok {
		return status
	}
	return StatusPending
}

// SetStepStatus records the status for a step id. Recording a status the
// step already has leaves the state untouched, so an idempotent re-run
// produces a byte-identical state file.
func (s *RunState) SetStepStatus(stepID string, status Status) error {
	if stepID == "" {
		return ErrEmptyStepID
	}
	if current, ok := s.steps[stepID]; ok && current == status {
		return nil
	}
	s.steps[stepID] = status
	s.touch()
	return nil
}

// Steps returns a copy of all recorded step statuses.
func (s *RunState) Steps() map[string]Status {
	result := make(map[string]Status, len(s.steps))
	for k, v := range s.steps {
		result[k] = v
	}
	return result
}

// Secret returns a persisted secret value by name.
func (s *RunState) Secret(name string) (string, bool) {
	value, ok := s.secrets[name]
	return value, ok
}

// SetSecret records a secret value. Existing values are never replaced;
// a secret is generated exactly once for the lifetime of the state.
func (s *RunState) SetSecret(name, value string) error {
	if name == "" {
		return ErrEmptySecretName
	}
	if _, exists := s.secrets[name]; exists {
		return nil
	}
	s.secrets[name] = value
	s.touch()
	return nil
}

// SecretNames returns the names of all persisted secrets, without values.
func (s *RunState) SecretNames() []string {
	names := make([]string, 0, len(s.secrets))
	for name := range s.secrets {
		names = append(names, name)
	}
	return names
}

// Done returns true when every given step id is recorded as done.
func (s *RunState) Done(stepIDs ...string) bool {
	for _, id := range stepIDs {
		if s.StepStatus(id) != StatusDone {
			return false
		}
	}
	return true
}

func (s *RunState) touch() {
	s.updatedAt = time.Now().UTC()
}
