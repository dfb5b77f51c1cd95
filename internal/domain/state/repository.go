package state

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Repository errors.
var (
	ErrStateNotFound = errors.New("state file not found")
	ErrStateCorrupt  = errors.New("state file is corrupt")
	ErrSaveFailed    = errors.New("failed to save state file")
)

// Repository is the port for run state persistence.
// Implementations handle the actual file I/O and serialization.
type Repository interface {
	// Load reads the run state from the given path.
	// Returns ErrStateNotFound if the file doesn't exist.
	// Returns ErrStateCorrupt if the file exists but is invalid.
	Load(ctx context.Context, path string) (*RunState, error)

	// Save writes the run state to the given path atomically.
	Save(ctx context.Context, path string, runState *RunState) error

	// Exists returns true if a state file exists at the given path.
	Exists(ctx context.Context, path string) bool

	// Delete removes the state file at the given path.
	Delete(ctx context.Context, path string) error
}

// RunStateDTO is a data transfer object for state serialization.
// The persisted form is plain YAML so an operator can audit it.
type RunStateDTO struct {
	Version   int               `yaml:"version"`
	RunID     string            `yaml:"run_id"`
	CreatedAt string            `yaml:"created_at"` // RFC3339
	UpdatedAt string            `yaml:"updated_at"` // RFC3339
	Steps     map[string]string `yaml:"steps,omitempty"`
	Secrets   map[string]string `yaml:"secrets,omitempty"`
}

// ToDTO converts a RunState to its serializable representation.
func ToDTO(s *RunState) RunStateDTO {
	dto := RunStateDTO{
		Version:   s.Version(),
		RunID:     s.RunID(),
		CreatedAt: s.CreatedAt().Format(time.RFC3339),
		UpdatedAt: s.UpdatedAt().Format(time.RFC3339),
		Steps:     make(map[string]string),
		Secrets:   make(map[string]string),
	}

	for id, status := range s.Steps() {
		dto.Steps[id] = string(status)
	}
	for _, name := range s.SecretNames() {
		value, _ := s.Secret(name)
		dto.Secrets[name] = value
	}

	return dto
}

// FromDTO reconstructs a RunState from its serialized representation.
func FromDTO(dto RunStateDTO) (*RunState, error) {
	if dto.RunID == "" {
		return nil, fmt.Errorf("missing run_id")
	}

	createdAt, err := time.Parse(time.RFC3339, dto.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid created_at: %w", err)
	}
	updatedAt, err := time.Parse(time.RFC3339, dto.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid updated_at: %w", err)
	}

	s := &RunState{
		version:   dto.Version,
		runID:     dto.RunID,
		createdAt: createdAt,
		updatedAt: updatedAt,
		steps:     make(map[string]Status, len(dto.Steps)),
		secrets:   make(map[string]string, len(dto.Secrets)),
	}

	for id, raw := range dto.Steps {
		status := Status(raw)
		switch status {
		case StatusPending, StatusDone, StatusFailed:
			s.steps[id] = status
		default:
			return nil, fmt.Errorf("unknown step status %q for step %q", raw, id)
		}
	}
	for name, value := range dto.Secrets {
		s.secrets[name] = value
	}

	return s, nil
}
