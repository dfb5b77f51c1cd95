// Package staterepo provides adapters for run state persistence.
package staterepo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/wpforge/wpforge/internal/domain/state"
)

// YAMLRepository implements state.Repository using YAML files.
type YAMLRepository struct{}

// NewYAMLRepository creates a new YAML-based state repository.
func NewYAMLRepository() *YAMLRepository {
	return &YAMLRepository{}
}

// Load reads the run state from the given path.
func (r *YAMLRepository) Load(_ context.Context, path string) (*state.RunState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, state.ErrStateNotFound
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var dto state.RunStateDTO
	if err := yaml.Unmarshal(data, &dto); err != nil {
		return nil, fmt.Errorf("%w: %w", state.ErrStateCorrupt, err)
	}

	runState, err := state.FromDTO(dto)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", state.ErrStateCorrupt, err)
	}

	return runState, nil
}

// Save writes the run state to the given path.
// The write is atomic (temp file then rename) so an interrupted run cannot
// leave a torn state file. Mode 0600: the file holds credentials.
func (r *YAMLRepository) Save(_ context.Context, path string, runState *state.RunState) error {
	dto := state.ToDTO(runState)

	data, err := yaml.Marshal(&dto)
	if err != nil {
		return fmt.Errorf("%w: %w", state.ErrSaveFailed, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: failed to create directory: %w", state.ErrSaveFailed, err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("%w: %w", state.ErrSaveFailed, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: %w", state.ErrSaveFailed, err)
	}

	return nil
}

// Exists returns true if a state file exists at the given path.
func (r *YAMLRepository) Exists(_ context.Context, path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Delete removes the state file at the given path.
func (r *YAMLRepository) Delete(_ context.Context, path string) error {
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return state.ErrStateNotFound
		}
		return err
	}
	return nil
}

// Ensure YAMLRepository implements state.Repository.
var _ state.Repository = (*YAMLRepository)(nil)
