package staterepo

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wpforge/wpforge/internal/domain/state"
)

func TestYAMLRepository_SaveAndLoad(t *testing.T) {
	t.Parallel()

	repo := NewYAMLRepository()
	path := filepath.Join(t.TempDir(), "state.yaml")

	runState := state.NewRunState()
	require.NoError(t, runState.SetStepStatus("apt:update", state.StatusDone))
	require.NoError(t, runState.SetSecret("db_password", "hunter2hunter2"))

	require.NoError(t, repo.Save(context.Background(), path, runState))

	loaded, err := repo.Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, runState.RunID(), loaded.RunID())
	assert.Equal(t, state.StatusDone, loaded.StepStatus("apt:update"))

	value, ok := loaded.Secret("db_password")
	require.True(t, ok)
	assert.Equal(t, "hunter2hunter2", value)
}

func TestYAMLRepository_SaveCreatesParentDirs(t *testing.T) {
	t.Parallel()

	repo := NewYAMLRepository()
	path := filepath.Join(t.TempDir(), "var", "lib", "wpforge", "state.yaml")

	require.NoError(t, repo.Save(context.Background(), path, state.NewRunState()))
	assert.True(t, repo.Exists(context.Background(), path))
}

func TestYAMLRepository_SaveFileMode(t *testing.T) {
	t.Parallel()

	repo := NewYAMLRepository()
	path := filepath.Join(t.TempDir(), "state.yaml")

	require.NoError(t, repo.Save(context.Background(), path, state.NewRunState()))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm(), "state file holds credentials")
}

func TestYAMLRepository_SaveLeavesNoTempFile(t *testing.T) {
	t.Parallel()

	repo := NewYAMLRepository()
	dir := t.TempDir()
	path := filepath.Join(dir, "state.yaml")

	require.NoError(t, repo.Save(context.Background(), path, state.NewRunState()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "state.yaml", entries[0].Name())
}

func TestYAMLRepository_LoadNotFound(t *testing.T) {
	t.Parallel()

	repo := NewYAMLRepository()
	path := filepath.Join(t.TempDir(), "missing.yaml")

	_, err := repo.Load(context.Background(), path)
	assert.ErrorIs(t, err, state.ErrStateNotFound)
}

func TestYAMLRepository_LoadCorrupt(t *testing.T) {
	t.Parallel()

	repo := NewYAMLRepository()
	dir := t.TempDir()

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(dir, "garbage.yaml")
		require.NoError(t, os.WriteFile(path, []byte("{{{not yaml"), 0o600))

		_, err := repo.Load(context.Background(), path)
		assert.ErrorIs(t, err, state.ErrStateCorrupt)
	})

	t.Run("valid yaml, invalid state", func(t *testing.T) {
		path := filepath.Join(dir, "invalid.yaml")
		require.NoError(t, os.WriteFile(path, []byte("version: 1\n"), 0o600))

		_, err := repo.Load(context.Background(), path)
		assert.ErrorIs(t, err, state.ErrStateCorrupt)
	})
}

func TestYAMLRepository_Delete(t *testing.T) {
	t.Parallel()

	repo := NewYAMLRepository()
	path := filepath.Join(t.TempDir(), "state.yaml")

	require.NoError(t, repo.Save(context.Background(), path, state.NewRunState()))
	require.NoError(t, repo.Delete(context.Background(), path))
	assert.False(t, repo.Exists(context.Background(), path))

	err := repo.Delete(context.Background(), path)
	assert.ErrorIs(t, err, state.ErrStateNotFound)
}

func TestYAMLRepository_IdempotentSaveIsStable(t *testing.T) {
	t.Parallel()

	repo := NewYAMLRepository()
	path := filepath.Join(t.TempDir(), "state.yaml")

	runState := state.NewRunState()
	require.NoError(t, runState.SetStepStatus("apt:update", state.StatusDone))
	require.NoError(t, repo.Save(context.Background(), path, runState))

	first, err := os.ReadFile(path)
	require.NoError(t, err)

	// Re-recording the same outcome and saving again changes nothing.
	require.NoError(t, runState.SetStepStatus("apt:update", state.StatusDone))
	require.NoError(t, repo.Save(context.Background(), path, runState))

	second, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}
