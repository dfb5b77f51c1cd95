package apache

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wpforge/wpforge/internal/domain/engine"
	"github.com/wpforge/wpforge/internal/domain/state"
	"github.com/wpforge/wpforge/internal/ports"
	"github.com/wpforge/wpforge/internal/testutil/mocks"
)

const vhostPath = "/etc/apache2/sites-available/000-default.conf"

func testRunContext() engine.RunContext {
	return engine.NewRunContext(context.Background(), state.NewRunState())
}

func rewriteLoaded(runner *mocks.CommandRunner) {
	runner.AddResult("apache2ctl", []string{"-M"}, ports.CommandResult{
		ExitCode: 0,
		Stdout:   "Loaded Modules:\n mpm_prefork_module (shared)\n rewrite_module (shared)\n",
	})
}

func rewriteMissing(runner *mocks.CommandRunner) {
	runner.AddResult("apache2ctl", []string{"-M"}, ports.CommandResult{
		ExitCode: 0,
		Stdout:   "Loaded Modules:\n mpm_prefork_module (shared)\n",
	})
}

func TestConfigureStep_Check(t *testing.T) {
	t.Parallel()

	t.Run("module loaded and override granted is satisfied", func(t *testing.T) {
		t.Parallel()
		runner := mocks.NewCommandRunner()
		rewriteLoaded(runner)

		fs := mocks.NewFileSystem()
		fs.AddFile(vhostPath, "<Directory /var/www/wordpress>\n\tAllowOverride All\n</Directory>\n")

		step := NewConfigureStep(siteDir, vhostPath, runner, fs)
		status, err := step.Check(testRunContext())
		require.NoError(t, err)
		assert.Equal(t, engine.StatusSatisfied, status)
	})

	t.Run("module missing needs apply", func(t *testing.T) {
		t.Parallel()
		runner := mocks.NewCommandRunner()
		rewriteMissing(runner)

		step := NewConfigureStep(siteDir, vhostPath, runner, mocks.NewFileSystem())
		status, err := step.Check(testRunContext())
		require.NoError(t, err)
		assert.Equal(t, engine.StatusNeedsApply, status)
	})

	t.Run("override not granted needs apply", func(t *testing.T) {
		t.Parallel()
		runner := mocks.NewCommandRunner()
		rewriteLoaded(runner)

		fs := mocks.NewFileSystem()
		fs.AddFile(vhostPath, stockVhost)

		step := NewConfigureStep(siteDir, vhostPath, runner, fs)
		status, err := step.Check(testRunContext())
		require.NoError(t, err)
		assert.Equal(t, engine.StatusNeedsApply, status)
	})

	t.Run("apache2ctl failure is a check error", func(t *testing.T) {
		t.Parallel()
		runner := mocks.NewCommandRunner()
		runner.AddError("apache2ctl", []string{"-M"}, errors.New("apache2ctl: not found"))

		step := NewConfigureStep(siteDir, vhostPath, runner, mocks.NewFileSystem())
		status, err := step.Check(testRunContext())
		assert.Error(t, err)
		assert.Equal(t, engine.StatusUnknown, status)
	})
}

func TestConfigureStep_Apply(t *testing.T) {
	t.Parallel()

	runner := mocks.NewCommandRunner()
	runner.AddResult("a2enmod", []string{"rewrite"}, ports.CommandResult{ExitCode: 0})

	fs := mocks.NewFileSystem()
	fs.AddFile(vhostPath, stockVhost)

	step := NewConfigureStep(siteDir, vhostPath, runner, fs)
	require.NoError(t, step.Apply(testRunContext()))

	assert.True(t, runner.CalledWith("a2enmod", "rewrite"))

	data, err := fs.ReadFile(vhostPath)
	require.NoError(t, err)
	assert.True(t, DirectoryHasOverride(string(data), siteDir))
}

func TestConfigureStep_Apply_AlreadyPatchedVhostUntouched(t *testing.T) {
	t.Parallel()

	patched, _ := EnsureDirectoryOverride(stockVhost, siteDir)

	runner := mocks.NewCommandRunner()
	runner.AddResult("a2enmod", []string{"rewrite"}, ports.CommandResult{ExitCode: 0})

	fs := mocks.NewFileSystem()
	fs.AddFile(vhostPath, patched)
	fs.FailWrites(errors.New("write should not happen"))

	step := NewConfigureStep(siteDir, vhostPath, runner, fs)
	assert.NoError(t, step.Apply(testRunContext()))
}

func TestConfigureStep_Apply_EnmodFailure(t *testing.T) {
	t.Parallel()

	runner := mocks.NewCommandRunner()
	runner.AddResult("a2enmod", []string{"rewrite"}, ports.CommandResult{
		ExitCode: 1,
		Stderr:   "ERROR: Module rewrite does not exist!",
	})

	step := NewConfigureStep(siteDir, vhostPath, runner, mocks.NewFileSystem())
	err := step.Apply(testRunContext())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "a2enmod rewrite exited 1")
}

func TestRestartStep_CheckAlwaysApplies(t *testing.T) {
	t.Parallel()

	step := NewRestartStep("apache2", mocks.NewCommandRunner())
	status, err := step.Check(testRunContext())
	require.NoError(t, err)
	assert.Equal(t, engine.StatusNeedsApply, status)
}

func TestRestartStep_Apply(t *testing.T) {
	t.Parallel()

	t.Run("restarts the service", func(t *testing.T) {
		t.Parallel()
		runner := mocks.NewCommandRunner()
		runner.AddResult("systemctl", []string{"restart", "apache2"}, ports.CommandResult{ExitCode: 0})

		step := NewRestartStep("apache2", runner)
		require.NoError(t, step.Apply(testRunContext()))
		assert.True(t, runner.CalledWith("systemctl", "restart", "apache2"))
	})

	t.Run("failure surfaces stderr", func(t *testing.T) {
		t.Parallel()
		runner := mocks.NewCommandRunner()
		runner.AddResult("systemctl", []string{"restart", "apache2"}, ports.CommandResult{
			ExitCode: 1,
			Stderr:   "Job for apache2.service failed",
		})

		step := NewRestartStep("apache2", runner)
		err := step.Apply(testRunContext())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "apache2.service failed")
	})
}
