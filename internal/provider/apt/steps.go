// Package apt provides the package installation steps.
package apt

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wpforge/wpforge/internal/domain/engine"
	"github.com/wpforge/wpforge/internal/ports"
)

// pkgCachePath is apt's package index cache; its mtime tells us when the
// index was last refreshed.
const pkgCachePath = "/var/cache/apt/pkgcache.bin"

// UpdateStep refreshes the package index and upgrades installed packages.
type UpdateStep struct {
	id        engine.StepID
	freshness time.Duration
	runner    ports.CommandRunner
	fs        ports.FileSystem
}

// NewUpdateStep creates a new UpdateStep.
func NewUpdateStep(freshness time.Duration, runner ports.CommandRunner, fs ports.FileSystem) *UpdateStep {
	return &UpdateStep{
		id:        engine.MustNewStepID("apt:update"),
		freshness: freshness,
		runner:    runner,
		fs:        fs,
	}
}

// ID returns the step identifier.
func (s *UpdateStep) ID() engine.StepID {
	return s.id
}

// Description returns a human-readable summary.
func (s *UpdateStep) Description() string {
	return "Refresh package index and upgrade installed packages"
}

// DependsOn returns the step dependencies.
func (s *UpdateStep) DependsOn() []engine.StepID {
	return nil
}

// Check is satisfied when the package index was refreshed recently enough.
func (s *UpdateStep) Check(_ engine.RunContext) (engine.StepStatus, error) {
	info, err := s.fs.GetFileInfo(pkgCachePath)
	if err != nil {
		return engine.StatusNeedsApply, nil
	}

	if time.Since(info.ModTime) < s.freshness {
		return engine.StatusSatisfied, nil
	}
	return engine.StatusNeedsApply, nil
}

// Apply refreshes the index and upgrades.
func (s *UpdateStep) Apply(ctx engine.RunContext) error {
	if result, err := s.runner.Run(ctx.Context(), "apt-get", "update"); err != nil {
		return err
	} else if !result.Success() {
		return &engine.ApplyError{StepID: s.id, Output: result.Stderr, Err: fmt.Errorf("apt-get update exited %d", result.ExitCode)}
	}

	result, err := s.runner.Run(ctx.Context(), "apt-get", "-y", "upgrade")
	if err != nil {
		return err
	}
	if !result.Success() {
		return &engine.ApplyError{StepID: s.id, Output: result.Stderr, Err: fmt.Errorf("apt-get upgrade exited %d", result.ExitCode)}
	}
	return nil
}

// InstallStep installs the required packages, limiting the install to the
// subset not already present.
type InstallStep struct {
	id       engine.StepID
	packages []string
	runner   ports.CommandRunner
}

// NewInstallStep creates a new InstallStep.
func NewInstallStep(packages []string, runner ports.CommandRunner) *InstallStep {
	return &InstallStep{
		id:       engine.MustNewStepID("apt:install"),
		packages: packages,
		runner:   runner,
	}
}

// ID returns the step identifier.
func (s *InstallStep) ID() engine.StepID {
	return s.id
}

// Description returns a human-readable summary.
func (s *InstallStep) Description() string {
	return fmt.Sprintf("Install %d required packages", len(s.packages))
}

// DependsOn returns the step dependencies.
func (s *InstallStep) DependsOn() []engine.StepID {
	return []engine.StepID{engine.MustNewStepID("apt:update")}
}

// Check is satisfied when every required package is installed.
func (s *InstallStep) Check(ctx engine.RunContext) (engine.StepStatus, error) {
	missing, err := s.missing(ctx.Context())
	if err != nil {
		return engine.StatusUnknown, err
	}
	if len(missing) == 0 {
		return engine.StatusSatisfied, nil
	}
	return engine.StatusNeedsApply, nil
}

// Apply installs only the packages that are missing. Recomputing the
// missing set here keeps the step safe to re-run after a partial install.
func (s *InstallStep) Apply(ctx engine.RunContext) error {
	missing, err := s.missing(ctx.Context())
	if err != nil {
		return err
	}
	if len(missing) == 0 {
		return nil
	}

	args := append([]string{"install", "-y"}, missing...)
	result, err := s.runner.Run(ctx.Context(), "apt-get", args...)
	if err != nil {
		return err
	}
	if !result.Success() {
		return &engine.ApplyError{
			StepID: s.id,
			Output: result.Stderr,
			Err:    fmt.Errorf("apt-get install exited %d", result.ExitCode),
		}
	}
	return nil
}

// missing returns the packages whose dpkg status is not "installed".
func (s *InstallStep) missing(ctx context.Context) ([]string, error) {
	missing := make([]string, 0, len(s.packages))

	for _, pkg := range s.packages {
		result, err := s.runner.Run(ctx, "dpkg-query", "-W", "-f=${db:Status-Status}", pkg)
		if err != nil {
			return nil, err
		}
		if !result.Success() || strings.TrimSpace(result.Stdout) != "installed" {
			missing = append(missing, pkg)
		}
	}

	return missing, nil
}

// Compile-time interface checks.
var (
	_ engine.Step = (*UpdateStep)(nil)
	_ engine.Step = (*InstallStep)(nil)
)
