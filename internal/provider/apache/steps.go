// Package apache provides the web server configuration steps.
package apache

import (
	"fmt"
	"strings"

	"github.com/wpforge/wpforge/internal/domain/engine"
	"github.com/wpforge/wpforge/internal/ports"
)

// ConfigureStep enables mod_rewrite and grants the deployed tree
// AllowOverride All so the application's .htaccess rules take effect.
type ConfigureStep struct {
	id        engine.StepID
	targetDir string
	vhostPath string
	runner    ports.CommandRunner
	fs        ports.FileSystem
}

// NewConfigureStep creates a new ConfigureStep.
func NewConfigureStep(targetDir, vhostPath string, runner ports.CommandRunner, fs ports.FileSystem) *ConfigureStep {
	return &ConfigureStep{
		id:        engine.MustNewStepID("apache:configure"),
		targetDir: targetDir,
		vhostPath: vhostPath,
		runner:    runner,
		fs:        fs,
	}
}

// ID returns the step identifier.
func (s *ConfigureStep) ID() engine.StepID {
	return s.id
}

// Description returns a human-readable summary.
func (s *ConfigureStep) Description() string {
	return "Enable mod_rewrite and allow .htaccess overrides for the site"
}

// DependsOn returns the step dependencies.
func (s *ConfigureStep) DependsOn() []engine.StepID {
	return []engine.StepID{engine.MustNewStepID("apt:install")}
}

// Check is satisfied when the rewrite module is loaded and the vhost's
// Directory block already grants the override.
func (s *ConfigureStep) Check(ctx engine.RunContext) (engine.StepStatus, error) {
	result, err := s.runner.Run(ctx.Context(), "apache2ctl", "-M")
	if err != nil {
		return engine.StatusUnknown, err
	}
	if !result.Success() || !strings.Contains(result.Stdout, "rewrite_module") {
		return engine.StatusNeedsApply, nil
	}

	data, err := s.fs.ReadFile(s.vhostPath)
	if err != nil {
		return engine.StatusNeedsApply, nil
	}

	if DirectoryHasOverride(string(data), s.targetDir) {
		return engine.StatusSatisfied, nil
	}
	return engine.StatusNeedsApply, nil
}

// Apply enables the module and patches the vhost.
func (s *ConfigureStep) Apply(ctx engine.RunContext) error {
	result, err := s.runner.Run(ctx.Context(), "a2enmod", "rewrite")
	if err != nil {
		return err
	}
	if !result.Success() {
		return fmt.Errorf("a2enmod rewrite exited %d: %s", result.ExitCode, strings.TrimSpace(result.Stderr))
	}

	data, err := s.fs.ReadFile(s.vhostPath)
	if err != nil {
		return fmt.Errorf("read vhost %s: %w", s.vhostPath, err)
	}

	patched, changed := EnsureDirectoryOverride(string(data), s.targetDir)
	if !changed {
		return nil
	}

	if err := s.fs.WriteFile(s.vhostPath, []byte(patched), 0o644); err != nil {
		return fmt.Errorf("write vhost %s: %w", s.vhostPath, err)
	}
	return nil
}

// RestartStep restarts the web server so configuration and module changes
// take effect. It runs once per provisioning run and re-arms whenever an
// upstream step re-applies.
type RestartStep struct {
	id      engine.StepID
	service string
	runner  ports.CommandRunner
}

// NewRestartStep creates a new RestartStep.
func NewRestartStep(service string, runner ports.CommandRunner) *RestartStep {
	return &RestartStep{
		id:      engine.MustNewStepID("apache:restart"),
		service: service,
		runner:  runner,
	}
}

// ID returns the step identifier.
func (s *RestartStep) ID() engine.StepID {
	return s.id
}

// Description returns a human-readable summary.
func (s *RestartStep) Description() string {
	return fmt.Sprintf("Restart the %s service", s.service)
}

// DependsOn returns the step dependencies.
func (s *RestartStep) DependsOn() []engine.StepID {
	return []engine.StepID{
		engine.MustNewStepID("wordpress:config"),
		engine.MustNewStepID("wordpress:permissions"),
		engine.MustNewStepID("apache:configure"),
	}
}

// Check always wants to apply: a restart is cheap and the step only runs
// when it is not yet recorded done or an upstream step changed something.
func (s *RestartStep) Check(_ engine.RunContext) (engine.StepStatus, error) {
	return engine.StatusNeedsApply, nil
}

// Apply restarts the service.
func (s *RestartStep) Apply(ctx engine.RunContext) error {
	result, err := s.runner.Run(ctx.Context(), "systemctl", "restart", s.service)
	if err != nil {
		return err
	}
	if !result.Success() {
		return fmt.Errorf("systemctl restart %s exited %d: %s", s.service, result.ExitCode, strings.TrimSpace(result.Stderr))
	}
	return nil
}

// Compile-time interface checks.
var (
	_ engine.Step = (*ConfigureStep)(nil)
	_ engine.Step = (*RestartStep)(nil)
)
