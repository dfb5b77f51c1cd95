package wordpress

import (
	"fmt"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/wpforge/wpforge/internal/domain/engine"
	"github.com/wpforge/wpforge/internal/ports"
)

// PermissionsStep normalizes ownership and mode bits on the deployed tree:
// directories 755, files 644, everything owned by the web user.
type PermissionsStep struct {
	id        engine.StepID
	targetDir string
	webUser   string
	webGroup  string
	runner    ports.CommandRunner
	fs        ports.FileSystem
}

// NewPermissionsStep creates a new PermissionsStep.
func NewPermissionsStep(targetDir, webUser, webGroup string, runner ports.CommandRunner, fs ports.FileSystem) *PermissionsStep {
	return &PermissionsStep{
		id:        engine.MustNewStepID("wordpress:permissions"),
		targetDir: targetDir,
		webUser:   webUser,
		webGroup:  webGroup,
		runner:    runner,
		fs:        fs,
	}
}

// ID returns the step identifier.
func (s *PermissionsStep) ID() engine.StepID {
	return s.id
}

// Description returns a human-readable summary.
func (s *PermissionsStep) Description() string {
	return fmt.Sprintf("Set ownership and modes on %s", s.targetDir)
}

// DependsOn returns the step dependencies.
func (s *PermissionsStep) DependsOn() []engine.StepID {
	return []engine.StepID{
		engine.MustNewStepID("wordpress:deploy"),
		engine.MustNewStepID("wordpress:config"),
	}
}

// Check spot-checks the target directory's ownership and mode. A full
// recursive audit would cost as much as the apply, so the root of the tree
// stands in for the rest.
func (s *PermissionsStep) Check(_ engine.RunContext) (engine.StepStatus, error) {
	info, err := s.fs.GetFileInfo(s.targetDir)
	if err != nil {
		return engine.StatusNeedsApply, nil //nolint:nilerr // missing target means apply
	}

	uid, gid, err := s.lookupWebUser()
	if err != nil {
		return engine.StatusUnknown, err
	}

	if info.UID == uid && info.GID == gid && info.Mode.Perm() == 0o755 {
		return engine.StatusSatisfied, nil
	}
	return engine.StatusNeedsApply, nil
}

// Apply recursively sets ownership and normalizes directory/file modes.
func (s *PermissionsStep) Apply(ctx engine.RunContext) error {
	commands := [][]string{
		{"chown", "-R", s.webUser + ":" + s.webGroup, s.targetDir},
		{"find", s.targetDir, "-type", "d", "-exec", "chmod", "755", "{}", ";"},
		{"find", s.targetDir, "-type", "f", "-exec", "chmod", "644", "{}", ";"},
		// The config holds credentials; keep it out of world-readable.
		{"chmod", "640", filepath.Join(s.targetDir, configFile)},
	}

	for _, argv := range commands {
		result, err := s.runner.Run(ctx.Context(), argv[0], argv[1:]...)
		if err != nil {
			return err
		}
		if !result.Success() {
			return fmt.Errorf("%s exited %d: %s", argv[0], result.ExitCode, strings.TrimSpace(result.Stderr))
		}
	}

	return nil
}

func (s *PermissionsStep) lookupWebUser() (uid, gid int, err error) {
	u, err := user.Lookup(s.webUser)
	if err != nil {
		return 0, 0, fmt.Errorf("lookup user %q: %w", s.webUser, err)
	}
	g, err := user.LookupGroup(s.webGroup)
	if err != nil {
		return 0, 0, fmt.Errorf("lookup group %q: %w", s.webGroup, err)
	}

	uid, err = strconv.Atoi(u.Uid)
	if err != nil {
		return 0, 0, fmt.Errorf("parse uid %q: %w", u.Uid, err)
	}
	gid, err = strconv.Atoi(g.Gid)
	if err != nil {
		return 0, 0, fmt.Errorf("parse gid %q: %w", g.Gid, err)
	}
	return uid, gid, nil
}

// Ensure PermissionsStep implements engine.Step.
var _ engine.Step = (*PermissionsStep)(nil)
