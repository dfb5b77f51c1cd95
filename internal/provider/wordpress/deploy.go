// Package wordpress provides the application deployment steps.
package wordpress

import (
	"crypto/sha1" //nolint:gosec // upstream publishes SHA-1 release checksums
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/wpforge/wpforge/internal/domain/engine"
	"github.com/wpforge/wpforge/internal/ports"
)

// MarkerFile records the deployed release inside the target directory.
// Its presence means the tree was fully deployed by us, never a partial
// extract: it is written in staging, before the atomic swap.
const MarkerFile = ".wpforge-release"

// versionFile is WordPress's own version marker, used as a sanity check.
const versionFile = "wp-includes/version.php"

// archiveRootDir is the top-level directory inside the release tarball.
const archiveRootDir = "wordpress"

// DeployStep downloads, verifies and atomically deploys the application
// files. The swap is rename-based so there is no window with no site
// present and an interruption leaves either the old or the new tree.
type DeployStep struct {
	id          engine.StepID
	targetDir   string
	archiveURL  string
	checksumURL string
	fetcher     ports.Fetcher
	runner      ports.CommandRunner
	fs          ports.FileSystem
}

// NewDeployStep creates a new DeployStep.
func NewDeployStep(targetDir, archiveURL, checksumURL string, fetcher ports.Fetcher, runner ports.CommandRunner, fs ports.FileSystem) *DeployStep {
	return &DeployStep{
		id:          engine.MustNewStepID("wordpress:deploy"),
		targetDir:   targetDir,
		archiveURL:  archiveURL,
		checksumURL: checksumURL,
		fetcher:     fetcher,
		runner:      runner,
		fs:          fs,
	}
}

// ID returns the step identifier.
func (s *DeployStep) ID() engine.StepID {
	return s.id
}

// Description returns a human-readable summary.
func (s *DeployStep) Description() string {
	return fmt.Sprintf("Deploy application files to %s", s.targetDir)
}

// DependsOn returns the step dependencies.
func (s *DeployStep) DependsOn() []engine.StepID {
	return []engine.StepID{engine.MustNewStepID("apt:install")}
}

// Check is satisfied when the target holds a known-good deployed release.
func (s *DeployStep) Check(_ engine.RunContext) (engine.StepStatus, error) {
	if s.fs.Exists(filepath.Join(s.targetDir, versionFile)) &&
		s.fs.Exists(filepath.Join(s.targetDir, MarkerFile)) {
		return engine.StatusSatisfied, nil
	}
	return engine.StatusNeedsApply, nil
}

// Apply downloads the release, verifies its checksum, extracts into a
// staging directory next to the target and swaps it into place.
func (s *DeployStep) Apply(ctx engine.RunContext) error {
	parent := filepath.Dir(s.targetDir)
	stageDir := filepath.Join(parent, ".wpforge-stage")

	if err := s.fs.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", parent, err)
	}

	// A leftover staging dir from an interrupted run is stale: rebuild it.
	if err := s.fs.RemoveAll(stageDir); err != nil {
		return fmt.Errorf("clear staging dir: %w", err)
	}
	if err := s.fs.MkdirAll(stageDir, 0o755); err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}

	archivePath := filepath.Join(stageDir, "release.tar.gz")
	if _, err := s.fetcher.Download(ctx.Context(), s.archiveURL, archivePath); err != nil {
		return err
	}

	sum, err := s.verifyChecksum(ctx, archivePath)
	if err != nil {
		return err
	}

	result, err := s.runner.Run(ctx.Context(), "tar", "-xzf", archivePath, "-C", stageDir)
	if err != nil {
		return err
	}
	if !result.Success() {
		return fmt.Errorf("tar exited %d: %s", result.ExitCode, strings.TrimSpace(result.Stderr))
	}

	extracted := filepath.Join(stageDir, archiveRootDir)
	if !s.fs.IsDir(extracted) {
		return fmt.Errorf("archive did not contain a %q directory", archiveRootDir)
	}

	marker := fmt.Sprintf("sha1:%s\ndeployed:%s\n", sum, time.Now().UTC().Format(time.RFC3339))
	if err := s.fs.WriteFile(filepath.Join(extracted, MarkerFile), []byte(marker), 0o644); err != nil {
		return fmt.Errorf("write release marker: %w", err)
	}

	if err := s.swap(extracted); err != nil {
		return err
	}

	return s.fs.RemoveAll(stageDir)
}

// swap moves the staged tree into the target path with renames. The old
// tree is moved aside first, never deleted in place.
func (s *DeployStep) swap(staged string) error {
	previous := s.targetDir + ".previous"

	// Leftover from a crash after the first rename of an earlier run.
	if err := s.fs.RemoveAll(previous); err != nil {
		return fmt.Errorf("clear previous release: %w", err)
	}

	if s.fs.Exists(s.targetDir) {
		if err := s.fs.Rename(s.targetDir, previous); err != nil {
			return fmt.Errorf("move old release aside: %w", err)
		}
	}

	if err := s.fs.Rename(staged, s.targetDir); err != nil {
		// Restore the old tree so the site is not left absent.
		if s.fs.Exists(previous) {
			_ = s.fs.Rename(previous, s.targetDir)
		}
		return fmt.Errorf("move new release into place: %w", err)
	}

	return s.fs.RemoveAll(previous)
}

// verifyChecksum computes the archive SHA-1 and compares it against the
// published checksum. An unreachable checksum endpoint fails the step:
// deploying an unverified archive is worse than retrying later.
func (s *DeployStep) verifyChecksum(ctx engine.RunContext, archivePath string) (string, error) {
	data, err := s.fs.ReadFile(archivePath)
	if err != nil {
		return "", fmt.Errorf("read archive: %w", err)
	}

	sum := sha1.Sum(data) //nolint:gosec
	actual := hex.EncodeToString(sum[:])

	expectedRaw, err := s.fetcher.Get(ctx.Context(), s.checksumURL)
	if err != nil {
		return "", fmt.Errorf("fetch checksum: %w", err)
	}

	fields := strings.Fields(string(expectedRaw))
	if len(fields) == 0 {
		return "", fmt.Errorf("checksum endpoint returned empty body")
	}
	expected := strings.ToLower(fields[0])

	if actual != expected {
		return "", fmt.Errorf("archive checksum mismatch: got %s, want %s", actual, expected)
	}

	return actual, nil
}

// Ensure DeployStep implements engine.Step.
var _ engine.Step = (*DeployStep)(nil)
