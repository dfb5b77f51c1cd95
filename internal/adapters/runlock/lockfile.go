// Package runlock guards against concurrent provisioning runs.
package runlock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// ErrLockHeld means another run currently holds the lock.
var ErrLockHeld = errors.New("another provisioning run holds the lock")

// Lock is an exclusive file-based lock held for the duration of a run.
// The lock file contains the holder's pid; a lock whose pid no longer maps
// to a live process is treated as stale and reclaimed.
type Lock struct {
	path string
}

// New creates a Lock at the given path. The lock is not acquired yet.
func New(path string) *Lock {
	return &Lock{path: path}
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.path
}

// Acquire takes the lock, failing with ErrLockHeld if a live process owns it.
func (l *Lock) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}

	for {
		f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			_, werr := fmt.Fprintf(f, "%d\n", os.Getpid())
			cerr := f.Close()
			if werr != nil || cerr != nil {
				_ = os.Remove(l.path)
				return fmt.Errorf("write lock file: %w", errors.Join(werr, cerr))
			}
			return nil
		}
		if !os.IsExist(err) {
			return fmt.Errorf("create lock file: %w", err)
		}

		pid, perr := l.holderPID()
		if perr == nil && processAlive(pid) {
			return fmt.Errorf("%w: pid %d (lock file %s)", ErrLockHeld, pid, l.path)
		}

		// Holder is gone or the file is unreadable garbage: reclaim.
		if rerr := os.Remove(l.path); rerr != nil && !os.IsNotExist(rerr) {
			return fmt.Errorf("remove stale lock file: %w", rerr)
		}
	}
}

// Release drops the lock. Releasing a lock that is not held is a no-op.
func (l *Lock) Release() error {
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove lock file: %w", err)
	}
	return nil
}

func (l *Lock) holderPID() (int, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("malformed lock file contents")
	}
	return pid, nil
}

// processAlive reports whether a process with the given pid exists.
func processAlive(pid int) bool {
	err := syscall.Kill(pid, 0)
	if err == nil {
		return true
	}
	return errors.Is(err, syscall.EPERM)
}
