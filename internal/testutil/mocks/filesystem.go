package mocks

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/wpforge/wpforge/internal/ports"
)

// FileSystem is a thread-safe test double for ports.FileSystem.
type FileSystem struct {
	mu    sync.RWMutex
	files map[string][]byte
	dirs  map[string]bool
	infos map[string]ports.FileInfo

	writeErr   error
	renameErrs map[string]error
}

// NewFileSystem creates a new FileSystem mock.
func NewFileSystem() *FileSystem {
	return &FileSystem{
		files:      make(map[string][]byte),
		dirs:       make(map[string]bool),
		infos:      make(map[string]ports.FileInfo),
		renameErrs: make(map[string]error),
	}
}

// AddFile adds a file to the mock filesystem.
func (fs *FileSystem) AddFile(path string, content string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.files[path] = []byte(content)
}

// AddDir adds a directory to the mock filesystem.
func (fs *FileSystem) AddDir(path string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.dirs[path] = true
}

// SetFileInfo overrides the metadata reported for a path.
func (fs *FileSystem) SetFileInfo(path string, info ports.FileInfo) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.infos[path] = info
}

// FailWrites makes every subsequent WriteFile return err.
func (fs *FileSystem) FailWrites(err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.writeErr = err
}

// FailRenameOf makes Rename return err when invoked with oldPath as the
// source, leaving the filesystem untouched.
func (fs *FileSystem) FailRenameOf(oldPath string, err error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.renameErrs[oldPath] = err
}

// ReadFile reads a file from the mock filesystem.
func (fs *FileSystem) ReadFile(path string) ([]byte, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	if content, ok := fs.files[path]; ok {
		return content, nil
	}
	return nil, fmt.Errorf("file not found: %s", path)
}

// WriteFile writes a file to the mock filesystem.
func (fs *FileSystem) WriteFile(path string, data []byte, _ os.FileMode) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.writeErr != nil {
		return fs.writeErr
	}
	fs.files[path] = data
	return nil
}

// Exists checks if a path exists in the mock filesystem.
func (fs *FileSystem) Exists(path string) bool {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	_, fileExists := fs.files[path]
	return fileExists || fs.dirs[path]
}

// IsDir checks if a path is a directory in the mock filesystem.
func (fs *FileSystem) IsDir(path string) bool {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.dirs[path]
}

// Remove removes a path from the mock filesystem.
func (fs *FileSystem) Remove(path string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	delete(fs.files, path)
	delete(fs.dirs, path)
	delete(fs.infos, path)
	return nil
}

// RemoveAll removes a path and everything under it.
func (fs *FileSystem) RemoveAll(path string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	prefix := strings.TrimSuffix(path, "/") + "/"
	for p := range fs.files {
		if p == path || strings.HasPrefix(p, prefix) {
			delete(fs.files, p)
		}
	}
	for p := range fs.dirs {
		if p == path || strings.HasPrefix(p, prefix) {
			delete(fs.dirs, p)
		}
	}
	delete(fs.infos, path)
	return nil
}

// MkdirAll creates a directory in the mock filesystem.
func (fs *FileSystem) MkdirAll(path string, _ os.FileMode) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.dirs[path] = true
	return nil
}

// Rename renames a path in the mock filesystem. Directories carry their
// contents with them, matching os.Rename semantics.
func (fs *FileSystem) Rename(oldPath, newPath string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err, ok := fs.renameErrs[oldPath]; ok {
		return err
	}

	if content, ok := fs.files[oldPath]; ok {
		fs.files[newPath] = content
		delete(fs.files, oldPath)
		return nil
	}

	if fs.dirs[oldPath] {
		oldPrefix := strings.TrimSuffix(oldPath, "/") + "/"
		newPrefix := strings.TrimSuffix(newPath, "/") + "/"
		for p, content := range fs.files {
			if strings.HasPrefix(p, oldPrefix) {
				fs.files[newPrefix+strings.TrimPrefix(p, oldPrefix)] = content
				delete(fs.files, p)
			}
		}
		for p := range fs.dirs {
			if strings.HasPrefix(p, oldPrefix) {
				fs.dirs[newPrefix+strings.TrimPrefix(p, oldPrefix)] = true
				delete(fs.dirs, p)
			}
		}
		delete(fs.dirs, oldPath)
		fs.dirs[newPath] = true
		return nil
	}

	return fmt.Errorf("file not found: %s", oldPath)
}

// GetFileInfo returns metadata about a path in the mock filesystem.
func (fs *FileSystem) GetFileInfo(path string) (ports.FileInfo, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	if info, ok := fs.infos[path]; ok {
		return info, nil
	}

	if content, ok := fs.files[path]; ok {
		return ports.FileInfo{
			Size:    int64(len(content)),
			Mode:    0o644,
			ModTime: time.Now(),
			IsDir:   false,
		}, nil
	}

	if fs.dirs[path] {
		return ports.FileInfo{
			Mode:    0o755,
			ModTime: time.Now(),
			IsDir:   true,
		}, nil
	}

	return ports.FileInfo{}, fmt.Errorf("file not found: %s", path)
}

// Reset clears all files, directories, and metadata overrides.
func (fs *FileSystem) Reset() {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.files = make(map[string][]byte)
	fs.dirs = make(map[string]bool)
	fs.infos = make(map[string]ports.FileInfo)
	fs.writeErr = nil
	fs.renameErrs = make(map[string]error)
}

// Ensure FileSystem implements ports.FileSystem.
var _ ports.FileSystem = (*FileSystem)(nil)
