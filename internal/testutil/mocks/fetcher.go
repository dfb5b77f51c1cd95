package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/wpforge/wpforge/internal/ports"
)

// Fetcher is a thread-safe test double for ports.Fetcher.
type Fetcher struct {
	mu     sync.RWMutex
	bodies map[string][]byte
	errors map[string]error
	fs     *FileSystem
	gets   []string
}

// NewFetcher creates a new Fetcher mock. Downloaded bodies are written
// into fs so steps can read them back; fs may be nil when no step does.
func NewFetcher(fs *FileSystem) *Fetcher {
	return &Fetcher{
		bodies: make(map[string][]byte),
		errors: make(map[string]error),
		fs:     fs,
	}
}

// AddBody registers the body returned for a URL.
func (m *Fetcher) AddBody(url string, body []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bodies[url] = body
}

// AddError registers a URL that should fail.
func (m *Fetcher) AddError(url string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[url] = err
}

// Get returns the registered body for url.
func (m *Fetcher) Get(_ context.Context, url string) ([]byte, error) {
	m.mu.Lock()
	m.gets = append(m.gets, url)
	m.mu.Unlock()

	m.mu.RLock()
	defer m.mu.RUnlock()

	if err, ok := m.errors[url]; ok {
		return nil, err
	}
	if body, ok := m.bodies[url]; ok {
		return body, nil
	}
	return nil, fmt.Errorf("no mock body for url: %s", url)
}

// Download writes the registered body for url into dest.
func (m *Fetcher) Download(ctx context.Context, url, dest string) (int64, error) {
	body, err := m.Get(ctx, url)
	if err != nil {
		return 0, err
	}
	if m.fs != nil {
		if err := m.fs.WriteFile(dest, body, 0o644); err != nil {
			return 0, err
		}
	}
	return int64(len(body)), nil
}

// Requested returns every URL passed to Get or Download, in order.
func (m *Fetcher) Requested() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	urls := make([]string, len(m.gets))
	copy(urls, m.gets)
	return urls
}

// Ensure Fetcher implements ports.Fetcher.
var _ ports.Fetcher = (*Fetcher)(nil)
