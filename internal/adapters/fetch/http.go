// Package fetch provides HTTP retrieval adapters.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/wpforge/wpforge/internal/ports"
)

const defaultTimeout = 60 * time.Second

// HTTPFetcher implements ports.Fetcher using net/http.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher creates a new HTTPFetcher with a default timeout.
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// WithClient returns an HTTPFetcher that uses the given client.
func (f *HTTPFetcher) WithClient(client *http.Client) *HTTPFetcher {
	return &HTTPFetcher{client: client}
}

// Get fetches the body at url.
func (f *HTTPFetcher) Get(ctx context.Context, url string) ([]byte, error) {
	resp, err := f.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	return data, nil
}

// Download streams the body at url into dest.
func (f *HTTPFetcher) Download(ctx context.Context, url, dest string) (int64, error) {
	resp, err := f.get(ctx, url)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	out, err := os.Create(dest)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", dest, err)
	}

	written, err := io.Copy(out, resp.Body)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(dest)
		return written, fmt.Errorf("download %s: %w", url, err)
	}

	return written, nil
}

func (f *HTTPFetcher) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", url, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: unexpected status %s", url, resp.Status)
	}

	return resp, nil
}

// Ensure HTTPFetcher implements ports.Fetcher.
var _ ports.Fetcher = (*HTTPFetcher)(nil)
