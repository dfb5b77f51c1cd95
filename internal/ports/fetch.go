package ports

import "context"

// Fetcher retrieves remote resources over HTTP.
type Fetcher interface {
	// Get fetches the body at url. Non-2xx responses are errors.
	Get(ctx context.Context, url string) ([]byte, error)

	// Download streams the body at url into the file at dest, creating or
	// truncating it. Returns the number of bytes written.
	Download(ctx context.Context, url, dest string) (int64, error)
}
