package fetch_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wpforge/wpforge/internal/adapters/fetch"
)

func TestHTTPFetcher_Get(t *testing.T) {
	t.Parallel()

	t.Run("returns body", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("salt material"))
		}))
		defer srv.Close()

		fetcher := fetch.NewHTTPFetcher()
		body, err := fetcher.Get(context.Background(), srv.URL)

		require.NoError(t, err)
		assert.Equal(t, "salt material", string(body))
	})

	t.Run("non-2xx status is an error", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "gone", http.StatusNotFound)
		}))
		defer srv.Close()

		fetcher := fetch.NewHTTPFetcher()
		_, err := fetcher.Get(context.Background(), srv.URL)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "unexpected status")
	})

	t.Run("unreachable server is an error", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		srv.Close()

		fetcher := fetch.NewHTTPFetcher()
		_, err := fetcher.Get(context.Background(), srv.URL)

		require.Error(t, err)
	})

	t.Run("cancelled context aborts the request", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("never read"))
		}))
		defer srv.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		fetcher := fetch.NewHTTPFetcher()
		_, err := fetcher.Get(ctx, srv.URL)

		require.Error(t, err)
	})
}

func TestHTTPFetcher_Download(t *testing.T) {
	t.Parallel()

	t.Run("streams body to file", func(t *testing.T) {
		t.Parallel()

		payload := []byte("archive bytes go here")
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write(payload)
		}))
		defer srv.Close()

		dest := filepath.Join(t.TempDir(), "latest.tar.gz")
		fetcher := fetch.NewHTTPFetcher()
		written, err := fetcher.Download(context.Background(), srv.URL, dest)

		require.NoError(t, err)
		assert.Equal(t, int64(len(payload)), written)

		got, err := os.ReadFile(dest)
		require.NoError(t, err)
		assert.Equal(t, payload, got)
	})

	t.Run("non-2xx status leaves no file", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "server error", http.StatusInternalServerError)
		}))
		defer srv.Close()

		dest := filepath.Join(t.TempDir(), "latest.tar.gz")
		fetcher := fetch.NewHTTPFetcher()
		_, err := fetcher.Download(context.Background(), srv.URL, dest)

		require.Error(t, err)
		_, statErr := os.Stat(dest)
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("unwritable destination is an error", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("payload"))
		}))
		defer srv.Close()

		dest := filepath.Join(t.TempDir(), "missing", "latest.tar.gz")
		fetcher := fetch.NewHTTPFetcher()
		_, err := fetcher.Download(context.Background(), srv.URL, dest)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "create")
	})
}
