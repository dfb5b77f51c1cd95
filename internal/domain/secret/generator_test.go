package secret

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"testing"
)

type fakeFetcher struct {
	body []byte
	err  error
}

func (f *fakeFetcher) Get(_ context.Context, _ string) ([]byte, error) {
	return f.body, f.err
}

func (f *fakeFetcher) Download(_ context.Context, _, _ string) (int64, error) {
	return 0, errors.New("not implemented")
}

func TestGenerator_Password(t *testing.T) {
	gen := NewGenerator(nil, "")

	tests := []struct {
		rawBytes int
		wantLen  int
	}{
		{12, 16}, // application database password
		{15, 20}, // database root password
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d bytes", tt.rawBytes), func(t *testing.T) {
			password, err := gen.Password(tt.rawBytes)
			if err != nil {
				t.Fatalf("Password() error = %v", err)
			}
			if len(password) != tt.wantLen {
				t.Errorf("len = %d, want %d", len(password), tt.wantLen)
			}
			if _, err := base64.StdEncoding.DecodeString(password); err != nil {
				t.Errorf("password is not valid base64: %v", err)
			}
		})
	}
}

func TestGenerator_Password_Distinct(t *testing.T) {
	gen := NewGenerator(nil, "")

	first, err := gen.Password(12)
	if err != nil {
		t.Fatalf("Password() error = %v", err)
	}
	second, err := gen.Password(12)
	if err != nil {
		t.Fatalf("Password() error = %v", err)
	}
	if first == second {
		t.Error("two generated passwords should differ")
	}
}

func TestGenerator_Password_InvalidLength(t *testing.T) {
	gen := NewGenerator(nil, "")
	if _, err := gen.Password(0); !errors.Is(err, ErrGenerationFailed) {
		t.Errorf("Password(0) error = %v, want ErrGenerationFailed", err)
	}
}

func TestGenerator_Salts_Remote(t *testing.T) {
	var remote strings.Builder
	for _, key := range saltKeys {
		fmt.Fprintf(&remote, "define('%s', 'remote-value-for-%s');\n", key, key)
	}

	gen := NewGenerator(&fakeFetcher{body: []byte(remote.String())}, "https://example.test/salt")

	salts, err := gen.Salts(context.Background())
	if err != nil {
		t.Fatalf("Salts() error = %v", err)
	}
	if !strings.Contains(salts, "remote-value-for-AUTH_KEY") {
		t.Error("remote salt block should be used when valid")
	}
	if strings.HasSuffix(salts, "\n") {
		t.Error("salt block should have no trailing newline")
	}
}

func TestGenerator_Salts_FallsBackOnFetchError(t *testing.T) {
	gen := NewGenerator(&fakeFetcher{err: errors.New("timeout")}, "https://example.test/salt")

	salts, err := gen.Salts(context.Background())
	if err != nil {
		t.Fatalf("Salts() error = %v", err)
	}
	assertLocalSaltBlock(t, salts)
}

func TestGenerator_Salts_FallsBackOnBogusRemoteBody(t *testing.T) {
	gen := NewGenerator(&fakeFetcher{body: []byte("<html>503</html>")}, "https://example.test/salt")

	salts, err := gen.Salts(context.Background())
	if err != nil {
		t.Fatalf("Salts() error = %v", err)
	}
	assertLocalSaltBlock(t, salts)
}

func TestGenerator_Salts_NilFetcher(t *testing.T) {
	gen := NewGenerator(nil, "")

	salts, err := gen.Salts(context.Background())
	if err != nil {
		t.Fatalf("Salts() error = %v", err)
	}
	assertLocalSaltBlock(t, salts)
}

func assertLocalSaltBlock(t *testing.T, block string) {
	t.Helper()

	for _, key := range saltKeys {
		if !strings.Contains(block, "define('"+key+"'") {
			t.Errorf("salt block missing %s", key)
		}
	}
	if strings.ContainsAny(block, `\`) {
		t.Error("salt values must not contain backslashes")
	}

	for _, line := range strings.Split(block, "\n") {
		value := strings.SplitN(line, "', '", 2)
		if len(value) != 2 {
			t.Fatalf("malformed salt line: %q", line)
		}
		raw := strings.TrimSuffix(value[1], "');")
		if len(raw) != saltValueLength {
			t.Errorf("salt value length = %d, want %d", len(raw), saltValueLength)
		}
	}
}
