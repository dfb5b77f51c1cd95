// Package secret generates and tracks provisioning credentials.
package secret

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/wpforge/wpforge/internal/ports"
)

// ErrGenerationFailed means no source (remote or local) produced a secret.
var ErrGenerationFailed = errors.New("secret generation failed")

// Well-known secret names.
const (
	NameDBPassword     = "db_password"
	NameDBRootPassword = "db_root_password"
	NameSalts          = "wp_salts"
)

// saltKeys are the keyed constants WordPress expects in its config.
var saltKeys = []string{
	"AUTH_KEY",
	"SECURE_AUTH_KEY",
	"LOGGED_IN_KEY",
	"NONCE_KEY",
	"AUTH_SALT",
	"SECURE_AUTH_SALT",
	"LOGGED_IN_SALT",
	"NONCE_SALT",
}

const saltValueLength = 64

// saltCharset excludes quotes and backslashes so values can be embedded in
// single-quoted PHP strings without escaping.
const saltCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789" +
	"!@#$%^&*()-_ []{}<>~+=,.;:/?|"

// Generator produces cryptographically random credentials.
type Generator struct {
	fetcher ports.Fetcher
	saltURL string
}

// NewGenerator creates a Generator. fetcher may be nil, in which case salts
// are always generated locally.
func NewGenerator(fetcher ports.Fetcher, saltURL string) *Generator {
	return &Generator{
		fetcher: fetcher,
		saltURL: saltURL,
	}
}

// Password returns a base64-encoded random string from n raw bytes.
func (g *Generator) Password(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("%w: password length must be positive, got %d", ErrGenerationFailed, n)
	}

	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	return base64.StdEncoding.EncodeToString(buf), nil
}

// Salts returns a block of define(...) lines for the WordPress keyed
// constants. The remote endpoint is tried first; on any failure an
// equivalent block is generated locally so provisioning never blocks on
// that one endpoint.
func (g *Generator) Salts(ctx context.Context) (string, error) {
	if g.fetcher != nil && g.saltURL != "" {
		data, err := g.fetcher.Get(ctx, g.saltURL)
		if err == nil {
			block := strings.TrimRight(string(data), "\n")
			if validSaltBlock(block) {
				return block, nil
			}
		}
	}

	return g.localSalts()
}

// localSalts builds a salt block of equivalent strength to the remote one.
func (g *Generator) localSalts() (string, error) {
	var b strings.Builder

	for _, key := range saltKeys {
		value, err := randomSaltValue()
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrGenerationFailed, err)
		}
		fmt.Fprintf(&b, "define('%s', '%s');\n", key, value)
	}

	return strings.TrimRight(b.String(), "\n"), nil
}

func randomSaltValue() (string, error) {
	buf := make([]byte, saltValueLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}

	out := make([]byte, saltValueLength)
	for i, c := range buf {
		out[i] = saltCharset[int(c)%len(saltCharset)]
	}
	return string(out), nil
}

// validSaltBlock sanity-checks a fetched block before trusting it.
func validSaltBlock(block string) bool {
	for _, key := range saltKeys {
		if !strings.Contains(block, key) {
			return false
		}
	}
	return strings.Count(block, "define(") >= len(saltKeys)
}
