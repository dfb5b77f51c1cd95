package secret

import (
	"github.com/wpforge/wpforge/internal/domain/state"
)

// Store hands out secrets backed by the persisted run state.
// A secret is generated at most once: later runs read the stored value even
// when unrelated steps failed and were retried.
type Store struct {
	runState *state.RunState
	fresh    map[string]bool
}

// NewStore creates a Store over the given run state.
func NewStore(runState *state.RunState) *Store {
	return &Store{
		runState: runState,
		fresh:    make(map[string]bool),
	}
}

// GetOrCreate returns the stored value for name, generating and persisting
// it with gen on first use.
func (s *Store) GetOrCreate(name string, gen func() (string, error)) (string, error) {
	if value, ok := s.runState.Secret(name); ok {
		return value, nil
	}

	value, err := gen()
	if err != nil {
		return "", err
	}

	if err := s.runState.SetSecret(name, value); err != nil {
		return "", err
	}
	s.fresh[name] = true

	return value, nil
}

// Get returns the stored value for name without generating.
func (s *Store) Get(name string) (string, bool) {
	return s.runState.Secret(name)
}

// Fresh reports whether name was generated during this run, as opposed to
// read back from state. The reporter only prints credentials it minted.
func (s *Store) Fresh(name string) bool {
	return s.fresh[name]
}

// HasFresh reports whether any secret was generated during this run.
func (s *Store) HasFresh() bool {
	return len(s.fresh) > 0
}
