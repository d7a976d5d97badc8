// Package memory provides a map-backed key-value store used by tests and
// ephemeral environments.
package memory

import (
	"context"
	"sync"

	"creocore/pkg/domain"
)

var _ domain.KeyValueStore = (*Store)(nil)

// Store keeps slot values in process memory. Values are copied on both read
// and write so callers cannot alias the stored bytes.
type Store struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

// New constructs an empty in-memory key-value store.
func New() *Store {
	return &Store{slots: make(map[string][]byte)}
}

// Get returns the stored value for key, reporting absence via the bool.
func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.slots[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

// Set overwrites the value for key.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[key] = append([]byte(nil), value...)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error { return nil }
