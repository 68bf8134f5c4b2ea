package memory

import (
	"context"
	"sync"

	"depenses/internal/storage"
)

// Store keeps values in process memory. It loses everything on restart and
// is meant for development and tests.
type Store struct {
	mu     sync.Mutex
	values map[string][]byte
	// failPut, when set, is returned by every Put.
	failPut error
}

func New() *Store {
	return &Store{values: make(map[string][]byte)}
}

// NewSeeded returns a store holding a copy of seed.
func NewSeeded(seed map[string][]byte) *Store {
	s := New()
	for k, v := range seed {
		s.values[k] = append([]byte(nil), v...)
	}
	return s
}

// Get implements storage.KeyValueStore
func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, storage.ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// Put implements storage.KeyValueStore
func (s *Store) Put(_ context.Context, key string, value []byte) error {
	if key == "" {
		return storage.ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failPut != nil {
		return s.failPut
	}
	s.values[key] = append([]byte(nil), value...)
	return nil
}

// FailPuts makes every later Put return err; nil restores normal behavior.
func (s *Store) FailPuts(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failPut = err
}

// Ping implements storage.Pinger
func (s *Store) Ping(context.Context) error {
	return nil
}
