package memory

import (
	"context"
	"sync"

	"expensetracker/internal/slot"
)

// Store keeps slots in process memory. Contents are lost on exit.
type Store struct {
	mu    sync.Mutex
	items map[string][]byte
	// writes counts successful Put calls, used by tests asserting write-through.
	writes int
}

var _ slot.Slot = (*Store)(nil)

func New() *Store {
	return &Store{items: make(map[string][]byte)}
}

// NewWithContents seeds the store, e.g. with a pre-existing persisted collection.
func NewWithContents(contents map[string][]byte) *Store {
	s := New()
	for k, v := range contents {
		s.items[k] = append([]byte(nil), v...)
	}
	return s
}

// Get returns a copy of the stored bytes.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	if err := slot.ValidateKey(key); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.items[key]
	if !ok {
		return nil, slot.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Put stores a copy of value under key.
func (s *Store) Put(_ context.Context, key string, value []byte) error {
	if err := slot.ValidateKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = append([]byte(nil), value...)
	s.writes++
	return nil
}

// Writes returns how many times Put succeeded.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
