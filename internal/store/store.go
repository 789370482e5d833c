// Package store holds the ordered expense collection that is the single source of
// truth for a session.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"expensetracker/internal/core"
)

// ErrPersist wraps a failed write-through save. The in-memory change is kept.
var ErrPersist = errors.New("persist expenses")

// Saver receives the full collection after every mutation.
type Saver interface {
	Save(ctx context.Context, items []core.Expense) error
}

type ChangeKind string

const (
	Added   ChangeKind = "added"
	Removed ChangeKind = "removed"
)

// Change describes one applied mutation.
type Change struct {
	Kind     ChangeKind   `json:"kind"`
	Expense  core.Expense `json:"expense"`
	Revision uint64       `json:"revision"`
}

// Listener is notified after a mutation has been applied and persisted.
type Listener func(ctx context.Context, c Change)

type Store struct {
	mu       sync.Mutex
	items    []core.Expense
	index    map[string]int
	saver    Saver
	newID    func() string
	revision uint64
	logger   *slog.Logger

	subMu     sync.Mutex
	listeners []subscription
	nextSub   int

	// notifyMu is taken before mu is released so changes reach listeners in
	// revision order.
	notifyMu sync.Mutex
}

type subscription struct {
	id int
	fn Listener
}

type Option func(*Store)

// WithIDGenerator overrides the UUID generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New builds a store seeded with initial, typically the result of persist.Adapter.Load.
// saver may be nil for a purely in-memory store.
func New(initial []core.Expense, saver Saver, opts ...Option) *Store {
	s := &Store{
		items:  append([]core.Expense(nil), initial...),
		saver:  saver,
		newID:  uuid.NewString,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "store")
	s.reindex()
	return s
}

func (s *Store) reindex() {
	s.index = make(map[string]int, len(s.items))
	for i, e := range s.items {
		s.index[e.ID] = i
	}
}

// Add assigns a fresh identifier to d and appends it to the collection.
func (s *Store) Add(ctx context.Context, d core.Draft) (core.Expense, error) {
	s.mu.Lock()
	id := s.newID()
	for _, taken := s.index[id]; taken || id == ""; _, taken = s.index[id] {
		id = s.newID()
	}
	e := d.WithID(id)
	s.items = append(s.items, e)
	s.index[id] = len(s.items) - 1
	s.revision++
	change := Change{Kind: Added, Expense: e, Revision: s.revision}
	err := s.persist(ctx)
	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()

	s.logger.InfoContext(ctx, "Expense added",
		"operation", "create",
		"id", e.ID,
		"amount_cents", e.Amount.Cents,
		"category", e.Category,
		"revision", change.Revision)
	s.notify(ctx, change)
	return e, err
}

// Remove deletes the expense with the given identifier. Unknown identifiers are a
// no-op reported as false.
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	i, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		s.logger.DebugContext(ctx, "Remove of unknown expense ignored", "operation", "delete", "id", id)
		return false, nil
	}
	e := s.items[i]
	s.items = append(s.items[:i:i], s.items[i+1:]...)
	s.reindex()
	s.revision++
	change := Change{Kind: Removed, Expense: e, Revision: s.revision}
	err := s.persist(ctx)
	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()

	s.logger.InfoContext(ctx, "Expense removed", "operation", "delete", "id", id, "revision", change.Revision)
	s.notify(ctx, change)
	return true, err
}

// persist must be called with s.mu held.
func (s *Store) persist(ctx context.Context) error {
	if s.saver == nil {
		return nil
	}
	if err := s.saver.Save(ctx, s.items); err != nil {
		s.logger.ErrorContext(ctx, "Write-through save failed", "operation", "save", "error", err, "revision", s.revision)
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}

// All returns a copy of the collection in display order.
func (s *Store) All() []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append(make([]core.Expense, 0, len(s.items)), s.items...)
}

// Get looks an expense up by identifier.
func (s *Store) Get(id string) (core.Expense, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return core.Expense{}, false
	}
	return s.items[i], true
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Revision increases by one with every applied mutation.
func (s *Store) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

// Snapshot returns the collection together with the revision it belongs to.
func (s *Store) Snapshot() ([]core.Expense, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append(make([]core.Expense, 0, len(s.items)), s.items...), s.revision
}

// Subscribe registers fn for change notifications and returns a function that
// removes it again. Listeners run synchronously in subscription order and see changes
// in revision order. A listener may read the store but must not mutate it.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	s.nextSub++
	id := s.nextSub
	s.listeners = append(s.listeners, subscription{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			for i, sub := range s.listeners {
				if sub.id == id {
					s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

func (s *Store) notify(ctx context.Context, c Change) {
	s.subMu.Lock()
	listeners := append([]subscription(nil), s.listeners...)
	s.subMu.Unlock()
	for _, sub := range listeners {
		sub.fn(ctx, c)
	}
}
