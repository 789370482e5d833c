package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensetracker/internal/core"
	"expensetracker/internal/persist"
	"expensetracker/internal/slot/memory"
)

func draft(cents int64, category, date, desc string) core.Draft {
	d, err := core.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return core.Draft{Amount: core.Money{Cents: cents}, Category: category, Date: d, Description: desc}
}

type recordingSaver struct {
	mu    sync.Mutex
	saves [][]core.Expense
	err   error
}

func (r *recordingSaver) Save(_ context.Context, items []core.Expense) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves = append(r.saves, append([]core.Expense(nil), items...))
	return r.err
}

func TestAddAppendsWithFreshID(t *testing.T) {
	ctx := context.Background()
	saver := &recordingSaver{}
	s := New(nil, saver)

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		before := s.Len()
		e, err := s.Add(ctx, draft(int64(i), "Food", "2024-01-01", fmt.Sprintf("item %d", i)))
		require.NoError(t, err)
		assert.Equal(t, before+1, s.Len())
		assert.NotEmpty(t, e.ID)
		assert.False(t, seen[e.ID], "duplicate id %s", e.ID)
		seen[e.ID] = true

		all := s.All()
		assert.Equal(t, e, all[len(all)-1], "new expense must be last")
	}
	assert.Len(t, saver.saves, 50, "every add is written through")
	assert.Len(t, saver.saves[49], 50)
}

func TestAddRetriesOnIDCollision(t *testing.T) {
	ids := []string{"dup", "dup", "", "fresh"}
	next := 0
	gen := func() string {
		id := ids[next]
		next++
		return id
	}
	s := New([]core.Expense{draft(1, "Food", "2024-01-01", "x").WithID("dup")}, nil, WithIDGenerator(gen))

	e, err := s.Add(context.Background(), draft(2, "Food", "2024-01-02", "y"))
	require.NoError(t, err)
	assert.Equal(t, "fresh", e.ID)
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	saver := &recordingSaver{}
	s := New(nil, saver)
	a, _ := s.Add(ctx, draft(2000, "Food", "2024-01-01", "Lunch"))
	b, _ := s.Add(ctx, draft(3000, "Transportation", "2024-01-02", "Bus"))
	c, _ := s.Add(ctx, draft(500, "Food", "2024-01-03", "Snack"))
	writes := len(saver.saves)

	removed, err := s.Remove(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, []core.Expense{a, c}, s.All())
	assert.Len(t, saver.saves, writes+1)

	_, ok := s.Get(b.ID)
	assert.False(t, ok)
	got, ok := s.Get(c.ID)
	assert.True(t, ok)
	assert.Equal(t, c, got)
}

func TestRemoveUnknownIsNoop(t *testing.T) {
	ctx := context.Background()
	saver := &recordingSaver{}
	s := New(nil, saver)
	_, _ = s.Add(ctx, draft(2000, "Food", "2024-01-01", "Lunch"))
	_, _ = s.Add(ctx, draft(3000, "Transportation", "2024-01-02", "Bus"))
	before := s.All()
	rev := s.Revision()

	notified := false
	s.Subscribe(func(context.Context, Change) { notified = true })

	removed, err := s.Remove(ctx, "not-there")
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, before, s.All())
	assert.Equal(t, rev, s.Revision())
	assert.False(t, notified)
	assert.Len(t, saver.saves, 2)
}

func TestAllReturnsCopy(t *testing.T) {
	s := New(nil, nil)
	_, _ = s.Add(context.Background(), draft(1, "Food", "2024-01-01", "x"))
	all := s.All()
	all[0].Description = "mutated"
	assert.Equal(t, "x", s.All()[0].Description)
}

func TestSubscribeAndUnsubscribe(t *testing.T) {
	ctx := context.Background()
	s := New(nil, nil)

	var got []Change
	unsubscribe := s.Subscribe(func(_ context.Context, c Change) { got = append(got, c) })

	a, _ := s.Add(ctx, draft(1, "Food", "2024-01-01", "x"))
	_, _ = s.Remove(ctx, a.ID)
	unsubscribe()
	unsubscribe() // idempotent
	_, _ = s.Add(ctx, draft(2, "Food", "2024-01-01", "y"))

	require.Len(t, got, 2)
	assert.Equal(t, Change{Kind: Added, Expense: a, Revision: 1}, got[0])
	assert.Equal(t, Change{Kind: Removed, Expense: a, Revision: 2}, got[1])
	assert.Equal(t, uint64(3), s.Revision())
}

func TestListenerSeesPersistedState(t *testing.T) {
	ctx := context.Background()
	slots := memory.New()
	adapter := persist.New(slots, "expenses", nil)
	s := New(adapter.Load(ctx), adapter)

	var loaded []core.Expense
	s.Subscribe(func(ctx context.Context, _ Change) { loaded = adapter.Load(ctx) })

	e, err := s.Add(ctx, draft(2000, "Food", "2024-01-01", "Lunch"))
	require.NoError(t, err)
	assert.Equal(t, []core.Expense{e}, loaded)
}

func TestPersistFailureKeepsMemoryState(t *testing.T) {
	boom := errors.New("disk full")
	s := New(nil, &recordingSaver{err: boom})

	e, err := s.Add(context.Background(), draft(1, "Food", "2024-01-01", "x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersist)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []core.Expense{e}, s.All())
}

func TestScenarioReloadFromSlot(t *testing.T) {
	ctx := context.Background()
	slots := memory.New()
	adapter := persist.New(slots, "", nil)

	s := New(adapter.Load(ctx), adapter)
	lunch, err := s.Add(ctx, draft(2000, "Food", "2024-01-01", "Lunch"))
	require.NoError(t, err)
	bus, err := s.Add(ctx, draft(3000, "Transportation", "2024-01-02", "Bus"))
	require.NoError(t, err)

	items := s.All()
	assert.Equal(t, int64(5000), core.Total(items).Cents)
	assert.Equal(t, []string{"All", "Food", "Transportation"}, core.Categories(items))
	assert.Equal(t, []core.Expense{lunch}, core.Filter(items, "Food"))

	restarted := New(adapter.Load(ctx), adapter)
	assert.Equal(t, []core.Expense{lunch, bus}, restarted.All())
}

func TestConcurrentAddsAreSerialized(t *testing.T) {
	ctx := context.Background()
	saver := &recordingSaver{}
	s := New(nil, saver)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = s.Add(ctx, draft(int64(i), "Food", "2024-01-01", "x"))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 20, s.Len())
	assert.Equal(t, uint64(20), s.Revision())
	// Each save saw one more element than the previous one.
	for i, saved := range saver.saves {
		assert.Len(t, saved, i+1)
	}
}

func TestListenersSeeChangesInRevisionOrder(t *testing.T) {
	ctx := context.Background()
	s := New(nil, &recordingSaver{})

	var (
		mu   sync.Mutex
		seen []uint64
	)
	s.Subscribe(func(_ context.Context, c Change) {
		mu.Lock()
		seen = append(seen, c.Revision)
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e, err := s.Add(ctx, draft(int64(i), "Food", "2024-01-01", "x"))
			if err == nil && i%2 == 0 {
				_, _ = s.Remove(ctx, e.ID)
			}
		}(i)
	}
	wg.Wait()

	require.Len(t, seen, 75)
	for i, rev := range seen {
		assert.Equal(t, uint64(i+1), rev)
	}
}
