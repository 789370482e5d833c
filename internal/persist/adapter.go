// Package persist loads and saves the whole expense collection to one durable slot key.
package persist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/goccy/go-json"

	"expensetracker/internal/core"
	"expensetracker/internal/slot"
)

// DefaultKey is the slot key holding the serialized collection.
const DefaultKey = "expenses"

var (
	// ErrCorrupt reports a slot whose contents cannot be turned back into a valid collection.
	ErrCorrupt = errors.New("persisted collection is corrupt")
)

type Adapter struct {
	slot   slot.Slot
	key    string
	logger *slog.Logger
}

// New returns an adapter bound to key in s. An empty key selects DefaultKey.
func New(s slot.Slot, key string, logger *slog.Logger) *Adapter {
	if key == "" {
		key = DefaultKey
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{slot: s, key: key, logger: logger.With("component", "persist", "key", key)}
}

func (a *Adapter) Key() string {
	return a.key
}

// Load reads the collection. A missing, unreadable or corrupt slot yields an empty
// collection; the cause is logged and never returned.
func (a *Adapter) Load(ctx context.Context) []core.Expense {
	raw, err := a.slot.Get(ctx, a.key)
	if errors.Is(err, slot.ErrNotFound) {
		a.logger.InfoContext(ctx, "No persisted expenses, starting empty", "operation", "load")
		return []core.Expense{}
	}
	if err != nil {
		a.logger.WarnContext(ctx, "Reading persisted expenses failed, starting empty", "operation", "load", "error", err)
		return []core.Expense{}
	}

	items, err := Decode(raw)
	if err != nil {
		a.logger.WarnContext(ctx, "Discarding unreadable persisted expenses", "operation", "load", "error", err, "bytes", len(raw))
		return []core.Expense{}
	}
	a.logger.InfoContext(ctx, "Loaded persisted expenses", "operation", "load", "count", len(items))
	return items
}

// Save overwrites the slot with the full collection.
func (a *Adapter) Save(ctx context.Context, items []core.Expense) error {
	raw, err := Encode(items)
	if err != nil {
		return fmt.Errorf("encode expenses: %w", err)
	}
	if err := a.slot.Put(ctx, a.key, raw); err != nil {
		return fmt.Errorf("write slot %s: %w", a.key, err)
	}
	a.logger.DebugContext(ctx, "Saved expenses", "operation", "save", "count", len(items), "bytes", len(raw))
	return nil
}

// Encode serializes the collection as a JSON array, preserving order.
func Encode(items []core.Expense) ([]byte, error) {
	if items == nil {
		items = []core.Expense{}
	}
	return json.Marshal(items)
}

// record mirrors core.Expense on the wire with every field required.
type record struct {
	ID          *string     `json:"id"`
	Amount      *core.Money `json:"amount"`
	Category    *string     `json:"category"`
	Date        *core.Date  `json:"date"`
	Description *string     `json:"description"`
}

func (r record) expense() (core.Expense, error) {
	if r.ID == nil || r.Amount == nil || r.Category == nil || r.Date == nil || r.Description == nil {
		return core.Expense{}, errors.New("missing field")
	}
	e := core.Expense{
		ID:          *r.ID,
		Amount:      *r.Amount,
		Category:    *r.Category,
		Date:        *r.Date,
		Description: *r.Description,
	}
	return e, e.Validate()
}

// Decode parses a serialized collection. Records breaking the expense rules
// (missing field, negative amount, duplicate identifier) make the whole document corrupt.
func Decode(raw []byte) ([]core.Expense, error) {
	var records []record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	items := make([]core.Expense, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for i, r := range records {
		e, err := r.expense()
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrCorrupt, i, err)
		}
		if _, dup := seen[e.ID]; dup {
			return nil, fmt.Errorf("%w: record %d: duplicate id %q", ErrCorrupt, i, e.ID)
		}
		seen[e.ID] = struct{}{}
		items = append(items, e)
	}
	return items, nil
}
