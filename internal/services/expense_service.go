package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"expensetracker/internal/core"
	"expensetracker/internal/intake"
	applog "expensetracker/internal/log"
	"expensetracker/internal/store"
)

// ExpenseService turns raw form submissions into store mutations.
type ExpenseService struct {
	store  *store.Store
	logger *applog.StructuredLogger
	now    func() time.Time
}

// Option configures an ExpenseService.
type Option func(*ExpenseService)

// WithClock overrides the clock used for form defaults.
func WithClock(now func() time.Time) Option {
	return func(s *ExpenseService) { s.now = now }
}

// WithLogger sets the logger used for expense events.
func WithLogger(l *applog.Logger) Option {
	return func(s *ExpenseService) { s.logger = applog.NewStructuredLogger(l) }
}

func NewExpenseService(st *store.Store, opts ...Option) *ExpenseService {
	s := &ExpenseService{
		store: st,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = applog.NewStructuredLogger(applog.FromContext(context.Background()))
	}
	return s
}

// DefaultForm returns the blank form offered to the user.
func (s *ExpenseService) DefaultForm() intake.Form {
	return intake.Defaults(s.now())
}

// CreateExpense validates the submission and appends it to the store. Invalid input is
// returned as an *intake.ValidationError and never reaches the store.
func (s *ExpenseService) CreateExpense(ctx context.Context, f intake.Form) (core.Expense, error) {
	draft, err := f.Normalize()
	if err != nil {
		slog.DebugContext(ctx, "Expense rejected",
			applog.FieldComponent, applog.ComponentExpense,
			applog.FieldOperation, applog.OpValidate,
			applog.FieldError, err.Error())
		return core.Expense{}, err
	}

	e, err := s.store.Add(ctx, draft)
	if err != nil {
		s.logger.LogError(ctx, "Failed to save expense", err, applog.ComponentExpense, applog.OpCreate,
			applog.NewFields().WithExpense(e.ID, e.Description, e.Amount.Cents, e.Category, e.Date.String()))
		return e, fmt.Errorf("create expense: %w", err)
	}

	s.logger.LogExpenseCreated(ctx, e.ID, e.Description, e.Amount.Cents, e.Category, e.Date.String())
	return e, nil
}

// DeleteExpense removes the expense with the given id. Unknown ids are not an error.
func (s *ExpenseService) DeleteExpense(ctx context.Context, id string) (bool, error) {
	removed, err := s.store.Remove(ctx, id)
	if err != nil {
		s.logger.LogError(ctx, "Failed to delete expense", err, applog.ComponentExpense, applog.OpDelete,
			applog.NewFields())
		return removed, fmt.Errorf("delete expense %s: %w", id, err)
	}
	s.logger.LogExpenseDeleted(ctx, id, removed)
	return removed, nil
}

// List returns the expenses matching category together with the unfiltered total.
func (s *ExpenseService) List(category string) ([]core.Expense, core.Money) {
	all := s.store.All()
	return core.Filter(all, category), core.Total(all)
}

// Summary aggregates the whole collection.
func (s *ExpenseService) Summary() core.Summary {
	return core.Summarize(s.store.All())
}
