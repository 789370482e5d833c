package services

import (
	"context"
	"log/slog"

	"expensetracker/internal/amqp"
	applog "expensetracker/internal/log"
	"expensetracker/internal/store"
)

// Publisher sends change messages to a broker.
type Publisher interface {
	PublishChange(ctx context.Context, msg *amqp.ChangeMessage) error
}

// ChangePublisher forwards store notifications to a Publisher. Publish failures are
// logged and never propagate back into the store.
type ChangePublisher struct {
	publisher Publisher
	logger    *applog.Logger
}

func NewChangePublisher(p Publisher, logger *applog.Logger) *ChangePublisher {
	if logger == nil {
		logger = applog.FromContext(context.Background())
	}
	return &ChangePublisher{publisher: p, logger: logger.WithComponent(applog.ComponentPublisher)}
}

// Attach subscribes to st and returns the unsubscribe function.
func (c *ChangePublisher) Attach(st *store.Store) func() {
	return st.Subscribe(c.Handle)
}

// Handle publishes one change.
func (c *ChangePublisher) Handle(ctx context.Context, change store.Change) {
	if c.publisher == nil {
		return
	}
	msg := amqp.NewChangeMessage(string(change.Kind), change.Expense.ID, change.Revision)
	if err := c.publisher.PublishChange(context.WithoutCancel(ctx), msg); err != nil {
		c.logger.Log(ctx, slog.LevelError, "Failed to publish change",
			applog.FieldOperation, applog.OpPublish,
			applog.FieldExpenseID, change.Expense.ID,
			applog.FieldRevision, change.Revision,
			applog.FieldError, err.Error())
	}
}
