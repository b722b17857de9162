package services

import (
	"context"

	"fintrack/internal/amqp"
)

// NotificationPublisher is the async notification sink. The AMQP client
// satisfies it; tests substitute a recording fake. Publish failures are
// logged by callers and never affect ledger state.
type NotificationPublisher interface {
	PublishBudgetAlert(ctx context.Context, kind amqp.Kind, alert *amqp.BudgetAlert) error
	PublishRecurringProcessed(ctx context.Context, event *amqp.RecurringProcessed) error
}
