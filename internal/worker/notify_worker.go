// Package worker turns queued notification messages into outbound mail.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
)

// Mailer delivers a rendered notification. Actual transport lives behind
// this boundary; LogMailer stands in when no provider is configured.
type Mailer interface {
	Send(ctx context.Context, subject, body string) error
}

// LogMailer writes notifications to the log instead of sending them.
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, subject, body string) error {
	slog.InfoContext(ctx, "Mail notification", "subject", subject, "body", body)
	return nil
}

// NotifyWorker renders notification messages and hands them to the Mailer.
type NotifyWorker struct {
	mailer Mailer
}

func NewNotifyWorker(mailer Mailer) *NotifyWorker {
	return &NotifyWorker{mailer: mailer}
}

// HandleNotification is the consume-loop handler. Returning an error
// requeues the message for another attempt.
func (w *NotifyWorker) HandleNotification(ctx context.Context, msg *amqp.NotificationMessage) error {
	switch msg.Kind {
	case amqp.KindBudgetWarning:
		if msg.Budget == nil {
			return fmt.Errorf("budget warning message without budget payload")
		}
		return w.mailer.Send(ctx,
			"Budget warning",
			fmt.Sprintf("Budget %s is at %d%%: spent %s of %s for %02d/%d, %s remaining.",
				msg.Budget.BudgetID, msg.Budget.Percentage, msg.Budget.SpentAmount,
				msg.Budget.Amount, msg.Budget.Month, msg.Budget.Year, msg.Budget.Remaining))

	case amqp.KindBudgetExceeded:
		if msg.Budget == nil {
			return fmt.Errorf("budget exceeded message without budget payload")
		}
		return w.mailer.Send(ctx,
			"Budget exceeded",
			fmt.Sprintf("Budget %s is exhausted: spent %s of %s for %02d/%d.",
				msg.Budget.BudgetID, msg.Budget.SpentAmount, msg.Budget.Amount,
				msg.Budget.Month, msg.Budget.Year))

	case amqp.KindRecurringProcessed:
		if msg.Recurring == nil {
			return fmt.Errorf("recurring processed message without recurring payload")
		}
		return w.mailer.Send(ctx,
			"Recurring transaction processed",
			fmt.Sprintf("Recurring transaction %s created %s transaction %s of %s; next execution %s.",
				msg.Recurring.RecurringID, msg.Recurring.Type, msg.Recurring.TransactionID,
				msg.Recurring.Amount, msg.Recurring.NextExecutionAt.Format("2006-01-02")))

	default:
		return fmt.Errorf("unknown notification kind %q", msg.Kind)
	}
}
