// Package services orchestrates the ledger: transaction and transfer
// lifecycles, budget maintenance, recurring materialization and cleanup.
// Every multi-step mutation runs inside one storage transaction so callers
// observe either full success or no effect.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

const (
	// BudgetWarningThreshold is the percentage at which a warning fires.
	BudgetWarningThreshold = 80
	// BudgetExceededThreshold is the percentage at which the exceeded alert fires.
	BudgetExceededThreshold = 100
)

// BudgetTracker keeps Budget.SpentAmount synchronized with the set of
// non-deleted debit transactions sharing the budget's (user, category,
// month, year), and drives the warning/exceeded notification latch.
//
// All methods run inside the caller's storage transaction; the tracker never
// opens its own.
type BudgetTracker struct {
	publisher NotificationPublisher
}

func NewBudgetTracker(publisher NotificationPublisher) *BudgetTracker {
	return &BudgetTracker{publisher: publisher}
}

// OnTransactionCreated adds a new debit to its matching budget, if any.
func (bt *BudgetTracker) OnTransactionCreated(ctx context.Context, q *storage.Queries, tx *core.Transaction) error {
	if tx.Type != core.Debit {
		return nil
	}

	budget, err := q.FindBudget(ctx, tx.UserID, tx.CategoryID, tx.Month(), tx.Year())
	if err != nil {
		return fmt.Errorf("find matching budget: %w", err)
	}
	if budget == nil {
		slog.DebugContext(ctx, "No budget matches transaction", "transaction_id", tx.ID)
		return nil
	}

	budget.SpentAmount = budget.SpentAmount.Add(tx.Amount)
	if err := q.UpdateBudgetSpent(ctx, budget.ID, budget.SpentAmount); err != nil {
		return err
	}
	return bt.CheckThresholds(ctx, q, budget)
}

// OnTransactionUpdated reverses the old debit's effect on its old matching
// budget and applies the new debit's effect on its new one. The two budgets
// are independent rows whenever the category or the month/year changed; each
// is re-evaluated for thresholds after its own change. Both transactions
// must be debits; type changes are handled by the caller as pure
// creation/reversal.
func (bt *BudgetTracker) OnTransactionUpdated(ctx context.Context, q *storage.Queries, newTx, oldTx *core.Transaction) error {
	amountChanged := !newTx.Amount.Equal(oldTx.Amount)
	categoryChanged := newTx.CategoryID != oldTx.CategoryID
	periodChanged := newTx.Month() != oldTx.Month() || newTx.Year() != oldTx.Year()
	if !amountChanged && !categoryChanged && !periodChanged {
		return nil
	}

	oldBudget, err := q.FindBudget(ctx, oldTx.UserID, oldTx.CategoryID, oldTx.Month(), oldTx.Year())
	if err != nil {
		return fmt.Errorf("find old matching budget: %w", err)
	}
	if oldBudget != nil {
		oldBudget.SpentAmount = oldBudget.SpentAmount.Sub(oldTx.Amount)
		if err := q.UpdateBudgetSpent(ctx, oldBudget.ID, oldBudget.SpentAmount); err != nil {
			return err
		}
		if err := bt.CheckThresholds(ctx, q, oldBudget); err != nil {
			return err
		}
	}

	newBudget, err := q.FindBudget(ctx, newTx.UserID, newTx.CategoryID, newTx.Month(), newTx.Year())
	if err != nil {
		return fmt.Errorf("find new matching budget: %w", err)
	}
	if newBudget != nil {
		// Same budget row when only the amount changed; re-read already
		// reflects the reversal above.
		newBudget.SpentAmount = newBudget.SpentAmount.Add(newTx.Amount)
		if err := q.UpdateBudgetSpent(ctx, newBudget.ID, newBudget.SpentAmount); err != nil {
			return err
		}
		if err := bt.CheckThresholds(ctx, q, newBudget); err != nil {
			return err
		}
	}
	return nil
}

// OnTransactionDeleted removes a debit's contribution from its matching budget.
func (bt *BudgetTracker) OnTransactionDeleted(ctx context.Context, q *storage.Queries, tx *core.Transaction) error {
	if tx.Type != core.Debit {
		return nil
	}

	budget, err := q.FindBudget(ctx, tx.UserID, tx.CategoryID, tx.Month(), tx.Year())
	if err != nil {
		return fmt.Errorf("find matching budget: %w", err)
	}
	if budget == nil {
		return nil
	}

	budget.SpentAmount = budget.SpentAmount.Sub(tx.Amount)
	if err := q.UpdateBudgetSpent(ctx, budget.ID, budget.SpentAmount); err != nil {
		return err
	}
	return bt.CheckThresholds(ctx, q, budget)
}

// CheckThresholds evaluates the three-state latch (normal / warned /
// exceeded) after a spent-amount mutation. A notification fires only on the
// rising transition into a band; falling back resets the flags silently so
// future alerts re-arm.
func (bt *BudgetTracker) CheckThresholds(ctx context.Context, q *storage.Queries, budget *core.Budget) error {
	percentage := budget.PercentageUsed()

	switch {
	case percentage < BudgetWarningThreshold:
		if budget.WarningNotificationSent || budget.ExceededNotificationSent {
			budget.WarningNotificationSent = false
			budget.ExceededNotificationSent = false
			return q.UpdateBudgetFlags(ctx, budget.ID, false, false)
		}

	case percentage < BudgetExceededThreshold:
		changed := false
		if budget.ExceededNotificationSent {
			budget.ExceededNotificationSent = false
			changed = true
		}
		if !budget.WarningNotificationSent {
			bt.publishAlert(ctx, amqp.KindBudgetWarning, budget, percentage)
			budget.WarningNotificationSent = true
			changed = true
		}
		if changed {
			return q.UpdateBudgetFlags(ctx, budget.ID, budget.WarningNotificationSent, budget.ExceededNotificationSent)
		}

	default:
		if !budget.ExceededNotificationSent {
			bt.publishAlert(ctx, amqp.KindBudgetExceeded, budget, percentage)
			budget.ExceededNotificationSent = true
			return q.UpdateBudgetFlags(ctx, budget.ID, budget.WarningNotificationSent, true)
		}
	}
	return nil
}

func (bt *BudgetTracker) publishAlert(ctx context.Context, kind amqp.Kind, budget *core.Budget, percentage int) {
	if bt.publisher == nil {
		return
	}

	alert := &amqp.BudgetAlert{
		BudgetID:    budget.ID,
		UserID:      budget.UserID,
		CategoryID:  budget.CategoryID,
		Month:       budget.Month,
		Year:        budget.Year,
		Amount:      budget.Amount.String(),
		SpentAmount: budget.SpentAmount.String(),
		Remaining:   budget.Remaining().String(),
		Percentage:  percentage,
	}
	if err := bt.publisher.PublishBudgetAlert(ctx, kind, alert); err != nil {
		// Fire-and-forget: the dispatch layer retries, the ledger moves on.
		slog.ErrorContext(ctx, "Failed to publish budget alert",
			"budget_id", budget.ID,
			"kind", kind,
			"error", err)
	}
}
