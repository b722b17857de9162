package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// defaultRecurringDescription fills in for templates created without one.
const defaultRecurringDescription = "Recurring transaction"

// RecurringProcessor materializes due templates into real transactions. One
// storage transaction per template: the created transaction, the wallet and
// budget effects, and the schedule advance commit together or not at all. A
// template that fails is logged and retried on the next tick because its
// next-execution-at never moved.
type RecurringProcessor struct {
	repo         *storage.Repository
	transactions *TransactionService
	publisher    NotificationPublisher
}

func NewRecurringProcessor(repo *storage.Repository, transactions *TransactionService, publisher NotificationPublisher) *RecurringProcessor {
	return &RecurringProcessor{
		repo:         repo,
		transactions: transactions,
		publisher:    publisher,
	}
}

// ProcessDueTransactions handles every template whose next execution is at
// or before now. Returns the number of transactions materialized.
func (p *RecurringProcessor) ProcessDueTransactions(ctx context.Context, now time.Time) (int, error) {
	ids, err := p.repo.Queries().ListDueRecurringTransactions(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("list due recurring transactions: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	slog.InfoContext(ctx, "Processing due recurring transactions", "count", len(ids))

	processed := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return processed, err
		}

		event, err := p.processOne(ctx, id, now)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to process recurring transaction",
				"recurring_id", id,
				"error", err)
			continue
		}
		if event != nil {
			processed++
			p.publishProcessed(ctx, event)
		}
	}
	return processed, nil
}

// processOne materializes a single template inside its own transaction. A
// nil event with nil error means the template was skipped or retired.
func (p *RecurringProcessor) processOne(ctx context.Context, id uuid.UUID, now time.Time) (*amqp.RecurringProcessed, error) {
	var event *amqp.RecurringProcessed

	err := p.repo.WithTx(ctx, func(q *storage.Queries) error {
		rt, err := q.GetRecurringTransaction(ctx, id)
		if err != nil {
			return err
		}
		// The due list is a snapshot; another worker may have advanced or
		// deleted the template since.
		if rt.IsDeleted || rt.NextExecutionAt.After(now) {
			return nil
		}

		valid, err := p.templateStillValid(ctx, q, rt)
		if err != nil {
			return err
		}
		if !valid {
			slog.InfoContext(ctx, "Retiring invalid recurring transaction", "recurring_id", rt.ID)
			return q.SoftDeleteRecurringTransaction(ctx, rt.ID)
		}

		description := rt.Description
		if description == "" {
			description = defaultRecurringDescription
		}

		tx := &core.Transaction{
			ID:            uuid.New(),
			UserID:        rt.UserID,
			WalletID:      rt.WalletID,
			CategoryID:    rt.CategoryID,
			Type:          rt.Type,
			Amount:        rt.Amount,
			Description:   description,
			TransactionAt: rt.NextExecutionAt,
		}
		if err := p.transactions.createInTx(ctx, q, tx); err != nil {
			return fmt.Errorf("materialize transaction: %w", err)
		}

		nextAt, err := core.NextExecutionDate(rt.Frequency, rt.StartAt, rt.NextExecutionAt)
		if err != nil {
			return fmt.Errorf("compute next execution: %w", err)
		}
		if err := q.AdvanceRecurringTransaction(ctx, rt.ID, rt.NextExecutionAt, nextAt); err != nil {
			return err
		}

		event = &amqp.RecurringProcessed{
			RecurringID:     rt.ID,
			TransactionID:   tx.ID,
			UserID:          rt.UserID,
			Type:            string(rt.Type),
			Amount:          rt.Amount.String(),
			ExecutedAt:      rt.NextExecutionAt,
			NextExecutionAt: nextAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

// templateStillValid applies the scheduler gate: the owning user, wallet and
// category must all still be live, and the end date (if any) must not fall
// before the next execution date. Time of day is ignored on both sides of
// the end-date comparison.
func (p *RecurringProcessor) templateStillValid(ctx context.Context, q *storage.Queries, rt *core.RecurringTransaction) (bool, error) {
	user, err := q.GetUser(ctx, rt.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if user.IsDeleted {
		return false, nil
	}

	wallet, err := q.GetWallet(ctx, rt.WalletID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if wallet.IsDeleted {
		return false, nil
	}

	category, err := q.GetCategory(ctx, rt.CategoryID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if category.IsDeleted {
		return false, nil
	}

	if rt.EndAt != nil && dateBefore(*rt.EndAt, rt.NextExecutionAt) {
		return false, nil
	}
	return true, nil
}

func (p *RecurringProcessor) publishProcessed(ctx context.Context, event *amqp.RecurringProcessed) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.PublishRecurringProcessed(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish recurring processed event",
			"recurring_id", event.RecurringID,
			"error", err)
	}
}

// dateBefore reports whether a's calendar date (UTC) precedes b's.
func dateBefore(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	if ay != by {
		return ay < by
	}
	if am != bm {
		return am < bm
	}
	return ad < bd
}
