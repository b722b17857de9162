package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/internal/core"
)

func newProcessor(env *testEnv) (*RecurringProcessor, *RecurringService) {
	transactions := NewTransactionService(env.repo, env.tracker)
	return NewRecurringProcessor(env.repo, transactions, env.publisher), NewRecurringService(env.repo)
}

func TestRecurringProcessor_Materializes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	processor, recurring := newProcessor(env)

	rt, err := recurring.Create(ctx, CreateRecurringInput{
		UserID:     env.user.ID,
		WalletID:   env.wallet.ID,
		CategoryID: env.category.ID,
		Type:       core.Debit,
		Amount:     dec("50"),
		Frequency:  core.Monthly,
		StartAt:    at(2025, time.March, 1, 9),
	})
	if err != nil {
		t.Fatalf("create recurring: %v", err)
	}

	count, err := processor.ProcessDueTransactions(ctx, at(2025, time.March, 2, 0))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if count != 1 {
		t.Fatalf("processed %d, want 1", count)
	}

	assertDecimal(t, env.walletBalance(t, env.wallet.ID), "950", "wallet balance")

	// Schedule advanced one month, occurrence recorded.
	got, err := recurring.Get(ctx, rt.ID)
	if err != nil {
		t.Fatalf("get recurring: %v", err)
	}
	wantNext := at(2025, time.April, 1, 9)
	if !got.NextExecutionAt.Equal(wantNext) {
		t.Errorf("next execution = %v, want %v", got.NextExecutionAt, wantNext)
	}
	if got.LastExecutedAt == nil || !got.LastExecutedAt.Equal(at(2025, time.March, 1, 9)) {
		t.Errorf("last executed = %v, want 2025-03-01T09:00", got.LastExecutedAt)
	}

	// A processed event went out carrying the new transaction.
	if len(env.publisher.events) != 1 {
		t.Fatalf("published %d events, want 1", len(env.publisher.events))
	}
	event := env.publisher.events[0]
	if event.RecurringID != rt.ID {
		t.Errorf("event recurring id = %v, want %v", event.RecurringID, rt.ID)
	}

	// The materialized transaction carries the occurrence date and the
	// fallback description.
	transactions := NewTransactionService(env.repo, env.tracker)
	tx, err := transactions.Get(ctx, event.TransactionID)
	if err != nil {
		t.Fatalf("get materialized transaction: %v", err)
	}
	if tx.Description != "Recurring transaction" {
		t.Errorf("description = %q, want %q", tx.Description, "Recurring transaction")
	}
	if !tx.TransactionAt.Equal(at(2025, time.March, 1, 9)) {
		t.Errorf("transaction at = %v, want occurrence date", tx.TransactionAt)
	}

	// Nothing further is due before April.
	count, err = processor.ProcessDueTransactions(ctx, at(2025, time.March, 2, 0))
	if err != nil {
		t.Fatalf("second process: %v", err)
	}
	if count != 0 {
		t.Errorf("second run processed %d, want 0", count)
	}
	assertDecimal(t, env.walletBalance(t, env.wallet.ID), "950", "wallet balance after second run")
}

func TestRecurringProcessor_FeedsBudget(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	processor, recurring := newProcessor(env)

	budgets := NewBudgetService(env.repo, env.tracker)
	budget, err := budgets.Create(ctx, CreateBudgetInput{
		UserID: env.user.ID, CategoryID: env.category.ID, Month: 3, Year: 2025, Amount: dec("100"),
	})
	if err != nil {
		t.Fatalf("create budget: %v", err)
	}

	if _, err := recurring.Create(ctx, CreateRecurringInput{
		UserID:     env.user.ID,
		WalletID:   env.wallet.ID,
		CategoryID: env.category.ID,
		Type:       core.Debit,
		Amount:     dec("85"),
		Frequency:  core.Monthly,
		StartAt:    at(2025, time.March, 1, 9),
	}); err != nil {
		t.Fatalf("create recurring: %v", err)
	}

	if _, err := processor.ProcessDueTransactions(ctx, at(2025, time.March, 2, 0)); err != nil {
		t.Fatalf("process: %v", err)
	}

	// Materialized debits count against the budget like manual ones, alerts
	// included.
	assertDecimal(t, env.budget(t, budget.ID).SpentAmount, "85", "budget spent")
	if len(env.publisher.alerts) != 1 {
		t.Errorf("published %d alerts, want 1 warning", len(env.publisher.alerts))
	}
}

func TestRecurringProcessor_RetiresExpiredTemplate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	processor, recurring := newProcessor(env)

	end := at(2025, time.March, 15, 0)
	rt, err := recurring.Create(ctx, CreateRecurringInput{
		UserID:     env.user.ID,
		WalletID:   env.wallet.ID,
		CategoryID: env.category.ID,
		Type:       core.Debit,
		Amount:     dec("50"),
		Frequency:  core.Monthly,
		StartAt:    at(2025, time.March, 1, 9),
		EndAt:      &end,
	})
	if err != nil {
		t.Fatalf("create recurring: %v", err)
	}

	// March 1 executes; the April occurrence falls past the end date.
	if _, err := processor.ProcessDueTransactions(ctx, at(2025, time.March, 2, 0)); err != nil {
		t.Fatalf("first process: %v", err)
	}
	count, err := processor.ProcessDueTransactions(ctx, at(2025, time.April, 2, 0))
	if err != nil {
		t.Fatalf("second process: %v", err)
	}
	if count != 0 {
		t.Errorf("second run processed %d, want 0", count)
	}

	if _, err := recurring.Get(ctx, rt.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("template still live after expiry: error = %v, want ErrNotFound", err)
	}
	// Only the March execution hit the wallet.
	assertDecimal(t, env.walletBalance(t, env.wallet.ID), "950", "wallet balance")
}

func TestRecurringProcessor_RetiresOrphanedTemplate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	processor, recurring := newProcessor(env)

	rt, err := recurring.Create(ctx, CreateRecurringInput{
		UserID:     env.user.ID,
		WalletID:   env.wallet.ID,
		CategoryID: env.category.ID,
		Type:       core.Debit,
		Amount:     dec("50"),
		Frequency:  core.Daily,
		StartAt:    at(2025, time.March, 1, 9),
	})
	if err != nil {
		t.Fatalf("create recurring: %v", err)
	}

	// Orphan the template by removing its category underneath it.
	if err := env.repo.Queries().SoftDeleteCategory(ctx, env.category.ID); err != nil {
		t.Fatalf("soft delete category: %v", err)
	}

	count, err := processor.ProcessDueTransactions(ctx, at(2025, time.March, 2, 0))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if count != 0 {
		t.Errorf("processed %d, want 0", count)
	}
	if _, err := recurring.Get(ctx, rt.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("orphaned template still live: error = %v, want ErrNotFound", err)
	}
	assertDecimal(t, env.walletBalance(t, env.wallet.ID), "1000", "wallet balance")
}
