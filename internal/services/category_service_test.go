package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/internal/core"
)

func TestCategoryService_Delete_LiveReference(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	txs := NewTransactionService(env.repo, env.tracker)
	tx, err := txs.Create(ctx, CreateTransactionInput{
		UserID:        env.user.ID,
		WalletID:      env.wallet.ID,
		CategoryID:    env.category.ID,
		Type:          core.Debit,
		Amount:        dec("50"),
		TransactionAt: at(2025, time.March, 10, 12),
	})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}

	svc := NewCategoryService(env.repo)
	if err := svc.Delete(ctx, env.category.ID); !errors.Is(err, core.ErrCategoryInUse) {
		t.Errorf("error = %v, want ErrCategoryInUse", err)
	}

	// Removing the reference frees the category.
	if err := txs.Delete(ctx, tx.ID); err != nil {
		t.Fatalf("delete transaction: %v", err)
	}
	if err := svc.Delete(ctx, env.category.ID); err != nil {
		t.Errorf("delete after reference removed: %v", err)
	}
	if _, err := svc.Get(ctx, env.category.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("get after delete: error = %v, want ErrNotFound", err)
	}
}

func TestCategoryService_Delete_AlreadyDeleted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	svc := NewCategoryService(env.repo)
	extra, err := svc.Create(ctx, env.user.ID, "misc")
	if err != nil {
		t.Fatalf("create category: %v", err)
	}

	if err := svc.Delete(ctx, extra.ID); err != nil {
		t.Fatalf("delete category: %v", err)
	}
	if err := svc.Delete(ctx, extra.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("second delete: error = %v, want ErrNotFound", err)
	}
}
