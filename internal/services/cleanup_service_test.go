package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
)

func TestCleanupService_DeleteUser_Cascade(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	q := env.repo.Queries()

	// A supervised child account with its own wallet.
	child := &core.User{ID: uuid.New(), Email: "kid@example.com", Username: "kid", ParentID: &env.user.ID}
	if err := q.CreateUser(ctx, child); err != nil {
		t.Fatalf("create child user: %v", err)
	}
	childWallet := &core.Wallet{ID: uuid.New(), UserID: child.ID, Name: "allowance", Balance: dec("20")}
	if err := q.CreateWallet(ctx, childWallet); err != nil {
		t.Fatalf("create child wallet: %v", err)
	}

	// Parent-owned data across the tables.
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

	svc := NewCleanupService(env.repo, 30)
	if err := svc.DeleteUser(ctx, env.user.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}

	for name, check := range map[string]func() bool{
		"parent user": func() bool { u, _ := q.GetUser(ctx, env.user.ID); return u != nil && u.IsDeleted },
		"child user":  func() bool { u, _ := q.GetUser(ctx, child.ID); return u != nil && u.IsDeleted },
		"child wallet": func() bool {
			w, _ := q.GetWallet(ctx, childWallet.ID)
			return w != nil && w.IsDeleted
		},
		"parent wallet": func() bool { w, _ := q.GetWallet(ctx, env.wallet.ID); return w != nil && w.IsDeleted },
		"transaction":   func() bool { tr, _ := q.GetTransaction(ctx, tx.ID); return tr != nil && tr.IsDeleted },
		"category": func() bool {
			c, _ := q.GetCategory(ctx, env.category.ID)
			return c != nil && c.IsDeleted
		},
	} {
		if !check() {
			t.Errorf("%s not soft-deleted by cascade", name)
		}
	}

	if err := svc.DeleteUser(ctx, env.user.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("second delete: error = %v, want ErrNotFound", err)
	}
}

func TestCleanupService_PurgeExpired(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	q := env.repo.Queries()

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
	if err := txs.Delete(ctx, tx.ID); err != nil {
		t.Fatalf("delete transaction: %v", err)
	}

	svc := NewCleanupService(env.repo, 30)

	// Inside the grace period nothing is purged; the row is recoverable.
	removed, err := svc.PurgeExpired(ctx, time.Now())
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if removed != 0 {
		t.Errorf("purged %d rows inside retention window, want 0", removed)
	}
	if tr, err := q.GetTransaction(ctx, tx.ID); err != nil || !tr.IsDeleted {
		t.Errorf("soft-deleted row missing before expiry: tr=%v err=%v", tr, err)
	}

	// Past the window the row is gone for good.
	removed, err = svc.PurgeExpired(ctx, time.Now().AddDate(0, 0, 31))
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if removed != 1 {
		t.Errorf("purged %d rows past retention window, want 1", removed)
	}
	if _, err := q.GetTransaction(ctx, tx.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("hard-deleted row still readable: error = %v, want ErrNotFound", err)
	}
}
