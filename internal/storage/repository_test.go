package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedWallet(t *testing.T, q *Queries, balance string) *core.Wallet {
	t.Helper()
	ctx := context.Background()

	user := &core.User{ID: uuid.New(), Email: "sam@example.com", Username: "sam"}
	if err := q.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	wallet := &core.Wallet{
		ID:      uuid.New(),
		UserID:  user.ID,
		Name:    "checking",
		Balance: decimal.RequireFromString(balance),
	}
	if err := q.CreateWallet(ctx, wallet); err != nil {
		t.Fatalf("CreateWallet: %v", err)
	}
	return wallet
}

func TestAdjustWalletBalance(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	wallet := seedWallet(t, repo.Queries(), "100.10")

	err := repo.WithTx(ctx, func(q *Queries) error {
		return q.AdjustWalletBalance(ctx, wallet.ID, decimal.RequireFromString("-0.30"))
	})
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}

	got, err := repo.Queries().GetWallet(ctx, wallet.ID)
	if err != nil {
		t.Fatalf("GetWallet: %v", err)
	}
	// Exact decimal arithmetic, no float drift.
	if !got.Balance.Equal(decimal.RequireFromString("99.8")) {
		t.Errorf("balance = %s, want 99.8", got.Balance)
	}
}

func TestAdjustWalletBalance_DeletedWallet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	wallet := seedWallet(t, repo.Queries(), "0")

	if err := repo.Queries().SoftDeleteWallet(ctx, wallet.ID); err != nil {
		t.Fatalf("SoftDeleteWallet: %v", err)
	}

	err := repo.WithTx(ctx, func(q *Queries) error {
		return q.AdjustWalletBalance(ctx, wallet.ID, decimal.NewFromInt(10))
	})
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	wallet := seedWallet(t, repo.Queries(), "100")

	sentinel := errors.New("boom")
	err := repo.WithTx(ctx, func(q *Queries) error {
		if err := q.AdjustWalletBalance(ctx, wallet.ID, decimal.NewFromInt(-40)); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("error = %v, want sentinel", err)
	}

	got, err := repo.Queries().GetWallet(ctx, wallet.ID)
	if err != nil {
		t.Fatalf("GetWallet: %v", err)
	}
	if !got.Balance.Equal(decimal.NewFromInt(100)) {
		t.Errorf("balance = %s after rollback, want 100", got.Balance)
	}
}

func TestFindBudget_AbsenceIsNotAnError(t *testing.T) {
	repo := newTestRepo(t)

	b, err := repo.Queries().FindBudget(context.Background(), uuid.New(), uuid.New(), 3, 2025)
	if err != nil {
		t.Fatalf("FindBudget: %v", err)
	}
	if b != nil {
		t.Errorf("budget = %+v, want nil", b)
	}
}

func TestListDueRecurringTransactions(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	q := repo.Queries()
	wallet := seedWallet(t, q, "0")

	category := &core.Category{ID: uuid.New(), UserID: wallet.UserID, Name: "bills"}
	if err := q.CreateCategory(ctx, category); err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}

	mk := func(next time.Time) uuid.UUID {
		t.Helper()
		rt := &core.RecurringTransaction{
			ID:              uuid.New(),
			UserID:          wallet.UserID,
			WalletID:        wallet.ID,
			CategoryID:      category.ID,
			Type:            core.Debit,
			Amount:          decimal.NewFromInt(10),
			Frequency:       core.Monthly,
			StartAt:         next,
			NextExecutionAt: next,
		}
		if err := q.CreateRecurringTransaction(ctx, rt); err != nil {
			t.Fatalf("CreateRecurringTransaction: %v", err)
		}
		return rt.ID
	}

	now := time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC)
	due := mk(now.AddDate(0, 0, -1))
	alsoDue := mk(now)
	notDue := mk(now.AddDate(0, 0, 1))

	ids, err := q.ListDueRecurringTransactions(ctx, now)
	if err != nil {
		t.Fatalf("ListDueRecurringTransactions: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("len(ids) = %d, want 2", len(ids))
	}
	if ids[0] != due || ids[1] != alsoDue {
		t.Errorf("ids = %v, want [%v %v] ordered by next execution", ids, due, alsoDue)
	}
	for _, id := range ids {
		if id == notDue {
			t.Errorf("future template %v listed as due", notDue)
		}
	}
}
