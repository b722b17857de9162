package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

type publishedAlert struct {
	kind  amqp.Kind
	alert *amqp.BudgetAlert
}

// fakePublisher records what would have gone to the broker.
type fakePublisher struct {
	alerts []publishedAlert
	events []*amqp.RecurringProcessed
}

func (f *fakePublisher) PublishBudgetAlert(_ context.Context, kind amqp.Kind, alert *amqp.BudgetAlert) error {
	f.alerts = append(f.alerts, publishedAlert{kind: kind, alert: alert})
	return nil
}

func (f *fakePublisher) PublishRecurringProcessed(_ context.Context, event *amqp.RecurringProcessed) error {
	f.events = append(f.events, event)
	return nil
}

// testEnv is a fresh database seeded with one user, one category and one
// wallet holding 1000.
type testEnv struct {
	repo      *storage.Repository
	publisher *fakePublisher
	tracker   *BudgetTracker
	user      *core.User
	category  *core.Category
	wallet    *core.Wallet
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	ctx := context.Background()
	q := repo.Queries()

	user := &core.User{ID: uuid.New(), Email: "alex@example.com", Username: "alex"}
	if err := q.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	category := &core.Category{ID: uuid.New(), UserID: user.ID, Name: "groceries"}
	if err := q.CreateCategory(ctx, category); err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}

	wallet := &core.Wallet{ID: uuid.New(), UserID: user.ID, Name: "checking", Balance: dec("1000")}
	if err := q.CreateWallet(ctx, wallet); err != nil {
		t.Fatalf("CreateWallet: %v", err)
	}

	publisher := &fakePublisher{}
	return &testEnv{
		repo:      repo,
		publisher: publisher,
		tracker:   NewBudgetTracker(publisher),
		user:      user,
		category:  category,
		wallet:    wallet,
	}
}

// newCategory seeds an extra category for the same user.
func (e *testEnv) newCategory(t *testing.T, name string) *core.Category {
	t.Helper()
	c := &core.Category{ID: uuid.New(), UserID: e.user.ID, Name: name}
	if err := e.repo.Queries().CreateCategory(context.Background(), c); err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	return c
}

// newWallet seeds an extra wallet for the same user.
func (e *testEnv) newWallet(t *testing.T, name string, balance decimal.Decimal) *core.Wallet {
	t.Helper()
	w := &core.Wallet{ID: uuid.New(), UserID: e.user.ID, Name: name, Balance: balance}
	if err := e.repo.Queries().CreateWallet(context.Background(), w); err != nil {
		t.Fatalf("CreateWallet: %v", err)
	}
	return w
}

// walletBalance re-reads the current balance.
func (e *testEnv) walletBalance(t *testing.T, id uuid.UUID) decimal.Decimal {
	t.Helper()
	w, err := e.repo.Queries().GetWallet(context.Background(), id)
	if err != nil {
		t.Fatalf("GetWallet: %v", err)
	}
	return w.Balance
}

// budget re-reads a budget row.
func (e *testEnv) budget(t *testing.T, id uuid.UUID) *core.Budget {
	t.Helper()
	b, err := e.repo.Queries().GetBudget(context.Background(), id)
	if err != nil {
		t.Fatalf("GetBudget: %v", err)
	}
	return b
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func at(year int, month time.Month, day, hour int) time.Time {
	return time.Date(year, month, day, hour, 0, 0, 0, time.UTC)
}

func assertDecimal(t *testing.T, got decimal.Decimal, want string, label string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Errorf("%s = %s, want %s", label, got, want)
	}
}
