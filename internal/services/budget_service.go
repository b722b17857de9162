package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// BudgetService manages monthly category budgets. Spent amounts are
// recomputed from scratch on create and on category reassignment so a budget
// opened mid-month immediately reflects the debits already recorded.
type BudgetService struct {
	repo    *storage.Repository
	tracker *BudgetTracker
}

func NewBudgetService(repo *storage.Repository, tracker *BudgetTracker) *BudgetService {
	return &BudgetService{repo: repo, tracker: tracker}
}

type CreateBudgetInput struct {
	UserID     uuid.UUID
	CategoryID uuid.UUID
	Month      int
	Year       int
	Amount     decimal.Decimal
}

type UpdateBudgetInput struct {
	CategoryID uuid.UUID
	Amount     decimal.Decimal
}

// Create opens a budget for one (user, category, month, year). At most one
// live budget may exist per period; duplicates are rejected with
// ErrDuplicateBudget. The spent amount is summed from the matching debit
// transactions and the thresholds evaluated immediately, so a budget created
// over an already-overspent month alerts right away.
func (s *BudgetService) Create(ctx context.Context, in CreateBudgetInput) (*core.Budget, error) {
	b := &core.Budget{
		ID:          uuid.New(),
		UserID:      in.UserID,
		CategoryID:  in.CategoryID,
		Month:       in.Month,
		Year:        in.Year,
		Amount:      in.Amount,
		SpentAmount: decimal.Zero,
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}

	err := s.repo.WithTx(ctx, func(q *storage.Queries) error {
		existing, err := q.FindBudget(ctx, b.UserID, b.CategoryID, b.Month, b.Year)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("budget for period %d/%d: %w", b.Month, b.Year, core.ErrDuplicateBudget)
		}

		spent, err := q.SumMatchingDebits(ctx, b.UserID, b.CategoryID, b.Month, b.Year)
		if err != nil {
			return err
		}
		b.SpentAmount = spent

		if err := q.CreateBudget(ctx, b); err != nil {
			return err
		}
		return s.tracker.CheckThresholds(ctx, q, b)
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Get returns a live budget; soft-deleted rows report ErrNotFound.
func (s *BudgetService) Get(ctx context.Context, id uuid.UUID) (*core.Budget, error) {
	b, err := s.repo.Queries().GetBudget(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.IsDeleted {
		return nil, core.ErrNotFound
	}
	return b, nil
}

// Update changes the budget amount and, optionally, its category. Moving the
// budget to another category recomputes the spent amount from that
// category's debits and resets both notification flags before thresholds
// are re-evaluated against the new figures.
func (s *BudgetService) Update(ctx context.Context, id uuid.UUID, in UpdateBudgetInput) (*core.Budget, error) {
	var updated *core.Budget

	err := s.repo.WithTx(ctx, func(q *storage.Queries) error {
		b, err := q.GetBudget(ctx, id)
		if err != nil {
			return err
		}
		if b.IsDeleted {
			return core.ErrNotFound
		}

		if err := core.ValidateAmount(in.Amount); err != nil {
			return err
		}

		if in.CategoryID != b.CategoryID {
			duplicate, err := q.FindBudget(ctx, b.UserID, in.CategoryID, b.Month, b.Year)
			if err != nil {
				return err
			}
			if duplicate != nil {
				return fmt.Errorf("budget for period %d/%d: %w", b.Month, b.Year, core.ErrDuplicateBudget)
			}

			spent, err := q.SumMatchingDebits(ctx, b.UserID, in.CategoryID, b.Month, b.Year)
			if err != nil {
				return err
			}
			b.CategoryID = in.CategoryID
			b.SpentAmount = spent
			b.WarningNotificationSent = false
			b.ExceededNotificationSent = false
		}
		b.Amount = in.Amount

		if err := q.UpdateBudget(ctx, b); err != nil {
			return err
		}
		if err := s.tracker.CheckThresholds(ctx, q, b); err != nil {
			return err
		}
		updated = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete soft-deletes a budget. The transactions that fed it are untouched.
func (s *BudgetService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.WithTx(ctx, func(q *storage.Queries) error {
		return q.SoftDeleteBudget(ctx, id)
	})
}
