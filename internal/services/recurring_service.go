package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// RecurringService manages the templates the scheduler materializes from.
type RecurringService struct {
	repo *storage.Repository
}

func NewRecurringService(repo *storage.Repository) *RecurringService {
	return &RecurringService{repo: repo}
}

type CreateRecurringInput struct {
	UserID      uuid.UUID
	WalletID    uuid.UUID
	CategoryID  uuid.UUID
	Type        core.TransactionType
	Amount      decimal.Decimal
	Description string
	Frequency   core.Frequency
	StartAt     time.Time
	EndAt       *time.Time
}

type UpdateRecurringInput struct {
	WalletID    uuid.UUID
	CategoryID  uuid.UUID
	Type        core.TransactionType
	Amount      decimal.Decimal
	Description string
	Frequency   core.Frequency
	StartAt     time.Time
	EndAt       *time.Time
}

// Create stores a template. The first occurrence is the start instant
// itself, so next-execution-at starts equal to start-at.
func (s *RecurringService) Create(ctx context.Context, in CreateRecurringInput) (*core.RecurringTransaction, error) {
	rt := &core.RecurringTransaction{
		ID:              uuid.New(),
		UserID:          in.UserID,
		WalletID:        in.WalletID,
		CategoryID:      in.CategoryID,
		Type:            in.Type,
		Amount:          in.Amount,
		Description:     in.Description,
		Frequency:       in.Frequency,
		StartAt:         in.StartAt.UTC(),
		EndAt:           utcOrNil(in.EndAt),
		NextExecutionAt: in.StartAt.UTC(),
	}
	if err := rt.Validate(); err != nil {
		return nil, err
	}

	err := s.repo.WithTx(ctx, func(q *storage.Queries) error {
		return q.CreateRecurringTransaction(ctx, rt)
	})
	if err != nil {
		return nil, err
	}
	return rt, nil
}

// Get returns a live template; soft-deleted rows report ErrNotFound.
func (s *RecurringService) Get(ctx context.Context, id uuid.UUID) (*core.RecurringTransaction, error) {
	rt, err := s.repo.Queries().GetRecurringTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	if rt.IsDeleted {
		return nil, core.ErrNotFound
	}
	return rt, nil
}

// Update rewrites a template. Changing the start instant restarts the
// schedule: next-execution-at snaps back to the new start-at, regardless of
// what has already executed.
func (s *RecurringService) Update(ctx context.Context, id uuid.UUID, in UpdateRecurringInput) (*core.RecurringTransaction, error) {
	var updated *core.RecurringTransaction

	err := s.repo.WithTx(ctx, func(q *storage.Queries) error {
		old, err := q.GetRecurringTransaction(ctx, id)
		if err != nil {
			return err
		}
		if old.IsDeleted {
			return core.ErrNotFound
		}

		next := &core.RecurringTransaction{
			ID:              old.ID,
			UserID:          old.UserID,
			WalletID:        in.WalletID,
			CategoryID:      in.CategoryID,
			Type:            in.Type,
			Amount:          in.Amount,
			Description:     in.Description,
			Frequency:       in.Frequency,
			StartAt:         in.StartAt.UTC(),
			EndAt:           utcOrNil(in.EndAt),
			NextExecutionAt: old.NextExecutionAt,
			LastExecutedAt:  old.LastExecutedAt,
			CreatedAt:       old.CreatedAt,
		}
		if !next.StartAt.Equal(old.StartAt) {
			next.NextExecutionAt = next.StartAt
		}
		if err := next.Validate(); err != nil {
			return err
		}

		if err := q.UpdateRecurringTransaction(ctx, next); err != nil {
			return err
		}
		updated = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete soft-deletes a template. Transactions already materialized from it
// are untouched.
func (s *RecurringService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.WithTx(ctx, func(q *storage.Queries) error {
		return q.SoftDeleteRecurringTransaction(ctx, id)
	})
}

func utcOrNil(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
