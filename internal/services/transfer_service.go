package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// TransferService moves money between two wallets of the same user.
// Transfers never touch budgets: they are not spending, just relocation.
type TransferService struct {
	repo *storage.Repository
}

func NewTransferService(repo *storage.Repository) *TransferService {
	return &TransferService{repo: repo}
}

type CreateTransferInput struct {
	UserID              uuid.UUID
	SourceWalletID      uuid.UUID
	DestinationWalletID uuid.UUID
	Amount              decimal.Decimal
	Description         string
	TransactionAt       time.Time
}

type UpdateTransferInput struct {
	SourceWalletID      uuid.UUID
	DestinationWalletID uuid.UUID
	Amount              decimal.Decimal
	Description         string
	TransactionAt       time.Time
}

// Create debits the source and credits the destination atomically with the
// transfer row.
func (s *TransferService) Create(ctx context.Context, in CreateTransferInput) (*core.InterWalletTransaction, error) {
	t := &core.InterWalletTransaction{
		ID:                  uuid.New(),
		UserID:              in.UserID,
		SourceWalletID:      in.SourceWalletID,
		DestinationWalletID: in.DestinationWalletID,
		Amount:              in.Amount,
		Description:         in.Description,
		TransactionAt:       in.TransactionAt.UTC(),
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}

	err := s.repo.WithTx(ctx, func(q *storage.Queries) error {
		if err := q.AdjustWalletBalance(ctx, t.SourceWalletID, t.Amount.Neg()); err != nil {
			return fmt.Errorf("debit source wallet: %w", err)
		}
		if err := q.AdjustWalletBalance(ctx, t.DestinationWalletID, t.Amount); err != nil {
			return fmt.Errorf("credit destination wallet: %w", err)
		}
		return q.CreateInterWalletTransaction(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Get returns a live transfer; soft-deleted rows report ErrNotFound.
func (s *TransferService) Get(ctx context.Context, id uuid.UUID) (*core.InterWalletTransaction, error) {
	t, err := s.repo.Queries().GetInterWalletTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.IsDeleted {
		return nil, core.ErrNotFound
	}
	return t, nil
}

// Update reverses the old movement on the old wallet pair and applies the
// new one whenever the wallets or the amount changed.
func (s *TransferService) Update(ctx context.Context, id uuid.UUID, in UpdateTransferInput) (*core.InterWalletTransaction, error) {
	var updated *core.InterWalletTransaction

	err := s.repo.WithTx(ctx, func(q *storage.Queries) error {
		old, err := q.GetInterWalletTransaction(ctx, id)
		if err != nil {
			return err
		}
		if old.IsDeleted {
			return core.ErrNotFound
		}

		next := &core.InterWalletTransaction{
			ID:                  old.ID,
			UserID:              old.UserID,
			SourceWalletID:      in.SourceWalletID,
			DestinationWalletID: in.DestinationWalletID,
			Amount:              in.Amount,
			Description:         in.Description,
			TransactionAt:       in.TransactionAt.UTC(),
			CreatedAt:           old.CreatedAt,
		}
		if err := next.Validate(); err != nil {
			return err
		}

		balanceChanged := next.SourceWalletID != old.SourceWalletID ||
			next.DestinationWalletID != old.DestinationWalletID ||
			!next.Amount.Equal(old.Amount)
		if balanceChanged {
			if err := q.AdjustWalletBalance(ctx, old.SourceWalletID, old.Amount); err != nil {
				return fmt.Errorf("restore old source wallet: %w", err)
			}
			if err := q.AdjustWalletBalance(ctx, old.DestinationWalletID, old.Amount.Neg()); err != nil {
				return fmt.Errorf("restore old destination wallet: %w", err)
			}
			if err := q.AdjustWalletBalance(ctx, next.SourceWalletID, next.Amount.Neg()); err != nil {
				return fmt.Errorf("debit new source wallet: %w", err)
			}
			if err := q.AdjustWalletBalance(ctx, next.DestinationWalletID, next.Amount); err != nil {
				return fmt.Errorf("credit new destination wallet: %w", err)
			}
		}

		if err := q.UpdateInterWalletTransaction(ctx, next); err != nil {
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

// Delete restores both balances and marks the transfer deleted. Deleting an
// already-deleted transfer returns ErrNotFound without side effects.
func (s *TransferService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.WithTx(ctx, func(q *storage.Queries) error {
		t, err := q.GetInterWalletTransaction(ctx, id)
		if err != nil {
			return err
		}
		if t.IsDeleted {
			return core.ErrNotFound
		}

		if err := q.AdjustWalletBalance(ctx, t.SourceWalletID, t.Amount); err != nil {
			return fmt.Errorf("restore source wallet: %w", err)
		}
		if err := q.AdjustWalletBalance(ctx, t.DestinationWalletID, t.Amount.Neg()); err != nil {
			return fmt.Errorf("restore destination wallet: %w", err)
		}
		return q.SoftDeleteInterWalletTransaction(ctx, id)
	})
}
