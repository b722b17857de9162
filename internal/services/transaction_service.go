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

// TransactionService owns the transaction lifecycle. Each operation runs as
// one storage transaction covering the wallet balance, the transaction row
// and the matching budget, so a failure at any step leaves all three
// untouched.
type TransactionService struct {
	repo    *storage.Repository
	tracker *BudgetTracker
}

func NewTransactionService(repo *storage.Repository, tracker *BudgetTracker) *TransactionService {
	return &TransactionService{repo: repo, tracker: tracker}
}

// CreateTransactionInput carries the acting user explicitly; there is no
// ambient session.
type CreateTransactionInput struct {
	UserID        uuid.UUID
	WalletID      uuid.UUID
	CategoryID    uuid.UUID
	Type          core.TransactionType
	Amount        decimal.Decimal
	Description   string
	TransactionAt time.Time
}

// UpdateTransactionInput replaces the mutable fields of a transaction.
type UpdateTransactionInput struct {
	WalletID      uuid.UUID
	CategoryID    uuid.UUID
	Type          core.TransactionType
	Amount        decimal.Decimal
	Description   string
	TransactionAt time.Time
}

func (s *TransactionService) Create(ctx context.Context, in CreateTransactionInput) (*core.Transaction, error) {
	tx := &core.Transaction{
		ID:            uuid.New(),
		UserID:        in.UserID,
		WalletID:      in.WalletID,
		CategoryID:    in.CategoryID,
		Type:          in.Type,
		Amount:        in.Amount,
		Description:   in.Description,
		TransactionAt: in.TransactionAt.UTC(),
	}
	if err := tx.Validate(); err != nil {
		return nil, err
	}

	err := s.repo.WithTx(ctx, func(q *storage.Queries) error {
		return s.createInTx(ctx, q, tx)
	})
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// createInTx applies a validated transaction inside an already-open storage
// transaction. The recurring processor reuses it so materialized
// transactions follow the exact same path as manual ones.
func (s *TransactionService) createInTx(ctx context.Context, q *storage.Queries, tx *core.Transaction) error {
	if err := q.AdjustWalletBalance(ctx, tx.WalletID, tx.SignedAmount()); err != nil {
		return fmt.Errorf("adjust wallet balance: %w", err)
	}
	if err := q.CreateTransaction(ctx, tx); err != nil {
		return err
	}
	return s.tracker.OnTransactionCreated(ctx, q, tx)
}

// Get returns a live transaction; soft-deleted rows report ErrNotFound.
func (s *TransactionService) Get(ctx context.Context, id uuid.UUID) (*core.Transaction, error) {
	tx, err := s.repo.Queries().GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx.IsDeleted {
		return nil, core.ErrNotFound
	}
	return tx, nil
}

// Update rewrites a transaction. When the wallet, amount or type changed the
// old effect is reversed on the old wallet and the new effect applied on the
// new one; budget maintenance follows the type transition.
func (s *TransactionService) Update(ctx context.Context, id uuid.UUID, in UpdateTransactionInput) (*core.Transaction, error) {
	var updated *core.Transaction

	err := s.repo.WithTx(ctx, func(q *storage.Queries) error {
		old, err := q.GetTransaction(ctx, id)
		if err != nil {
			return err
		}
		if old.IsDeleted {
			return core.ErrNotFound
		}

		next := &core.Transaction{
			ID:            old.ID,
			UserID:        old.UserID,
			WalletID:      in.WalletID,
			CategoryID:    in.CategoryID,
			Type:          in.Type,
			Amount:        in.Amount,
			Description:   in.Description,
			TransactionAt: in.TransactionAt.UTC(),
			CreatedAt:     old.CreatedAt,
		}
		if err := next.Validate(); err != nil {
			return err
		}

		balanceChanged := next.WalletID != old.WalletID ||
			!next.Amount.Equal(old.Amount) ||
			next.Type != old.Type
		if balanceChanged {
			if err := q.AdjustWalletBalance(ctx, old.WalletID, old.SignedAmount().Neg()); err != nil {
				return fmt.Errorf("reverse old wallet effect: %w", err)
			}
			if err := q.AdjustWalletBalance(ctx, next.WalletID, next.SignedAmount()); err != nil {
				return fmt.Errorf("apply new wallet effect: %w", err)
			}
		}

		if err := q.UpdateTransaction(ctx, next); err != nil {
			return err
		}

		switch {
		case old.Type == next.Type && next.Type == core.Debit:
			if err := s.tracker.OnTransactionUpdated(ctx, q, next, old); err != nil {
				return err
			}
		case old.Type == core.Credit && next.Type == core.Debit:
			if err := s.tracker.OnTransactionCreated(ctx, q, next); err != nil {
				return err
			}
		case old.Type == core.Debit && next.Type == core.Credit:
			if err := s.tracker.OnTransactionDeleted(ctx, q, old); err != nil {
				return err
			}
		}

		updated = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete reverses the wallet effect, marks the row deleted and removes the
// debit's budget contribution. Deleting an already-deleted transaction
// returns ErrNotFound without side effects.
func (s *TransactionService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.WithTx(ctx, func(q *storage.Queries) error {
		tx, err := q.GetTransaction(ctx, id)
		if err != nil {
			return err
		}
		if tx.IsDeleted {
			return core.ErrNotFound
		}

		if err := q.AdjustWalletBalance(ctx, tx.WalletID, tx.SignedAmount().Neg()); err != nil {
			return fmt.Errorf("reverse wallet effect: %w", err)
		}
		if err := q.SoftDeleteTransaction(ctx, id); err != nil {
			return err
		}
		return s.tracker.OnTransactionDeleted(ctx, q, tx)
	})
}
