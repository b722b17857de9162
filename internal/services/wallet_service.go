package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// WalletService creates wallets and guards their deletion: money must be
// moved out and every live reference removed before a wallet can go.
type WalletService struct {
	repo *storage.Repository
}

func NewWalletService(repo *storage.Repository) *WalletService {
	return &WalletService{repo: repo}
}

type CreateWalletInput struct {
	UserID  uuid.UUID
	Name    string
	Balance decimal.Decimal
}

func (s *WalletService) Create(ctx context.Context, in CreateWalletInput) (*core.Wallet, error) {
	w := &core.Wallet{
		ID:      uuid.New(),
		UserID:  in.UserID,
		Name:    in.Name,
		Balance: in.Balance,
	}

	err := s.repo.WithTx(ctx, func(q *storage.Queries) error {
		return q.CreateWallet(ctx, w)
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}

// Get returns a live wallet; soft-deleted rows report ErrNotFound.
func (s *WalletService) Get(ctx context.Context, id uuid.UUID) (*core.Wallet, error) {
	w, err := s.repo.Queries().GetWallet(ctx, id)
	if err != nil {
		return nil, err
	}
	if w.IsDeleted {
		return nil, core.ErrNotFound
	}
	return w, nil
}

// Delete soft-deletes a wallet. Rejected with ErrWalletNotEmpty while the
// balance is non-zero and with ErrWalletInUse while any live transaction,
// recurring template or transfer still references it.
func (s *WalletService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.WithTx(ctx, func(q *storage.Queries) error {
		w, err := q.GetWallet(ctx, id)
		if err != nil {
			return err
		}
		if w.IsDeleted {
			return core.ErrNotFound
		}

		if !w.Balance.IsZero() {
			return fmt.Errorf("wallet balance is %s: %w", w.Balance, core.ErrWalletNotEmpty)
		}

		used, err := q.WalletHasLiveReferences(ctx, id)
		if err != nil {
			return err
		}
		if used {
			return core.ErrWalletInUse
		}

		return q.SoftDeleteWallet(ctx, id)
	})
}
