package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

func (q *Queries) CreateWallet(ctx context.Context, w *core.Wallet) error {
	now := time.Now()
	w.CreatedAt = now
	w.UpdatedAt = now

	_, err := q.db.ExecContext(ctx, `
		INSERT INTO wallets (id, user_id, name, balance, is_deleted, created_at, updated_at)
		VALUES (?, ?, ?, ?, 0, ?, ?)`,
		w.ID.String(), w.UserID.String(), w.Name, w.Balance.String(),
		formatTime(now), formatTime(now))
	if err != nil {
		return fmt.Errorf("insert wallet: %w", err)
	}
	return nil
}

func (q *Queries) GetWallet(ctx context.Context, id uuid.UUID) (*core.Wallet, error) {
	var (
		w                    core.Wallet
		idStr, userID        string
		balance              string
		createdAt, updatedAt string
	)
	err := q.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, balance, is_deleted, created_at, updated_at
		FROM wallets WHERE id = ?`, id.String()).
		Scan(&idStr, &userID, &w.Name, &balance, &w.IsDeleted, &createdAt, &updatedAt)
	if err != nil {
		return nil, notFound(err)
	}

	if w.ID, err = uuid.Parse(idStr); err != nil {
		return nil, fmt.Errorf("parse wallet id: %w", err)
	}
	if w.UserID, err = uuid.Parse(userID); err != nil {
		return nil, fmt.Errorf("parse wallet user id: %w", err)
	}
	if w.Balance, err = parseDecimal(balance); err != nil {
		return nil, err
	}
	if w.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if w.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &w, nil
}

// AdjustWalletBalance adds delta (signed) to the wallet balance. The
// read-modify-write is only safe inside a write transaction, which is where
// every caller runs it.
func (q *Queries) AdjustWalletBalance(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error {
	var balance string
	err := q.db.QueryRowContext(ctx, `
		SELECT balance FROM wallets WHERE id = ? AND is_deleted = 0`,
		id.String()).Scan(&balance)
	if err != nil {
		return notFound(err)
	}

	current, err := parseDecimal(balance)
	if err != nil {
		return err
	}

	_, err = q.db.ExecContext(ctx, `
		UPDATE wallets SET balance = ?, updated_at = ? WHERE id = ?`,
		current.Add(delta).String(), formatTime(time.Now()), id.String())
	if err != nil {
		return fmt.Errorf("update wallet balance: %w", err)
	}
	return nil
}

// WalletHasLiveReferences reports whether any non-deleted transaction,
// recurring transaction or transfer still references the wallet.
func (q *Queries) WalletHasLiveReferences(ctx context.Context, id uuid.UUID) (bool, error) {
	var used bool
	err := q.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM transactions WHERE wallet_id = ? AND is_deleted = 0)
		    OR EXISTS (SELECT 1 FROM recurring_transactions WHERE wallet_id = ? AND is_deleted = 0)
		    OR EXISTS (SELECT 1 FROM interwallet_transactions
		               WHERE (source_wallet_id = ? OR destination_wallet_id = ?) AND is_deleted = 0)`,
		id.String(), id.String(), id.String(), id.String()).Scan(&used)
	if err != nil {
		return false, fmt.Errorf("check wallet references: %w", err)
	}
	return used, nil
}

func (q *Queries) SoftDeleteWallet(ctx context.Context, id uuid.UUID) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE wallets SET is_deleted = 1, updated_at = ?
		WHERE id = ? AND is_deleted = 0`,
		formatTime(time.Now()), id.String())
	if err != nil {
		return fmt.Errorf("soft delete wallet: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("soft delete wallet: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}
