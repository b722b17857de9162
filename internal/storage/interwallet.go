package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
)

func (q *Queries) CreateInterWalletTransaction(ctx context.Context, t *core.InterWalletTransaction) error {
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now

	_, err := q.db.ExecContext(ctx, `
		INSERT INTO interwallet_transactions (id, user_id, source_wallet_id,
			destination_wallet_id, amount, description, transaction_at,
			is_deleted, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		t.ID.String(), t.UserID.String(), t.SourceWalletID.String(),
		t.DestinationWalletID.String(), t.Amount.String(), t.Description,
		formatTime(t.TransactionAt), formatTime(now), formatTime(now))
	if err != nil {
		return fmt.Errorf("insert interwallet transaction: %w", err)
	}
	return nil
}

func (q *Queries) GetInterWalletTransaction(ctx context.Context, id uuid.UUID) (*core.InterWalletTransaction, error) {
	var (
		t                                   core.InterWalletTransaction
		idStr, userID, sourceID, destID     string
		amount                              string
		transactionAt, createdAt, updatedAt string
	)
	err := q.db.QueryRowContext(ctx, `
		SELECT id, user_id, source_wallet_id, destination_wallet_id, amount,
			description, transaction_at, is_deleted, created_at, updated_at
		FROM interwallet_transactions WHERE id = ?`, id.String()).
		Scan(&idStr, &userID, &sourceID, &destID, &amount, &t.Description,
			&transactionAt, &t.IsDeleted, &createdAt, &updatedAt)
	if err != nil {
		return nil, notFound(err)
	}

	if t.ID, err = uuid.Parse(idStr); err != nil {
		return nil, fmt.Errorf("parse transfer id: %w", err)
	}
	if t.UserID, err = uuid.Parse(userID); err != nil {
		return nil, fmt.Errorf("parse transfer user id: %w", err)
	}
	if t.SourceWalletID, err = uuid.Parse(sourceID); err != nil {
		return nil, fmt.Errorf("parse transfer source wallet id: %w", err)
	}
	if t.DestinationWalletID, err = uuid.Parse(destID); err != nil {
		return nil, fmt.Errorf("parse transfer destination wallet id: %w", err)
	}
	if t.Amount, err = parseDecimal(amount); err != nil {
		return nil, err
	}
	if t.TransactionAt, err = parseTime(transactionAt); err != nil {
		return nil, err
	}
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func (q *Queries) UpdateInterWalletTransaction(ctx context.Context, t *core.InterWalletTransaction) error {
	t.UpdatedAt = time.Now()

	res, err := q.db.ExecContext(ctx, `
		UPDATE interwallet_transactions
		SET source_wallet_id = ?, destination_wallet_id = ?, amount = ?,
			description = ?, transaction_at = ?, updated_at = ?
		WHERE id = ? AND is_deleted = 0`,
		t.SourceWalletID.String(), t.DestinationWalletID.String(), t.Amount.String(),
		t.Description, formatTime(t.TransactionAt), formatTime(t.UpdatedAt), t.ID.String())
	if err != nil {
		return fmt.Errorf("update interwallet transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update interwallet transaction: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (q *Queries) SoftDeleteInterWalletTransaction(ctx context.Context, id uuid.UUID) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE interwallet_transactions SET is_deleted = 1, updated_at = ?
		WHERE id = ? AND is_deleted = 0`,
		formatTime(time.Now()), id.String())
	if err != nil {
		return fmt.Errorf("soft delete interwallet transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("soft delete interwallet transaction: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}
