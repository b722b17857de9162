package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

func (q *Queries) CreateTransaction(ctx context.Context, t *core.Transaction) error {
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now

	_, err := q.db.ExecContext(ctx, `
		INSERT INTO transactions (id, user_id, wallet_id, category_id, type, amount,
			description, transaction_at, is_deleted, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		t.ID.String(), t.UserID.String(), t.WalletID.String(), t.CategoryID.String(),
		string(t.Type), t.Amount.String(), t.Description, formatTime(t.TransactionAt),
		formatTime(now), formatTime(now))
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// GetTransaction returns a transaction regardless of its deletion flag;
// callers that only want live rows check IsDeleted.
func (q *Queries) GetTransaction(ctx context.Context, id uuid.UUID) (*core.Transaction, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, user_id, wallet_id, category_id, type, amount, description,
			transaction_at, is_deleted, created_at, updated_at
		FROM transactions WHERE id = ?`, id.String())
	return scanTransaction(row)
}

func (q *Queries) UpdateTransaction(ctx context.Context, t *core.Transaction) error {
	t.UpdatedAt = time.Now()

	res, err := q.db.ExecContext(ctx, `
		UPDATE transactions
		SET wallet_id = ?, category_id = ?, type = ?, amount = ?, description = ?,
			transaction_at = ?, updated_at = ?
		WHERE id = ? AND is_deleted = 0`,
		t.WalletID.String(), t.CategoryID.String(), string(t.Type), t.Amount.String(),
		t.Description, formatTime(t.TransactionAt), formatTime(t.UpdatedAt), t.ID.String())
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (q *Queries) SoftDeleteTransaction(ctx context.Context, id uuid.UUID) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE transactions SET is_deleted = 1, updated_at = ?
		WHERE id = ? AND is_deleted = 0`,
		formatTime(time.Now()), id.String())
	if err != nil {
		return fmt.Errorf("soft delete transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("soft delete transaction: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// SumMatchingDebits totals the non-deleted debit transactions for one
// (user, category, month, year). Amounts are summed in Go with exact
// decimal arithmetic rather than in SQL.
func (q *Queries) SumMatchingDebits(ctx context.Context, userID, categoryID uuid.UUID, month, year int) (decimal.Decimal, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT amount FROM transactions
		WHERE user_id = ? AND category_id = ? AND type = 'debit' AND is_deleted = 0
			AND CAST(strftime('%m', transaction_at) AS INTEGER) = ?
			AND CAST(strftime('%Y', transaction_at) AS INTEGER) = ?`,
		userID.String(), categoryID.String(), month, year)
	if err != nil {
		return decimal.Zero, fmt.Errorf("query matching debits: %w", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var amount string
		if err := rows.Scan(&amount); err != nil {
			return decimal.Zero, fmt.Errorf("scan debit amount: %w", err)
		}
		d, err := parseDecimal(amount)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(d)
	}
	return total, rows.Err()
}

func scanTransaction(row rowScanner) (*core.Transaction, error) {
	var (
		t                                   core.Transaction
		idStr, userID, walletID, catID      string
		typeStr, amount                     string
		transactionAt, createdAt, updatedAt string
	)
	err := row.Scan(&idStr, &userID, &walletID, &catID, &typeStr, &amount,
		&t.Description, &transactionAt, &t.IsDeleted, &createdAt, &updatedAt)
	if err != nil {
		return nil, notFound(err)
	}

	if t.ID, err = uuid.Parse(idStr); err != nil {
		return nil, fmt.Errorf("parse transaction id: %w", err)
	}
	if t.UserID, err = uuid.Parse(userID); err != nil {
		return nil, fmt.Errorf("parse transaction user id: %w", err)
	}
	if t.WalletID, err = uuid.Parse(walletID); err != nil {
		return nil, fmt.Errorf("parse transaction wallet id: %w", err)
	}
	if t.CategoryID, err = uuid.Parse(catID); err != nil {
		return nil, fmt.Errorf("parse transaction category id: %w", err)
	}
	if t.Type, err = core.ParseTransactionType(typeStr); err != nil {
		return nil, err
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
