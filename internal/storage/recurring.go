package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
)

const recurringColumns = `id, user_id, wallet_id, category_id, type, amount, description,
	frequency, start_at, end_at, next_execution_at, last_executed_at, is_deleted,
	created_at, updated_at`

func (q *Queries) CreateRecurringTransaction(ctx context.Context, rt *core.RecurringTransaction) error {
	now := time.Now()
	rt.CreatedAt = now
	rt.UpdatedAt = now

	_, err := q.db.ExecContext(ctx, `
		INSERT INTO recurring_transactions (`+recurringColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		rt.ID.String(), rt.UserID.String(), rt.WalletID.String(), rt.CategoryID.String(),
		string(rt.Type), rt.Amount.String(), rt.Description, string(rt.Frequency),
		formatTime(rt.StartAt), formatNullableTime(rt.EndAt),
		formatTime(rt.NextExecutionAt), formatNullableTime(rt.LastExecutedAt),
		formatTime(now), formatTime(now))
	if err != nil {
		return fmt.Errorf("insert recurring transaction: %w", err)
	}
	return nil
}

func (q *Queries) GetRecurringTransaction(ctx context.Context, id uuid.UUID) (*core.RecurringTransaction, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+recurringColumns+` FROM recurring_transactions WHERE id = ?`, id.String())
	return scanRecurring(row)
}

// ListDueRecurringTransactions returns the IDs of non-deleted templates with
// next_execution_at at or before now. Only IDs: each template is re-read
// with fresh data inside its own processing transaction.
func (q *Queries) ListDueRecurringTransactions(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id FROM recurring_transactions
		WHERE next_execution_at <= ? AND is_deleted = 0
		ORDER BY next_execution_at`, formatTime(now))
	if err != nil {
		return nil, fmt.Errorf("query due recurring transactions: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan recurring id: %w", err)
		}
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("parse recurring id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (q *Queries) UpdateRecurringTransaction(ctx context.Context, rt *core.RecurringTransaction) error {
	rt.UpdatedAt = time.Now()

	res, err := q.db.ExecContext(ctx, `
		UPDATE recurring_transactions
		SET wallet_id = ?, category_id = ?, type = ?, amount = ?, description = ?,
			frequency = ?, start_at = ?, end_at = ?, next_execution_at = ?, updated_at = ?
		WHERE id = ? AND is_deleted = 0`,
		rt.WalletID.String(), rt.CategoryID.String(), string(rt.Type), rt.Amount.String(),
		rt.Description, string(rt.Frequency), formatTime(rt.StartAt),
		formatNullableTime(rt.EndAt), formatTime(rt.NextExecutionAt),
		formatTime(rt.UpdatedAt), rt.ID.String())
	if err != nil {
		return fmt.Errorf("update recurring transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update recurring transaction: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// AdvanceRecurringTransaction records a successful materialization: the
// occurrence just executed and the next one, written together so the
// schedule can never advance without the execution being recorded.
func (q *Queries) AdvanceRecurringTransaction(ctx context.Context, id uuid.UUID, executedAt, nextAt time.Time) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE recurring_transactions
		SET last_executed_at = ?, next_execution_at = ?, updated_at = ?
		WHERE id = ? AND is_deleted = 0`,
		formatTime(executedAt), formatTime(nextAt), formatTime(time.Now()), id.String())
	if err != nil {
		return fmt.Errorf("advance recurring transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("advance recurring transaction: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (q *Queries) SoftDeleteRecurringTransaction(ctx context.Context, id uuid.UUID) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE recurring_transactions SET is_deleted = 1, updated_at = ?
		WHERE id = ? AND is_deleted = 0`,
		formatTime(time.Now()), id.String())
	if err != nil {
		return fmt.Errorf("soft delete recurring transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("soft delete recurring transaction: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func scanRecurring(row rowScanner) (*core.RecurringTransaction, error) {
	var (
		rt                             core.RecurringTransaction
		idStr, userID, walletID, catID string
		typeStr, amount, freqStr       string
		startAt, nextAt                string
		endAt, lastAt                  sql.NullString
		createdAt, updatedAt           string
	)
	err := row.Scan(&idStr, &userID, &walletID, &catID, &typeStr, &amount,
		&rt.Description, &freqStr, &startAt, &endAt, &nextAt, &lastAt,
		&rt.IsDeleted, &createdAt, &updatedAt)
	if err != nil {
		return nil, notFound(err)
	}

	if rt.ID, err = uuid.Parse(idStr); err != nil {
		return nil, fmt.Errorf("parse recurring id: %w", err)
	}
	if rt.UserID, err = uuid.Parse(userID); err != nil {
		return nil, fmt.Errorf("parse recurring user id: %w", err)
	}
	if rt.WalletID, err = uuid.Parse(walletID); err != nil {
		return nil, fmt.Errorf("parse recurring wallet id: %w", err)
	}
	if rt.CategoryID, err = uuid.Parse(catID); err != nil {
		return nil, fmt.Errorf("parse recurring category id: %w", err)
	}
	if rt.Type, err = core.ParseTransactionType(typeStr); err != nil {
		return nil, err
	}
	if rt.Amount, err = parseDecimal(amount); err != nil {
		return nil, err
	}
	if rt.Frequency, err = core.ParseFrequency(freqStr); err != nil {
		return nil, err
	}
	if rt.StartAt, err = parseTime(startAt); err != nil {
		return nil, err
	}
	if rt.EndAt, err = parseNullableTime(endAt); err != nil {
		return nil, err
	}
	if rt.NextExecutionAt, err = parseTime(nextAt); err != nil {
		return nil, err
	}
	if rt.LastExecutedAt, err = parseNullableTime(lastAt); err != nil {
		return nil, err
	}
	if rt.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if rt.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &rt, nil
}
