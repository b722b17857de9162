package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

const budgetColumns = `id, user_id, category_id, month, year, amount, spent_amount,
	warning_notification_sent, exceeded_notification_sent, is_deleted, created_at, updated_at`

func (q *Queries) CreateBudget(ctx context.Context, b *core.Budget) error {
	now := time.Now()
	b.CreatedAt = now
	b.UpdatedAt = now

	_, err := q.db.ExecContext(ctx, `
		INSERT INTO budgets (`+budgetColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		b.ID.String(), b.UserID.String(), b.CategoryID.String(), b.Month, b.Year,
		b.Amount.String(), b.SpentAmount.String(),
		b.WarningNotificationSent, b.ExceededNotificationSent,
		formatTime(now), formatTime(now))
	if err != nil {
		return fmt.Errorf("insert budget: %w", err)
	}
	return nil
}

func (q *Queries) GetBudget(ctx context.Context, id uuid.UUID) (*core.Budget, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+budgetColumns+` FROM budgets WHERE id = ?`, id.String())
	return scanBudget(row)
}

// FindBudget is the exact (user, category, month, year) lookup among
// non-deleted budgets. Budgets are optional, so absence is not an error:
// callers get (nil, nil).
func (q *Queries) FindBudget(ctx context.Context, userID, categoryID uuid.UUID, month, year int) (*core.Budget, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT `+budgetColumns+` FROM budgets
		WHERE user_id = ? AND category_id = ? AND month = ? AND year = ? AND is_deleted = 0`,
		userID.String(), categoryID.String(), month, year)
	b, err := scanBudget(row)
	if errors.Is(err, core.ErrNotFound) {
		return nil, nil
	}
	return b, err
}

// UpdateBudgetSpent writes a new spent amount.
func (q *Queries) UpdateBudgetSpent(ctx context.Context, id uuid.UUID, spent decimal.Decimal) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE budgets SET spent_amount = ?, updated_at = ? WHERE id = ?`,
		spent.String(), formatTime(time.Now()), id.String())
	if err != nil {
		return fmt.Errorf("update budget spent amount: %w", err)
	}
	return nil
}

// UpdateBudgetFlags persists the notification latch state.
func (q *Queries) UpdateBudgetFlags(ctx context.Context, id uuid.UUID, warningSent, exceededSent bool) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE budgets SET warning_notification_sent = ?, exceeded_notification_sent = ?,
			updated_at = ?
		WHERE id = ?`,
		warningSent, exceededSent, formatTime(time.Now()), id.String())
	if err != nil {
		return fmt.Errorf("update budget flags: %w", err)
	}
	return nil
}

func (q *Queries) UpdateBudget(ctx context.Context, b *core.Budget) error {
	b.UpdatedAt = time.Now()

	res, err := q.db.ExecContext(ctx, `
		UPDATE budgets
		SET category_id = ?, amount = ?, spent_amount = ?,
			warning_notification_sent = ?, exceeded_notification_sent = ?, updated_at = ?
		WHERE id = ? AND is_deleted = 0`,
		b.CategoryID.String(), b.Amount.String(), b.SpentAmount.String(),
		b.WarningNotificationSent, b.ExceededNotificationSent,
		formatTime(b.UpdatedAt), b.ID.String())
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (q *Queries) SoftDeleteBudget(ctx context.Context, id uuid.UUID) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE budgets SET is_deleted = 1, updated_at = ?
		WHERE id = ? AND is_deleted = 0`,
		formatTime(time.Now()), id.String())
	if err != nil {
		return fmt.Errorf("soft delete budget: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("soft delete budget: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func scanBudget(row rowScanner) (*core.Budget, error) {
	var (
		b                    core.Budget
		idStr, userID, catID string
		amount, spent        string
		createdAt, updatedAt string
	)
	err := row.Scan(&idStr, &userID, &catID, &b.Month, &b.Year, &amount, &spent,
		&b.WarningNotificationSent, &b.ExceededNotificationSent, &b.IsDeleted,
		&createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}

	if b.ID, err = uuid.Parse(idStr); err != nil {
		return nil, fmt.Errorf("parse budget id: %w", err)
	}
	if b.UserID, err = uuid.Parse(userID); err != nil {
		return nil, fmt.Errorf("parse budget user id: %w", err)
	}
	if b.CategoryID, err = uuid.Parse(catID); err != nil {
		return nil, fmt.Errorf("parse budget category id: %w", err)
	}
	if b.Amount, err = parseDecimal(amount); err != nil {
		return nil, err
	}
	if b.SpentAmount, err = parseDecimal(spent); err != nil {
		return nil, err
	}
	if b.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if b.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}
