package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
)

func (q *Queries) CreateCategory(ctx context.Context, c *core.Category) error {
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now

	_, err := q.db.ExecContext(ctx, `
		INSERT INTO categories (id, user_id, name, is_deleted, created_at, updated_at)
		VALUES (?, ?, ?, 0, ?, ?)`,
		c.ID.String(), c.UserID.String(), c.Name, formatTime(now), formatTime(now))
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (q *Queries) GetCategory(ctx context.Context, id uuid.UUID) (*core.Category, error) {
	var (
		c                    core.Category
		idStr, userID        string
		createdAt, updatedAt string
	)
	err := q.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, is_deleted, created_at, updated_at
		FROM categories WHERE id = ?`, id.String()).
		Scan(&idStr, &userID, &c.Name, &c.IsDeleted, &createdAt, &updatedAt)
	if err != nil {
		return nil, notFound(err)
	}

	if c.ID, err = uuid.Parse(idStr); err != nil {
		return nil, fmt.Errorf("parse category id: %w", err)
	}
	if c.UserID, err = uuid.Parse(userID); err != nil {
		return nil, fmt.Errorf("parse category user id: %w", err)
	}
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// CategoryInUse reports whether any non-deleted transaction, recurring
// transaction or budget still references the category.
func (q *Queries) CategoryInUse(ctx context.Context, id uuid.UUID) (bool, error) {
	var used bool
	err := q.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM transactions WHERE category_id = ? AND is_deleted = 0)
		    OR EXISTS (SELECT 1 FROM recurring_transactions WHERE category_id = ? AND is_deleted = 0)
		    OR EXISTS (SELECT 1 FROM budgets WHERE category_id = ? AND is_deleted = 0)`,
		id.String(), id.String(), id.String()).Scan(&used)
	if err != nil {
		return false, fmt.Errorf("check category references: %w", err)
	}
	return used, nil
}

func (q *Queries) SoftDeleteCategory(ctx context.Context, id uuid.UUID) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE categories SET is_deleted = 1, updated_at = ?
		WHERE id = ? AND is_deleted = 0`,
		formatTime(time.Now()), id.String())
	if err != nil {
		return fmt.Errorf("soft delete category: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("soft delete category: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}
