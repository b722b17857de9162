package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
)

func (q *Queries) CreateUser(ctx context.Context, u *core.User) error {
	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now

	var parentID any
	if u.ParentID != nil {
		parentID = u.ParentID.String()
	}

	_, err := q.db.ExecContext(ctx, `
		INSERT INTO users (id, email, username, parent_id, is_deleted, created_at, updated_at)
		VALUES (?, ?, ?, ?, 0, ?, ?)`,
		u.ID.String(), u.Email, u.Username, parentID, formatTime(now), formatTime(now))
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (q *Queries) GetUser(ctx context.Context, id uuid.UUID) (*core.User, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, email, username, parent_id, is_deleted, created_at, updated_at
		FROM users WHERE id = ?`, id.String())
	return scanUser(row)
}

// GetChildUsers returns the non-deleted users supervised by the given parent.
func (q *Queries) GetChildUsers(ctx context.Context, parentID uuid.UUID) ([]*core.User, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, email, username, parent_id, is_deleted, created_at, updated_at
		FROM users WHERE parent_id = ? AND is_deleted = 0`, parentID.String())
	if err != nil {
		return nil, fmt.Errorf("query child users: %w", err)
	}
	defer rows.Close()

	var users []*core.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (q *Queries) SoftDeleteUser(ctx context.Context, id uuid.UUID) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE users SET is_deleted = 1, updated_at = ?
		WHERE id = ? AND is_deleted = 0`,
		formatTime(time.Now()), id.String())
	if err != nil {
		return fmt.Errorf("soft delete user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("soft delete user: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*core.User, error) {
	var (
		u                    core.User
		idStr                string
		parentID             sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(&idStr, &u.Email, &u.Username, &parentID, &u.IsDeleted, &createdAt, &updatedAt); err != nil {
		return nil, notFound(err)
	}

	var err error
	if u.ID, err = uuid.Parse(idStr); err != nil {
		return nil, fmt.Errorf("parse user id: %w", err)
	}
	if u.ParentID, err = parseNullableUUID(parentID); err != nil {
		return nil, err
	}
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if u.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}
