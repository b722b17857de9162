package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// DefaultRetentionDays is how long soft-deleted rows linger before the
// sweep removes them permanently.
const DefaultRetentionDays = 30

// CleanupService handles the two destructive paths: the explicit cascade
// when a user account is deleted, and the periodic retention sweep that
// hard-deletes rows past their grace period.
type CleanupService struct {
	repo          *storage.Repository
	retentionDays int
}

func NewCleanupService(repo *storage.Repository, retentionDays int) *CleanupService {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	return &CleanupService{repo: repo, retentionDays: retentionDays}
}

// DeleteUser soft-deletes a user, everything the user owns, and recursively
// any child accounts supervised by the user. One transaction covers the
// whole cascade.
func (s *CleanupService) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	return s.repo.WithTx(ctx, func(q *storage.Queries) error {
		return s.deleteUserTree(ctx, q, userID)
	})
}

func (s *CleanupService) deleteUserTree(ctx context.Context, q *storage.Queries, userID uuid.UUID) error {
	user, err := q.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.IsDeleted {
		return core.ErrNotFound
	}

	children, err := q.GetChildUsers(ctx, userID)
	if err != nil {
		return fmt.Errorf("list child users: %w", err)
	}
	for _, child := range children {
		if err := s.deleteUserTree(ctx, q, child.ID); err != nil {
			return fmt.Errorf("cascade to child user %s: %w", child.ID, err)
		}
	}

	counts, err := q.SoftDeleteUserObjects(ctx, userID)
	if err != nil {
		return err
	}
	if err := q.SoftDeleteUser(ctx, userID); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Deleted user and owned objects",
		"user_id", userID,
		"child_users", len(children),
		"object_counts", counts)
	return nil
}

// PurgeExpired permanently removes rows soft-deleted longer ago than the
// retention window. Returns the total number of rows removed.
func (s *CleanupService) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	cutoff := now.UTC().AddDate(0, 0, -s.retentionDays)

	var total int64
	err := s.repo.WithTx(ctx, func(q *storage.Queries) error {
		counts, err := q.HardDeleteExpired(ctx, cutoff)
		if err != nil {
			return err
		}
		for table, n := range counts {
			if n > 0 {
				slog.InfoContext(ctx, "Purged expired rows", "table", table, "count", n)
			}
			total += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}
