package services

import (
	"context"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// CategoryService creates categories and guards their deletion: a category
// still referenced by live transactions, templates or budgets cannot go.
type CategoryService struct {
	repo *storage.Repository
}

func NewCategoryService(repo *storage.Repository) *CategoryService {
	return &CategoryService{repo: repo}
}

func (s *CategoryService) Create(ctx context.Context, userID uuid.UUID, name string) (*core.Category, error) {
	c := &core.Category{
		ID:     uuid.New(),
		UserID: userID,
		Name:   name,
	}
	err := s.repo.WithTx(ctx, func(q *storage.Queries) error {
		return q.CreateCategory(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Get returns a live category; soft-deleted rows report ErrNotFound.
func (s *CategoryService) Get(ctx context.Context, id uuid.UUID) (*core.Category, error) {
	c, err := s.repo.Queries().GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.IsDeleted {
		return nil, core.ErrNotFound
	}
	return c, nil
}

// Delete soft-deletes a category. Rejected with ErrCategoryInUse while any
// live transaction, recurring template or budget still references it.
func (s *CategoryService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.WithTx(ctx, func(q *storage.Queries) error {
		c, err := q.GetCategory(ctx, id)
		if err != nil {
			return err
		}
		if c.IsDeleted {
			return core.ErrNotFound
		}

		used, err := q.CategoryInUse(ctx, id)
		if err != nil {
			return err
		}
		if used {
			return core.ErrCategoryInUse
		}

		return q.SoftDeleteCategory(ctx, id)
	})
}
