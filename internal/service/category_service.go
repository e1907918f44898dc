package service

import (
	"context"

	"habit-tracker/internal/repository"
)

// CategoryService provides helpers around task categories.
type CategoryService struct {
	store *repository.Store
}

func NewCategoryService(store *repository.Store) *CategoryService {
	return &CategoryService{store: store}
}

// List returns the categories the user has tasks in, with open/total counts.
func (s *CategoryService) List(ctx context.Context, userID uint) ([]repository.CategoryCount, error) {
	return s.store.Tasks.CategoryCounts(ctx, userID)
}
