package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"budgetlens/internal/core"
	"budgetlens/internal/ports"
)

// CategoryService validates and manages categories.
type CategoryService struct {
	store ports.CategoryStore
}

func NewCategoryService(store ports.CategoryStore) *CategoryService {
	return &CategoryService{store: store}
}

// Save normalizes and validates c, then inserts (ID 0) or updates it.
func (s *CategoryService) Save(ctx context.Context, c core.Category) (core.Category, error) {
	c = c.Normalize()
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}

	saved, err := s.store.SaveCategory(ctx, c)
	switch {
	case errors.Is(err, ports.ErrConflict):
		return core.Category{}, core.Invalid("name", core.ErrDuplicateCategory)
	case err != nil:
		return core.Category{}, fmt.Errorf("save category: %w", err)
	}

	slog.InfoContext(ctx, "Category saved", "id", saved.ID, "name", saved.Name, "color", saved.Color)
	return saved, nil
}

func (s *CategoryService) Get(ctx context.Context, id int64) (core.Category, error) {
	c, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

// List returns all categories ordered by name.
func (s *CategoryService) List(ctx context.Context) ([]core.Category, error) {
	cats, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

// Lookup indexes every category by id.
func (s *CategoryService) Lookup(ctx context.Context) (map[int64]core.Category, error) {
	cats, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]core.Category, len(cats))
	for _, c := range cats {
		out[c.ID] = c
	}
	return out, nil
}

// Exists reports whether id names a stored category.
func (s *CategoryService) Exists(ctx context.Context, id int64) (bool, error) {
	_, err := s.store.GetCategory(ctx, id)
	switch {
	case errors.Is(err, ports.ErrNotFound):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("get category: %w", err)
	}
	return true, nil
}

// Delete removes the category and its budgets. Its expenses are kept and
// report as "Unknown".
func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	slog.InfoContext(ctx, "Category deleted", "id", id)
	return nil
}

// SeedDefaults inserts the default categories when none exist and returns
// how many were created.
func (s *CategoryService) SeedDefaults(ctx context.Context) (int, error) {
	n, err := s.store.CountCategories(ctx)
	if err != nil {
		return 0, fmt.Errorf("count categories: %w", err)
	}
	if n > 0 {
		return 0, nil
	}

	created := 0
	for _, c := range core.DefaultCategories() {
		if _, err := s.store.SaveCategory(ctx, c); err != nil {
			return created, fmt.Errorf("seed category %q: %w", c.Name, err)
		}
		created++
	}
	slog.InfoContext(ctx, "Seeded default categories", "count", created)
	return created, nil
}
