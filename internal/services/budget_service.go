package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"budgetlens/internal/core"
	"budgetlens/internal/log"
	"budgetlens/internal/ports"
)

// BudgetService evaluates spending against monthly budgets and manages the
// budgets themselves.
type BudgetService struct {
	store ports.Store
}

func NewBudgetService(store ports.Store) *BudgetService {
	return &BudgetService{store: store}
}

// Evaluate reports the status of a category for month/year. A missing
// budget yields NO_BUDGET; store failures are returned as errors.
func (s *BudgetService) Evaluate(ctx context.Context, categoryID int64, month, year int) (core.BudgetStatus, error) {
	if err := core.ValidateMonth(month, year); err != nil {
		return core.BudgetStatus{}, err
	}

	budget, err := s.store.FindBudget(ctx, categoryID, month, year)
	switch {
	case errors.Is(err, ports.ErrNotFound):
		return core.NoBudgetStatus(), nil
	case err != nil:
		return core.BudgetStatus{}, fmt.Errorf("find budget: %w", err)
	}

	spent, err := s.store.SumAmount(ctx, categoryID, month, year)
	if err != nil {
		return core.BudgetStatus{}, fmt.Errorf("sum spent: %w", err)
	}
	return core.EvaluateBudget(budget.Amount, spent), nil
}

// ValidateAgainstBudget tells whether candidate would push its category over
// budget. When candidate is an edit of a stored expense in the same
// category-month, the stored amount is not counted twice. The result is
// advisory only.
func (s *BudgetService) ValidateAgainstBudget(ctx context.Context, candidate core.Expense) (core.AdvisoryResult, error) {
	if candidate.Date.IsZero() {
		return core.AdvisoryResult{}, core.Invalid("date", core.ErrMissingDate)
	}
	month, year := candidate.Date.Month(), candidate.Date.Year()

	budget, err := s.store.FindBudget(ctx, candidate.CategoryID, month, year)
	switch {
	case errors.Is(err, ports.ErrNotFound):
		return core.NoBudgetAdvisory(), nil
	case err != nil:
		return core.AdvisoryResult{}, fmt.Errorf("find budget: %w", err)
	}

	current, err := s.store.SumAmount(ctx, candidate.CategoryID, month, year)
	if err != nil {
		return core.AdvisoryResult{}, fmt.Errorf("sum spent: %w", err)
	}

	if candidate.ID != 0 {
		stored, err := s.store.GetExpense(ctx, candidate.ID)
		switch {
		case errors.Is(err, ports.ErrNotFound):
		case err != nil:
			return core.AdvisoryResult{}, fmt.Errorf("get stored expense: %w", err)
		case stored.CategoryID == candidate.CategoryID &&
			stored.Date.Month() == month && stored.Date.Year() == year:
			current = current.Sub(stored.Amount)
		}
	}

	return core.CheckProjected(budget.Amount, current, candidate.Amount), nil
}

// EvaluateMonth returns the status of every budget configured for the month,
// ordered by category name.
func (s *BudgetService) EvaluateMonth(ctx context.Context, month, year int) ([]core.CategoryStatus, error) {
	if err := core.ValidateMonth(month, year); err != nil {
		return nil, err
	}

	budgets, err := s.store.ListBudgetsByMonth(ctx, month, year)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	cats, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	byCategory := make(map[int64]core.Budget, len(budgets))
	for _, b := range budgets {
		byCategory[b.CategoryID] = b
	}

	out := make([]core.CategoryStatus, 0, len(budgets))
	for _, c := range cats {
		b, ok := byCategory[c.ID]
		if !ok {
			continue
		}
		spent, err := s.store.SumAmount(ctx, c.ID, month, year)
		if err != nil {
			return nil, fmt.Errorf("sum spent: %w", err)
		}
		out = append(out, core.CategoryStatus{
			CategoryID:   c.ID,
			CategoryName: c.Name,
			Month:        month,
			Year:         year,
			Status:       core.EvaluateBudget(b.Amount, spent),
		})
	}
	return out, nil
}

// Save validates and stores a budget. A second budget for the same
// category-month is rejected, never merged.
func (s *BudgetService) Save(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	if _, err := s.store.GetCategory(ctx, b.CategoryID); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return core.Budget{}, core.Invalid("category_id", core.ErrUnknownCategory)
		}
		return core.Budget{}, fmt.Errorf("get category: %w", err)
	}

	saved, err := s.store.SaveBudget(ctx, b)
	switch {
	case errors.Is(err, ports.ErrConflict):
		return core.Budget{}, core.Invalid("budget", core.ErrDuplicateBudget)
	case err != nil:
		return core.Budget{}, fmt.Errorf("save budget: %w", err)
	}

	slog.InfoContext(ctx, "Budget saved", log.NewFields().WithBudget(saved).ToSlice()...)
	return saved, nil
}

func (s *BudgetService) Get(ctx context.Context, id int64) (core.Budget, error) {
	b, err := s.store.GetBudget(ctx, id)
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	return b, nil
}

func (s *BudgetService) List(ctx context.Context) ([]core.Budget, error) {
	bs, err := s.store.ListBudgets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	return bs, nil
}

func (s *BudgetService) ListByMonth(ctx context.Context, month, year int) ([]core.Budget, error) {
	if err := core.ValidateMonth(month, year); err != nil {
		return nil, err
	}
	bs, err := s.store.ListBudgetsByMonth(ctx, month, year)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	return bs, nil
}

func (s *BudgetService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteBudget(ctx, id); err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	slog.InfoContext(ctx, "Budget deleted", "id", id)
	return nil
}
