package ports

import (
	"context"
	"errors"

	"budgetlens/internal/core"
)

var (
	// ErrNotFound is returned when a record with the requested id does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a write violates a uniqueness constraint.
	ErrConflict = errors.New("unique constraint violated")
)

// Ports for the record store. Saves are upserts: ID == 0 inserts and returns
// the record with its assigned ID, anything else updates in place.
type (
	CategoryStore interface {
		SaveCategory(ctx context.Context, c core.Category) (core.Category, error)
		GetCategory(ctx context.Context, id int64) (core.Category, error)
		// ListCategories returns every category ordered by name.
		ListCategories(ctx context.Context) ([]core.Category, error)
		CountCategories(ctx context.Context) (int, error)
		// DeleteCategory removes the category and its budgets. Expenses are kept.
		DeleteCategory(ctx context.Context, id int64) error
	}

	BudgetStore interface {
		SaveBudget(ctx context.Context, b core.Budget) (core.Budget, error)
		GetBudget(ctx context.Context, id int64) (core.Budget, error)
		// FindBudget returns ErrNotFound when no budget exists for the triple.
		FindBudget(ctx context.Context, categoryID int64, month, year int) (core.Budget, error)
		ListBudgets(ctx context.Context) ([]core.Budget, error)
		ListBudgetsByMonth(ctx context.Context, month, year int) ([]core.Budget, error)
		DeleteBudget(ctx context.Context, id int64) error
	}

	ExpenseStore interface {
		SaveExpense(ctx context.Context, e core.Expense) (core.Expense, error)
		GetExpense(ctx context.Context, id int64) (core.Expense, error)
		ListExpensesByMonth(ctx context.Context, month, year int) ([]core.Expense, error)
		ListExpensesByCategory(ctx context.Context, categoryID int64) ([]core.Expense, error)
		// ListExpensesByDateRange is inclusive on both ends.
		ListExpensesByDateRange(ctx context.Context, from, to core.Date) ([]core.Expense, error)
		// SumAmount totals a category's expenses whose date falls in month/year.
		SumAmount(ctx context.Context, categoryID int64, month, year int) (core.Money, error)
		DeleteExpense(ctx context.Context, id int64) error
	}

	// Store is the full record store handed to services.
	Store interface {
		CategoryStore
		BudgetStore
		ExpenseStore
		Ping(ctx context.Context) error
		Close() error
	}
)
