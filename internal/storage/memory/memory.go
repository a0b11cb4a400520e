// Package memory is a mutex-guarded in-process implementation of ports.Store,
// used by the memory backend and as the fake in service tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"budgetlens/internal/core"
	"budgetlens/internal/ports"
)

type Store struct {
	mu         sync.Mutex
	nextID     int64
	categories map[int64]core.Category
	budgets    map[int64]core.Budget
	expenses   map[int64]core.Expense

	// FailWith, when set, is returned by every operation.
	FailWith error
}

var _ ports.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		categories: map[int64]core.Category{},
		budgets:    map[int64]core.Budget{},
		expenses:   map[int64]core.Expense{},
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) Ping(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.FailWith
}

func (s *Store) Close() error { return nil }

func (s *Store) SaveCategory(_ context.Context, c core.Category) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return core.Category{}, s.FailWith
	}
	for id, other := range s.categories {
		if id != c.ID && other.Name == c.Name {
			return core.Category{}, fmt.Errorf("insert category: %w", ports.ErrConflict)
		}
	}
	if c.ID == 0 {
		c.ID = s.id()
	} else if _, ok := s.categories[c.ID]; !ok {
		return core.Category{}, ports.ErrNotFound
	}
	s.categories[c.ID] = c
	return c, nil
}

func (s *Store) GetCategory(_ context.Context, id int64) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return core.Category{}, s.FailWith
	}
	c, ok := s.categories[id]
	if !ok {
		return core.Category{}, ports.ErrNotFound
	}
	return c, nil
}

func (s *Store) ListCategories(context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	out := make([]core.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) CountCategories(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return 0, s.FailWith
	}
	return len(s.categories), nil
}

func (s *Store) DeleteCategory(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return s.FailWith
	}
	if _, ok := s.categories[id]; !ok {
		return ports.ErrNotFound
	}
	delete(s.categories, id)
	for bid, b := range s.budgets {
		if b.CategoryID == id {
			delete(s.budgets, bid)
		}
	}
	return nil
}

func (s *Store) SaveBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return core.Budget{}, s.FailWith
	}
	if _, ok := s.categories[b.CategoryID]; !ok {
		return core.Budget{}, ports.ErrNotFound
	}
	for id, other := range s.budgets {
		if id != b.ID && other.CategoryID == b.CategoryID && other.Month == b.Month && other.Year == b.Year {
			return core.Budget{}, fmt.Errorf("insert budget: %w", ports.ErrConflict)
		}
	}
	if b.ID == 0 {
		b.ID = s.id()
	} else if _, ok := s.budgets[b.ID]; !ok {
		return core.Budget{}, ports.ErrNotFound
	}
	s.budgets[b.ID] = b
	return b, nil
}

func (s *Store) GetBudget(_ context.Context, id int64) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return core.Budget{}, s.FailWith
	}
	b, ok := s.budgets[id]
	if !ok {
		return core.Budget{}, ports.ErrNotFound
	}
	return b, nil
}

func (s *Store) FindBudget(_ context.Context, categoryID int64, month, year int) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return core.Budget{}, s.FailWith
	}
	for _, b := range s.budgets {
		if b.CategoryID == categoryID && b.Month == month && b.Year == year {
			return b, nil
		}
	}
	return core.Budget{}, ports.ErrNotFound
}

func (s *Store) ListBudgets(context.Context) ([]core.Budget, error) {
	return s.filterBudgets(func(core.Budget) bool { return true })
}

func (s *Store) ListBudgetsByMonth(_ context.Context, month, year int) ([]core.Budget, error) {
	return s.filterBudgets(func(b core.Budget) bool { return b.Month == month && b.Year == year })
}

func (s *Store) filterBudgets(keep func(core.Budget) bool) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	var out []core.Budget
	for _, b := range s.budgets {
		if keep(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		if a.Month != b.Month {
			return a.Month < b.Month
		}
		return a.CategoryID < b.CategoryID
	})
	return out, nil
}

func (s *Store) DeleteBudget(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return s.FailWith
	}
	if _, ok := s.budgets[id]; !ok {
		return ports.ErrNotFound
	}
	delete(s.budgets, id)
	return nil
}

func (s *Store) SaveExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return core.Expense{}, s.FailWith
	}
	if e.ID == 0 {
		e.ID = s.id()
	} else if _, ok := s.expenses[e.ID]; !ok {
		return core.Expense{}, ports.ErrNotFound
	}
	s.expenses[e.ID] = e
	return e, nil
}

func (s *Store) GetExpense(_ context.Context, id int64) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return core.Expense{}, s.FailWith
	}
	e, ok := s.expenses[id]
	if !ok {
		return core.Expense{}, ports.ErrNotFound
	}
	return e, nil
}

func (s *Store) ListExpensesByMonth(_ context.Context, month, year int) ([]core.Expense, error) {
	return s.filterExpenses(func(e core.Expense) bool {
		return e.Date.Month() == month && e.Date.Year() == year
	})
}

func (s *Store) ListExpensesByCategory(_ context.Context, categoryID int64) ([]core.Expense, error) {
	return s.filterExpenses(func(e core.Expense) bool { return e.CategoryID == categoryID })
}

func (s *Store) ListExpensesByDateRange(_ context.Context, from, to core.Date) ([]core.Expense, error) {
	return s.filterExpenses(func(e core.Expense) bool {
		return !e.Date.Before(from.Time) && !e.Date.After(to)
	})
}

func (s *Store) filterExpenses(keep func(core.Expense) bool) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return nil, s.FailWith
	}
	var out []core.Expense
	for _, e := range s.expenses {
		if keep(e) {
			out = append(out, e)
		}
	}
	core.SortByDateDesc(out)
	return out, nil
}

func (s *Store) SumAmount(_ context.Context, categoryID int64, month, year int) (core.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return core.Money{}, s.FailWith
	}
	var total core.Money
	for _, e := range s.expenses {
		if e.CategoryID == categoryID && e.Date.Month() == month && e.Date.Year() == year {
			total = total.Add(e.Amount)
		}
	}
	return total, nil
}

func (s *Store) DeleteExpense(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWith != nil {
		return s.FailWith
	}
	if _, ok := s.expenses[id]; !ok {
		return ports.ErrNotFound
	}
	delete(s.expenses, id)
	return nil
}
