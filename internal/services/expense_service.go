package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"budgetlens/internal/core"
	"budgetlens/internal/log"
	"budgetlens/internal/ports"
)

// AlertPublisher delivers budget alerts, typically over AMQP.
type AlertPublisher interface {
	PublishBudgetAlert(ctx context.Context, alert core.BudgetAlert) error
}

// SaveResult is what a caller learns from recording an expense.
type SaveResult struct {
	Expense  core.Expense       `json:"expense"`
	Advisory core.AdvisoryResult `json:"advisory"`
	Status   core.BudgetStatus  `json:"status"`
}

// ExpenseService validates and persists expenses, then re-evaluates the
// affected budget and publishes an alert when it crosses the warning line.
type ExpenseService struct {
	store     ports.Store
	budgets   *BudgetService
	publisher AlertPublisher
	locks     *keyLock
	now       func() time.Time
}

func NewExpenseService(store ports.Store, budgets *BudgetService, publisher AlertPublisher) *ExpenseService {
	return &ExpenseService{
		store:     store,
		budgets:   budgets,
		publisher: publisher,
		locks:     newKeyLock(),
		now:       time.Now,
	}
}

// WithClock replaces the wall clock used to reject future dates.
func (s *ExpenseService) WithClock(now func() time.Time) *ExpenseService {
	s.now = now
	return s
}

// Save validates e, computes the advisory, persists e regardless of the
// advisory and reports the resulting budget status. The read-then-write
// sequence runs under a lock per category-month.
func (s *ExpenseService) Save(ctx context.Context, e core.Expense) (SaveResult, error) {
	if err := e.Validate(core.Today(s.now())); err != nil {
		return SaveResult{}, err
	}

	keys := []string{periodKey(e.CategoryID, e.Date.Year(), e.Date.Month())}
	if e.ID != 0 {
		prev, err := s.store.GetExpense(ctx, e.ID)
		if err != nil {
			return SaveResult{}, fmt.Errorf("get expense: %w", err)
		}
		keys = append(keys, periodKey(prev.CategoryID, prev.Date.Year(), prev.Date.Month()))
	}
	unlock := s.locks.Lock(keys...)
	defer unlock()

	cat, err := s.store.GetCategory(ctx, e.CategoryID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return SaveResult{}, core.Invalid("category_id", core.ErrUnknownCategory)
		}
		return SaveResult{}, fmt.Errorf("get category: %w", err)
	}

	advisory, err := s.budgets.ValidateAgainstBudget(ctx, e)
	if err != nil {
		return SaveResult{}, fmt.Errorf("check budget: %w", err)
	}

	saved, err := s.store.SaveExpense(ctx, e)
	if err != nil {
		return SaveResult{}, fmt.Errorf("save expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense recorded", append(log.NewFields().WithExpense(saved).ToSlice(),
		"category", cat.Name,
		"within_budget", advisory.Accepted)...)

	month, year := saved.Date.Month(), saved.Date.Year()
	status, err := s.budgets.Evaluate(ctx, saved.CategoryID, month, year)
	if err != nil {
		// The expense is stored; only the follow-up evaluation failed.
		log.FromContext(ctx).LogError(ctx, "Failed to evaluate budget after save", err, log.OpEvaluate,
			log.NewFields().WithExpense(saved))
		return SaveResult{Expense: saved, Advisory: advisory}, nil
	}

	if status.Status.Alerting() {
		slog.InfoContext(ctx, "Budget threshold reached",
			log.NewFields().WithBudgetStatus(cat.ID, status).WithPeriod(month, year).ToSlice()...)
		s.publishAlert(ctx, core.BudgetAlert{
			CategoryID:   cat.ID,
			CategoryName: cat.Name,
			Month:        month,
			Year:         year,
			Status:       status.Status,
			Budget:       status.Budget,
			Spent:        status.Spent,
			Remaining:    status.Remaining,
			Utilization:  status.Utilization,
			ExpenseID:    saved.ID,
		})
	}

	return SaveResult{Expense: saved, Advisory: advisory, Status: status}, nil
}

func (s *ExpenseService) publishAlert(ctx context.Context, alert core.BudgetAlert) {
	if s.publisher == nil {
		slog.WarnContext(ctx, "Alert publisher not available, skipping budget alert",
			"category_id", alert.CategoryID, "status", alert.Status)
		return
	}
	if err := s.publisher.PublishBudgetAlert(ctx, alert); err != nil {
		fields := log.NewFields().WithPeriod(alert.Month, alert.Year)
		fields[log.FieldCategoryID] = alert.CategoryID
		log.FromContext(ctx).LogError(ctx, "Failed to publish budget alert", err, log.OpEvaluate, fields)
	}
}

func (s *ExpenseService) Get(ctx context.Context, id int64) (core.Expense, error) {
	e, err := s.store.GetExpense(ctx, id)
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

// Delete removes an expense permanently.
func (s *ExpenseService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	slog.InfoContext(ctx, "Expense deleted", "id", id)
	return nil
}

// ListByMonth returns the month's expenses, newest first.
func (s *ExpenseService) ListByMonth(ctx context.Context, month, year int) ([]core.Expense, error) {
	if err := core.ValidateMonth(month, year); err != nil {
		return nil, err
	}
	out, err := s.store.ListExpensesByMonth(ctx, month, year)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	core.SortByDateDesc(out)
	return out, nil
}

func (s *ExpenseService) ListByCategory(ctx context.Context, categoryID int64) ([]core.Expense, error) {
	out, err := s.store.ListExpensesByCategory(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return out, nil
}

// ListByDateRange is inclusive on both ends.
func (s *ExpenseService) ListByDateRange(ctx context.Context, from, to core.Date) ([]core.Expense, error) {
	if from.IsZero() || to.IsZero() {
		return nil, core.Invalid("date", core.ErrMissingDate)
	}
	if from.After(to) {
		return nil, core.Invalid("date", core.ErrInvalidRange)
	}
	out, err := s.store.ListExpensesByDateRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return out, nil
}

// TotalFor is the same aggregate the budget evaluator uses.
func (s *ExpenseService) TotalFor(ctx context.Context, categoryID int64, month, year int) (core.Money, error) {
	total, err := s.store.SumAmount(ctx, categoryID, month, year)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum expenses: %w", err)
	}
	return total, nil
}

// MonthTotal sums every expense in the month, orphans included.
func (s *ExpenseService) MonthTotal(ctx context.Context, month, year int) (core.Money, error) {
	expenses, err := s.ListByMonth(ctx, month, year)
	if err != nil {
		return core.Money{}, err
	}
	return core.SumExpenses(expenses), nil
}

// Close closes the store and, when it holds one, the publisher connection.
func (s *ExpenseService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if c, ok := s.publisher.(io.Closer); ok && c != nil {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close expense service: %w", errors.Join(errs...))
	}

	return nil
}
