package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"budgetlens/internal/core"
)

const budgetColumns = `id, category_id, amount_cents, month, year`

func scanBudget(row interface{ Scan(...any) error }) (core.Budget, error) {
	var b core.Budget
	err := row.Scan(&b.ID, &b.CategoryID, &b.Amount.Cents, &b.Month, &b.Year)
	return b, err
}

func (r *Repository) SaveBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	if b.ID == 0 {
		err := r.queryRow(ctx,
			`INSERT INTO budgets (category_id, amount_cents, month, year) VALUES (?, ?, ?, ?) RETURNING id`,
			b.CategoryID, b.Amount.Cents, b.Month, b.Year).Scan(&b.ID)
		if err != nil {
			return core.Budget{}, fmt.Errorf("insert budget: %w", translate(err))
		}
		logSaved(ctx, "Budget", b.ID, "category_id", b.CategoryID, "month", b.Month, "year", b.Year, "amount_cents", b.Amount.Cents)
		return b, nil
	}

	if err := r.execAffecting(ctx,
		`UPDATE budgets SET category_id = ?, amount_cents = ?, month = ?, year = ? WHERE id = ?`,
		b.CategoryID, b.Amount.Cents, b.Month, b.Year, b.ID); err != nil {
		return core.Budget{}, fmt.Errorf("update budget %d: %w", b.ID, err)
	}
	logSaved(ctx, "Budget", b.ID, "category_id", b.CategoryID, "month", b.Month, "year", b.Year, "amount_cents", b.Amount.Cents)
	return b, nil
}

func (r *Repository) GetBudget(ctx context.Context, id int64) (core.Budget, error) {
	b, err := scanBudget(r.queryRow(ctx, `SELECT `+budgetColumns+` FROM budgets WHERE id = ?`, id))
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget %d: %w", id, translate(err))
	}
	return b, nil
}

func (r *Repository) FindBudget(ctx context.Context, categoryID int64, month, year int) (core.Budget, error) {
	b, err := scanBudget(r.queryRow(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE category_id = ? AND month = ? AND year = ?`,
		categoryID, month, year))
	if err != nil {
		return core.Budget{}, fmt.Errorf("find budget: %w", translate(err))
	}
	return b, nil
}

func (r *Repository) ListBudgets(ctx context.Context) ([]core.Budget, error) {
	rows, err := r.query(ctx, `SELECT `+budgetColumns+` FROM budgets ORDER BY year, month, category_id`)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	return collectBudgets(rows)
}

func (r *Repository) ListBudgetsByMonth(ctx context.Context, month, year int) ([]core.Budget, error) {
	rows, err := r.query(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE month = ? AND year = ? ORDER BY category_id`,
		month, year)
	if err != nil {
		return nil, fmt.Errorf("list budgets by month: %w", err)
	}
	return collectBudgets(rows)
}

func collectBudgets(rows *sql.Rows) ([]core.Budget, error) {
	defer rows.Close()
	var out []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate budgets: %w", err)
	}
	return out, nil
}

func (r *Repository) DeleteBudget(ctx context.Context, id int64) error {
	if err := r.execAffecting(ctx, `DELETE FROM budgets WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete budget %d: %w", id, err)
	}
	slog.DebugContext(ctx, "Budget deleted", "id", id)
	return nil
}
