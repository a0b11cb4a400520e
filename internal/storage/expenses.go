package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"budgetlens/internal/core"
)

const expenseColumns = `id, amount_cents, category_id, year, month, day, notes`

func scanExpense(row interface{ Scan(...any) error }) (core.Expense, error) {
	var (
		e       core.Expense
		y, m, d int
	)
	if err := row.Scan(&e.ID, &e.Amount.Cents, &e.CategoryID, &y, &m, &d, &e.Notes); err != nil {
		return core.Expense{}, err
	}
	e.Date = core.NewDate(y, m, d)
	return e, nil
}

func collectExpenses(rows *sql.Rows) ([]core.Expense, error) {
	defer rows.Close()
	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return out, nil
}

func (r *Repository) SaveExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if e.ID == 0 {
		err := r.queryRow(ctx,
			`INSERT INTO expenses (amount_cents, category_id, year, month, day, notes)
			 VALUES (?, ?, ?, ?, ?, ?) RETURNING id`,
			e.Amount.Cents, e.CategoryID, e.Date.Year(), e.Date.Month(), e.Date.Day(), e.Notes).Scan(&e.ID)
		if err != nil {
			return core.Expense{}, fmt.Errorf("insert expense: %w", translate(err))
		}
	} else {
		if err := r.execAffecting(ctx,
			`UPDATE expenses SET amount_cents = ?, category_id = ?, year = ?, month = ?, day = ?, notes = ? WHERE id = ?`,
			e.Amount.Cents, e.CategoryID, e.Date.Year(), e.Date.Month(), e.Date.Day(), e.Notes, e.ID); err != nil {
			return core.Expense{}, fmt.Errorf("update expense %d: %w", e.ID, err)
		}
	}

	slog.DebugContext(ctx, "Expense saved",
		"id", e.ID,
		"amount_cents", e.Amount.Cents,
		"category_id", e.CategoryID,
		"date", e.Date.String())
	return e, nil
}

func (r *Repository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	e, err := scanExpense(r.queryRow(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id))
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense %d: %w", id, translate(err))
	}
	return e, nil
}

func (r *Repository) ListExpensesByMonth(ctx context.Context, month, year int) ([]core.Expense, error) {
	rows, err := r.query(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE year = ? AND month = ?
		 ORDER BY day DESC, id DESC`, year, month)
	if err != nil {
		return nil, fmt.Errorf("list expenses by month: %w", err)
	}
	return collectExpenses(rows)
}

func (r *Repository) ListExpensesByCategory(ctx context.Context, categoryID int64) ([]core.Expense, error) {
	rows, err := r.query(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE category_id = ?
		 ORDER BY year DESC, month DESC, day DESC, id DESC`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list expenses by category: %w", err)
	}
	return collectExpenses(rows)
}

func (r *Repository) ListExpensesByDateRange(ctx context.Context, from, to core.Date) ([]core.Expense, error) {
	rows, err := r.query(ctx,
		`SELECT `+expenseColumns+` FROM expenses
		 WHERE (year * 10000 + month * 100 + day) BETWEEN ? AND ?
		 ORDER BY year DESC, month DESC, day DESC, id DESC`,
		dateKey(from), dateKey(to))
	if err != nil {
		return nil, fmt.Errorf("list expenses by date range: %w", err)
	}
	return collectExpenses(rows)
}

func dateKey(d core.Date) int {
	return d.Year()*10000 + d.Month()*100 + d.Day()
}

func (r *Repository) SumAmount(ctx context.Context, categoryID int64, month, year int) (core.Money, error) {
	var cents int64
	err := r.queryRow(ctx,
		`SELECT CAST(COALESCE(SUM(amount_cents), 0) AS BIGINT) FROM expenses
		 WHERE category_id = ? AND year = ? AND month = ?`,
		categoryID, year, month).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum expenses: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

func (r *Repository) DeleteExpense(ctx context.Context, id int64) error {
	if err := r.execAffecting(ctx, `DELETE FROM expenses WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}
	slog.DebugContext(ctx, "Expense deleted", "id", id)
	return nil
}
