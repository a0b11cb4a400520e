// Package report aggregates expenses into monthly reports and renders them
// as CSV, XLSX, PNG charts or a Google Sheets tab.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"budgetlens/internal/core"
)

// ExpenseSource is the slice of the expense ledger the builder reads.
type ExpenseSource interface {
	ListByMonth(ctx context.Context, month, year int) ([]core.Expense, error)
	TotalFor(ctx context.Context, categoryID int64, month, year int) (core.Money, error)
}

// CategorySource lists categories ordered by name.
type CategorySource interface {
	List(ctx context.Context) ([]core.Category, error)
}

type Builder struct {
	expenses   ExpenseSource
	categories CategorySource
}

func NewBuilder(expenses ExpenseSource, categories CategorySource) *Builder {
	return &Builder{expenses: expenses, categories: categories}
}

// BuildReport aggregates the month. Per-category totals come from TotalFor,
// so they always agree with budget evaluation. Expenses whose category is
// gone are listed but kept out of the breakdown.
func (b *Builder) BuildReport(ctx context.Context, month, year int) (core.MonthlyReport, error) {
	if err := core.ValidateMonth(month, year); err != nil {
		return core.MonthlyReport{}, err
	}

	expenses, err := b.expenses.ListByMonth(ctx, month, year)
	if err != nil {
		return core.MonthlyReport{}, fmt.Errorf("list expenses: %w", err)
	}
	cats, err := b.categories.List(ctx)
	if err != nil {
		return core.MonthlyReport{}, fmt.Errorf("list categories: %w", err)
	}

	totals := make([]core.CategoryTotal, 0, len(cats))
	for _, c := range cats {
		amount, err := b.expenses.TotalFor(ctx, c.ID, month, year)
		if err != nil {
			return core.MonthlyReport{}, fmt.Errorf("total for category %d: %w", c.ID, err)
		}
		totals = append(totals, core.CategoryTotal{Category: c, Amount: amount})
	}

	breakdown, grand := core.BuildBreakdown(totals)
	core.SortByDateDesc(expenses)
	if expenses == nil {
		expenses = []core.Expense{}
	}

	return core.MonthlyReport{
		Month:        month,
		Year:         year,
		Expenses:     expenses,
		Breakdown:    breakdown,
		GrandTotal:   grand,
		ExpenseTotal: core.SumExpenses(expenses),
	}, nil
}

// Lookup indexes categories by id for the renderers.
func (b *Builder) Lookup(ctx context.Context) (map[int64]core.Category, error) {
	cats, err := b.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make(map[int64]core.Category, len(cats))
	for _, c := range cats {
		out[c.ID] = c
	}
	return out, nil
}

// ExportCSV builds the month and writes it to path. Failures are returned,
// never retried.
func (b *Builder) ExportCSV(ctx context.Context, path string, month, year int) error {
	rep, err := b.BuildReport(ctx, month, year)
	if err != nil {
		return err
	}
	cats, err := b.Lookup(ctx)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create export directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	if err := RenderCSV(f, rep, cats); err != nil {
		f.Close()
		return fmt.Errorf("write csv: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close export file: %w", err)
	}

	slog.InfoContext(ctx, "Report exported", "path", path, "month", month, "year", year, "expenses", len(rep.Expenses))
	return nil
}

// FileName is the default export name for a month, e.g. "expenses-2024-06.csv".
func FileName(month, year int, ext string) string {
	return fmt.Sprintf("expenses-%04d-%02d.%s", year, month, ext)
}
