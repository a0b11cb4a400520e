package report

import (
	"fmt"
	"io"

	"github.com/tealeg/xlsx"

	"budgetlens/internal/core"
)

const moneyFormat = "0.00"

// RenderXLSX writes a workbook with Summary, Breakdown and Expenses sheets.
func RenderXLSX(w io.Writer, r core.MonthlyReport, categories map[int64]core.Category) error {
	file := xlsx.NewFile()

	summary, err := file.AddSheet("Summary")
	if err != nil {
		return fmt.Errorf("add summary sheet: %w", err)
	}
	addStrings(summary, "Monthly Expense Report", r.Title())
	addMoneyRow(summary, "Total Expenses", r.GrandTotal)
	addMoneyRow(summary, "All Expenses (incl. uncategorized)", r.ExpenseTotal)
	count := summary.AddRow()
	count.AddCell().SetString("Number of Expenses")
	count.AddCell().SetInt(len(r.Expenses))

	breakdown, err := file.AddSheet("Breakdown")
	if err != nil {
		return fmt.Errorf("add breakdown sheet: %w", err)
	}
	addStrings(breakdown, "Category", "Amount", "Percentage", "Color")
	for _, row := range r.Breakdown {
		xr := breakdown.AddRow()
		xr.AddCell().SetString(row.CategoryName)
		xr.AddCell().SetFloatWithFormat(row.Amount.Float(), moneyFormat)
		xr.AddCell().SetFloatWithFormat(row.Percentage, "0.0")
		xr.AddCell().SetString(row.Color)
	}

	expenses, err := file.AddSheet("Expenses")
	if err != nil {
		return fmt.Errorf("add expenses sheet: %w", err)
	}
	addStrings(expenses, "Date", "Category", "Amount", "Notes")
	for _, e := range r.Expenses {
		xr := expenses.AddRow()
		xr.AddCell().SetString(e.Date.String())
		xr.AddCell().SetString(CategoryName(categories, e.CategoryID))
		xr.AddCell().SetFloatWithFormat(e.Amount.Float(), moneyFormat)
		xr.AddCell().SetString(e.Notes)
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func addStrings(sheet *xlsx.Sheet, values ...string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

func addMoneyRow(sheet *xlsx.Sheet, label string, m core.Money) {
	row := sheet.AddRow()
	row.AddCell().SetString(label)
	row.AddCell().SetFloatWithFormat(m.Float(), moneyFormat)
}
