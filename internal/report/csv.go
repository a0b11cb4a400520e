package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"budgetlens/internal/core"
)

// UnknownCategory labels expenses whose category no longer exists.
const UnknownCategory = "Unknown"

// RenderCSV writes the sectioned report layout. It is comma separated but
// not RFC 4180: notes have commas replaced by semicolons instead of quoting.
func RenderCSV(w io.Writer, r core.MonthlyReport, categories map[int64]core.Category) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "Monthly Expense Report - %s\n\n", r.Title())

	fmt.Fprintln(bw, "Summary:")
	fmt.Fprintf(bw, "Total Expenses: $%s\n", r.GrandTotal)
	fmt.Fprintf(bw, "Number of Expenses: %d\n\n", len(r.Expenses))

	fmt.Fprintln(bw, "Category Breakdown:")
	fmt.Fprintln(bw, "Category,Amount,Percentage")
	for _, row := range r.Breakdown {
		fmt.Fprintf(bw, "%s,$%s,%.1f%%\n", row.CategoryName, row.Amount, row.Percentage)
	}
	fmt.Fprintln(bw)

	fmt.Fprintln(bw, "Detailed Expenses:")
	fmt.Fprintln(bw, "Date,Category,Amount,Notes")
	for _, e := range r.Expenses {
		fmt.Fprintf(bw, "%s,%s,$%s,%s\n",
			e.Date.String(),
			CategoryName(categories, e.CategoryID),
			e.Amount,
			SanitizeNotes(e.Notes))
	}

	return bw.Flush()
}

// CategoryName resolves id, falling back to UnknownCategory.
func CategoryName(categories map[int64]core.Category, id int64) string {
	if c, ok := categories[id]; ok {
		return c.Name
	}
	return UnknownCategory
}

// SanitizeNotes keeps notes inside a single CSV field.
func SanitizeNotes(s string) string {
	s = strings.ReplaceAll(s, ",", ";")
	s = strings.ReplaceAll(s, "\r\n", " ")
	return strings.ReplaceAll(s, "\n", " ")
}
