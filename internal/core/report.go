package core

import (
	"fmt"
	"sort"
	"time"
)

// CategoryTotal is the spend of one category in a month, in category
// encounter order.
type CategoryTotal struct {
	Category Category
	Amount   Money
}

// CategoryBreakdown is one non-zero row of a monthly report.
type CategoryBreakdown struct {
	CategoryID   int64   `json:"category_id" yaml:"category_id"`
	CategoryName string  `json:"category_name" yaml:"category_name"`
	Amount       Money   `json:"amount" yaml:"amount"`
	Percentage   float64 `json:"percentage" yaml:"percentage"`
	Color        string  `json:"color" yaml:"color"`
}

// MonthlyReport is a compact summary for a specific year+month.
//
// GrandTotal sums the breakdown rows. ExpenseTotal sums every listed expense,
// including those whose category no longer exists.
type MonthlyReport struct {
	Month        int                 `json:"month" yaml:"month"`
	Year         int                 `json:"year" yaml:"year"`
	Expenses     []Expense           `json:"expenses" yaml:"expenses"`
	Breakdown    []CategoryBreakdown `json:"breakdown" yaml:"breakdown"`
	GrandTotal   Money               `json:"grand_total" yaml:"grand_total"`
	ExpenseTotal Money               `json:"expense_total" yaml:"expense_total"`
}

// DailyTotal is the spend of a single calendar day.
type DailyTotal struct {
	Day    int
	Amount Money
}

// BuildBreakdown drops zero totals, computes percentages of the grand total
// and stable-sorts descending by amount so ties keep encounter order.
func BuildBreakdown(totals []CategoryTotal) ([]CategoryBreakdown, Money) {
	var grand Money
	rows := make([]CategoryBreakdown, 0, len(totals))
	for _, t := range totals {
		if t.Amount.Cents == 0 {
			continue
		}
		grand = grand.Add(t.Amount)
		rows = append(rows, CategoryBreakdown{
			CategoryID:   t.Category.ID,
			CategoryName: t.Category.Name,
			Amount:       t.Amount,
			Color:        t.Category.Color,
		})
	}
	if grand.Cents > 0 {
		for i := range rows {
			rows[i].Percentage = float64(rows[i].Amount.Cents) / float64(grand.Cents) * 100
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Amount.Cents > rows[j].Amount.Cents
	})
	return rows, grand
}

// SortByDateDesc orders expenses newest first; same-day expenses keep
// descending ID order.
func SortByDateDesc(expenses []Expense) {
	sort.SliceStable(expenses, func(i, j int) bool {
		a, b := expenses[i], expenses[j]
		if !a.Date.Time.Equal(b.Date.Time) {
			return a.Date.After(b.Date)
		}
		return a.ID > b.ID
	})
}

// SumExpenses adds up every expense amount.
func SumExpenses(expenses []Expense) Money {
	var total Money
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total
}

// DailyTotals returns one entry per day of the month, including empty days.
func DailyTotals(expenses []Expense, month, year int) []DailyTotal {
	days := DaysIn(month, year)
	out := make([]DailyTotal, days)
	for i := range out {
		out[i].Day = i + 1
	}
	for _, e := range expenses {
		if e.Date.Month() != month || e.Date.Year() != year {
			continue
		}
		d := e.Date.Day() - 1
		out[d].Amount = out[d].Amount.Add(e.Amount)
	}
	return out
}

// DaysIn returns the number of days in the month.
func DaysIn(month, year int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Title renders the report heading, e.g. "June 2024".
func (r MonthlyReport) Title() string {
	return fmt.Sprintf("%s %d", time.Month(r.Month).String(), r.Year)
}
