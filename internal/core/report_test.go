package core

import (
	"math"
	"testing"
)

func TestBuildBreakdown(t *testing.T) {
	food := Category{ID: 1, Name: "Food", Color: "#FF0000"}
	rent := Category{ID: 2, Name: "Rent", Color: "#00FF00"}
	misc := Category{ID: 3, Name: "Misc", Color: "#0000FF"}
	fun := Category{ID: 4, Name: "Fun", Color: "#FFFFFF"}

	rows, grand := BuildBreakdown([]CategoryTotal{
		{Category: food, Amount: Cents(2500)},
		{Category: misc, Amount: Cents(0)},
		{Category: rent, Amount: Cents(5000)},
		{Category: fun, Amount: Cents(2500)},
	})
	if grand.Cents != 10000 {
		t.Fatalf("grand = %d, want 10000", grand.Cents)
	}
	if len(rows) != 3 {
		t.Fatalf("expected zero total to be dropped, got %d rows", len(rows))
	}
	wantOrder := []string{"Rent", "Food", "Fun"}
	for i, name := range wantOrder {
		if rows[i].CategoryName != name {
			t.Fatalf("row %d = %s, want %s", i, rows[i].CategoryName, name)
		}
	}
	var sum float64
	for _, r := range rows {
		sum += r.Percentage
	}
	if math.Abs(sum-100) > 1e-9 {
		t.Fatalf("percentages sum to %v", sum)
	}
	if rows[0].Percentage != 50 || rows[0].Color != "#00FF00" {
		t.Fatalf("unexpected first row %+v", rows[0])
	}
}

func TestBuildBreakdownEmpty(t *testing.T) {
	rows, grand := BuildBreakdown(nil)
	if len(rows) != 0 || grand.Cents != 0 {
		t.Fatalf("expected empty breakdown, got %v %v", rows, grand)
	}
}

func TestSortByDateDesc(t *testing.T) {
	ex := []Expense{
		{ID: 1, Date: NewDate(2024, 6, 1)},
		{ID: 2, Date: NewDate(2024, 6, 15)},
		{ID: 3, Date: NewDate(2024, 6, 15)},
		{ID: 4, Date: NewDate(2024, 6, 3)},
	}
	SortByDateDesc(ex)
	want := []int64{3, 2, 4, 1}
	for i, id := range want {
		if ex[i].ID != id {
			t.Fatalf("position %d = %d, want %d", i, ex[i].ID, id)
		}
	}
}

func TestDailyTotals(t *testing.T) {
	ex := []Expense{
		{Amount: Cents(100), Date: NewDate(2024, 2, 1)},
		{Amount: Cents(250), Date: NewDate(2024, 2, 29)},
		{Amount: Cents(50), Date: NewDate(2024, 2, 1)},
		{Amount: Cents(999), Date: NewDate(2024, 3, 1)},
	}
	days := DailyTotals(ex, 2, 2024)
	if len(days) != 29 {
		t.Fatalf("leap february should have 29 days, got %d", len(days))
	}
	if days[0].Amount.Cents != 150 || days[28].Amount.Cents != 250 {
		t.Fatalf("unexpected totals %+v %+v", days[0], days[28])
	}
}

func TestReportTitle(t *testing.T) {
	if got := (MonthlyReport{Month: 6, Year: 2024}).Title(); got != "June 2024" {
		t.Fatalf("title = %q", got)
	}
}
