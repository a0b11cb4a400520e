package report

import (
	"bytes"
	"context"
	"testing"

	"budgetlens/internal/core"
)

func TestRenderCSV(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()
	rep, err := f.builder.BuildReport(ctx, 6, 2024)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	cats, _ := f.builder.Lookup(ctx)

	var buf bytes.Buffer
	if err := RenderCSV(&buf, rep, cats); err != nil {
		t.Fatalf("render: %v", err)
	}

	want := `Monthly Expense Report - June 2024

Summary:
Total Expenses: $100.00
Number of Expenses: 3

Category Breakdown:
Category,Amount,Percentage
Rent,$75.00,75.0%
Food,$25.00,25.0%

Detailed Expenses:
Date,Category,Amount,Notes
2024-06-15,Rent,$75.00,
2024-06-10,Unknown,$10.00,
2024-06-01,Food,$25.00,lunch; with team
`
	if got := buf.String(); got != want {
		t.Fatalf("csv mismatch\n--- got ---\n%s\n--- want ---\n%s", got, want)
	}
}

func TestRenderCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderCSV(&buf, core.MonthlyReport{Month: 2, Year: 2023}, nil); err != nil {
		t.Fatalf("render: %v", err)
	}
	want := "Monthly Expense Report - February 2023\n\nSummary:\nTotal Expenses: $0.00\nNumber of Expenses: 0\n\n" +
		"Category Breakdown:\nCategory,Amount,Percentage\n\nDetailed Expenses:\nDate,Category,Amount,Notes\n"
	if buf.String() != want {
		t.Fatalf("unexpected empty csv:\n%s", buf.String())
	}
}

func TestSanitizeNotes(t *testing.T) {
	cases := map[string]string{
		"":             "",
		"a,b,c":        "a;b;c",
		"line1\nline2": "line1 line2",
	}
	for in, want := range cases {
		if got := SanitizeNotes(in); got != want {
			t.Fatalf("SanitizeNotes(%q) = %q, want %q", in, got, want)
		}
	}
}
