package report

import (
	"bytes"
	"context"
	"testing"

	"github.com/tealeg/xlsx"
)

func TestRenderXLSX(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()
	rep, _ := f.builder.BuildReport(ctx, 6, 2024)
	cats, _ := f.builder.Lookup(ctx)

	var buf bytes.Buffer
	if err := RenderXLSX(&buf, rep, cats); err != nil {
		t.Fatalf("render: %v", err)
	}

	wb, err := xlsx.OpenBinary(buf.Bytes())
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	for _, name := range []string{"Summary", "Breakdown", "Expenses"} {
		if _, ok := wb.Sheet[name]; !ok {
			t.Fatalf("missing sheet %q", name)
		}
	}

	breakdown := wb.Sheet["Breakdown"]
	if len(breakdown.Rows) != 3 {
		t.Fatalf("breakdown rows = %d, want header + 2", len(breakdown.Rows))
	}
	if got := breakdown.Rows[1].Cells[0].Value; got != "Rent" {
		t.Fatalf("first breakdown category = %q", got)
	}

	expenses := wb.Sheet["Expenses"]
	if len(expenses.Rows) != 4 {
		t.Fatalf("expense rows = %d, want header + 3", len(expenses.Rows))
	}
	if got := expenses.Rows[2].Cells[1].Value; got != UnknownCategory {
		t.Fatalf("orphan category = %q", got)
	}
}
