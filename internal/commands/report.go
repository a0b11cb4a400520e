package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"budgetlens/internal/core"
	"budgetlens/internal/report"
)

func newReportCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Monthly spending reports",
	}

	var output string
	show := &cobra.Command{
		Use:   "show",
		Short: "Show the report for --month/--year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			rep, err := a.backend().Reports.BuildReport(ctx, a.month, a.year)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			switch strings.ToLower(output) {
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(rep)
			case "yaml":
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(rep); err != nil {
					return fmt.Errorf("encode yaml: %w", err)
				}
				return enc.Close()
			case "table", "":
				lookup, err := a.backend().Reports.Lookup(ctx)
				if err != nil {
					return err
				}
				writeReportTable(out, rep, lookup)
				return nil
			}
			return fmt.Errorf("unknown output %q, expected table, yaml or json", output)
		},
	}
	show.Flags().StringVarP(&output, "output", "o", "table", "Output format: table, yaml or json")

	cmd.AddCommand(show)
	return cmd
}

func writeReportTable(w io.Writer, rep core.MonthlyReport, lookup map[int64]core.Category) {
	fmt.Fprintln(w, renderTitle("REPORT  "+rep.Title()))
	fmt.Fprintf(w, "  Total: %s across %d expenses\n\n", formatMoney(rep.GrandTotal), len(rep.Expenses))
	if rep.ExpenseTotal != rep.GrandTotal {
		fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("  %s belongs to deleted categories",
			formatMoney(rep.ExpenseTotal.Sub(rep.GrandTotal)))))
	}

	rows := make([][]string, 0, len(rep.Breakdown))
	for _, b := range rep.Breakdown {
		rows = append(rows, []string{b.CategoryName, formatMoney(b.Amount), formatPercent(b.Percentage)})
	}
	fmt.Fprint(w, renderTable(Table{
		Title:   "By Category",
		Headers: []string{"Category", "Amount", "Share"},
		Rows:    rows,
	}))

	rows = make([][]string, 0, len(rep.Expenses))
	for _, e := range rep.Expenses {
		rows = append(rows, []string{e.Date.String(), report.CategoryName(lookup, e.CategoryID), formatMoney(e.Amount), e.Notes})
	}
	fmt.Fprint(w, renderTable(Table{
		Title:   "Expenses",
		Headers: []string{"Date", "Category", "Amount", "Notes"},
		Rows:    rows,
	}))
}
