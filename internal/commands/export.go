package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"budgetlens/internal/core"
	"budgetlens/internal/report"
)

// SheetsExporter uploads a monthly report and returns the tab it wrote.
type SheetsExporter interface {
	Export(ctx context.Context, r core.MonthlyReport, categories map[int64]core.Category) (string, error)
}

var errSheetsDisabled = errors.New("google sheets export is not configured, set GOOGLE_SPREADSHEET_ID and service account credentials")

func (a *app) sheets(ctx context.Context) (SheetsExporter, error) {
	if a.opts.Sheets != nil {
		return a.opts.Sheets(ctx)
	}
	cfg := a.opts.Config
	if !cfg.SheetsEnabled() {
		return nil, errSheetsDisabled
	}
	x, err := report.NewSheetsExporter(ctx, cfg.GoogleSpreadsheetID, report.SheetsCredentials{
		JSON: cfg.GoogleServiceAccountJSON,
		File: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, err
	}
	return x, nil
}

func newExportCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the report for --month/--year",
	}

	var outPath string
	cmd.PersistentFlags().StringVarP(&outPath, "out", "o", "", "Output file (default <export_dir>/expenses-YYYY-MM.<ext>)")

	target := func(ext string) string {
		if outPath != "" {
			return outPath
		}
		return filepath.Join(a.opts.Config.ExportDir, report.FileName(a.month, a.year, ext))
	}

	csvCmd := &cobra.Command{
		Use:   "csv",
		Short: "Write the sectioned CSV report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := target("csv")
			if err := a.backend().Reports.ExportCSV(cmd.Context(), path, a.month, a.year); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}

	xlsxCmd := &cobra.Command{
		Use:   "xlsx",
		Short: "Write the report as an Excel workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rep, lookup, err := a.buildWithLookup(cmd.Context())
			if err != nil {
				return err
			}
			path := target("xlsx")
			if err := writeFile(path, func(w io.Writer) error { return report.RenderXLSX(w, rep, lookup) }); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}

	var kind string
	chartCmd := &cobra.Command{
		Use:   "chart",
		Short: "Render a PNG chart: pie, bar or line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			k, err := report.ParseChartKind(kind)
			if err != nil {
				return err
			}
			rep, err := a.backend().Reports.BuildReport(cmd.Context(), a.month, a.year)
			if err != nil {
				return err
			}
			path := outPath
			if path == "" {
				path = filepath.Join(a.opts.Config.ExportDir,
					fmt.Sprintf("expenses-%04d-%02d-%s.png", a.year, a.month, k))
			}
			if err := writeFile(path, func(w io.Writer) error { return report.RenderChart(w, k, rep) }); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	chartCmd.Flags().StringVarP(&kind, "kind", "k", string(report.ChartPie), "Chart kind: pie, bar or line")

	sheetsCmd := &cobra.Command{
		Use:   "sheets",
		Short: "Write the report to a Google Sheets tab",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			x, err := a.sheets(ctx)
			if err != nil {
				return err
			}
			rep, lookup, err := a.buildWithLookup(ctx)
			if err != nil {
				return err
			}
			tab, err := x.Export(ctx, rep, lookup)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sheet tab %q\n", tab)
			return nil
		},
	}

	cmd.AddCommand(csvCmd, xlsxCmd, chartCmd, sheetsCmd)
	return cmd
}

func (a *app) buildWithLookup(ctx context.Context) (core.MonthlyReport, map[int64]core.Category, error) {
	rep, err := a.backend().Reports.BuildReport(ctx, a.month, a.year)
	if err != nil {
		return core.MonthlyReport{}, nil, err
	}
	lookup, err := a.backend().Reports.Lookup(ctx)
	if err != nil {
		return core.MonthlyReport{}, nil, err
	}
	return rep, lookup, nil
}

// writeFile renders into path, removing the partial file on failure.
func writeFile(path string, render func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	if err := render(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close export file: %w", err)
	}
	return nil
}
