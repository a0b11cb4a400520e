package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"budgetlens/internal/core"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// SheetsExporter writes monthly reports into tabs of a Google spreadsheet.
type SheetsExporter struct {
	svc           *gsheet.Service
	spreadsheetID string
}

// SheetsCredentials selects the service account; JSON wins over File.
type SheetsCredentials struct {
	JSON string
	File string
}

// NewSheetsExporter authenticates with a service account.
func NewSheetsExporter(ctx context.Context, spreadsheetID string, creds SheetsCredentials) (*SheetsExporter, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	var (
		credentialsJSON []byte
		err             error
	)
	switch {
	case strings.TrimSpace(creds.JSON) != "":
		credentialsJSON = []byte(creds.JSON)
	case strings.TrimSpace(creds.File) != "":
		credentialsJSON, err = os.ReadFile(creds.File)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &SheetsExporter{svc: svc, spreadsheetID: spreadsheetID}, nil
}

// NewSheetsExporterWithOptions builds an exporter from raw client options.
func NewSheetsExporterWithOptions(ctx context.Context, spreadsheetID string, opts ...goption.ClientOption) (*SheetsExporter, error) {
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &SheetsExporter{svc: svc, spreadsheetID: spreadsheetID}, nil
}

// TabName is the sheet title used for a month, e.g. "2024-06 Report".
func TabName(month, year int) string {
	return fmt.Sprintf("%04d-%02d Report", year, month)
}

// Export replaces the month's tab with the report and returns the tab name.
func (x *SheetsExporter) Export(ctx context.Context, r core.MonthlyReport, categories map[int64]core.Category) (string, error) {
	tab := TabName(r.Month, r.Year)
	if err := x.ensureTab(ctx, tab); err != nil {
		return "", err
	}

	if _, err := x.svc.Spreadsheets.Values.Clear(x.spreadsheetID, tab, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("clear tab %q: %w", tab, err)
	}

	vr := &gsheet.ValueRange{Values: SheetRows(r, categories)}
	if _, err := x.svc.Spreadsheets.Values.Update(x.spreadsheetID, tab+"!A1", vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("write tab %q: %w", tab, err)
	}

	slog.InfoContext(ctx, "Report exported to Google Sheets",
		"spreadsheet_id", x.spreadsheetID, "tab", tab, "rows", len(vr.Values))
	return tab, nil
}

func (x *SheetsExporter) ensureTab(ctx context.Context, tab string) error {
	ss, err := x.svc.Spreadsheets.Get(x.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == tab {
			return nil
		}
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: tab}},
		}},
	}
	if _, err := x.svc.Spreadsheets.BatchUpdate(x.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add tab %q: %w", tab, err)
	}
	return nil
}

// SheetRows lays the report out in the same four sections as the CSV.
func SheetRows(r core.MonthlyReport, categories map[int64]core.Category) [][]interface{} {
	rows := [][]interface{}{
		{"Monthly Expense Report - " + r.Title()},
		{},
		{"Summary:"},
		{"Total Expenses", r.GrandTotal.String()},
		{"Number of Expenses", len(r.Expenses)},
		{},
		{"Category Breakdown:"},
		{"Category", "Amount", "Percentage"},
	}
	for _, b := range r.Breakdown {
		rows = append(rows, []interface{}{b.CategoryName, b.Amount.String(), fmt.Sprintf("%.1f%%", b.Percentage)})
	}
	rows = append(rows,
		[]interface{}{},
		[]interface{}{"Detailed Expenses:"},
		[]interface{}{"Date", "Category", "Amount", "Notes"},
	)
	for _, e := range r.Expenses {
		rows = append(rows, []interface{}{
			e.Date.String(), CategoryName(categories, e.CategoryID), e.Amount.String(), e.Notes,
		})
	}
	return rows
}
