package report

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	goption "google.golang.org/api/option"
)

func TestNewSheetsExporter_MissingSpreadsheetID(t *testing.T) {
	_, err := NewSheetsExporter(context.Background(), "  ", SheetsCredentials{JSON: "{}"})
	if err == nil || !strings.Contains(err.Error(), "GOOGLE_SPREADSHEET_ID") {
		t.Fatalf("expected missing id error, got %v", err)
	}
}

func TestNewSheetsExporter_MissingCredentials(t *testing.T) {
	_, err := NewSheetsExporter(context.Background(), "sheet-id", SheetsCredentials{})
	if err == nil || !strings.Contains(err.Error(), "credentials") {
		t.Fatalf("expected missing credentials error, got %v", err)
	}
}

func TestNewSheetsExporter_UnreadableFile(t *testing.T) {
	_, err := NewSheetsExporter(context.Background(), "sheet-id", SheetsCredentials{File: "/nonexistent/sa.json"})
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("expected read error, got %v", err)
	}
}

func TestTabName(t *testing.T) {
	if got := TabName(6, 2024); got != "2024-06 Report" {
		t.Fatalf("TabName = %q", got)
	}
}

func TestSheetRows(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()
	rep, _ := f.builder.BuildReport(ctx, 6, 2024)
	cats, _ := f.builder.Lookup(ctx)

	rows := SheetRows(rep, cats)
	if rows[0][0] != "Monthly Expense Report - June 2024" {
		t.Fatalf("unexpected title row %v", rows[0])
	}
	if rows[3][1] != "100.00" {
		t.Fatalf("unexpected total row %v", rows[3])
	}
	last := rows[len(rows)-1]
	if last[0] != "2024-06-01" || last[1] != "Food" || last[3] != "lunch, with team" {
		t.Fatalf("unexpected last row %v", last)
	}
}

type fakeSheetsAPI struct {
	mu       sync.Mutex
	calls    []string
	hasTab   bool
	lastBody map[string]any
}

func (f *fakeSheetsAPI) snapshot() ([]string, map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...), f.lastBody
}

func (f *fakeSheetsAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, r.Method+" "+r.URL.Path)
	w.Header().Set("Content-Type", "application/json")

	body, _ := io.ReadAll(r.Body)
	switch {
	case r.Method == http.MethodGet:
		sheets := []map[string]any{{"properties": map[string]any{"title": "Sheet1"}}}
		if f.hasTab {
			sheets = append(sheets, map[string]any{"properties": map[string]any{"title": "2024-06 Report"}})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"sheets": sheets})
	case strings.HasSuffix(r.URL.Path, ":batchUpdate"):
		f.hasTab = true
		_, _ = w.Write([]byte(`{}`))
	case strings.HasSuffix(r.URL.Path, ":clear"):
		_, _ = w.Write([]byte(`{}`))
	case r.Method == http.MethodPut:
		f.lastBody = map[string]any{}
		_ = json.Unmarshal(body, &f.lastBody)
		_, _ = w.Write([]byte(`{}`))
	default:
		http.Error(w, "unexpected call", http.StatusNotFound)
	}
}

func TestSheetsExporterExport(t *testing.T) {
	api := &fakeSheetsAPI{}
	srv := httptest.NewServer(api)
	defer srv.Close()

	ctx := context.Background()
	x, err := NewSheetsExporterWithOptions(ctx, "sheet-id",
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("new exporter: %v", err)
	}

	f := newReportFixture(t)
	rep, _ := f.builder.BuildReport(ctx, 6, 2024)
	cats, _ := f.builder.Lookup(ctx)

	tab, err := x.Export(ctx, rep, cats)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if tab != "2024-06 Report" {
		t.Fatalf("tab = %q", tab)
	}

	calls, body := api.snapshot()
	if len(calls) != 4 {
		t.Fatalf("expected get, add tab, clear, update; got %v", calls)
	}
	values, ok := body["values"].([]any)
	if !ok || len(values) == 0 {
		t.Fatalf("update body missing values: %v", body)
	}

	// Second export reuses the tab.
	if _, err := x.Export(ctx, rep, cats); err != nil {
		t.Fatalf("second export: %v", err)
	}
	calls, _ = api.snapshot()
	if len(calls) != 7 {
		t.Fatalf("expected get, clear, update on re-export; got %v", calls[4:])
	}
}
