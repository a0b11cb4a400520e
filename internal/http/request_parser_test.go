package http

import (
	"errors"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"budgetlens/internal/core"
)

func TestParseMonthParams(t *testing.T) {
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name      string
		query     url.Values
		want      MonthParams
		wantField string
	}{
		{"defaults to now", url.Values{}, MonthParams{Month: 6, Year: 2024}, ""},
		{"explicit", url.Values{"month": {"2"}, "year": {"2023"}}, MonthParams{Month: 2, Year: 2023}, ""},
		{"month only", url.Values{"month": {" 11 "}}, MonthParams{Month: 11, Year: 2024}, ""},
		{"out of range passes through", url.Values{"month": {"13"}}, MonthParams{Month: 13, Year: 2024}, ""},
		{"bad month", url.Values{"month": {"june"}}, MonthParams{}, "month"},
		{"bad year", url.Values{"year": {"20x4"}}, MonthParams{}, "year"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMonthParams(tt.query, now)
			if tt.wantField != "" {
				var ve *core.ValidationError
				if !errors.As(err, &ve) || ve.Field != tt.wantField {
					t.Fatalf("err = %v, want validation on %q", err, tt.wantField)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("got %+v, %v; want %+v", got, err, tt.want)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantField  string
	}{
		{"ok", `{"amount":"12.50","category_id":1,"date":"2024-06-01","notes":"x"}`, 0, ""},
		{"numeric amount", `{"amount":12.5}`, 0, ""},
		{"bad amount", `{"amount":"12.5.0"}`, 422, "amount"},
		{"bad date", `{"date":"01/06/2024"}`, 422, "date"},
		{"unknown field", `{"price":"1"}`, 400, ""},
		{"empty", ``, 400, ""},
		{"array", `[]`, 400, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/", strings.NewReader(tt.body))
			var v expenseRequest
			err := decodeJSON(req, &v)
			if tt.wantStatus == 0 {
				if err != nil {
					t.Fatalf("decodeJSON: %v", err)
				}
				return
			}
			if got := StatusFor(err); got != tt.wantStatus {
				t.Fatalf("StatusFor(%v) = %d, want %d", err, got, tt.wantStatus)
			}
			if tt.wantField != "" {
				var ve *core.ValidationError
				if !errors.As(err, &ve) || ve.Field != tt.wantField {
					t.Fatalf("err = %v, want field %q", err, tt.wantField)
				}
			}
		})
	}
}

func TestExpenseRequestSanitizes(t *testing.T) {
	req := expenseRequest{ID: 7, Notes: "  lunch\x00 with\tteam \n"}
	e := req.toExpense(0)
	if e.ID != 7 {
		t.Fatalf("ID = %d", e.ID)
	}
	if e.Notes != "lunch with\tteam" {
		t.Fatalf("Notes = %q", e.Notes)
	}
	if got := req.toExpense(3).ID; got != 3 {
		t.Fatalf("path id should win, got %d", got)
	}
}

func TestQueryID(t *testing.T) {
	if _, ok, err := queryID(url.Values{}, "category_id"); ok || err != nil {
		t.Fatalf("absent: ok=%v err=%v", ok, err)
	}
	if id, ok, err := queryID(url.Values{"category_id": {"42"}}, "category_id"); !ok || err != nil || id != 42 {
		t.Fatalf("got %d %v %v", id, ok, err)
	}
	if _, _, err := queryID(url.Values{"category_id": {"-1"}}, "category_id"); !core.IsValidation(err) {
		t.Fatalf("negative id err = %v", err)
	}
}
