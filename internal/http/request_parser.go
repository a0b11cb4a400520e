package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"budgetlens/internal/core"
)

const maxBodyBytes = 1 << 20

// MonthParams is a reporting period taken from the query string.
type MonthParams struct {
	Month int
	Year  int
}

// ParseMonthParams reads month and year, defaulting each to now. Values
// that are present but not integers are validation errors; range checks
// are left to the services.
func ParseMonthParams(query url.Values, now time.Time) (MonthParams, error) {
	p := MonthParams{Month: int(now.Month()), Year: now.Year()}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			return MonthParams{}, core.Invalid("month", core.ErrInvalidMonth)
		}
		p.Month = m
	}
	if v := strings.TrimSpace(query.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return MonthParams{}, core.Invalid("year", core.ErrInvalidYear)
		}
		p.Year = y
	}
	return p, nil
}

// pathID reads a positive integer route variable.
func pathID(r *http.Request, name string) (int64, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest{msg: fmt.Sprintf("invalid %s %q", name, raw)}
	}
	return id, nil
}

// pathInt reads an integer route variable.
func pathInt(r *http.Request, name string) (int, error) {
	raw := mux.Vars(r)[name]
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequest{msg: fmt.Sprintf("invalid %s %q", name, raw)}
	}
	return n, nil
}

// queryID reads an optional positive id from the query string.
func queryID(q url.Values, name string) (int64, bool, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return 0, false, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false, core.Invalid(name, core.ErrUnknownCategory)
	}
	return id, true, nil
}

// decodeJSON decodes a single JSON object into v. Amount and date format
// errors surface as validation errors on their field.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		switch {
		case errors.Is(err, core.ErrInvalidAmount):
			return core.Invalid("amount", core.ErrInvalidAmount)
		case errors.Is(err, core.ErrInvalidDate):
			return core.Invalid("date", core.ErrInvalidDate)
		case errors.Is(err, io.EOF):
			return badRequest{msg: "request body is empty"}
		default:
			return badRequest{msg: "malformed JSON: " + err.Error()}
		}
	}
	if dec.More() {
		return badRequest{msg: "request body must hold a single JSON object"}
	}
	return nil
}

// sanitizeInput drops control characters other than tab and newlines.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}

type categoryRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

func (c categoryRequest) toCategory(id int64) core.Category {
	return core.Category{ID: id, Name: sanitizeInput(c.Name), Color: c.Color}
}

type budgetRequest struct {
	CategoryID int64      `json:"category_id"`
	Amount     core.Money `json:"amount"`
	Month      int        `json:"month"`
	Year       int        `json:"year"`
}

func (b budgetRequest) toBudget(id int64) core.Budget {
	return core.Budget{ID: id, CategoryID: b.CategoryID, Amount: b.Amount, Month: b.Month, Year: b.Year}
}

type expenseRequest struct {
	ID         int64      `json:"id"`
	Amount     core.Money `json:"amount"`
	CategoryID int64      `json:"category_id"`
	Date       core.Date  `json:"date"`
	Notes      string     `json:"notes"`
}

func (e expenseRequest) toExpense(id int64) core.Expense {
	if id == 0 {
		id = e.ID
	}
	return core.Expense{
		ID:         id,
		Amount:     e.Amount,
		CategoryID: e.CategoryID,
		Date:       e.Date,
		Notes:      sanitizeInput(strings.TrimSpace(e.Notes)),
	}
}
