package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// DateLayout is the ISO-8601 calendar date format used on every boundary.
const DateLayout = "2006-01-02"

const (
	MaxCategoryNameLength = 64
	MaxNotesLength        = 500
	MinYear               = 1900
	MaxYear               = 2100
)

type (
	Date struct {
		time.Time
	}

	Category struct {
		ID    int64  `json:"id"`
		Name  string `json:"name" validate:"required,max=64"`
		Color string `json:"color" validate:"required,rgbhex"`
	}

	Budget struct {
		ID         int64 `json:"id"`
		CategoryID int64 `json:"category_id" validate:"gt=0"`
		Amount     Money `json:"amount"`
		Month      int   `json:"month" validate:"min=1,max=12"`
		Year       int   `json:"year" validate:"min=1900,max=2100"`
	}

	Expense struct {
		ID         int64  `json:"id" yaml:"id"`
		Amount     Money  `json:"amount" yaml:"amount"`
		CategoryID int64  `json:"category_id" yaml:"category_id" validate:"gt=0"`
		Date       Date   `json:"date" yaml:"date"`
		Notes      string `json:"notes,omitempty" yaml:"notes,omitempty" validate:"max=500"`
	}
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidMonth      = errors.New("invalid month")
	ErrInvalidYear       = errors.New("invalid year")
	ErrMissingDate       = errors.New("date is required")
	ErrInvalidDate       = errors.New("invalid date, expected YYYY-MM-DD")
	ErrFutureDate        = errors.New("date cannot be in the future")
	ErrUnknownCategory   = errors.New("unknown category")
	ErrEmptyName         = errors.New("empty category name")
	ErrNameTooLong       = errors.New("category name too long (max 64 characters)")
	ErrInvalidColor      = errors.New("invalid color, expected #RRGGBB")
	ErrDuplicateCategory = errors.New("category name already exists")
	ErrDuplicateBudget   = errors.New("budget already exists for this category and month")
	ErrNotesTooLong      = errors.New("notes too long (max 500 characters)")
	ErrInvalidRange      = errors.New("start date is after end date")
)

// ValidationError reports malformed or out-of-range input together with the
// offending field. It always wraps one of the sentinel errors above.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Err.Error())
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Invalid builds a ValidationError for field.
func Invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

var validate *validator.Validate

func init() {
	validate = validator.New()
	if err := validate.RegisterValidation("rgbhex", validateRGBHex); err != nil {
		panic(err)
	}
}

func validateRGBHex(fl validator.FieldLevel) bool {
	_, ok := normalizeColor(fl.Field().String())
	return ok
}

// fieldErrors maps struct field names to the sentinel reported when the
// validator rejects them.
type fieldErrors map[string]struct {
	field string
	err   error
}

func (m fieldErrors) translate(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	if mapped, ok := m[fe.StructField()]; ok {
		return Invalid(mapped.field, mapped.err)
	}
	return Invalid(strings.ToLower(fe.Field()), fmt.Errorf("failed %q check", fe.Tag()))
}

var categoryFieldErrors = fieldErrors{
	"Color": {"color", ErrInvalidColor},
}

var budgetFieldErrors = fieldErrors{
	"CategoryID": {"category_id", ErrUnknownCategory},
	"Month":      {"month", ErrInvalidMonth},
	"Year":       {"year", ErrInvalidYear},
}

var expenseFieldErrors = fieldErrors{
	"CategoryID": {"category_id", ErrUnknownCategory},
	"Notes":      {"notes", ErrNotesTooLong},
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the calendar date of t in t's own location.
func Today(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// After reports whether d falls on a later calendar day than other.
func (d Date) After(other Date) bool {
	return d.Time.After(other.Time)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// MarshalYAML renders the date as YYYY-MM-DD.
func (d Date) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ValidateMonth checks a month/year pair used to address a reporting period.
func ValidateMonth(month, year int) error {
	if month < 1 || month > 12 {
		return Invalid("month", ErrInvalidMonth)
	}
	if year < MinYear || year > MaxYear {
		return Invalid("year", ErrInvalidYear)
	}
	return nil
}

// Normalize trims the name and upper-cases the color into #RRGGBB form.
// Invalid colors are left untouched so Validate can report them.
func (c Category) Normalize() Category {
	c.Name = strings.TrimSpace(c.Name)
	if color, ok := normalizeColor(c.Color); ok {
		c.Color = color
	}
	return c
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return Invalid("name", ErrEmptyName)
	}
	if utf8.RuneCountInString(strings.TrimSpace(c.Name)) > MaxCategoryNameLength {
		return Invalid("name", ErrNameTooLong)
	}
	if err := validate.Struct(c); err != nil {
		return categoryFieldErrors.translate(err)
	}
	return nil
}

func (b Budget) Validate() error {
	if b.Amount.Cents < 0 || b.Amount.Cents > MaxCents {
		return Invalid("amount", ErrInvalidAmount)
	}
	if err := validate.Struct(b); err != nil {
		return budgetFieldErrors.translate(err)
	}
	return nil
}

// Validate checks the expense against the calendar date today.
func (e Expense) Validate(today Date) error {
	if err := e.Amount.Validate(); err != nil {
		return Invalid("amount", err)
	}
	if e.Date.IsZero() {
		return Invalid("date", ErrMissingDate)
	}
	if e.Date.After(today) {
		return Invalid("date", ErrFutureDate)
	}
	if err := validate.Struct(e); err != nil {
		return expenseFieldErrors.translate(err)
	}
	return nil
}
