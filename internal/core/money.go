// Package core provides money parsing and handling utilities.
//
// Amounts are carried as integer cents everywhere; floats only appear when
// rendering percentages or charts.
package core

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Money is an amount in the smallest currency unit.
type Money struct {
	Cents int64
}

// MaxCents caps any single amount at one hundred billion units so sums and
// percentage comparisons stay far from int64 overflow.
const MaxCents int64 = 10_000_000_000_000

// Cents builds a Money from a cent count.
func Cents(c int64) Money { return Money{Cents: c} }

// Validate requires a strictly positive amount, as for expenses.
func (m Money) Validate() error {
	if m.Cents <= 0 || m.Cents > MaxCents {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }
func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }

// ParseDecimalToCents converts a decimal string to cents with proper rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and performs
// half-up rounding on the third decimal place. The result is always positive cents.
// Returns an error for invalid formats, negative values, or zero amounts.
//
// Examples:
//
//	ParseDecimalToCents("12.34") -> 1234, nil
//	ParseDecimalToCents("12,34") -> 1234, nil
//	ParseDecimalToCents("12.345") -> 1235, nil (rounds up)
//	ParseDecimalToCents("12.344") -> 1234, nil (rounds down)
func ParseDecimalToCents(s string) (int64, error) {
	return parseCents(s, false)
}

// ParseBudgetAmount is ParseDecimalToCents but also accepts zero, since a
// budget limit of nothing is a legal configuration.
func ParseBudgetAmount(s string) (Money, error) {
	c, err := parseCents(s, true)
	if err != nil {
		return Money{}, err
	}
	return Money{Cents: c}, nil
}

// ParseAmount parses a positive expense amount.
func ParseAmount(s string) (Money, error) {
	c, err := parseCents(s, false)
	if err != nil {
		return Money{}, err
	}
	return Money{Cents: c}, nil
}

func parseCents(s string, allowZero bool) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if iv > MaxCents/100 {
		return 0, ErrInvalidAmount
	}
	// First two fractional digits, then half-up on the third.
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	cents := iv*100 + fracCents
	if cents < 0 || cents > MaxCents || (cents == 0 && !allowZero) {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// Float returns the amount in whole units for display and chart values.
// Use cents for arithmetic.
func (m Money) Float() float64 {
	return float64(m.Cents) / 100.0
}

// String formats the amount with two decimals, e.g. "30.00" or "-12.50".
func (m Money) String() string {
	c := m.Cents
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}

// MarshalJSON encodes the amount as a decimal string so clients never see
// binary floating point.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// MarshalYAML renders the amount as a decimal string, like MarshalJSON.
func (m Money) MarshalYAML() (interface{}, error) {
	return m.String(), nil
}

// UnmarshalJSON accepts either a decimal string ("12.50") or a JSON number.
// Sign and zero checks are left to Validate.
func (m *Money) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return ErrInvalidAmount
		}
		s = n.String()
	}
	s = strings.TrimSpace(s)
	neg := strings.HasPrefix(s, "-")
	c, err := parseCents(strings.TrimPrefix(s, "-"), true)
	if err != nil {
		return err
	}
	if neg {
		c = -c
	}
	m.Cents = c
	return nil
}
