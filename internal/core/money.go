// Package core provides money parsing and handling utilities.
//
// Amounts are persisted as plain JSON numbers. Parsing and all sums go
// through decimal arithmetic so that totals do not drift.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a user supplied amount to a non-negative number
// rounded to cents.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and
// rounds half-up on the third decimal place.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34, nil
//	ParseAmount("12,345") -> 12.35, nil
//	ParseAmount("-1")     -> 0, ErrInvalidAmount
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	if strings.Count(s, ".") > 1 || strings.ContainsAny(s, "eE") {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if d.IsNegative() {
		return 0, ErrInvalidAmount
	}
	return d.Round(2).InexactFloat64(), nil
}

// Amount returns the exact decimal value of a persisted amount.
func Amount(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

// FormatAmount renders an amount with two decimals for display.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
