// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts typed into the
// record form and formatting signed amounts for display.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ParseMagnitude converts a decimal string typed by the user into an unsigned amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rounds
// half-up to two decimal places. A leading sign is rejected because the sign of
// a record comes from its income/expense type. Zero is allowed.
//
// Examples:
//
//	ParseMagnitude("12.34")  -> 12.34, nil
//	ParseMagnitude("12,345") -> 12.35, nil
//	ParseMagnitude("-5")     -> 0, ErrInvalidAmount
func ParseMagnitude(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.Count(s, ".") > 1 {
		return decimal.Zero, ErrInvalidAmount
	}
	for _, r := range s {
		if r != '.' && !unicode.IsDigit(r) {
			return decimal.Zero, ErrInvalidAmount
		}
	}
	if s == "." {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d.Round(2), nil
}

// FormatAmount renders an amount with exactly two decimals, e.g. "-30.00".
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// ParseSigned is ParseMagnitude with an optional leading sign, for amounts
// that come from storage or seed files rather than the form.
func ParseSigned(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(strings.TrimPrefix(s, "-"), "+")
	d, err := ParseMagnitude(s)
	if err != nil {
		return decimal.Zero, err
	}
	if neg {
		return d.Neg(), nil
	}
	return d, nil
}
