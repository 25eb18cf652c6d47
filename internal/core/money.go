// Package core holds the fine ledger domain: members, fines, the fine
// catalog and the aggregations derived from them.
//
// This file contains helpers for parsing stored amounts and formatting them
// for display.
package core

import (
	"strconv"
	"strings"
)

// ParseAmount parses a whole-unit amount as written to tabular storage.
//
// Spreadsheet tools sometimes write integral numbers with a trailing ".0",
// so "20", "20.0" and "20,00" are all accepted as 20. Fractional, negative
// and zero amounts are rejected.
//
// Examples:
//   ParseAmount("1000")  -> 1000, nil
//   ParseAmount("20.0")  -> 20, nil
//   ParseAmount("20.5")  -> 0, ErrInvalidAmount
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	intPart, fracPart, _ := strings.Cut(s, ".")
	if strings.Trim(fracPart, "0") != "" {
		return 0, ErrInvalidAmount
	}
	if intPart == "" || strings.HasPrefix(intPart, "+") || strings.HasPrefix(intPart, "-") {
		return 0, ErrInvalidAmount
	}
	v, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil || v <= 0 {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

// FormatAmount renders an amount with its currency code, e.g. "1020 DKK".
func FormatAmount(amount int64, currency string) string {
	s := strconv.FormatInt(amount, 10)
	if currency == "" {
		return s
	}
	return s + " " + currency
}
