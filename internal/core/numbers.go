// Package core provides the domain types shared by the scraping, charting and
// tag-cloud packages.
//
// This file contains the normalisation of locale-formatted numbers as they
// appear in rendered table cells.
package core

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// CleanNumber normalises a locale-formatted number so it can be parsed.
//
// Non-breaking space artifacts (the literal "&nbsp;" entity or U+00A0) are
// stripped. When both a comma and a dot appear, the last one is the decimal
// separator and the other is treated as digit grouping. Otherwise the first
// comma is the decimal separator.
//
// Examples:
//
//	CleanNumber("12,5")          -> "12.5"
//	CleanNumber("1&nbsp;234,50") -> "1234.50"
//	CleanNumber("1,234.5")       -> "1234.5"
//	CleanNumber("1.234,5")       -> "1234.5"
func CleanNumber(s string) string {
	s = strings.ReplaceAll(s, "&nbsp;", "")
	s = strings.ReplaceAll(s, "\u00a0", "")
	s = strings.TrimSpace(s)

	comma := strings.LastIndex(s, ",")
	dot := strings.LastIndex(s, ".")
	switch {
	case comma >= 0 && dot >= 0 && dot > comma:
		s = strings.ReplaceAll(s, ",", "")
	case comma >= 0 && dot >= 0:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	default:
		s = strings.Replace(s, ",", ".", 1)
	}
	return s
}

// ParseNumber cleans s and parses it as a finite float.
//
// Blank input parses to zero, matching how the table cells were read by the
// browser. Anything else that is not a decimal number returns ErrInvalidNumber.
func ParseNumber(s string) (float64, error) {
	s = CleanNumber(s)
	if s == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidNumber
	}
	f, _ := d.Float64()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, ErrInvalidNumber
	}
	return f, nil
}

// FormatAmount renders an amount with two decimals and a decimal comma,
// the way amounts appear in the summary tables (e.g. 1234.5 -> "1234,50").
func FormatAmount(v float64) string {
	return strings.Replace(decimal.NewFromFloat(v).StringFixed(2), ".", ",", 1)
}
