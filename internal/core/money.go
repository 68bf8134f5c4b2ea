// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing amounts typed into the add forms
// and formatting totals the way a fr-FR locale displays them.
package core

import (
	"errors"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// GroupSeparator is the thousands separator of fr-FR number formatting
// (U+202F NARROW NO-BREAK SPACE).
const GroupSeparator = "\u202f"

var ErrInvalidAmount = errors.New("invalid amount")

// ParseAmount converts user input to a decimal amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and ignores
// spaces used as grouping. Negative values, and anything that is not a plain
// decimal number, return ErrInvalidAmount.
//
// Examples:
//
//	ParseAmount("12.34")    -> 12.34, nil
//	ParseAmount("1 234,5")  -> 1234.5, nil
//	ParseAmount("-3")       -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '\u202f' {
			return -1
		}
		return r
	}, s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAmount
	}
	for _, r := range s {
		if r != '.' && !unicode.IsDigit(r) {
			return decimal.Zero, ErrInvalidAmount
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ParseAmountNumber converts a JSON number literal, exponent form included,
// to a decimal amount. Negative numbers return ErrNegativeAmount.
func ParseAmountNumber(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if d.IsNegative() {
		return decimal.Zero, ErrNegativeAmount
	}
	return d, nil
}

// ParseAmountOrZero is the lenient form used at the input boundary: empty or
// unparsable input counts as zero.
func ParseAmountOrZero(s string) decimal.Decimal {
	d, err := ParseAmount(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// FormatAmount renders d with exactly two decimals, a comma decimal mark and
// narrow no-break spaces between thousands, e.g. "1 234,50".
func FormatAmount(d decimal.Decimal) string {
	fixed := d.StringFixed(2)
	neg := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	intPart, frac, _ := strings.Cut(fixed, ".")
	var b strings.Builder
	if neg && fixed != "0.00" {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteString(GroupSeparator)
		}
		b.WriteRune(r)
	}
	b.WriteByte(',')
	b.WriteString(frac)
	return b.String()
}
