// Package core provides money parsing and handling utilities.
//
// Amounts are decimal.Decimal values. Two parsing entry points exist: a
// strict one for user input and a lenient one for data coming back from
// storage or a backup, where corrupted values are read as zero instead of
// poisoning every balance computed from them.
package core

import (
	"math"
	"strconv"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// ParseAmount parses a user-entered positive amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Signs,
// zero and anything that is not a plain decimal number are rejected.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := ParseSignedAmount(s)
	if err != nil {
		return decimal.Zero, err
	}
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ParseSignedAmount parses a user-entered amount that may carry a sign,
// as balance corrections do. Zero is allowed.
func ParseSignedAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.Count(s, ".") > 1 {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// SafeDecimal is the storage-read coercion: empty, malformed, NaN and
// infinite values all become zero.
func SafeDecimal(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	if d, err := decimal.NewFromString(s); err == nil {
		return d
	}
	// Spreadsheets sometimes hand back 1,234.5 or 12,5.
	if d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "")); err == nil && strings.Contains(s, ".") {
		return d
	}
	if d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ".")); err == nil {
		return d
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return decimal.Zero
	}
	return SafeFloat(f)
}

// SafeFloat converts a float, mapping NaN and ±Inf to zero.
func SafeFloat(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

// OptionalDecimal is SafeDecimal for optional columns: empty input yields nil.
func OptionalDecimal(s string) *decimal.Decimal {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	d := SafeDecimal(s)
	return &d
}

// FormatMoney renders an amount with the currency's symbol and fraction
// digits, e.g. "NT$1,000.00" or "-$3.50". Unknown codes fall back to the
// plain decimal followed by the code.
func FormatMoney(amount decimal.Decimal, code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	cur := money.GetCurrency(code)
	if cur == nil {
		if code == "" {
			return amount.StringFixed(2)
		}
		return amount.StringFixed(2) + " " + code
	}
	minor := amount.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(minor, code).Display()
}
