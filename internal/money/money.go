// Package money represents amounts as integer minor units of a single
// currency. All ledger arithmetic happens on Minor values; decimals appear
// only at API boundaries and inside tax computation.
package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// Minor is an amount in the currency's minor unit (e.g. paise, cents).
type Minor int64

// ErrFractionalMinorUnit indicates an amount with more precision than the
// currency supports.
var ErrFractionalMinorUnit = errors.New("money: amount has fractional minor units")

// Digits returns the number of minor-unit digits for the currency.
func Digits(cur currency.Unit) int {
	scale, _ := currency.Standard.Rounding(cur)
	return scale
}

// ParseMajor converts a major-unit decimal string ("1234.50") into minor
// units for the given currency.
func ParseMajor(s string, cur currency.Unit) (Minor, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("money: parse amount %q: %w", s, err)
	}
	shifted := d.Shift(int32(Digits(cur)))
	if !shifted.IsInteger() {
		return 0, ErrFractionalMinorUnit
	}
	return Minor(shifted.IntPart()), nil
}

// FormatMajor renders minor units as a major-unit decimal string.
func FormatMajor(m Minor, cur currency.Unit) string {
	return decimal.NewFromInt(int64(m)).Shift(-int32(Digits(cur))).StringFixed(int32(Digits(cur)))
}

// RoundHalfUp rounds a decimal amount of minor units to a whole Minor using
// round-half-up.
func RoundHalfUp(d decimal.Decimal) Minor {
	return Minor(d.Round(0).IntPart())
}

// Decimal converts a Minor amount into a decimal for rate arithmetic.
func Decimal(m Minor) decimal.Decimal {
	return decimal.NewFromInt(int64(m))
}
