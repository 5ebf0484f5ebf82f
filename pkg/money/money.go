// Package money converts between integer cents and decimal amounts.
// Amounts are stored and computed as int64 cents; decimal is used only at
// the edges (config, JSON, NUMERIC columns).
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// ToCents rounds half away from zero to the nearest cent.
func ToCents(d decimal.Decimal) int64 {
	return d.Mul(hundred).Round(0).IntPart()
}

func Parse(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return ToCents(d), nil
}

// Format renders cents with two fraction digits, e.g. 1234 -> "12.34".
func Format(cents int64) string {
	return FromCents(cents).StringFixed(2)
}

// Amount marshals cents as a JSON decimal number.
type Amount int64

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(Format(int64(a))), nil
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return err
	}
	*a = Amount(ToCents(d))
	return nil
}
