// Package money converts between provider decimal strings and the signed
// integer minor units (cents) used everywhere inside the ledger.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ParseCents converts a decimal amount string (e.g. "-123.45") into signed
// integer cents without going through a float. The sign convention is
// negative = outflow, positive = inflow.
func ParseCents(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("failed to parse amount '%s': %w", s, err)
	}
	return d.Mul(hundred).Round(0).IntPart(), nil
}

// ParseCentsFloat converts an already-decoded float amount into cents.
// Used for provider fields that arrive as JSON numbers rather than strings.
func ParseCentsFloat(f float64) int64 {
	return decimal.NewFromFloat(f).Mul(hundred).Round(0).IntPart()
}

// ToMajor converts cents into a major-unit float for API responses.
// Must only be called at the HTTP boundary; internal arithmetic stays
// on integer cents.
func ToMajor(cents int64) float64 {
	f, _ := decimal.NewFromInt(cents).Div(hundred).Float64()
	return f
}
