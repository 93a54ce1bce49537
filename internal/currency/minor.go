package currency

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// exponents maps ISO 4217 codes to the number of minor-unit digits. The
// gateway takes every amount in minor units (100 = 1.00 EUR).
var exponents = map[string]int32{
	"EUR": 2,
	"USD": 2,
	"GBP": 2,
	"CHF": 2,
	"CAD": 2,
	"XPF": 0, // CFP franc
	"XOF": 0, // West African CFA franc
	"JPY": 0,
	"KWD": 3,
	"TND": 3,
}

// Exponent returns the number of minor-unit digits of currency.
func Exponent(currency string) (int32, error) {
	exp, ok := exponents[strings.ToUpper(currency)]
	if !ok {
		return 0, fmt.Errorf("unsupported currency: %s", currency)
	}
	return exp, nil
}

// ToMinor converts a major-unit amount such as "15.90" to minor units.
// Amounts with more precision than the currency allows are rejected rather
// than rounded.
func ToMinor(amount decimal.Decimal, currency string) (int64, error) {
	exp, err := Exponent(currency)
	if err != nil {
		return 0, err
	}
	minor := amount.Shift(exp)
	if !minor.Equal(minor.Truncate(0)) {
		return 0, fmt.Errorf("amount %s has more than %d decimals for %s", amount, exp, currency)
	}
	if minor.IsNegative() {
		return 0, fmt.Errorf("negative amount: %s", amount)
	}
	return minor.IntPart(), nil
}

// ParseMinor parses a major-unit string and converts it to minor units.
func ParseMinor(amount, currency string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	return ToMinor(d, currency)
}

// FromMinor converts minor units back to a major-unit decimal.
func FromMinor(minor int64, currency string) (decimal.Decimal, error) {
	exp, err := Exponent(currency)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.New(minor, -exp), nil
}
