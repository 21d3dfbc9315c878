// Package money centralises fixed-point currency arithmetic. All monetary
// quantities are shopspring decimals quantised to two places with half-up
// rounding, the conventional currency default.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Round2 quantises to two decimal places, rounding half-up.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Zero is the canonical zero amount.
func Zero() decimal.Decimal {
	return decimal.Zero
}

// Parse converts a caller-supplied string into a decimal amount.
func Parse(s string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return decimal.Zero, fmt.Errorf("money: empty amount")
	}
	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, fmt.Errorf("money: parse %q: %w", trimmed, err)
	}
	return d, nil
}

// MustParse is Parse for literals in tests and seed data.
func MustParse(s string) decimal.Decimal {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Equal reports whether two amounts are numerically equal regardless of
// exponent representation.
func Equal(a, b decimal.Decimal) bool {
	return a.Cmp(b) == 0
}
