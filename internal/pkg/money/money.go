package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// All ledger amounts are int64 USD cents. Rates (daily return, growth,
// commission percentages) are decimals; this package keeps the rounding
// rule in one place so every engine credits the same cent.

var hundred = decimal.NewFromInt(100)

// Cents converts a decimal dollar amount to cents, rounding half-up.
func Cents(d decimal.Decimal) int64 {
	return d.Mul(hundred).Round(0).IntPart()
}

// FromCents converts cents to a decimal dollar amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.NewFromInt(cents).Div(hundred)
}

// ApplyRate returns amount * rate in cents, rounding half-up.
// rate is a fraction (0.025 for 2.5%).
func ApplyRate(amountCents int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(amountCents).Mul(rate).Round(0).IntPart()
}

// Clamp bounds v to [min, max].
func Clamp(v, min, max decimal.Decimal) decimal.Decimal {
	if v.LessThan(min) {
		return min
	}
	if v.GreaterThan(max) {
		return max
	}
	return v
}

// Format renders cents as a dollar string for notes and logs.
func Format(cents int64) string {
	return fmt.Sprintf("$%s", FromCents(cents).StringFixed(2))
}
