package withdrawal

import (
	"github.com/shopspring/decimal"

	"github.com/novafund/novafund-api/internal/pkg/money"
)

// FeeRule is the fee schedule for one payout method: a flat component plus
// a percentage of the requested amount, and whether the destination needs
// a KYC-verified identity.
type FeeRule struct {
	Method      string
	FlatCents   int64
	Pct         decimal.Decimal // fraction of amount, e.g. 0.015 for 1.5%
	RequiresKyc bool
}

// feeSchedule is static configuration. Changing it only affects new
// requests: the fee is frozen into the withdrawal at creation.
var feeSchedule = map[string]FeeRule{
	"bank_transfer": {Method: "bank_transfer", FlatCents: 2500, Pct: decimal.Zero, RequiresKyc: true},
	"crypto":        {Method: "crypto", FlatCents: 0, Pct: decimal.NewFromFloat(0.015), RequiresKyc: true},
	"paypal":        {Method: "paypal", FlatCents: 100, Pct: decimal.NewFromFloat(0.02), RequiresKyc: false},
	"card":          {Method: "card", FlatCents: 0, Pct: decimal.NewFromFloat(0.025), RequiresKyc: false},
}

// RuleFor returns the fee rule for a payout method.
func RuleFor(method string) (FeeRule, bool) {
	rule, ok := feeSchedule[method]
	return rule, ok
}

// Fee computes the fee in cents for an amount under this rule.
func (r FeeRule) Fee(amountCents int64) int64 {
	return r.FlatCents + money.ApplyRate(amountCents, r.Pct)
}
