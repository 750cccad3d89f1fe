package referral_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/novafund/novafund-api/internal/domain/referral"
	"github.com/novafund/novafund-api/internal/pkg/money"
)

func TestTierFor(t *testing.T) {
	cases := []struct {
		count int
		want  string
	}{
		{0, "Starter"},
		{2, "Starter"},
		{3, "Bronze"},
		{9, "Bronze"},
		{10, "Silver"},
		{24, "Silver"},
		{25, "Gold"},
		{49, "Gold"},
		{50, "Platinum"},
		{500, "Platinum"},
	}
	for _, tc := range cases {
		if got := referral.TierFor(tc.count); got.Name != tc.want {
			t.Errorf("TierFor(%d) = %s, want %s", tc.count, got.Name, tc.want)
		}
	}
}

func TestNextTier(t *testing.T) {
	next := referral.NextTier(0)
	if next == nil || next.Name != "Bronze" {
		t.Fatalf("NextTier(0) = %v, want Bronze", next)
	}
	next = referral.NextTier(25)
	if next == nil || next.Name != "Platinum" {
		t.Fatalf("NextTier(25) = %v, want Platinum", next)
	}
	if referral.NextTier(50) != nil {
		t.Fatal("NextTier at the top should be nil")
	}
}

func TestCommissionAmounts(t *testing.T) {
	// Gold pays 10% on a $100 profit
	gold := referral.TierFor(25)
	if got := money.ApplyRate(10000, gold.CommissionPct); got != 1000 {
		t.Fatalf("gold commission on $100 = %d cents, want 1000", got)
	}

	// Starter pays 5%
	starter := referral.TierFor(0)
	if !starter.CommissionPct.Equal(decimal.NewFromFloat(0.05)) {
		t.Fatalf("starter pct = %s, want 0.05", starter.CommissionPct)
	}

	// sub-cent profits round to zero commission
	if got := money.ApplyRate(4, starter.CommissionPct); got != 0 {
		t.Fatalf("commission on 4 cents = %d, want 0", got)
	}
}
