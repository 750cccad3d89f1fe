package referral

import "github.com/shopspring/decimal"

// Tier sets the commission rate earned on referred users' profits. The
// highest tier whose threshold is met wins.
type Tier struct {
	Name          string          `json:"name"`
	MinReferrals  int             `json:"min_referrals"`
	CommissionPct decimal.Decimal `json:"commission_pct"`
}

// tiers is static configuration, ordered by threshold ascending.
var tiers = []Tier{
	{Name: "Starter", MinReferrals: 0, CommissionPct: decimal.NewFromFloat(0.05)},
	{Name: "Bronze", MinReferrals: 3, CommissionPct: decimal.NewFromFloat(0.07)},
	{Name: "Silver", MinReferrals: 10, CommissionPct: decimal.NewFromFloat(0.085)},
	{Name: "Gold", MinReferrals: 25, CommissionPct: decimal.NewFromFloat(0.10)},
	{Name: "Platinum", MinReferrals: 50, CommissionPct: decimal.NewFromFloat(0.125)},
}

// TierFor returns the tier a referral count qualifies for.
func TierFor(referralCount int) Tier {
	current := tiers[0]
	for _, t := range tiers {
		if referralCount >= t.MinReferrals {
			current = t
		}
	}
	return current
}

// NextTier returns the tier above the current count, or nil at the top.
func NextTier(referralCount int) *Tier {
	for i := range tiers {
		if referralCount < tiers[i].MinReferrals {
			return &tiers[i]
		}
	}
	return nil
}

// Stats is the user-facing referral summary.
type Stats struct {
	TotalReferrals        int    `json:"total_referrals"`
	ActiveReferrals       int    `json:"active_referrals"`
	CurrentTier           Tier   `json:"current_tier"`
	NextTier              *Tier  `json:"next_tier,omitempty"`
	ReferralEarningsCents int64  `json:"referral_earnings_cents"`
	ReferralCode          string `json:"referral_code"`
}
