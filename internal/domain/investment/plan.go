package investment

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PlanKind distinguishes how a plan's daily rate is derived.
type PlanKind string

const (
	// PlanFixed pays the configured daily rate every day.
	PlanFixed PlanKind = "fixed"
	// PlanMarketLinked derives the daily rate from a tracked asset's daily
	// change, clamped to the configured band.
	PlanMarketLinked PlanKind = "market_linked"
)

// Plan is read-only product configuration, seeded in the database. The
// market-linked columns are null for fixed plans.
type Plan struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	Name           string          `db:"name" json:"name"`
	Kind           PlanKind        `db:"kind" json:"kind"`
	MinAmountCents int64           `db:"min_amount_cents" json:"min_amount_cents"`
	MaxAmountCents int64           `db:"max_amount_cents" json:"max_amount_cents"`
	DailyRate      decimal.Decimal `db:"daily_rate" json:"daily_rate"`
	DurationDays   int             `db:"duration_days" json:"duration_days"`

	AssetID       *string             `db:"asset_id" json:"asset_id,omitempty"`
	BaseDailyRate decimal.NullDecimal `db:"base_daily_rate" json:"base_daily_rate,omitempty"`
	Alpha         decimal.NullDecimal `db:"alpha" json:"alpha,omitempty"`
	MinDailyRate  decimal.NullDecimal `db:"min_daily_rate" json:"min_daily_rate,omitempty"`
	MaxDailyRate  decimal.NullDecimal `db:"max_daily_rate" json:"max_daily_rate,omitempty"`

	IsActive bool `db:"is_active" json:"is_active"`
}

// CountryLimit overrides a plan's amount bounds for one country. A row
// with Allowed false blocks the plan in that country outright.
type CountryLimit struct {
	PlanID         uuid.UUID `db:"plan_id"`
	Country        string    `db:"country"`
	MinAmountCents int64     `db:"min_amount_cents"`
	MaxAmountCents int64     `db:"max_amount_cents"`
	Allowed        bool      `db:"allowed"`
}

// Bounds returns the plan's amount limits, with the country override
// applied when present.
func (p *Plan) Bounds(override *CountryLimit) (minCents, maxCents int64) {
	if override != nil {
		return override.MinAmountCents, override.MaxAmountCents
	}
	return p.MinAmountCents, p.MaxAmountCents
}
