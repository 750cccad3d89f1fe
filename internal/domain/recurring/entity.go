package recurring

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PlanType is the contract length.
type PlanType string

const (
	PlanSixMonth    PlanType = "6m"
	PlanTwelveMonth PlanType = "12m"
)

// planTerms is static product configuration per contract length.
type planTerms struct {
	MonthsRequired int
	GrowthRate     decimal.Decimal // monthly, applied after each installment
}

var terms = map[PlanType]planTerms{
	PlanSixMonth:    {MonthsRequired: 6, GrowthRate: decimal.NewFromFloat(0.015)},
	PlanTwelveMonth: {MonthsRequired: 12, GrowthRate: decimal.NewFromFloat(0.02)},
}

// TermsFor returns the contract terms for a plan type.
func TermsFor(t PlanType) (months int, growthRate decimal.Decimal, ok bool) {
	pt, ok := terms[t]
	return pt.MonthsRequired, pt.GrowthRate, ok
}

// Status is the contract state. missed is non-terminal: a missed plan is
// resumed by paying the overdue installment.
type Status string

const (
	StatusActive    Status = "active"
	StatusMissed    Status = "missed"
	StatusMatured   Status = "matured"
	StatusCancelled Status = "cancelled"
)

// Payable reports whether an installment may still be paid.
func (s Status) Payable() bool {
	return s == StatusActive || s == StatusMissed
}

// Plan is a subscription-style investment contract. Each installment is
// new money from the user's external payment, credited straight to the
// locked bucket; the portfolio compounds monthly and is released to the
// available balance at maturity.
type Plan struct {
	ID                    uuid.UUID       `db:"id" json:"id"`
	UserID                uuid.UUID       `db:"user_id" json:"user_id"`
	PlanType              PlanType        `db:"plan_type" json:"plan_type"`
	MonthlyCents          int64           `db:"monthly_cents" json:"monthly_cents"`
	MonthsRequired        int             `db:"months_required" json:"months_required"`
	MonthsCompleted       int             `db:"months_completed" json:"months_completed"`
	TotalContributedCents int64           `db:"total_contributed_cents" json:"total_contributed_cents"`
	PortfolioValueCents   int64           `db:"portfolio_value_cents" json:"portfolio_value_cents"`
	GrowthRate            decimal.Decimal `db:"growth_rate" json:"growth_rate"`
	Status                Status          `db:"status" json:"status"`
	NextPaymentDate       time.Time       `db:"next_payment_date" json:"next_payment_date"`
	MaturityDate          *time.Time      `db:"maturity_date" json:"maturity_date,omitempty"`
	CreatedAt             time.Time       `db:"created_at" json:"created_at"`
}
