package investment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the investment lifecycle state.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Investment is a fixed-term position. The principal sits in the locked
// bucket from creation until completion or cancellation; daily profit is
// credited to the available bucket as it accrues.
type Investment struct {
	ID               uuid.UUID       `db:"id" json:"id"`
	UserID           uuid.UUID       `db:"user_id" json:"user_id"`
	PlanID           uuid.UUID       `db:"plan_id" json:"plan_id"`
	AmountCents      int64           `db:"amount_cents" json:"amount_cents"`
	DailyRate        decimal.Decimal `db:"daily_rate" json:"daily_rate"`
	DurationDays     int             `db:"duration_days" json:"duration_days"`
	StartDate        time.Time       `db:"start_date" json:"start_date"`
	EndDate          time.Time       `db:"end_date" json:"end_date"`
	DaysAccrued      int             `db:"days_accrued" json:"days_accrued"`
	TotalReturnCents int64           `db:"total_return_cents" json:"total_return_cents"`
	LastAccrualDate  *time.Time      `db:"last_accrual_date" json:"last_accrual_date,omitempty"`
	Status           Status          `db:"status" json:"status"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
}

// Summary aggregates a user's positions.
type Summary struct {
	ActiveCount          int   `db:"active_count" json:"active_count"`
	CompletedCount       int   `db:"completed_count" json:"completed_count"`
	ActivePrincipalCents int64 `db:"active_principal_cents" json:"active_principal_cents"`
	TotalReturnCents     int64 `db:"total_return_cents" json:"total_return_cents"`
}
