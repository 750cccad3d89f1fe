package investment

import "github.com/google/uuid"

// CreateInvestmentRequest opens a position in a plan.
type CreateInvestmentRequest struct {
	PlanID      uuid.UUID `json:"plan_id" validate:"required"`
	AmountCents int64     `json:"amount_cents" validate:"required,gt=0"`
}
