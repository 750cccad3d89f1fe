package recurring

// CreatePlanRequest opens a subscription-style contract.
type CreatePlanRequest struct {
	PlanType     PlanType `json:"plan_type" validate:"required,plan_type"`
	MonthlyCents int64    `json:"monthly_cents" validate:"required,gt=0"`
}
