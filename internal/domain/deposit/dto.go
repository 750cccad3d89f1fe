package deposit

// CreateDepositRequest is the user-facing funding request payload.
type CreateDepositRequest struct {
	AmountCents   int64  `json:"amount_cents" validate:"required,gt=0"`
	PaymentMethod string `json:"payment_method" validate:"required,payment_method"`
}

// RejectDepositRequest carries the mandatory rejection reason.
type RejectDepositRequest struct {
	Reason string `json:"reason" validate:"required,min=3"`
}
