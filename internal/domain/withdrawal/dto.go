package withdrawal

// CreateWithdrawalRequest is the user-facing payout request payload.
type CreateWithdrawalRequest struct {
	AmountCents   int64  `json:"amount_cents" validate:"required,gt=0"`
	PaymentMethod string `json:"payment_method" validate:"required,payment_method"`
	Destination   string `json:"destination" validate:"required,min=3,max=255"`
}

// QuoteRequest asks for the fee on a hypothetical withdrawal.
type QuoteRequest struct {
	AmountCents   int64  `json:"amount_cents" validate:"required,gt=0"`
	PaymentMethod string `json:"payment_method" validate:"required,payment_method"`
}

// QuoteResponse is the fee breakdown for a hypothetical withdrawal.
type QuoteResponse struct {
	AmountCents int64 `json:"amount_cents"`
	FeeCents    int64 `json:"fee_cents"`
	NetCents    int64 `json:"net_cents"`
}

// RejectWithdrawalRequest carries the mandatory rejection reason.
type RejectWithdrawalRequest struct {
	Reason string `json:"reason" validate:"required,min=3"`
}
