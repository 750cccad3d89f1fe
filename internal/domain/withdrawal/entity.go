package withdrawal

import (
	"time"

	"github.com/google/uuid"
)

// Status is the withdrawal workflow state.
// pending -> processing -> approved | rejected, or pending -> rejected.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusApproved   Status = "approved"
	StatusRejected   Status = "rejected"
)

// Terminal reports whether the workflow may no longer move.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Withdrawal is a payout request. The requested amount is reserved
// (available -> pending) the moment the request is created, so concurrent
// requests can never jointly overdraw: the reservation itself is the
// balance check. Fee and net amount are frozen at creation.
type Withdrawal struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	UserID          uuid.UUID  `db:"user_id" json:"user_id"`
	AmountCents     int64      `db:"amount_cents" json:"amount_cents"`
	FeeCents        int64      `db:"fee_cents" json:"fee_cents"`
	NetAmountCents  int64      `db:"net_amount_cents" json:"net_amount_cents"`
	PaymentMethod   string     `db:"payment_method" json:"payment_method"`
	Destination     string     `db:"destination" json:"destination"`
	Status          Status     `db:"status" json:"status"`
	RejectionReason *string    `db:"rejection_reason" json:"rejection_reason,omitempty"`
	ProcessedBy     *uuid.UUID `db:"processed_by" json:"processed_by,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	ProcessedAt     *time.Time `db:"processed_at" json:"processed_at,omitempty"`
}
