package deposit

import (
	"time"

	"github.com/google/uuid"
)

// Status is the deposit workflow state. pending and under_review may still
// move; approved and rejected are terminal.
type Status string

const (
	StatusPending     Status = "pending"
	StatusUnderReview Status = "under_review"
	StatusApproved    Status = "approved"
	StatusRejected    Status = "rejected"
)

// Terminal reports whether the workflow may no longer move.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Deposit is a funding request. Money only enters the ledger when an admin
// approves; until then the request carries no balance effect.
type Deposit struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	UserID          uuid.UUID  `db:"user_id" json:"user_id"`
	AmountCents     int64      `db:"amount_cents" json:"amount_cents"`
	PaymentMethod   string     `db:"payment_method" json:"payment_method"`
	Status          Status     `db:"status" json:"status"`
	ProofKey        *string    `db:"proof_key" json:"-"`
	ProofURL        string     `db:"-" json:"proof_url,omitempty"`
	ReviewedBy      *uuid.UUID `db:"reviewed_by" json:"reviewed_by,omitempty"`
	RejectionReason *string    `db:"rejection_reason" json:"rejection_reason,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	ReviewedAt      *time.Time `db:"reviewed_at" json:"reviewed_at,omitempty"`
}
