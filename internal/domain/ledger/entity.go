package ledger

import (
	"time"

	"github.com/google/uuid"
)

// Kind classifies a balance-affecting event.
type Kind string

const (
	KindDeposit                   Kind = "deposit"
	KindWithdrawal                Kind = "withdrawal"
	KindWithdrawalFee             Kind = "withdrawal_fee"
	KindWithdrawalHold            Kind = "withdrawal_hold"
	KindWithdrawalHoldRelease     Kind = "withdrawal_hold_release"
	KindInvestmentLock            Kind = "investment_lock"
	KindInvestmentProfit          Kind = "investment_profit"
	KindInvestmentPrincipalReturn Kind = "investment_principal_return"
	KindRecurringContribution     Kind = "recurring_contribution"
	KindRecurringGrowth           Kind = "recurring_growth"
	KindRecurringMaturity         Kind = "recurring_maturity"
	KindReferralCommission        Kind = "referral_commission"
	KindManualAdjustment          Kind = "manual_adjustment"
)

// Bucket partitions a user's funds.
type Bucket string

const (
	BucketAvailable Bucket = "available"
	BucketPending   Bucket = "pending"
	BucketLocked    Bucket = "locked"
)

// Entry is an immutable ledger fact. Entries are append-only; corrections
// are new offsetting entries, never edits.
type Entry struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	UserID          uuid.UUID  `db:"user_id" json:"user_id"`
	Kind            Kind       `db:"kind" json:"kind"`
	Bucket          Bucket     `db:"bucket" json:"bucket"`
	AmountCents     int64      `db:"amount_cents" json:"amount_cents"`
	RelatedEntityID *uuid.UUID `db:"related_entity_id" json:"related_entity_id,omitempty"`
	IdempotencyKey  *string    `db:"idempotency_key" json:"-"`
	Note            string     `db:"note" json:"note,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
}

// Wallet is the derived view over a user's entries. Never stored as truth;
// the wallet_balances running sums must always equal a fold from scratch.
type Wallet struct {
	MainBalance      int64 `db:"available_cents" json:"main_balance"`
	PendingBalance   int64 `db:"pending_cents" json:"pending_balance"`
	LockedBalance    int64 `db:"locked_cents" json:"locked_balance"`
	TotalEarnings    int64 `db:"total_earnings_cents" json:"total_earnings"`
	TotalDeposits    int64 `db:"total_deposits_cents" json:"total_deposits"`
	TotalWithdrawals int64 `db:"total_withdrawals_cents" json:"total_withdrawals"`
	ReferralEarnings int64 `db:"referral_earnings_cents" json:"referral_earnings"`
}

type direction int

const (
	creditOnly direction = iota + 1
	debitOnly
	anyDirection
)

// kindRules maps each kind to the buckets it may touch and the sign it may
// carry in each. A kind absent from a bucket's map may not post there.
var kindRules = map[Kind]map[Bucket]direction{
	KindDeposit:                   {BucketAvailable: creditOnly},
	KindWithdrawal:                {BucketPending: debitOnly},
	KindWithdrawalFee:             {BucketPending: debitOnly},
	KindWithdrawalHold:            {BucketAvailable: debitOnly, BucketPending: creditOnly},
	KindWithdrawalHoldRelease:     {BucketPending: debitOnly, BucketAvailable: creditOnly},
	KindInvestmentLock:            {BucketAvailable: debitOnly, BucketLocked: creditOnly},
	KindInvestmentProfit:          {BucketAvailable: creditOnly},
	KindInvestmentPrincipalReturn: {BucketLocked: debitOnly, BucketAvailable: creditOnly},
	KindRecurringContribution:     {BucketLocked: creditOnly},
	KindRecurringGrowth:           {BucketLocked: creditOnly},
	KindRecurringMaturity:         {BucketLocked: debitOnly, BucketAvailable: creditOnly},
	KindReferralCommission:        {BucketAvailable: creditOnly},
	KindManualAdjustment:          {BucketAvailable: anyDirection, BucketPending: anyDirection, BucketLocked: anyDirection},
}

// Validate rejects zero amounts and kind/bucket/sign combinations that the
// ledger model does not allow (e.g. a referral commission posted to locked).
func (e *Entry) Validate() error {
	if e.AmountCents == 0 {
		return ErrInvalidEntry
	}
	if e.UserID == uuid.Nil {
		return ErrInvalidEntry
	}
	buckets, ok := kindRules[e.Kind]
	if !ok {
		return ErrInvalidEntry
	}
	dir, ok := buckets[e.Bucket]
	if !ok {
		return ErrInvalidEntry
	}
	switch dir {
	case creditOnly:
		if e.AmountCents < 0 {
			return ErrInvalidEntry
		}
	case debitOnly:
		if e.AmountCents > 0 {
			return ErrInvalidEntry
		}
	}
	return nil
}

// Apply folds one entry into a wallet. This is the single source of the
// fold rule: the running sums and Recompute both go through it.
func (w *Wallet) Apply(e *Entry) {
	switch e.Bucket {
	case BucketAvailable:
		w.MainBalance += e.AmountCents
	case BucketPending:
		w.PendingBalance += e.AmountCents
	case BucketLocked:
		w.LockedBalance += e.AmountCents
	}

	switch e.Kind {
	case KindDeposit:
		w.TotalDeposits += e.AmountCents
	case KindWithdrawal, KindWithdrawalFee:
		w.TotalWithdrawals += -e.AmountCents
	case KindInvestmentProfit, KindRecurringGrowth:
		w.TotalEarnings += e.AmountCents
	case KindReferralCommission:
		w.TotalEarnings += e.AmountCents
		w.ReferralEarnings += e.AmountCents
	}
}

// Negative reports whether any bucket went below zero. Withdrawals and
// investment locks are rejected rather than allowed to overdraw.
func (w *Wallet) Negative() bool {
	return w.MainBalance < 0 || w.PendingBalance < 0 || w.LockedBalance < 0
}
