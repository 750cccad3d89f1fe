package ledger_test

import (
	"testing"

	"github.com/google/uuid"

	"github.com/novafund/novafund-api/internal/domain/ledger"
)

func TestEntryValidate(t *testing.T) {
	userID := uuid.New()

	cases := []struct {
		name    string
		entry   ledger.Entry
		wantErr bool
	}{
		{"deposit credits available", ledger.Entry{UserID: userID, Kind: ledger.KindDeposit, Bucket: ledger.BucketAvailable, AmountCents: 1000}, false},
		{"deposit may not debit", ledger.Entry{UserID: userID, Kind: ledger.KindDeposit, Bucket: ledger.BucketAvailable, AmountCents: -1000}, true},
		{"deposit may not touch locked", ledger.Entry{UserID: userID, Kind: ledger.KindDeposit, Bucket: ledger.BucketLocked, AmountCents: 1000}, true},
		{"zero amount rejected", ledger.Entry{UserID: userID, Kind: ledger.KindDeposit, Bucket: ledger.BucketAvailable, AmountCents: 0}, true},
		{"missing user rejected", ledger.Entry{Kind: ledger.KindDeposit, Bucket: ledger.BucketAvailable, AmountCents: 1000}, true},
		{"withdrawal debits pending", ledger.Entry{UserID: userID, Kind: ledger.KindWithdrawal, Bucket: ledger.BucketPending, AmountCents: -500}, false},
		{"withdrawal may not touch available", ledger.Entry{UserID: userID, Kind: ledger.KindWithdrawal, Bucket: ledger.BucketAvailable, AmountCents: -500}, true},
		{"commission only credits available", ledger.Entry{UserID: userID, Kind: ledger.KindReferralCommission, Bucket: ledger.BucketLocked, AmountCents: 100}, true},
		{"hold debits available", ledger.Entry{UserID: userID, Kind: ledger.KindWithdrawalHold, Bucket: ledger.BucketAvailable, AmountCents: -500}, false},
		{"hold credits pending", ledger.Entry{UserID: userID, Kind: ledger.KindWithdrawalHold, Bucket: ledger.BucketPending, AmountCents: 500}, false},
		{"hold wrong sign in pending", ledger.Entry{UserID: userID, Kind: ledger.KindWithdrawalHold, Bucket: ledger.BucketPending, AmountCents: -500}, true},
		{"adjustment may debit anywhere", ledger.Entry{UserID: userID, Kind: ledger.KindManualAdjustment, Bucket: ledger.BucketLocked, AmountCents: -500}, false},
		{"unknown kind rejected", ledger.Entry{UserID: userID, Kind: ledger.Kind("bonus"), Bucket: ledger.BucketAvailable, AmountCents: 100}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.entry.Validate()
			if tc.wantErr && err == nil {
				t.Fatal("expected error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestWalletFold(t *testing.T) {
	userID := uuid.New()
	var w ledger.Wallet

	apply := func(kind ledger.Kind, bucket ledger.Bucket, amount int64) {
		e := &ledger.Entry{UserID: userID, Kind: kind, Bucket: bucket, AmountCents: amount}
		if err := e.Validate(); err != nil {
			t.Fatalf("entry %s/%s/%d invalid: %v", kind, bucket, amount, err)
		}
		w.Apply(e)
	}

	// deposit $1000, invest $400, earn $8 profit, withdraw $100 with $2 fee
	apply(ledger.KindDeposit, ledger.BucketAvailable, 100000)
	apply(ledger.KindInvestmentLock, ledger.BucketAvailable, -40000)
	apply(ledger.KindInvestmentLock, ledger.BucketLocked, 40000)
	apply(ledger.KindInvestmentProfit, ledger.BucketAvailable, 800)
	apply(ledger.KindWithdrawalHold, ledger.BucketAvailable, -10000)
	apply(ledger.KindWithdrawalHold, ledger.BucketPending, 10000)
	apply(ledger.KindWithdrawal, ledger.BucketPending, -9800)
	apply(ledger.KindWithdrawalFee, ledger.BucketPending, -200)
	apply(ledger.KindReferralCommission, ledger.BucketAvailable, 80)

	if w.MainBalance != 100000-40000+800-10000+80 {
		t.Fatalf("main balance = %d", w.MainBalance)
	}
	if w.PendingBalance != 0 {
		t.Fatalf("pending balance = %d, want 0", w.PendingBalance)
	}
	if w.LockedBalance != 40000 {
		t.Fatalf("locked balance = %d, want 40000", w.LockedBalance)
	}
	if w.TotalDeposits != 100000 {
		t.Fatalf("total deposits = %d", w.TotalDeposits)
	}
	if w.TotalWithdrawals != 10000 {
		t.Fatalf("total withdrawals = %d, want 10000", w.TotalWithdrawals)
	}
	if w.TotalEarnings != 880 {
		t.Fatalf("total earnings = %d, want 880", w.TotalEarnings)
	}
	if w.ReferralEarnings != 80 {
		t.Fatalf("referral earnings = %d, want 80", w.ReferralEarnings)
	}
	if w.Negative() {
		t.Fatal("wallet should not be negative")
	}

	apply(ledger.KindManualAdjustment, ledger.BucketAvailable, -(w.MainBalance + 1))
	if !w.Negative() {
		t.Fatal("overdrawn wallet should report negative")
	}
}
