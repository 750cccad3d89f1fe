package withdrawal_test

import (
	"testing"

	"github.com/novafund/novafund-api/internal/domain/withdrawal"
)

func TestFeeSchedule(t *testing.T) {
	cases := []struct {
		method      string
		amount      int64
		wantFee     int64
		requiresKyc bool
	}{
		{"bank_transfer", 100000, 2500, true}, // flat $25
		{"crypto", 100000, 1500, true},        // 1.5%
		{"paypal", 100000, 2100, false},       // $1 + 2%
		{"card", 100000, 2500, false},         // 2.5%
		{"crypto", 10001, 150, true},          // 150.015 rounds to 150
	}
	for _, tc := range cases {
		rule, ok := withdrawal.RuleFor(tc.method)
		if !ok {
			t.Fatalf("method %s missing from schedule", tc.method)
		}
		if got := rule.Fee(tc.amount); got != tc.wantFee {
			t.Errorf("%s fee on %d = %d, want %d", tc.method, tc.amount, got, tc.wantFee)
		}
		if rule.RequiresKyc != tc.requiresKyc {
			t.Errorf("%s RequiresKyc = %v, want %v", tc.method, rule.RequiresKyc, tc.requiresKyc)
		}
	}

	if _, ok := withdrawal.RuleFor("cash"); ok {
		t.Error("unknown method should not be in the schedule")
	}
}

func TestQuoteFee(t *testing.T) {
	svc := withdrawal.NewService(nil, nil, nil, nil)

	fee, net, err := svc.QuoteFee("paypal", 50000)
	if err != nil {
		t.Fatalf("quote failed: %v", err)
	}
	if fee != 1100 { // $1 + 2% of $500
		t.Fatalf("fee = %d, want 1100", fee)
	}
	if net != 48900 {
		t.Fatalf("net = %d, want 48900", net)
	}

	if _, _, err := svc.QuoteFee("cash", 50000); err != withdrawal.ErrInvalidMethod {
		t.Fatalf("expected ErrInvalidMethod, got %v", err)
	}
	// fee would swallow the whole amount
	if _, _, err := svc.QuoteFee("bank_transfer", 2500); err != withdrawal.ErrInvalidAmount {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, _, err := svc.QuoteFee("card", 0); err != withdrawal.ErrInvalidAmount {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}
