package money_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/novafund/novafund-api/internal/pkg/money"
)

func TestApplyRateRounding(t *testing.T) {
	cases := []struct {
		name   string
		amount int64
		rate   string
		want   int64
	}{
		{"two percent of $1000", 100000, "0.02", 2000},
		{"rounds half up", 101, "0.005", 1},         // 0.505 -> 1
		{"rounds down below half", 100, "0.004", 0}, // 0.4 -> 0
		{"zero rate", 100000, "0", 0},
		{"gold commission on $20 profit", 2000, "0.10", 200},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rate, err := decimal.NewFromString(tc.rate)
			if err != nil {
				t.Fatalf("bad rate: %v", err)
			}
			if got := money.ApplyRate(tc.amount, rate); got != tc.want {
				t.Fatalf("ApplyRate(%d, %s) = %d, want %d", tc.amount, tc.rate, got, tc.want)
			}
		})
	}
}

func TestCentsRoundTrip(t *testing.T) {
	d := decimal.NewFromFloat(12.34)
	cents := money.Cents(d)
	if cents != 1234 {
		t.Fatalf("Cents(12.34) = %d, want 1234", cents)
	}
	if !money.FromCents(cents).Equal(d) {
		t.Fatalf("FromCents(%d) = %s, want %s", cents, money.FromCents(cents), d)
	}
}

func TestClamp(t *testing.T) {
	min := decimal.NewFromFloat(-0.002)
	max := decimal.NewFromFloat(0.015)

	if got := money.Clamp(decimal.NewFromFloat(0.5), min, max); !got.Equal(max) {
		t.Fatalf("clamp above max: got %s", got)
	}
	if got := money.Clamp(decimal.NewFromFloat(-0.5), min, max); !got.Equal(min) {
		t.Fatalf("clamp below min: got %s", got)
	}
	mid := decimal.NewFromFloat(0.01)
	if got := money.Clamp(mid, min, max); !got.Equal(mid) {
		t.Fatalf("clamp in band: got %s", got)
	}
}

func TestFormat(t *testing.T) {
	if got := money.Format(123456); got != "$1234.56" {
		t.Fatalf("Format(123456) = %q", got)
	}
	if got := money.Format(5); got != "$0.05" {
		t.Fatalf("Format(5) = %q", got)
	}
}
