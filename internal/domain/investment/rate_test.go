package investment

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type stubFeed struct {
	change decimal.Decimal
	err    error
}

func (f *stubFeed) DailyChange(ctx context.Context, assetID string) (decimal.Decimal, error) {
	return f.change, f.err
}

func marketPlan() *Plan {
	asset := "SPX"
	return &Plan{
		ID:            uuid.New(),
		Kind:          PlanMarketLinked,
		AssetID:       &asset,
		BaseDailyRate: decimal.NewNullDecimal(decimal.NewFromFloat(0.005)),
		Alpha:         decimal.NewNullDecimal(decimal.NewFromFloat(0.5)),
		MinDailyRate:  decimal.NewNullDecimal(decimal.NewFromFloat(0.001)),
		MaxDailyRate:  decimal.NewNullDecimal(decimal.NewFromFloat(0.012)),
	}
}

func TestDailyRateMarketLinked(t *testing.T) {
	ctx := context.Background()

	// base + alpha*change inside the band
	s := &Service{feed: &stubFeed{change: decimal.NewFromFloat(0.004)}}
	if got := s.dailyRateFor(ctx, marketPlan()); !got.Equal(decimal.NewFromFloat(0.007)) {
		t.Fatalf("blended rate = %s, want 0.007", got)
	}

	// a rally clamps to the cap
	s = &Service{feed: &stubFeed{change: decimal.NewFromFloat(0.10)}}
	if got := s.dailyRateFor(ctx, marketPlan()); !got.Equal(decimal.NewFromFloat(0.012)) {
		t.Fatalf("rate above cap = %s, want 0.012", got)
	}

	// a crash clamps to the floor
	s = &Service{feed: &stubFeed{change: decimal.NewFromFloat(-0.20)}}
	if got := s.dailyRateFor(ctx, marketPlan()); !got.Equal(decimal.NewFromFloat(0.001)) {
		t.Fatalf("rate below floor = %s, want 0.001", got)
	}

	// feed failure degrades to the base rate
	s = &Service{feed: &stubFeed{err: errors.New("feed down")}}
	if got := s.dailyRateFor(ctx, marketPlan()); !got.Equal(decimal.NewFromFloat(0.005)) {
		t.Fatalf("fallback rate = %s, want base 0.005", got)
	}

	// no feed configured at all
	s = &Service{}
	if got := s.dailyRateFor(ctx, marketPlan()); !got.Equal(decimal.NewFromFloat(0.005)) {
		t.Fatalf("nil feed rate = %s, want base 0.005", got)
	}
}

func TestDailyRateFixed(t *testing.T) {
	s := &Service{feed: &stubFeed{change: decimal.NewFromFloat(0.5)}}
	plan := &Plan{Kind: PlanFixed, DailyRate: decimal.NewFromFloat(0.02)}
	if got := s.dailyRateFor(context.Background(), plan); !got.Equal(decimal.NewFromFloat(0.02)) {
		t.Fatalf("fixed rate = %s, want 0.02", got)
	}
}
