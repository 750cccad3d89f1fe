package investment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/novafund/novafund-api/internal/domain/ledger"
	"github.com/novafund/novafund-api/internal/domain/user"
	"github.com/novafund/novafund-api/internal/pkg/money"
	"github.com/novafund/novafund-api/internal/pkg/notify"
)

const accrualPageSize = 200

// RateFeed supplies the tracked asset's daily change as a fraction
// (0.013 for +1.3%).
type RateFeed interface {
	DailyChange(ctx context.Context, assetID string) (decimal.Decimal, error)
}

// ProfitHook posts referral commissions in the same transaction as the
// profit they derive from, without this package knowing about referrals.
type ProfitHook interface {
	OnProfitTx(ctx context.Context, tx *sqlx.Tx, earnerID uuid.UUID, profitCents int64, sourceKey string) error
}

type Service struct {
	repo     *Repository
	ledger   *ledger.Service
	users    user.Repository
	feed     RateFeed   // optional; nil means market-linked plans use their base rate
	profits  ProfitHook // optional
	notifier notify.Dispatcher
}

func NewService(repo *Repository, ledgerSvc *ledger.Service, users user.Repository, feed RateFeed, profits ProfitHook, notifier notify.Dispatcher) *Service {
	return &Service{repo: repo, ledger: ledgerSvc, users: users, feed: feed, profits: profits, notifier: notifier}
}

// Create opens a position: the principal moves available -> locked in the
// same transaction that creates the row. The ledger's non-negativity check
// is the funds check.
func (s *Service) Create(ctx context.Context, userID, planID uuid.UUID, amountCents int64) (*Investment, error) {
	plan, err := s.repo.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	if !plan.IsActive {
		return nil, ErrPlanInactive
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	override, err := s.repo.CountryLimit(ctx, planID, u.Country)
	if err != nil {
		return nil, err
	}
	if override != nil && !override.Allowed {
		return nil, ErrCountryNotAllowed
	}
	minCents, maxCents := plan.Bounds(override)
	if amountCents < minCents || (maxCents > 0 && amountCents > maxCents) {
		return nil, ErrAmountOutOfRange
	}

	tx, err := s.ledger.DB().BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	start := today()
	inv := &Investment{
		UserID:       userID,
		PlanID:       planID,
		AmountCents:  amountCents,
		DailyRate:    plan.DailyRate,
		DurationDays: plan.DurationDays,
		StartDate:    start,
		EndDate:      start.AddDate(0, 0, plan.DurationDays),
		Status:       StatusActive,
	}
	if err := s.repo.CreateTx(ctx, tx, inv); err != nil {
		return nil, err
	}

	outKey := fmt.Sprintf("invlock:%s:out", inv.ID)
	inKey := fmt.Sprintf("invlock:%s:in", inv.ID)
	entries := []*ledger.Entry{
		{
			UserID:          userID,
			Kind:            ledger.KindInvestmentLock,
			Bucket:          ledger.BucketAvailable,
			AmountCents:     -amountCents,
			RelatedEntityID: &inv.ID,
			IdempotencyKey:  &outKey,
			Note:            fmt.Sprintf("principal locked (%s)", plan.Name),
		},
		{
			UserID:          userID,
			Kind:            ledger.KindInvestmentLock,
			Bucket:          ledger.BucketLocked,
			AmountCents:     amountCents,
			RelatedEntityID: &inv.ID,
			IdempotencyKey:  &inKey,
			Note:            fmt.Sprintf("principal locked (%s)", plan.Name),
		},
	}
	if _, err := s.ledger.AppendAllTx(ctx, tx, entries); err != nil {
		if errors.Is(err, ledger.ErrInsufficientBalance) {
			return nil, ErrInsufficientFunds
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	s.ledger.InvalidateWallet(ctx, userID)

	log.Info().
		Str("investment_id", inv.ID.String()).
		Str("user_id", userID.String()).
		Str("plan", plan.Name).
		Int64("amount_cents", amountCents).
		Msg("investment created")
	return inv, nil
}

// dailyRateFor resolves the rate to apply for one day. Market-linked plans
// blend the asset's daily change into the base rate and clamp the result;
// a feed failure degrades to the base rate, never to an error.
func (s *Service) dailyRateFor(ctx context.Context, plan *Plan) decimal.Decimal {
	if plan.Kind != PlanMarketLinked || plan.AssetID == nil {
		return plan.DailyRate
	}

	base := plan.BaseDailyRate.Decimal
	if s.feed == nil {
		return base
	}

	change, err := s.feed.DailyChange(ctx, *plan.AssetID)
	if err != nil {
		log.Warn().Err(err).
			Str("plan_id", plan.ID.String()).
			Str("asset_id", *plan.AssetID).
			Msg("market feed unavailable, using base rate")
		return base
	}

	rate := base.Add(plan.Alpha.Decimal.Mul(change))
	return money.Clamp(rate, plan.MinDailyRate.Decimal, plan.MaxDailyRate.Decimal)
}

// AccrueAll credits one day of profit to every active investment that has
// not yet accrued for the given date. Per-investment failures are logged
// and skipped; the idempotency keys make a rerun safe.
func (s *Service) AccrueAll(ctx context.Context, date time.Time) error {
	date = midnightUTC(date)

	// rate resolved once per plan per run, including the feed call
	rates := make(map[uuid.UUID]decimal.Decimal)

	var accrued, failed int
	cursor := uuid.Nil
	for {
		batch, err := s.repo.ListDueForAccrual(ctx, date, accrualPageSize, cursor)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			break
		}
		for i := range batch {
			inv := &batch[i]
			cursor = inv.ID

			rate, ok := rates[inv.PlanID]
			if !ok {
				plan, err := s.repo.GetPlan(ctx, inv.PlanID)
				if err != nil {
					log.Error().Err(err).
						Str("investment_id", inv.ID.String()).
						Str("plan_id", inv.PlanID.String()).
						Msg("accrual skipped, plan lookup failed")
					failed++
					continue
				}
				rate = s.dailyRateFor(ctx, plan)
				rates[inv.PlanID] = rate
			}

			if err := s.accrueOne(ctx, inv, rate, date); err != nil {
				log.Error().Err(err).
					Str("investment_id", inv.ID.String()).
					Msg("accrual failed")
				failed++
				continue
			}
			accrued++
		}
	}

	log.Info().
		Time("date", date).
		Int("accrued", accrued).
		Int("failed", failed).
		Msg("daily accrual finished")
	return nil
}

func (s *Service) accrueOne(ctx context.Context, inv *Investment, rate decimal.Decimal, date time.Time) error {
	profit := money.ApplyRate(inv.AmountCents, rate)
	if profit < 0 {
		// the locked principal never shrinks; a negative clamped rate
		// simply credits nothing for the day
		profit = 0
	}

	tx, err := s.ledger.DB().BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	defer tx.Rollback()

	updated, err := s.repo.ApplyAccrualTx(ctx, tx, inv.ID, date, profit)
	if errors.Is(err, ErrAlreadyAccrued) {
		return nil
	}
	if err != nil {
		return err
	}

	sourceKey := fmt.Sprintf("accrual:%s:%s", inv.ID, date.Format("2006-01-02"))
	if profit > 0 {
		entries := []*ledger.Entry{{
			UserID:          inv.UserID,
			Kind:            ledger.KindInvestmentProfit,
			Bucket:          ledger.BucketAvailable,
			AmountCents:     profit,
			RelatedEntityID: &inv.ID,
			IdempotencyKey:  &sourceKey,
			Note:            fmt.Sprintf("daily return, day %d of %d", updated.DaysAccrued, updated.DurationDays),
		}}
		if _, err := s.ledger.AppendAllTx(ctx, tx, entries); err != nil {
			return err
		}
	}

	if profit > 0 && s.profits != nil {
		if err := s.profits.OnProfitTx(ctx, tx, inv.UserID, profit, sourceKey); err != nil {
			return err
		}
	}

	// The status flip and the principal return commit in the same
	// transaction as the final accrual. A crash leaves either a completed
	// position or an unaccrued day that the next run retries.
	var terminated *Investment
	if updated.DaysAccrued >= updated.DurationDays {
		terminated, err = s.repo.TerminateTx(ctx, tx, updated.ID, StatusCompleted)
		if err != nil {
			return err
		}
		if err := s.returnPrincipalTx(ctx, tx, terminated); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	s.ledger.InvalidateWallet(ctx, inv.UserID)

	if terminated != nil {
		log.Info().
			Str("investment_id", terminated.ID.String()).
			Int64("principal_cents", terminated.AmountCents).
			Int64("total_return_cents", terminated.TotalReturnCents).
			Msg("investment completed")

		s.notifier.Dispatch(ctx, notify.Event{
			UserID:   terminated.UserID,
			Kind:     "investment_completed",
			Title:    "Investment matured",
			Body:     fmt.Sprintf("Your principal of %s has been released with %s in total returns.", money.Format(terminated.AmountCents), money.Format(terminated.TotalReturnCents)),
			EntityID: terminated.ID,
		})
	}
	return nil
}

// Cancel closes an active position early. The principal comes back in
// full; profit already credited stays credited.
func (s *Service) Cancel(ctx context.Context, investmentID, adminID uuid.UUID) (*Investment, error) {
	tx, err := s.ledger.DB().BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	inv, err := s.repo.TerminateTx(ctx, tx, investmentID, StatusCancelled)
	if err != nil {
		return nil, err
	}
	if err := s.returnPrincipalTx(ctx, tx, inv); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	s.ledger.InvalidateWallet(ctx, inv.UserID)

	log.Info().
		Str("investment_id", inv.ID.String()).
		Str("admin_id", adminID.String()).
		Msg("investment cancelled")

	s.notifier.Dispatch(ctx, notify.Event{
		UserID:   inv.UserID,
		Kind:     "investment_cancelled",
		Title:    "Investment cancelled",
		Body:     fmt.Sprintf("Your principal of %s has been returned.", money.Format(inv.AmountCents)),
		EntityID: inv.ID,
	})
	return inv, nil
}

// returnPrincipalTx posts the locked -> available pair. Completion and
// cancellation share it; the two states are mutually exclusive, so one key
// per investment is enough.
func (s *Service) returnPrincipalTx(ctx context.Context, tx *sqlx.Tx, inv *Investment) error {
	outKey := fmt.Sprintf("maturity:%s:out", inv.ID)
	inKey := fmt.Sprintf("maturity:%s:in", inv.ID)
	entries := []*ledger.Entry{
		{
			UserID:          inv.UserID,
			Kind:            ledger.KindInvestmentPrincipalReturn,
			Bucket:          ledger.BucketLocked,
			AmountCents:     -inv.AmountCents,
			RelatedEntityID: &inv.ID,
			IdempotencyKey:  &outKey,
			Note:            "principal returned",
		},
		{
			UserID:          inv.UserID,
			Kind:            ledger.KindInvestmentPrincipalReturn,
			Bucket:          ledger.BucketAvailable,
			AmountCents:     inv.AmountCents,
			RelatedEntityID: &inv.ID,
			IdempotencyKey:  &inKey,
			Note:            "principal returned",
		},
	}
	_, err := s.ledger.AppendAllTx(ctx, tx, entries)
	return err
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Investment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Investment, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

func (s *Service) ListPlans(ctx context.Context) ([]Plan, error) {
	return s.repo.ListPlans(ctx)
}

func (s *Service) GetSummary(ctx context.Context, userID uuid.UUID) (*Summary, error) {
	return s.repo.Summary(ctx, userID)
}

func today() time.Time {
	return midnightUTC(time.Now().UTC())
}

func midnightUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
