package recurring

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/novafund/novafund-api/internal/domain/ledger"
	"github.com/novafund/novafund-api/internal/pkg/money"
	"github.com/novafund/novafund-api/internal/pkg/notify"
)

// ProfitHook posts referral commissions in the same transaction as the
// growth credit they derive from.
type ProfitHook interface {
	OnProfitTx(ctx context.Context, tx *sqlx.Tx, earnerID uuid.UUID, profitCents int64, sourceKey string) error
}

type Service struct {
	repo      *Repository
	ledger    *ledger.Service
	profits   ProfitHook // optional
	notifier  notify.Dispatcher
	graceDays int
}

func NewService(repo *Repository, ledgerSvc *ledger.Service, profits ProfitHook, notifier notify.Dispatcher, graceDays int) *Service {
	if graceDays <= 0 {
		graceDays = 5
	}
	return &Service{repo: repo, ledger: ledgerSvc, profits: profits, notifier: notifier, graceDays: graceDays}
}

// CreatePlan opens a contract. The first installment is due one month out;
// no money moves until it is paid.
func (s *Service) CreatePlan(ctx context.Context, userID uuid.UUID, planType PlanType, monthlyCents int64) (*Plan, error) {
	months, growthRate, ok := TermsFor(planType)
	if !ok {
		return nil, ErrInvalidPlanType
	}
	if monthlyCents <= 0 {
		return nil, ErrInvalidAmount
	}

	p := &Plan{
		UserID:          userID,
		PlanType:        planType,
		MonthlyCents:    monthlyCents,
		MonthsRequired:  months,
		GrowthRate:      growthRate,
		Status:          StatusActive,
		NextPaymentDate: today().AddDate(0, 1, 0),
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	log.Info().
		Str("plan_id", p.ID.String()).
		Str("user_id", userID.String()).
		Str("plan_type", string(planType)).
		Int64("monthly_cents", monthlyCents).
		Msg("recurring plan created")
	return p, nil
}

// PayInstallment records one paid installment. The contribution is new
// money from the user's external payment, credited straight to locked;
// it is not drawn from the available balance. The portfolio then
// compounds: newPV = (PV + contribution) * (1 + growthRate), with the
// growth delta posted as its own entry. The final installment matures the
// contract and releases the full portfolio to the available balance.
func (s *Service) PayInstallment(ctx context.Context, planID, userID uuid.UUID) (*Plan, error) {
	tx, err := s.ledger.DB().BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	p, err := s.repo.GetForUpdateTx(ctx, tx, planID)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, ErrNotOwner
	}
	if !p.Status.Payable() {
		return nil, ErrNotPayable
	}
	if today().Before(p.NextPaymentDate.AddDate(0, 0, -s.graceDays)) {
		return nil, ErrNotDue
	}

	monthIndex := p.MonthsCompleted + 1
	contribution := p.MonthlyCents
	grown := money.ApplyRate(p.PortfolioValueCents+contribution, p.GrowthRate)
	newPV := p.PortfolioValueCents + contribution + grown

	contribKey := fmt.Sprintf("recurring:%s:%d", p.ID, monthIndex)
	growthKey := fmt.Sprintf("recgrow:%s:%d", p.ID, monthIndex)
	entries := []*ledger.Entry{{
		UserID:          p.UserID,
		Kind:            ledger.KindRecurringContribution,
		Bucket:          ledger.BucketLocked,
		AmountCents:     contribution,
		RelatedEntityID: &p.ID,
		IdempotencyKey:  &contribKey,
		Note:            fmt.Sprintf("installment %d of %d", monthIndex, p.MonthsRequired),
	}}
	if grown > 0 {
		entries = append(entries, &ledger.Entry{
			UserID:          p.UserID,
			Kind:            ledger.KindRecurringGrowth,
			Bucket:          ledger.BucketLocked,
			AmountCents:     grown,
			RelatedEntityID: &p.ID,
			IdempotencyKey:  &growthKey,
			Note:            fmt.Sprintf("portfolio growth, month %d", monthIndex),
		})
	}

	p.MonthsCompleted = monthIndex
	p.TotalContributedCents += contribution
	p.PortfolioValueCents = newPV
	p.Status = StatusActive
	p.NextPaymentDate = p.NextPaymentDate.AddDate(0, 1, 0)

	matured := p.MonthsCompleted >= p.MonthsRequired
	if matured {
		p.Status = StatusMatured
		now := time.Now().UTC()
		p.MaturityDate = &now

		outKey := fmt.Sprintf("recurring-mature:%s:out", p.ID)
		inKey := fmt.Sprintf("recurring-mature:%s:in", p.ID)
		entries = append(entries,
			&ledger.Entry{
				UserID:          p.UserID,
				Kind:            ledger.KindRecurringMaturity,
				Bucket:          ledger.BucketLocked,
				AmountCents:     -newPV,
				RelatedEntityID: &p.ID,
				IdempotencyKey:  &outKey,
				Note:            "contract matured",
			},
			&ledger.Entry{
				UserID:          p.UserID,
				Kind:            ledger.KindRecurringMaturity,
				Bucket:          ledger.BucketAvailable,
				AmountCents:     newPV,
				RelatedEntityID: &p.ID,
				IdempotencyKey:  &inKey,
				Note:            "contract matured",
			},
		)
	}

	if err := s.repo.ApplyInstallmentTx(ctx, tx, p); err != nil {
		return nil, err
	}
	if _, err := s.ledger.AppendAllTx(ctx, tx, entries); err != nil {
		return nil, err
	}
	if grown > 0 && s.profits != nil {
		if err := s.profits.OnProfitTx(ctx, tx, p.UserID, grown, growthKey); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	s.ledger.InvalidateWallet(ctx, p.UserID)

	log.Info().
		Str("plan_id", p.ID.String()).
		Int("month", monthIndex).
		Int64("growth_cents", grown).
		Int64("portfolio_cents", newPV).
		Bool("matured", matured).
		Msg("installment paid")

	if matured {
		s.notifier.Dispatch(ctx, notify.Event{
			UserID:   p.UserID,
			Kind:     "recurring_matured",
			Title:    "Savings plan matured",
			Body:     fmt.Sprintf("Your plan matured with a portfolio of %s.", money.Format(newPV)),
			EntityID: p.ID,
		})
	}
	return p, nil
}

// Cancel closes a payable contract. Everything in the portfolio, including
// growth already credited, is released immediately.
func (s *Service) Cancel(ctx context.Context, planID, userID uuid.UUID) (*Plan, error) {
	tx, err := s.ledger.DB().BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	p, err := s.repo.GetForUpdateTx(ctx, tx, planID)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, ErrNotOwner
	}

	p, err = s.repo.CancelTx(ctx, tx, planID)
	if err != nil {
		return nil, err
	}

	if p.PortfolioValueCents > 0 {
		outKey := fmt.Sprintf("recurring-mature:%s:out", p.ID)
		inKey := fmt.Sprintf("recurring-mature:%s:in", p.ID)
		entries := []*ledger.Entry{
			{
				UserID:          p.UserID,
				Kind:            ledger.KindRecurringMaturity,
				Bucket:          ledger.BucketLocked,
				AmountCents:     -p.PortfolioValueCents,
				RelatedEntityID: &p.ID,
				IdempotencyKey:  &outKey,
				Note:            "contract cancelled, portfolio released",
			},
			{
				UserID:          p.UserID,
				Kind:            ledger.KindRecurringMaturity,
				Bucket:          ledger.BucketAvailable,
				AmountCents:     p.PortfolioValueCents,
				RelatedEntityID: &p.ID,
				IdempotencyKey:  &inKey,
				Note:            "contract cancelled, portfolio released",
			},
		}
		if _, err := s.ledger.AppendAllTx(ctx, tx, entries); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	s.ledger.InvalidateWallet(ctx, p.UserID)

	log.Info().
		Str("plan_id", p.ID.String()).
		Int64("released_cents", p.PortfolioValueCents).
		Msg("recurring plan cancelled")
	return p, nil
}

// SweepMissed flips overdue active plans to missed. No penalty: a missed
// plan is resumed by paying the overdue installment.
func (s *Service) SweepMissed(ctx context.Context, date time.Time) error {
	n, err := s.repo.MarkMissed(ctx, midnightUTC(date))
	if err != nil {
		return err
	}
	log.Info().Time("date", date).Int64("flipped", n).Msg("missed-installment sweep finished")
	return nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Plan, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID) ([]Plan, error) {
	return s.repo.ListByUser(ctx, userID)
}

func today() time.Time {
	return midnightUTC(time.Now().UTC())
}

func midnightUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
