package withdrawal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/novafund/novafund-api/internal/domain/ledger"
	"github.com/novafund/novafund-api/internal/domain/user"
	"github.com/novafund/novafund-api/internal/pkg/money"
	"github.com/novafund/novafund-api/internal/pkg/notify"
)

type Service struct {
	repo     *Repository
	ledger   *ledger.Service
	users    user.Repository
	notifier notify.Dispatcher
}

func NewService(repo *Repository, ledgerSvc *ledger.Service, users user.Repository, notifier notify.Dispatcher) *Service {
	return &Service{repo: repo, ledger: ledgerSvc, users: users, notifier: notifier}
}

// QuoteFee returns the fee and net payout for an amount and method without
// creating anything.
func (s *Service) QuoteFee(method string, amountCents int64) (feeCents, netCents int64, err error) {
	rule, ok := RuleFor(method)
	if !ok {
		return 0, 0, ErrInvalidMethod
	}
	fee := rule.Fee(amountCents)
	if amountCents <= 0 || fee >= amountCents {
		return 0, 0, ErrInvalidAmount
	}
	return fee, amountCents - fee, nil
}

// Create opens a payout request and reserves the full amount in the same
// transaction. The reservation pair moves available -> pending; if the
// user's available balance cannot cover it the ledger rejects the move and
// nothing is created.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, amountCents int64, method, destination string) (*Withdrawal, error) {
	rule, ok := RuleFor(method)
	if !ok {
		return nil, ErrInvalidMethod
	}
	feeCents, netCents, err := s.QuoteFee(method, amountCents)
	if err != nil {
		return nil, err
	}

	if rule.RequiresKyc {
		u, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		if !u.IsKycVerified() {
			return nil, ErrKycRequired
		}
	}

	tx, err := s.ledger.DB().BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	w := &Withdrawal{
		UserID:         userID,
		AmountCents:    amountCents,
		FeeCents:       feeCents,
		NetAmountCents: netCents,
		PaymentMethod:  method,
		Destination:    destination,
		Status:         StatusPending,
	}
	if err := s.repo.CreateTx(ctx, tx, w); err != nil {
		return nil, err
	}

	outKey := fmt.Sprintf("wdhold:%s:out", w.ID)
	inKey := fmt.Sprintf("wdhold:%s:in", w.ID)
	entries := []*ledger.Entry{
		{
			UserID:          userID,
			Kind:            ledger.KindWithdrawalHold,
			Bucket:          ledger.BucketAvailable,
			AmountCents:     -amountCents,
			RelatedEntityID: &w.ID,
			IdempotencyKey:  &outKey,
			Note:            "withdrawal reservation",
		},
		{
			UserID:          userID,
			Kind:            ledger.KindWithdrawalHold,
			Bucket:          ledger.BucketPending,
			AmountCents:     amountCents,
			RelatedEntityID: &w.ID,
			IdempotencyKey:  &inKey,
			Note:            "withdrawal reservation",
		},
	}
	if _, err := s.ledger.AppendAllTx(ctx, tx, entries); err != nil {
		if errors.Is(err, ledger.ErrInsufficientBalance) {
			return nil, ErrInsufficientBalance
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	s.ledger.InvalidateWallet(ctx, userID)

	log.Info().
		Str("withdrawal_id", w.ID.String()).
		Str("user_id", userID.String()).
		Int64("amount_cents", amountCents).
		Int64("fee_cents", feeCents).
		Str("method", method).
		Msg("withdrawal created")
	return w, nil
}

// MarkProcessing is the admin picking up a request before paying it out.
func (s *Service) MarkProcessing(ctx context.Context, withdrawalID, adminID uuid.UUID) (*Withdrawal, error) {
	return s.repo.MarkProcessing(ctx, withdrawalID, adminID)
}

// Approve finalizes the payout: the reserved amount leaves pending as a
// withdrawal for the net payout plus a separate fee entry. Status flip and
// ledger entries commit together.
func (s *Service) Approve(ctx context.Context, withdrawalID, adminID uuid.UUID) (*Withdrawal, error) {
	tx, err := s.ledger.DB().BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	w, err := s.repo.FinalizeTx(ctx, tx, withdrawalID, StatusApproved, adminID, nil)
	if err != nil {
		return nil, err
	}

	payoutKey := fmt.Sprintf("withdrawal:%s", w.ID)
	entries := []*ledger.Entry{{
		UserID:          w.UserID,
		Kind:            ledger.KindWithdrawal,
		Bucket:          ledger.BucketPending,
		AmountCents:     -w.NetAmountCents,
		RelatedEntityID: &w.ID,
		IdempotencyKey:  &payoutKey,
		Note:            fmt.Sprintf("payout via %s", w.PaymentMethod),
	}}
	if w.FeeCents > 0 {
		feeKey := fmt.Sprintf("wdfee:%s", w.ID)
		entries = append(entries, &ledger.Entry{
			UserID:          w.UserID,
			Kind:            ledger.KindWithdrawalFee,
			Bucket:          ledger.BucketPending,
			AmountCents:     -w.FeeCents,
			RelatedEntityID: &w.ID,
			IdempotencyKey:  &feeKey,
			Note:            fmt.Sprintf("%s fee", w.PaymentMethod),
		})
	}
	if _, err := s.ledger.AppendAllTx(ctx, tx, entries); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	s.ledger.InvalidateWallet(ctx, w.UserID)

	log.Info().
		Str("withdrawal_id", w.ID.String()).
		Str("admin_id", adminID.String()).
		Int64("net_cents", w.NetAmountCents).
		Int64("fee_cents", w.FeeCents).
		Msg("withdrawal approved")

	s.notifier.Dispatch(ctx, notify.Event{
		UserID:   w.UserID,
		Kind:     "withdrawal_approved",
		Title:    "Withdrawal approved",
		Body:     fmt.Sprintf("Your payout of %s is on its way.", money.Format(w.NetAmountCents)),
		EntityID: w.ID,
	})
	return w, nil
}

// Reject finalizes the request and releases the reservation back to the
// available balance.
func (s *Service) Reject(ctx context.Context, withdrawalID, adminID uuid.UUID, reason string) (*Withdrawal, error) {
	if reason == "" {
		return nil, ErrReasonRequired
	}

	tx, err := s.ledger.DB().BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	w, err := s.repo.FinalizeTx(ctx, tx, withdrawalID, StatusRejected, adminID, &reason)
	if err != nil {
		return nil, err
	}

	outKey := fmt.Sprintf("wdrelease:%s:out", w.ID)
	inKey := fmt.Sprintf("wdrelease:%s:in", w.ID)
	entries := []*ledger.Entry{
		{
			UserID:          w.UserID,
			Kind:            ledger.KindWithdrawalHoldRelease,
			Bucket:          ledger.BucketPending,
			AmountCents:     -w.AmountCents,
			RelatedEntityID: &w.ID,
			IdempotencyKey:  &outKey,
			Note:            "withdrawal reservation released",
		},
		{
			UserID:          w.UserID,
			Kind:            ledger.KindWithdrawalHoldRelease,
			Bucket:          ledger.BucketAvailable,
			AmountCents:     w.AmountCents,
			RelatedEntityID: &w.ID,
			IdempotencyKey:  &inKey,
			Note:            "withdrawal reservation released",
		},
	}
	if _, err := s.ledger.AppendAllTx(ctx, tx, entries); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	s.ledger.InvalidateWallet(ctx, w.UserID)

	log.Info().
		Str("withdrawal_id", w.ID.String()).
		Str("admin_id", adminID.String()).
		Str("reason", reason).
		Msg("withdrawal rejected")

	s.notifier.Dispatch(ctx, notify.Event{
		UserID:   w.UserID,
		Kind:     "withdrawal_rejected",
		Title:    "Withdrawal rejected",
		Body:     reason,
		EntityID: w.ID,
	})
	return w, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Withdrawal, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Withdrawal, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

func (s *Service) ListByStatus(ctx context.Context, status Status, limit, offset int) ([]Withdrawal, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.ListByStatus(ctx, status, limit, offset)
}
