package deposit

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/novafund/novafund-api/internal/domain/ledger"
	"github.com/novafund/novafund-api/internal/pkg/money"
	"github.com/novafund/novafund-api/internal/pkg/notify"
	"github.com/novafund/novafund-api/internal/pkg/storage"
)

type Service struct {
	repo     *Repository
	ledger   *ledger.Service
	proofs   storage.ObjectStorage
	notifier notify.Dispatcher
}

func NewService(repo *Repository, ledgerSvc *ledger.Service, proofs storage.ObjectStorage, notifier notify.Dispatcher) *Service {
	return &Service{repo: repo, ledger: ledgerSvc, proofs: proofs, notifier: notifier}
}

// Create records a funding request. No ledger effect until approval.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, amountCents int64, method string) (*Deposit, error) {
	if amountCents <= 0 {
		return nil, ErrInvalidAmount
	}

	d := &Deposit{
		UserID:        userID,
		AmountCents:   amountCents,
		PaymentMethod: method,
		Status:        StatusPending,
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}

	log.Info().
		Str("deposit_id", d.ID.String()).
		Str("user_id", userID.String()).
		Int64("amount_cents", amountCents).
		Str("method", method).
		Msg("deposit created")
	return d, nil
}

// AttachProof stores the payment proof and moves the request to review.
func (s *Service) AttachProof(ctx context.Context, depositID, userID uuid.UUID, file io.Reader) (*Deposit, error) {
	d, err := s.repo.GetByID(ctx, depositID)
	if err != nil {
		return nil, err
	}
	if d.UserID != userID {
		return nil, ErrNotOwner
	}
	if d.Status.Terminal() {
		return nil, ErrAlreadyFinalized
	}

	buf, mimeType, err := storage.ValidateAndBuffer(file, storage.CategoryProof)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("proofs/deposits/%s%s", depositID, storage.GetExtensionForMime(mimeType))
	if err := s.proofs.Put(ctx, key, buf, mimeType); err != nil {
		return nil, err
	}

	updated, err := s.repo.AttachProof(ctx, depositID, key)
	if err != nil {
		return nil, err
	}
	updated.ProofURL = s.proofs.GetURL(key)
	return updated, nil
}

// Approve posts the deposit credit and finalizes the request. The status
// flip and the ledger append commit together; the ledger idempotency key
// makes an interrupted approval safe to retry.
func (s *Service) Approve(ctx context.Context, depositID, adminID uuid.UUID) (*Deposit, error) {
	tx, err := s.ledger.DB().BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	d, err := s.repo.FinalizeTx(ctx, tx, depositID, StatusApproved, adminID, nil)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("deposit:%s", d.ID)
	entries := []*ledger.Entry{{
		UserID:          d.UserID,
		Kind:            ledger.KindDeposit,
		Bucket:          ledger.BucketAvailable,
		AmountCents:     d.AmountCents,
		RelatedEntityID: &d.ID,
		IdempotencyKey:  &key,
		Note:            fmt.Sprintf("deposit via %s", d.PaymentMethod),
	}}
	if _, err := s.ledger.AppendAllTx(ctx, tx, entries); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	s.ledger.InvalidateWallet(ctx, d.UserID)

	log.Info().
		Str("deposit_id", d.ID.String()).
		Str("admin_id", adminID.String()).
		Int64("amount_cents", d.AmountCents).
		Msg("deposit approved")

	s.notifier.Dispatch(ctx, notify.Event{
		UserID:   d.UserID,
		Kind:     "deposit_approved",
		Title:    "Deposit approved",
		Body:     fmt.Sprintf("Your deposit of %s has been credited.", money.Format(d.AmountCents)),
		EntityID: d.ID,
	})
	return d, nil
}

// Reject finalizes the request with no ledger effect.
func (s *Service) Reject(ctx context.Context, depositID, adminID uuid.UUID, reason string) (*Deposit, error) {
	if reason == "" {
		return nil, ErrReasonRequired
	}

	tx, err := s.ledger.DB().BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	d, err := s.repo.FinalizeTx(ctx, tx, depositID, StatusRejected, adminID, &reason)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	log.Info().
		Str("deposit_id", d.ID.String()).
		Str("admin_id", adminID.String()).
		Str("reason", reason).
		Msg("deposit rejected")

	s.notifier.Dispatch(ctx, notify.Event{
		UserID:   d.UserID,
		Kind:     "deposit_rejected",
		Title:    "Deposit rejected",
		Body:     reason,
		EntityID: d.ID,
	})
	return d, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Deposit, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Deposit, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

func (s *Service) ListPendingReview(ctx context.Context, limit, offset int) ([]Deposit, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.ListByStatus(ctx, StatusUnderReview, limit, offset)
}
