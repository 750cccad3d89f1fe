package referral

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/novafund/novafund-api/internal/domain/ledger"
	"github.com/novafund/novafund-api/internal/domain/user"
	"github.com/novafund/novafund-api/internal/pkg/money"
)

type Service struct {
	repo   *Repository
	ledger *ledger.Service
	users  user.Repository
}

func NewService(repo *Repository, ledgerSvc *ledger.Service, users user.Repository) *Service {
	return &Service{repo: repo, ledger: ledgerSvc, users: users}
}

// OnProfitTx credits the earner's referrer with a commission inside the
// caller's transaction, so a profit and its commission commit or roll back
// together. A no-op when the earner has no referrer or the commission
// rounds to zero. The idempotency key is derived from the source event's
// key, so retrying the source job cannot double-pay.
func (s *Service) OnProfitTx(ctx context.Context, tx *sqlx.Tx, earnerID uuid.UUID, profitCents int64, sourceKey string) error {
	if profitCents <= 0 {
		return nil
	}

	referrerID, err := s.users.ReferrerOf(ctx, earnerID)
	if err != nil {
		return err
	}
	if referrerID == nil {
		return nil
	}

	count, err := s.repo.CountReferrals(ctx, *referrerID)
	if err != nil {
		return err
	}
	tier := TierFor(count)

	commission := money.ApplyRate(profitCents, tier.CommissionPct)
	if commission <= 0 {
		return nil
	}

	key := fmt.Sprintf("refcom:%s", sourceKey)
	applied, err := s.ledger.AppendAllTx(ctx, tx, []*ledger.Entry{{
		UserID:          *referrerID,
		Kind:            ledger.KindReferralCommission,
		Bucket:          ledger.BucketAvailable,
		AmountCents:     commission,
		RelatedEntityID: &earnerID,
		IdempotencyKey:  &key,
		Note:            fmt.Sprintf("%s commission (%s tier)", money.Format(commission), tier.Name),
	}})
	if err != nil {
		return err
	}
	if !applied {
		return nil
	}
	// dropped before the caller's commit; the cache TTL bounds a stale re-read
	s.ledger.InvalidateWallet(ctx, *referrerID)

	log.Info().
		Str("referrer_id", referrerID.String()).
		Str("earner_id", earnerID.String()).
		Int64("commission_cents", commission).
		Str("tier", tier.Name).
		Msg("referral commission credited")
	return nil
}

// OnProfit runs the commission in its own transaction.
func (s *Service) OnProfit(ctx context.Context, earnerID uuid.UUID, profitCents int64, sourceKey string) error {
	tx, err := s.ledger.DB().BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.OnProfitTx(ctx, tx, earnerID, profitCents, sourceKey); err != nil {
		return err
	}
	return tx.Commit()
}

// GetStats assembles the referral summary for a user.
func (s *Service) GetStats(ctx context.Context, userID uuid.UUID) (*Stats, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	total, err := s.repo.CountReferrals(ctx, userID)
	if err != nil {
		return nil, err
	}
	active, err := s.repo.CountActiveReferrals(ctx, userID)
	if err != nil {
		return nil, err
	}

	w, err := s.ledger.GetWallet(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &Stats{
		TotalReferrals:        total,
		ActiveReferrals:       active,
		CurrentTier:           TierFor(total),
		NextTier:              NextTier(total),
		ReferralEarningsCents: w.ReferralEarnings,
		ReferralCode:          u.ReferralCode,
	}, nil
}
