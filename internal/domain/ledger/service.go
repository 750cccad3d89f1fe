package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const walletCacheTTL = 5 * time.Minute

// Service is the only write path into the ledger and the read path for
// derived wallets. Every workflow appends through it; nothing else mutates
// balances.
type Service struct {
	repo  *Repository
	redis *redis.Client // optional; nil disables the wallet cache
}

func NewService(repo *Repository, redisClient *redis.Client) *Service {
	return &Service{repo: repo, redis: redisClient}
}

// DB exposes the underlying handle so workflows can run a ledger append and
// their own row updates in one transaction.
func (s *Service) DB() *sqlx.DB {
	return s.repo.DB()
}

func walletCacheKey(userID uuid.UUID) string {
	return fmt.Sprintf("wallet:%s", userID)
}

// Append posts a single entry.
func (s *Service) Append(ctx context.Context, e *Entry) (uuid.UUID, error) {
	id, err := s.repo.Append(ctx, e)
	if err != nil {
		return uuid.Nil, err
	}
	s.InvalidateWallet(ctx, e.UserID)
	log.Info().
		Str("user_id", e.UserID.String()).
		Str("kind", string(e.Kind)).
		Str("bucket", string(e.Bucket)).
		Int64("amount_cents", e.AmountCents).
		Msg("ledger entry appended")
	return id, nil
}

// AppendAll posts a group of entries atomically (e.g. a lock pair moving
// funds between buckets). Returns applied=false on an idempotent replay.
func (s *Service) AppendAll(ctx context.Context, entries []*Entry) (bool, error) {
	applied, err := s.repo.AppendAll(ctx, entries)
	if err != nil {
		return false, err
	}
	if applied {
		s.InvalidateWallet(ctx, entries[0].UserID)
	}
	return applied, nil
}

// AppendAllTx posts a group inside the caller's transaction. The caller must
// call InvalidateWallet after commit.
func (s *Service) AppendAllTx(ctx context.Context, tx *sqlx.Tx, entries []*Entry) (bool, error) {
	return s.repo.AppendAllTx(ctx, tx, entries)
}

// GetWallet returns the derived wallet, served from Redis when possible.
func (s *Service) GetWallet(ctx context.Context, userID uuid.UUID) (*Wallet, error) {
	if s.redis != nil {
		raw, err := s.redis.Get(ctx, walletCacheKey(userID)).Result()
		if err == nil {
			var w Wallet
			if err := json.Unmarshal([]byte(raw), &w); err == nil {
				return &w, nil
			}
		}
	}

	w, err := s.repo.GetWallet(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		if raw, err := json.Marshal(w); err == nil {
			if err := s.redis.Set(ctx, walletCacheKey(userID), raw, walletCacheTTL).Err(); err != nil {
				log.Warn().Err(err).Str("user_id", userID.String()).Msg("wallet cache write failed")
			}
		}
	}
	return w, nil
}

// Recompute folds the raw entry stream from scratch. Used by tests and the
// reconciliation check; must always agree with GetWallet.
func (s *Service) Recompute(ctx context.Context, userID uuid.UUID) (*Wallet, error) {
	return s.repo.Recompute(ctx, userID)
}

// ListForUser exposes the entry stream (transaction history).
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID, f Filters) ([]Entry, error) {
	return s.repo.ListForUser(ctx, userID, f)
}

// InvalidateWallet drops the cached wallet after an append commits.
func (s *Service) InvalidateWallet(ctx context.Context, userID uuid.UUID) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, walletCacheKey(userID)).Err(); err != nil {
		log.Warn().Err(err).Str("user_id", userID.String()).Msg("wallet cache invalidation failed")
	}
}

// ManualAdjustment posts an admin correction entry. The only sanctioned way
// to fix a booking mistake; prior entries are never edited.
func (s *Service) ManualAdjustment(ctx context.Context, userID uuid.UUID, bucket Bucket, amountCents int64, adminID uuid.UUID, note string) (uuid.UUID, error) {
	if note == "" {
		return uuid.Nil, ErrInvalidEntry
	}
	e := &Entry{
		UserID:          userID,
		Kind:            KindManualAdjustment,
		Bucket:          bucket,
		AmountCents:     amountCents,
		RelatedEntityID: &adminID,
		Note:            note,
	}
	return s.Append(ctx, e)
}
