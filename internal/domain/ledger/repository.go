package ledger

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Filters narrows ListForUser. Zero values mean "no filter".
type Filters struct {
	Kinds  []Kind
	Bucket Bucket
	Since  time.Time
	Limit  int
	Offset int
}

func (r *Repository) DB() *sqlx.DB {
	return r.db
}

func (r *Repository) beginTx(ctx context.Context) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
}

// ensureBalances creates the running-sums row on first touch.
func (r *Repository) ensureBalances(ctx context.Context, q sqlx.ExtContext, userID uuid.UUID) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO wallet_balances (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
	`, userID)
	return err
}

// lockBalances takes the per-user row lock that serializes every append for
// that user, and returns the current running sums.
func (r *Repository) lockBalances(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID) (*Wallet, error) {
	if err := r.ensureBalances(ctx, tx, userID); err != nil {
		return nil, err
	}

	var w Wallet
	err := tx.GetContext(ctx, &w, `
		SELECT available_cents, pending_cents, locked_cents,
		       total_earnings_cents, total_deposits_cents,
		       total_withdrawals_cents, referral_earnings_cents
		FROM wallet_balances
		WHERE user_id = $1
		FOR UPDATE
	`, userID)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *Repository) existingByKey(ctx context.Context, q sqlx.ExtContext, key string) (*Entry, error) {
	var e Entry
	err := sqlx.GetContext(ctx, q, &e, `
		SELECT id, user_id, kind, bucket, amount_cents, related_entity_id,
		       idempotency_key, COALESCE(note, '') AS note, created_at
		FROM ledger_entries
		WHERE idempotency_key = $1
	`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *Repository) insertEntry(ctx context.Context, tx *sqlx.Tx, e *Entry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	err := tx.QueryRowxContext(ctx, `
		INSERT INTO ledger_entries (id, user_id, kind, bucket, amount_cents, related_entity_id, idempotency_key, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`, e.ID, e.UserID, e.Kind, e.Bucket, e.AmountCents, e.RelatedEntityID, e.IdempotencyKey, e.Note).Scan(&e.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrReferenceConflict
		}
		return err
	}
	return nil
}

func (r *Repository) updateBalances(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, w *Wallet) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE wallet_balances
		SET available_cents = $1, pending_cents = $2, locked_cents = $3,
		    total_earnings_cents = $4, total_deposits_cents = $5,
		    total_withdrawals_cents = $6, referral_earnings_cents = $7,
		    updated_at = now()
		WHERE user_id = $8
	`, w.MainBalance, w.PendingBalance, w.LockedBalance,
		w.TotalEarnings, w.TotalDeposits, w.TotalWithdrawals, w.ReferralEarnings, userID)
	return err
}

// AppendAllTx appends a group of entries atomically inside the caller's
// transaction. All entries must belong to one user; the group is applied
// under that user's row lock so the balance check and the writes are one
// unit. Returns applied=false when the group's idempotency keys show it
// was already posted (a replay, not an error).
func (r *Repository) AppendAllTx(ctx context.Context, tx *sqlx.Tx, entries []*Entry) (bool, error) {
	if len(entries) == 0 {
		return false, ErrInvalidEntry
	}
	userID := entries[0].UserID
	for _, e := range entries {
		if err := e.Validate(); err != nil {
			return false, err
		}
		if e.UserID != userID {
			return false, ErrInvalidEntry
		}
	}

	w, err := r.lockBalances(ctx, tx, userID)
	if err != nil {
		return false, err
	}

	// Replay detection: a group replays only as a whole. Partial presence
	// of its keys means two writers used the same key for different moves.
	seen := 0
	keyed := 0
	for _, e := range entries {
		if e.IdempotencyKey == nil {
			continue
		}
		keyed++
		existing, err := r.existingByKey(ctx, tx, *e.IdempotencyKey)
		if err != nil {
			return false, err
		}
		if existing == nil {
			continue
		}
		if existing.AmountCents != e.AmountCents || existing.Kind != e.Kind || existing.Bucket != e.Bucket {
			return false, ErrReferenceConflict
		}
		e.ID = existing.ID
		e.CreatedAt = existing.CreatedAt
		seen++
	}
	if seen > 0 {
		if seen != keyed || keyed != len(entries) {
			return false, ErrReferenceConflict
		}
		return false, nil
	}

	for _, e := range entries {
		w.Apply(e)
	}
	if w.Negative() {
		return false, ErrInsufficientBalance
	}

	for _, e := range entries {
		if err := r.insertEntry(ctx, tx, e); err != nil {
			return false, err
		}
	}

	if err := r.updateBalances(ctx, tx, userID, w); err != nil {
		return false, err
	}
	return true, nil
}

// AppendAll appends a group of entries in its own transaction.
func (r *Repository) AppendAll(ctx context.Context, entries []*Entry) (bool, error) {
	tx, err := r.beginTx(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	applied, err := r.AppendAllTx(ctx, tx, entries)
	if err != nil {
		return false, err
	}
	return applied, tx.Commit()
}

// Append appends a single entry in its own transaction.
func (r *Repository) Append(ctx context.Context, e *Entry) (uuid.UUID, error) {
	if _, err := r.AppendAll(ctx, []*Entry{e}); err != nil {
		return uuid.Nil, err
	}
	return e.ID, nil
}

// GetWallet reads the running sums without locking.
func (r *Repository) GetWallet(ctx context.Context, userID uuid.UUID) (*Wallet, error) {
	if err := r.ensureBalances(ctx, r.db, userID); err != nil {
		return nil, err
	}

	var w Wallet
	err := r.db.GetContext(ctx, &w, `
		SELECT available_cents, pending_cents, locked_cents,
		       total_earnings_cents, total_deposits_cents,
		       total_withdrawals_cents, referral_earnings_cents
		FROM wallet_balances
		WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// ListForUser returns the user's entries ordered by created_at ascending.
func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID, f Filters) ([]Entry, error) {
	query := `
		SELECT id, user_id, kind, bucket, amount_cents, related_entity_id,
		       idempotency_key, COALESCE(note, '') AS note, created_at
		FROM ledger_entries
		WHERE user_id = $1`
	args := []interface{}{userID}

	if len(f.Kinds) > 0 {
		kinds := make([]string, len(f.Kinds))
		for i, k := range f.Kinds {
			kinds[i] = string(k)
		}
		args = append(args, pq.Array(kinds))
		query += ` AND kind = ANY($2)`
	}
	if f.Bucket != "" {
		args = append(args, f.Bucket)
		query += ` AND bucket = $` + strconv.Itoa(len(args))
	}
	if !f.Since.IsZero() {
		args = append(args, f.Since)
		query += ` AND created_at >= $` + strconv.Itoa(len(args))
	}

	query += ` ORDER BY created_at ASC, id ASC`

	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	var entries []Entry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, err
	}
	return entries, nil
}

// Recompute folds the user's full entry stream from scratch. This must
// always equal GetWallet; the running sums are only a cache of this fold.
func (r *Repository) Recompute(ctx context.Context, userID uuid.UUID) (*Wallet, error) {
	const pageSize = 500

	var w Wallet
	offset := 0
	for {
		entries, err := r.ListForUser(ctx, userID, Filters{Limit: pageSize, Offset: offset})
		if err != nil {
			return nil, err
		}
		for i := range entries {
			w.Apply(&entries[i])
		}
		if len(entries) < pageSize {
			return &w, nil
		}
		offset += pageSize
	}
}
