package withdrawal

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// CreateTx inserts the request inside the caller's transaction so the row
// and its reservation entries commit together.
func (r *Repository) CreateTx(ctx context.Context, tx *sqlx.Tx, w *Withdrawal) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return tx.QueryRowxContext(ctx, `
		INSERT INTO withdrawals (id, user_id, amount_cents, fee_cents, net_amount_cents,
		                         payment_method, destination, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`, w.ID, w.UserID, w.AmountCents, w.FeeCents, w.NetAmountCents,
		w.PaymentMethod, w.Destination, w.Status).Scan(&w.CreatedAt)
}

const selectWithdrawal = `
	SELECT id, user_id, amount_cents, fee_cents, net_amount_cents, payment_method,
	       destination, status, rejection_reason, processed_by, created_at, processed_at
	FROM withdrawals`

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Withdrawal, error) {
	var w Withdrawal
	err := r.db.GetContext(ctx, &w, selectWithdrawal+` WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrWithdrawalNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Withdrawal, error) {
	var items []Withdrawal
	err := r.db.SelectContext(ctx, &items, selectWithdrawal+`
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	return items, err
}

func (r *Repository) ListByStatus(ctx context.Context, status Status, limit, offset int) ([]Withdrawal, error) {
	var items []Withdrawal
	err := r.db.SelectContext(ctx, &items, selectWithdrawal+`
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2 OFFSET $3
	`, status, limit, offset)
	return items, err
}

// MarkProcessing moves a pending request to processing. Only a pending row
// qualifies, so two admins cannot pick up the same request twice.
func (r *Repository) MarkProcessing(ctx context.Context, id, adminID uuid.UUID) (*Withdrawal, error) {
	var w Withdrawal
	err := r.db.GetContext(ctx, &w, `
		UPDATE withdrawals
		SET status = 'processing', processed_by = $1
		WHERE id = $2 AND status = 'pending'
		RETURNING id, user_id, amount_cents, fee_cents, net_amount_cents, payment_method,
		          destination, status, rejection_reason, processed_by, created_at, processed_at
	`, adminID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, r.notFoundOrBadState(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// FinalizeTx flips a non-terminal request to a terminal status inside the
// caller's transaction.
func (r *Repository) FinalizeTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, status Status, adminID uuid.UUID, reason *string) (*Withdrawal, error) {
	var w Withdrawal
	now := time.Now().UTC()
	err := tx.GetContext(ctx, &w, `
		UPDATE withdrawals
		SET status = $1, processed_by = $2, rejection_reason = $3, processed_at = $4
		WHERE id = $5 AND status IN ('pending', 'processing')
		RETURNING id, user_id, amount_cents, fee_cents, net_amount_cents, payment_method,
		          destination, status, rejection_reason, processed_by, created_at, processed_at
	`, status, adminID, reason, now, id)
	if errors.Is(err, sql.ErrNoRows) {
		var exists bool
		if checkErr := tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM withdrawals WHERE id = $1)`, id); checkErr != nil {
			return nil, checkErr
		}
		if !exists {
			return nil, ErrWithdrawalNotFound
		}
		return nil, ErrInvalidTransition
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *Repository) notFoundOrBadState(ctx context.Context, id uuid.UUID) error {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM withdrawals WHERE id = $1)`, id); err != nil {
		return err
	}
	if !exists {
		return ErrWithdrawalNotFound
	}
	return ErrInvalidTransition
}
