package deposit

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

func (r *Repository) Create(ctx context.Context, d *Deposit) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return r.db.QueryRowxContext(ctx, `
		INSERT INTO deposits (id, user_id, amount_cents, payment_method, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, d.ID, d.UserID, d.AmountCents, d.PaymentMethod, d.Status).Scan(&d.CreatedAt)
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Deposit, error) {
	var d Deposit
	err := r.db.GetContext(ctx, &d, `
		SELECT id, user_id, amount_cents, payment_method, status, proof_key,
		       reviewed_by, rejection_reason, created_at, reviewed_at
		FROM deposits
		WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDepositNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Deposit, error) {
	var deposits []Deposit
	err := r.db.SelectContext(ctx, &deposits, `
		SELECT id, user_id, amount_cents, payment_method, status, proof_key,
		       reviewed_by, rejection_reason, created_at, reviewed_at
		FROM deposits
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	return deposits, err
}

func (r *Repository) ListByStatus(ctx context.Context, status Status, limit, offset int) ([]Deposit, error) {
	var deposits []Deposit
	err := r.db.SelectContext(ctx, &deposits, `
		SELECT id, user_id, amount_cents, payment_method, status, proof_key,
		       reviewed_by, rejection_reason, created_at, reviewed_at
		FROM deposits
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2 OFFSET $3
	`, status, limit, offset)
	return deposits, err
}

// AttachProof records the uploaded proof key and moves pending deposits to
// under_review. Finalized deposits are left untouched.
func (r *Repository) AttachProof(ctx context.Context, id uuid.UUID, proofKey string) (*Deposit, error) {
	var d Deposit
	err := r.db.GetContext(ctx, &d, `
		UPDATE deposits
		SET proof_key = $1,
		    status = CASE WHEN status = 'pending' THEN 'under_review' ELSE status END
		WHERE id = $2 AND status IN ('pending', 'under_review')
		RETURNING id, user_id, amount_cents, payment_method, status, proof_key,
		          reviewed_by, rejection_reason, created_at, reviewed_at
	`, proofKey, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAlreadyFinalized
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// FinalizeTx flips a non-terminal deposit to a terminal status inside the
// caller's transaction. Returns ErrAlreadyFinalized when the row was already
// terminal (or missing), so approving twice is an explicit conflict, never a
// silent success or a double credit.
func (r *Repository) FinalizeTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, status Status, adminID uuid.UUID, reason *string) (*Deposit, error) {
	var d Deposit
	now := time.Now().UTC()
	err := tx.GetContext(ctx, &d, `
		UPDATE deposits
		SET status = $1, reviewed_by = $2, rejection_reason = $3, reviewed_at = $4
		WHERE id = $5 AND status IN ('pending', 'under_review')
		RETURNING id, user_id, amount_cents, payment_method, status, proof_key,
		          reviewed_by, rejection_reason, created_at, reviewed_at
	`, status, adminID, reason, now, id)
	if errors.Is(err, sql.ErrNoRows) {
		var exists bool
		if checkErr := tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM deposits WHERE id = $1)`, id); checkErr != nil {
			return nil, checkErr
		}
		if !exists {
			return nil, ErrDepositNotFound
		}
		return nil, ErrAlreadyFinalized
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}
