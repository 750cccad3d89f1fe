package referral

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// CountReferrals counts users referred by the given user.
func (r *Repository) CountReferrals(ctx context.Context, referrerID uuid.UUID) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `
		SELECT COUNT(*) FROM users WHERE referred_by = $1
	`, referrerID)
	return n, err
}

// CountActiveReferrals counts referred users who have funded their account
// (at least one approved deposit).
func (r *Repository) CountActiveReferrals(ctx context.Context, referrerID uuid.UUID) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `
		SELECT COUNT(*)
		FROM users u
		WHERE u.referred_by = $1
		  AND EXISTS (
			SELECT 1 FROM deposits d
			WHERE d.user_id = u.id AND d.status = 'approved'
		  )
	`, referrerID)
	return n, err
}
