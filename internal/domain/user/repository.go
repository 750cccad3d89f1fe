package user

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Repository defines user data access interface
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByReferralCode(ctx context.Context, code string) (*User, error)
	// ReferrerOf returns the referrer's ID for a user, or nil if the user
	// was not referred.
	ReferrerOf(ctx context.Context, id uuid.UUID) (*uuid.UUID, error)
}

// repository implements Repository
type repository struct {
	db *sqlx.DB
}

// NewRepository creates new user repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const selectUser = `
	SELECT id, email, role, COALESCE(country, '') AS country, kyc_status,
	       is_suspended, COALESCE(referral_code, '') AS referral_code,
	       referred_by, created_at, updated_at
	FROM users`

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	var u User
	err := r.db.GetContext(ctx, &u, selectUser+` WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repository) GetByReferralCode(ctx context.Context, code string) (*User, error) {
	var u User
	err := r.db.GetContext(ctx, &u, selectUser+` WHERE referral_code = $1`, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repository) ReferrerOf(ctx context.Context, id uuid.UUID) (*uuid.UUID, error) {
	var referrer *uuid.UUID
	err := r.db.GetContext(ctx, &referrer, `SELECT referred_by FROM users WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return referrer, nil
}
