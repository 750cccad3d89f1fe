package user

import (
	"time"

	"github.com/google/uuid"
)

// Role represents user role in the system (matches user_role enum)
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// KycStatus represents identity verification state (matches kyc_status enum)
type KycStatus string

const (
	KycUnverified KycStatus = "unverified"
	KycPending    KycStatus = "pending"
	KycVerified   KycStatus = "verified"
)

// User represents a platform account. Authentication, KYC document handling
// and profile management live in other services; this service only reads
// the fields the money engines depend on.
type User struct {
	ID           uuid.UUID  `db:"id"`
	Email        string     `db:"email"`
	Role         Role       `db:"role"`
	Country      string     `db:"country"` // ISO 3166-1 alpha-2
	KycStatus    KycStatus  `db:"kyc_status"`
	IsSuspended  bool       `db:"is_suspended"`
	ReferralCode string     `db:"referral_code"`
	ReferredBy   *uuid.UUID `db:"referred_by"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

// IsKycVerified reports whether withdrawals gated on identity may proceed.
func (u *User) IsKycVerified() bool {
	return u.KycStatus == KycVerified
}
