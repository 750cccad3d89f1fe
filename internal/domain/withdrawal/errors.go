package withdrawal

import "errors"

var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidMethod       = errors.New("unknown payment method")
	ErrInsufficientBalance = errors.New("insufficient available balance")
	ErrKycRequired         = errors.New("identity verification required for this method")
	ErrWithdrawalNotFound  = errors.New("withdrawal not found")
	ErrInvalidTransition   = errors.New("withdrawal is not in the required state")
	ErrReasonRequired      = errors.New("rejection reason is required")
)
