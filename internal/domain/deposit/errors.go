package deposit

import "errors"

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrDepositNotFound  = errors.New("deposit not found")
	ErrNotOwner         = errors.New("deposit belongs to another user")
	ErrAlreadyFinalized = errors.New("deposit already finalized")
	ErrReasonRequired   = errors.New("rejection reason is required")
)
