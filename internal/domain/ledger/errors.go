package ledger

import "errors"

var (
	ErrInvalidEntry        = errors.New("invalid ledger entry")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrReferenceConflict   = errors.New("idempotency key already used with different entries")
)
