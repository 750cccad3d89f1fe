package recurring

import "errors"

var (
	ErrInvalidPlanType   = errors.New("unknown plan type")
	ErrInvalidAmount     = errors.New("invalid monthly contribution")
	ErrPlanNotFound      = errors.New("recurring plan not found")
	ErrNotOwner          = errors.New("plan belongs to another user")
	ErrNotPayable        = errors.New("plan is not accepting installments")
	ErrNotDue            = errors.New("installment is not due yet")
	ErrInvalidTransition = errors.New("plan is not in the required state")
)
