package investment

import "errors"

var (
	ErrPlanNotFound       = errors.New("plan not found")
	ErrPlanInactive       = errors.New("plan is not open for new investments")
	ErrAmountOutOfRange   = errors.New("amount outside the plan limits")
	ErrCountryNotAllowed  = errors.New("plan is not available in this country")
	ErrInsufficientFunds  = errors.New("insufficient available balance")
	ErrInvestmentNotFound = errors.New("investment not found")
	ErrNotActive          = errors.New("investment is not active")
	ErrAlreadyAccrued     = errors.New("already accrued for this date")
)
