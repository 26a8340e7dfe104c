// internal/util/errors.go
package util

import "errors"

// Common application-specific errors.
var (
	ErrNotFound             = errors.New("resource not found")
	ErrInvalidInput         = errors.New("invalid input provided")
	ErrBalanceNotFound      = errors.New("professional balance not found")
	ErrPayoutNotFound       = errors.New("payout not found")
	ErrPayoutNotCancellable = errors.New("payout not found or cannot be cancelled")
)

// IsError reports whether err matches target in its chain.
func IsError(err, target error) bool {
	return errors.Is(err, target)
}

// ValidationReason identifies which business rule rejected a cash-out request.
type ValidationReason string

const (
	ReasonInvalidAmount        ValidationReason = "invalid_amount"
	ReasonAmountBelowMinimum   ValidationReason = "amount_below_minimum"
	ReasonAmountAboveMaximum   ValidationReason = "amount_above_maximum"
	ReasonAccountNotFound      ValidationReason = "account_not_found"
	ReasonInsufficientBalance  ValidationReason = "insufficient_balance"
	ReasonPayoutAlreadyPending ValidationReason = "payout_already_pending"
)

// ValidationError is a business-rule rejection of a cash-out request.
// It is recovered locally and turned into a structured response, never a 500.
type ValidationError struct {
	Reason  ValidationReason
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// AsValidationError unwraps err into a ValidationError if there is one in its chain.
func AsValidationError(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}
