// internal/api/types/response.go
package types

import (
	"github.com/shopspring/decimal"

	"propay-cashout/internal/domain"
)

// ErrorResponse is the generic error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse carries a human-readable confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// ValidateResponse is the dry-run validation result. Rule failures are
// reported here with HTTP 200, unlike the submit endpoint.
type ValidateResponse struct {
	IsValid          bool             `json:"is_valid"`
	Error            string           `json:"error,omitempty"`
	Reason           string           `json:"reason,omitempty"`
	AvailableBalance *decimal.Decimal `json:"available_balance,omitempty"`
}

// CashoutResponse is the submit outcome. Success reflects the payout's
// terminal state; a processor failure still answers HTTP 200.
type CashoutResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
	Error   string         `json:"error,omitempty"`
	Payout  *domain.Payout `json:"payout"`
}

// PayoutListResponse wraps a professional's payout history.
type PayoutListResponse struct {
	Payouts []domain.Payout `json:"payouts"`
}
