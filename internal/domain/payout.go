// internal/domain/payout.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
	"github.com/shopspring/decimal" // For precise monetary calculations
)

// PayoutStatus defines the lifecycle state of a payout.
type PayoutStatus string

const (
	PayoutStatusPending   PayoutStatus = "pending"
	PayoutStatusSuccess   PayoutStatus = "success"
	PayoutStatusFailed    PayoutStatus = "failed"
	PayoutStatusCancelled PayoutStatus = "cancelled"
)

// IsTerminal reports whether the status is final. A payout transitions from
// pending to exactly one terminal state and never leaves it.
func (s PayoutStatus) IsTerminal() bool {
	return s == PayoutStatusSuccess || s == PayoutStatusFailed || s == PayoutStatusCancelled
}

// Payout represents one cash-out attempt and its outcome record.
type Payout struct {
	ID                string          `db:"id" json:"id"` // UUID, generated at request time, never reused
	ProfessionalID    string          `db:"professional_id" json:"professional_id"`
	Amount            decimal.Decimal `db:"amount" json:"amount"` // NUMERIC(20, 4) in DB
	Currency          string          `db:"currency" json:"currency"`
	Status            PayoutStatus    `db:"status" json:"status"`
	TransactionID     *string         `db:"payment_processor_transaction_id" json:"payment_processor_transaction_id,omitempty"` // Set only on success
	ProcessorResponse types.JSONText  `db:"payment_processor_response" json:"payment_processor_response,omitempty"`             // Opaque processor payload, set only on success
	ErrorMessage      *string         `db:"error_message" json:"error_message,omitempty"`                                       // Set only on failure
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
	CompletedAt       *time.Time      `db:"completed_at" json:"completed_at"` // Null while pending
	Metadata          types.JSONText  `db:"metadata" json:"metadata"`         // Opaque caller-supplied payload, preserved verbatim
}

// NewPayout creates a new Payout in pending state with a freshly generated ID.
func NewPayout(professionalID string, amount decimal.Decimal, currency string, metadata types.JSONText) *Payout {
	if len(metadata) == 0 {
		metadata = types.JSONText("{}")
	}
	return &Payout{
		ID:             uuid.NewString(),
		ProfessionalID: professionalID,
		Amount:         amount,
		Currency:       currency,
		Status:         PayoutStatusPending,
		CreatedAt:      time.Now().UTC(),
		Metadata:       metadata,
	}
}

// CashoutStats aggregates a professional's balance with payout counts by status.
type CashoutStats struct {
	AvailableBalance decimal.Decimal `json:"available_balance"`
	TotalEarned      decimal.Decimal `json:"total_earned"`
	TotalPaidOut     decimal.Decimal `json:"total_paid_out"`
	PendingPayouts   int             `json:"pending_payouts"`
	CompletedPayouts int             `json:"completed_payouts"`
	FailedPayouts    int             `json:"failed_payouts"`
}
