// internal/domain/balance.go
package domain

import (
	"time"

	"github.com/shopspring/decimal" // For precise monetary calculations
)

// Balance represents a professional's cash-out ledger balance.
// AvailableBalance is the amount currently eligible for cash-out; the lifetime
// totals are tracked separately and never decrease.
type Balance struct {
	ProfessionalID   string          `db:"professional_id" json:"professional_id"`     // Unique key
	AvailableBalance decimal.Decimal `db:"available_balance" json:"available_balance"` // NUMERIC(20, 4) in DB, never negative
	TotalEarned      decimal.Decimal `db:"total_earned" json:"total_earned"`           // Lifetime earnings
	TotalPaidOut     decimal.Decimal `db:"total_paid_out" json:"total_paid_out"`       // Lifetime successful payouts
	LastUpdated      time.Time       `db:"last_updated" json:"last_updated"`           // Timestamp of last mutation
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`               // Timestamp of creation
}

// NewBalance creates a zero-valued Balance for a professional.
// An absent balance row is semantically equivalent to a zero balance, so rows
// are created lazily on first read.
func NewBalance(professionalID string) *Balance {
	now := time.Now().UTC()
	return &Balance{
		ProfessionalID:   professionalID,
		AvailableBalance: decimal.Zero,
		TotalEarned:      decimal.Zero,
		TotalPaidOut:     decimal.Zero,
		LastUpdated:      now,
		CreatedAt:        now,
	}
}
