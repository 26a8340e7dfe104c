// internal/repository/payout_repo.go
package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx/types"

	"propay-cashout/internal/domain"
)

// PayoutStatusUpdate carries the optional fields written alongside a status
// transition. Fields left nil are written as NULL, which is safe because
// transitions only ever leave the pending state, where every optional column
// is still NULL.
type PayoutStatusUpdate struct {
	Status        domain.PayoutStatus
	TransactionID *string
	Response      types.JSONText
	ErrorMessage  *string
	CompletedAt   *time.Time
}

// PayoutRepository defines the interface for payout data operations.
type PayoutRepository interface {
	// CreatePayout inserts a new payout record using the provided DBExecutor.
	CreatePayout(ctx context.Context, q DBExecutor, payout *domain.Payout) error
	// GetPayoutByID retrieves a single payout by its ID.
	GetPayoutByID(ctx context.Context, q DBExecutor, id string) (*domain.Payout, error)
	// GetPayoutsByProfessionalID retrieves a professional's payout history, newest first.
	GetPayoutsByProfessionalID(ctx context.Context, q DBExecutor, professionalID string) ([]domain.Payout, error)
	// CountPendingPayouts returns the number of payouts still in pending state.
	CountPendingPayouts(ctx context.Context, q DBExecutor, professionalID string) (int, error)
	// CountPayoutsByStatus returns payout counts grouped by status.
	CountPayoutsByStatus(ctx context.Context, q DBExecutor, professionalID string) (map[domain.PayoutStatus]int, error)
	// UpdatePayoutStatus applies a terminal status transition to a payout.
	UpdatePayoutStatus(ctx context.Context, q DBExecutor, id string, update PayoutStatusUpdate) error
	// CancelPayout transitions a payout from pending to cancelled. It returns
	// ErrPayoutNotCancellable when the payout is unknown or no longer pending,
	// without distinguishing the two causes.
	CancelPayout(ctx context.Context, q DBExecutor, id string) error
}
