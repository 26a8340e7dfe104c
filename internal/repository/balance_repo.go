// internal/repository/balance_repo.go
package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"propay-cashout/internal/domain"
)

// BalanceRepository defines the interface for professional balance data operations.
type BalanceRepository interface {
	// GetBalance retrieves a professional's balance using the provided DBExecutor.
	GetBalance(ctx context.Context, q DBExecutor, professionalID string) (*domain.Balance, error)
	// GetBalanceForUpdate retrieves the balance row under an exclusive row lock.
	// The lock is held for the duration of the enclosing transaction and is the
	// sole mutual-exclusion mechanism between concurrent payout submissions.
	GetBalanceForUpdate(ctx context.Context, q DBExecutor, professionalID string) (*domain.Balance, error)
	// CreateBalance inserts a zero-initialized balance row. Creating a row that
	// already exists is a no-op.
	CreateBalance(ctx context.Context, q DBExecutor, balance *domain.Balance) error
	// ApplyPayoutDebit records a successful payout against the balance: the
	// available balance is reset to zero and the amount is added to the
	// lifetime paid-out total.
	ApplyPayoutDebit(ctx context.Context, q DBExecutor, professionalID string, amount decimal.Decimal) error
}
