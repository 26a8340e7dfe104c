// internal/repository/postgres/balance_pg.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"propay-cashout/internal/domain"
	"propay-cashout/internal/repository"
	"propay-cashout/internal/util"
)

// BalanceRepository implements repository.BalanceRepository for PostgreSQL.
type BalanceRepository struct {
	// No state; methods receive a DBExecutor so they can run inside or outside a transaction.
}

// NewBalanceRepository creates a new BalanceRepository.
func NewBalanceRepository(db *sqlx.DB) repository.BalanceRepository {
	return &BalanceRepository{}
}

const balanceColumns = `professional_id, available_balance, total_earned, total_paid_out, last_updated, created_at`

// GetBalance retrieves a professional's balance using the provided DBExecutor.
func (r *BalanceRepository) GetBalance(ctx context.Context, q repository.DBExecutor, professionalID string) (*domain.Balance, error) {
	var balance domain.Balance
	query := `SELECT ` + balanceColumns + ` FROM professional_balances WHERE professional_id = $1`
	err := q.GetContext(ctx, &balance, query, professionalID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get balance for professional %s: %w", professionalID, err)
	}
	return &balance, nil
}

// GetBalanceForUpdate retrieves the balance row under SELECT ... FOR UPDATE.
// Concurrent lockers block until the enclosing transaction commits or rolls back.
func (r *BalanceRepository) GetBalanceForUpdate(ctx context.Context, q repository.DBExecutor, professionalID string) (*domain.Balance, error) {
	var balance domain.Balance
	query := `SELECT ` + balanceColumns + ` FROM professional_balances WHERE professional_id = $1 FOR UPDATE`
	err := q.GetContext(ctx, &balance, query, professionalID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock balance for professional %s: %w", professionalID, err)
	}
	return &balance, nil
}

// CreateBalance inserts a zero-initialized balance row.
// ON CONFLICT DO NOTHING makes concurrent first reads race-safe.
func (r *BalanceRepository) CreateBalance(ctx context.Context, q repository.DBExecutor, balance *domain.Balance) error {
	query := `INSERT INTO professional_balances (professional_id, available_balance, total_earned, total_paid_out, last_updated, created_at)
              VALUES ($1, $2, $3, $4, $5, $6)
              ON CONFLICT (professional_id) DO NOTHING`
	_, err := q.ExecContext(ctx, query,
		balance.ProfessionalID,
		balance.AvailableBalance,
		balance.TotalEarned,
		balance.TotalPaidOut,
		balance.LastUpdated,
		balance.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create balance for professional %s: %w", balance.ProfessionalID, err)
	}
	return nil
}

// ApplyPayoutDebit records a successful payout: available_balance is reset to
// zero (the whole balance is swept, not just the requested amount) and the
// amount is added to total_paid_out.
func (r *BalanceRepository) ApplyPayoutDebit(ctx context.Context, q repository.DBExecutor, professionalID string, amount decimal.Decimal) error {
	query := `UPDATE professional_balances
              SET available_balance = 0, total_paid_out = total_paid_out + $1, last_updated = $2
              WHERE professional_id = $3`
	result, err := q.ExecContext(ctx, query, amount, time.Now().UTC(), professionalID)
	if err != nil {
		return fmt.Errorf("failed to apply payout debit for professional %s: %w", professionalID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected after payout debit for professional %s: %w", professionalID, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("no rows affected when applying payout debit for professional %s: %w", professionalID, util.ErrBalanceNotFound)
	}
	return nil
}
