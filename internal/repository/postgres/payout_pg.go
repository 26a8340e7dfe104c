// internal/repository/postgres/payout_pg.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"propay-cashout/internal/domain"
	"propay-cashout/internal/repository"
	"propay-cashout/internal/util"
)

// PayoutRepository implements repository.PayoutRepository for PostgreSQL.
type PayoutRepository struct {
	// No state; methods receive a DBExecutor so they can run inside or outside a transaction.
}

// NewPayoutRepository creates a new PayoutRepository.
func NewPayoutRepository(db *sqlx.DB) repository.PayoutRepository {
	return &PayoutRepository{}
}

const payoutColumns = `id, professional_id, amount, currency, status, payment_processor_transaction_id,
              payment_processor_response, error_message, created_at, completed_at, metadata`

// CreatePayout inserts a new payout record in pending state.
func (r *PayoutRepository) CreatePayout(ctx context.Context, q repository.DBExecutor, payout *domain.Payout) error {
	query := `INSERT INTO payouts (id, professional_id, amount, currency, status, created_at, metadata)
              VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := q.ExecContext(ctx, query,
		payout.ID,
		payout.ProfessionalID,
		payout.Amount,
		payout.Currency,
		payout.Status,
		payout.CreatedAt,
		payout.Metadata,
	)
	if err != nil {
		return fmt.Errorf("failed to create payout %s: %w", payout.ID, err)
	}
	return nil
}

// GetPayoutByID retrieves a single payout by its ID.
func (r *PayoutRepository) GetPayoutByID(ctx context.Context, q repository.DBExecutor, id string) (*domain.Payout, error) {
	var payout domain.Payout
	query := `SELECT ` + payoutColumns + ` FROM payouts WHERE id = $1`
	err := q.GetContext(ctx, &payout, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get payout %s: %w", id, err)
	}
	return &payout, nil
}

// GetPayoutsByProfessionalID retrieves a professional's payout history, newest first.
func (r *PayoutRepository) GetPayoutsByProfessionalID(ctx context.Context, q repository.DBExecutor, professionalID string) ([]domain.Payout, error) {
	payouts := []domain.Payout{}
	query := `SELECT ` + payoutColumns + ` FROM payouts WHERE professional_id = $1 ORDER BY created_at DESC`
	err := q.SelectContext(ctx, &payouts, query, professionalID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch payouts for professional %s: %w", professionalID, err)
	}
	return payouts, nil
}

// CountPendingPayouts returns the number of payouts still in pending state.
func (r *PayoutRepository) CountPendingPayouts(ctx context.Context, q repository.DBExecutor, professionalID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM payouts WHERE professional_id = $1 AND status = $2`
	err := q.GetContext(ctx, &count, query, professionalID, domain.PayoutStatusPending)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending payouts for professional %s: %w", professionalID, err)
	}
	return count, nil
}

// CountPayoutsByStatus returns payout counts grouped by status.
func (r *PayoutRepository) CountPayoutsByStatus(ctx context.Context, q repository.DBExecutor, professionalID string) (map[domain.PayoutStatus]int, error) {
	rows := []struct {
		Status domain.PayoutStatus `db:"status"`
		Count  int                 `db:"count"`
	}{}
	query := `SELECT status, COUNT(*) AS count FROM payouts WHERE professional_id = $1 GROUP BY status`
	err := q.SelectContext(ctx, &rows, query, professionalID)
	if err != nil {
		return nil, fmt.Errorf("failed to count payouts by status for professional %s: %w", professionalID, err)
	}

	counts := make(map[domain.PayoutStatus]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// UpdatePayoutStatus applies a terminal status transition. The statement is
// static: optional fields not present in the update are written as NULL, which
// matches their value in the pending state this transition leaves.
func (r *PayoutRepository) UpdatePayoutStatus(ctx context.Context, q repository.DBExecutor, id string, update repository.PayoutStatusUpdate) error {
	query := `UPDATE payouts
              SET status = $1, payment_processor_transaction_id = $2, payment_processor_response = $3,
                  error_message = $4, completed_at = $5
              WHERE id = $6`
	var response interface{}
	if len(update.Response) > 0 {
		response = update.Response
	}
	result, err := q.ExecContext(ctx, query,
		update.Status,
		update.TransactionID,
		response,
		update.ErrorMessage,
		update.CompletedAt,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to update payout %s status to %s: %w", id, update.Status, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected after updating payout %s: %w", id, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("no rows affected when updating payout %s: %w", id, util.ErrPayoutNotFound)
	}
	return nil
}

// CancelPayout transitions a payout from pending to cancelled. The status
// predicate in the WHERE clause is what keeps terminal states immutable.
func (r *PayoutRepository) CancelPayout(ctx context.Context, q repository.DBExecutor, id string) error {
	query := `UPDATE payouts SET status = $1 WHERE id = $2 AND status = $3`
	result, err := q.ExecContext(ctx, query, domain.PayoutStatusCancelled, id, domain.PayoutStatusPending)
	if err != nil {
		return fmt.Errorf("failed to cancel payout %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected after cancelling payout %s: %w", id, err)
	}
	if rowsAffected == 0 {
		return util.ErrPayoutNotCancellable
	}
	return nil
}
