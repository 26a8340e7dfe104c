// internal/service/cashout_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/shopspring/decimal"

	"propay-cashout/internal/config"
	"propay-cashout/internal/domain"
	"propay-cashout/internal/notify"
	"propay-cashout/internal/processor"
	"propay-cashout/internal/repository"
	"propay-cashout/internal/util"
	"propay-cashout/pkg/db"
)

// notifyDispatchTimeout bounds the fire-and-forget notification after a
// payout completes.
const notifyDispatchTimeout = 15 * time.Second

// ValidationResult is the outcome of a dry-run validation.
type ValidationResult struct {
	IsValid          bool
	Reason           util.ValidationReason
	Message          string
	AvailableBalance decimal.Decimal
}

// CashoutService defines the interface for cash-out business logic.
type CashoutService interface {
	// GetBalance returns the professional's balance, creating a zero-valued
	// row on first read.
	GetBalance(ctx context.Context, professionalID string) (*domain.Balance, error)
	// GetPayout returns a single payout by ID.
	GetPayout(ctx context.Context, payoutID string) (*domain.Payout, error)
	// GetPayoutHistory returns the professional's payouts, newest first.
	GetPayoutHistory(ctx context.Context, professionalID string) ([]domain.Payout, error)
	// GetStats returns the balance combined with payout counts by status.
	GetStats(ctx context.Context, professionalID string) (*domain.CashoutStats, error)
	// Validate dry-runs the cash-out business rules without any mutation.
	Validate(ctx context.Context, professionalID string, amount decimal.Decimal) (*ValidationResult, error)
	// Submit creates a payout, drives it through the payment processor and
	// settles the ledger, all inside one transaction. A processor failure is a
	// committed terminal state, not an error.
	Submit(ctx context.Context, professionalID string, amount decimal.Decimal, metadata types.JSONText) (*domain.Payout, error)
	// Cancel transitions a payout from pending to cancelled.
	Cancel(ctx context.Context, payoutID string) error
}

// cashoutService implements the CashoutService interface.
type cashoutService struct {
	dbBeginner       db.DBTxBeginner       // For starting transactions (e.g., *sqlx.DB)
	dbExecutor       repository.DBExecutor // For non-transactional reads (e.g., *sqlx.DB)
	balanceRepo      repository.BalanceRepository
	payoutRepo       repository.PayoutRepository
	processor        processor.Processor
	dispatcher       notify.Dispatcher
	limits           config.CashoutConfig
	processorTimeout time.Duration
	logger           *slog.Logger
	beginTx          db.BeginTxFunc
	commitTx         db.CommitTxFunc
	rollbackTx       db.RollbackTxFunc
}

// NewCashoutService creates a new instance of CashoutService.
func NewCashoutService(
	dbBeginner db.DBTxBeginner,
	dbExecutor repository.DBExecutor,
	balanceRepo repository.BalanceRepository,
	payoutRepo repository.PayoutRepository,
	proc processor.Processor,
	dispatcher notify.Dispatcher,
	limits config.CashoutConfig,
	processorTimeout time.Duration,
	logger *slog.Logger,
	beginTx db.BeginTxFunc,
	commitTx db.CommitTxFunc,
	rollbackTx db.RollbackTxFunc,
) CashoutService {
	return &cashoutService{
		dbBeginner:       dbBeginner,
		dbExecutor:       dbExecutor,
		balanceRepo:      balanceRepo,
		payoutRepo:       payoutRepo,
		processor:        proc,
		dispatcher:       dispatcher,
		limits:           limits,
		processorTimeout: processorTimeout,
		logger:           logger,
		beginTx:          beginTx,
		commitTx:         commitTx,
		rollbackTx:       rollbackTx,
	}
}

// groupThousands renders an amount with comma-separated thousands, the format
// the public validation messages use ("$10,000").
func groupThousands(d decimal.Decimal) string {
	s := d.String()
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	for i := 0; i < len(intPart); i++ {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteByte(intPart[i])
	}
	out := sign + b.String()
	if hasFrac {
		out += "." + frac
	}
	return out
}

// evaluateRules applies the cash-out business rules to a balance snapshot and
// pending-payout count. A nil balance means the account does not exist. The
// dry-run and submit paths both go through here, so they cannot drift apart.
func (s *cashoutService) evaluateRules(amount decimal.Decimal, balance *domain.Balance, pendingCount int) *util.ValidationError {
	if amount.LessThanOrEqual(decimal.Zero) {
		return &util.ValidationError{
			Reason:  util.ReasonInvalidAmount,
			Message: "Amount must be greater than 0",
		}
	}
	if amount.LessThan(s.limits.MinAmount) {
		return &util.ValidationError{
			Reason:  util.ReasonAmountBelowMinimum,
			Message: fmt.Sprintf("Minimum cash-out amount is $%s", groupThousands(s.limits.MinAmount)),
		}
	}
	if amount.GreaterThan(s.limits.MaxAmount) {
		return &util.ValidationError{
			Reason:  util.ReasonAmountAboveMaximum,
			Message: fmt.Sprintf("Maximum cash-out amount is $%s", groupThousands(s.limits.MaxAmount)),
		}
	}
	if balance == nil {
		return &util.ValidationError{
			Reason:  util.ReasonAccountNotFound,
			Message: "Professional not found",
		}
	}
	if balance.AvailableBalance.LessThan(amount) {
		return &util.ValidationError{
			Reason:  util.ReasonInsufficientBalance,
			Message: fmt.Sprintf("Insufficient balance. Available: $%s", balance.AvailableBalance.StringFixed(2)),
		}
	}
	if pendingCount > 0 {
		return &util.ValidationError{
			Reason:  util.ReasonPayoutAlreadyPending,
			Message: "You have a pending cash-out request. Please wait for it to be processed.",
		}
	}
	return nil
}

// Validate dry-runs the cash-out rules. It reads without locks; the submit
// path re-applies the same rules against locked state, so this result is
// advisory but trustworthy in the absence of concurrent submissions.
func (s *cashoutService) Validate(ctx context.Context, professionalID string, amount decimal.Decimal) (*ValidationResult, error) {
	balance, err := s.balanceRepo.GetBalance(ctx, s.dbExecutor, professionalID)
	if err != nil && !util.IsError(err, util.ErrNotFound) {
		return nil, fmt.Errorf("validate cashout: failed to get balance: %w", err)
	}

	pendingCount := 0
	if balance != nil {
		pendingCount, err = s.payoutRepo.CountPendingPayouts(ctx, s.dbExecutor, professionalID)
		if err != nil {
			return nil, fmt.Errorf("validate cashout: failed to count pending payouts: %w", err)
		}
	}

	if verr := s.evaluateRules(amount, balance, pendingCount); verr != nil {
		return &ValidationResult{IsValid: false, Reason: verr.Reason, Message: verr.Message}, nil
	}
	return &ValidationResult{IsValid: true, AvailableBalance: balance.AvailableBalance}, nil
}

// Submit drives the payout state machine: lock the balance row, re-validate,
// insert the pending payout, call the processor synchronously while holding
// the lock, record the terminal state and commit. Only unexpected failures
// roll back, erasing the payout row entirely.
func (s *cashoutService) Submit(ctx context.Context, professionalID string, amount decimal.Decimal, metadata types.JSONText) (*domain.Payout, error) {
	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, fmt.Errorf("submit cashout: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("submit cashout: transaction controller does not implement DBExecutor")
	}

	balance, err := s.balanceRepo.GetBalanceForUpdate(ctx, txExecutor, professionalID)
	if err != nil && !util.IsError(err, util.ErrNotFound) {
		return nil, fmt.Errorf("submit cashout: failed to lock balance: %w", err)
	}

	pendingCount := 0
	if balance != nil {
		pendingCount, err = s.payoutRepo.CountPendingPayouts(ctx, txExecutor, professionalID)
		if err != nil {
			return nil, fmt.Errorf("submit cashout: failed to count pending payouts: %w", err)
		}
	}

	// Same rules as the dry-run path, now applied to the locked state. This
	// check, not the advisory dry-run, is what prevents double submission.
	if verr := s.evaluateRules(amount, balance, pendingCount); verr != nil {
		return nil, verr
	}

	payout := domain.NewPayout(professionalID, amount, s.limits.Currency, metadata)
	if err := s.payoutRepo.CreatePayout(ctx, txExecutor, payout); err != nil {
		return nil, fmt.Errorf("submit cashout: failed to create payout: %w", err)
	}

	// The processor is called while the balance lock is held, so no two
	// processor calls for the same professional can ever be in flight at
	// once. The timeout keeps a stalled processor from holding the lock
	// indefinitely.
	procCtx, cancel := context.WithTimeout(ctx, s.processorTimeout)
	result, procErr := s.processor.Process(procCtx, processor.ProcessRequest{
		PayoutID:       payout.ID,
		ProfessionalID: professionalID,
		Amount:         amount,
		Currency:       payout.Currency,
	})
	cancel()

	completedAt := time.Now().UTC()
	if procErr != nil {
		errorMessage := fmt.Sprintf("Payment processor error: %v", procErr)
		if errors.Is(procErr, context.DeadlineExceeded) {
			errorMessage = fmt.Sprintf("processor_timeout: no response within %s", s.processorTimeout)
		}
		s.logger.Error("Payment processor call failed",
			"payout_id", payout.ID, "professional_id", professionalID, "error", procErr)

		update := repository.PayoutStatusUpdate{
			Status:       domain.PayoutStatusFailed,
			ErrorMessage: &errorMessage,
			CompletedAt:  &completedAt,
		}
		if err := s.payoutRepo.UpdatePayoutStatus(ctx, txExecutor, payout.ID, update); err != nil {
			return nil, fmt.Errorf("submit cashout: failed to mark payout failed: %w", err)
		}
		payout.Status = domain.PayoutStatusFailed
		payout.ErrorMessage = &errorMessage
		payout.CompletedAt = &completedAt
	} else {
		update := repository.PayoutStatusUpdate{
			Status:        domain.PayoutStatusSuccess,
			TransactionID: &result.TransactionID,
			Response:      result.Response,
			CompletedAt:   &completedAt,
		}
		if err := s.payoutRepo.UpdatePayoutStatus(ctx, txExecutor, payout.ID, update); err != nil {
			return nil, fmt.Errorf("submit cashout: failed to mark payout successful: %w", err)
		}
		if err := s.balanceRepo.ApplyPayoutDebit(ctx, txExecutor, professionalID, amount); err != nil {
			return nil, fmt.Errorf("submit cashout: failed to apply payout debit: %w", err)
		}
		payout.Status = domain.PayoutStatusSuccess
		payout.TransactionID = &result.TransactionID
		payout.ProcessorResponse = result.Response
		payout.CompletedAt = &completedAt
	}

	// Both processor outcomes are terminal states reached via commit.
	if err := s.commitTx(txController); err != nil {
		return nil, fmt.Errorf("submit cashout: failed to commit transaction: %w", err)
	}

	go s.notifyCompletion(payout)

	return payout, nil
}

// notifyCompletion tells the notification dispatcher about a settled payout.
// Delivery is best effort; the ledger never depends on its success.
func (s *cashoutService) notifyCompletion(payout *domain.Payout) {
	ctx, cancel := context.WithTimeout(context.Background(), notifyDispatchTimeout)
	defer cancel()

	title := "Cash-out processed"
	body := fmt.Sprintf("Your cash-out of %s %s was processed successfully.", payout.Amount.StringFixed(2), payout.Currency)
	if payout.Status == domain.PayoutStatusFailed {
		title = "Cash-out failed"
		body = "Your cash-out request could not be processed. Please try again."
	}

	n := notify.Notification{
		UserID: payout.ProfessionalID,
		Title:  title,
		Body:   body,
		Data: map[string]string{
			"payout_id": payout.ID,
			"status":    string(payout.Status),
			"amount":    payout.Amount.String(),
		},
		Priority: "high",
	}
	if err := s.dispatcher.Dispatch(ctx, n); err != nil {
		s.logger.Error("Failed to dispatch payout notification", "payout_id", payout.ID, "error", err)
	}
}

// Cancel transitions a pending payout to cancelled. A payout already in a
// terminal state is indistinguishable from an unknown one.
func (s *cashoutService) Cancel(ctx context.Context, payoutID string) error {
	return s.payoutRepo.CancelPayout(ctx, s.dbExecutor, payoutID)
}

// GetBalance returns the professional's balance, lazily creating a zero row on
// first read. An absent row is semantically a zero balance.
func (s *cashoutService) GetBalance(ctx context.Context, professionalID string) (*domain.Balance, error) {
	balance, err := s.balanceRepo.GetBalance(ctx, s.dbExecutor, professionalID)
	if err != nil {
		if util.IsError(err, util.ErrNotFound) {
			balance = domain.NewBalance(professionalID)
			if err := s.balanceRepo.CreateBalance(ctx, s.dbExecutor, balance); err != nil {
				return nil, fmt.Errorf("get balance: failed to create initial balance: %w", err)
			}
			return balance, nil
		}
		return nil, fmt.Errorf("get balance: failed to get balance for professional %s: %w", professionalID, err)
	}
	return balance, nil
}

// GetPayout returns a single payout by ID.
func (s *cashoutService) GetPayout(ctx context.Context, payoutID string) (*domain.Payout, error) {
	payout, err := s.payoutRepo.GetPayoutByID(ctx, s.dbExecutor, payoutID)
	if err != nil {
		return nil, fmt.Errorf("get payout: failed to get payout %s: %w", payoutID, err)
	}
	return payout, nil
}

// GetPayoutHistory returns the professional's payouts, newest first.
func (s *cashoutService) GetPayoutHistory(ctx context.Context, professionalID string) ([]domain.Payout, error) {
	payouts, err := s.payoutRepo.GetPayoutsByProfessionalID(ctx, s.dbExecutor, professionalID)
	if err != nil {
		return nil, fmt.Errorf("get payout history: failed to fetch payouts for professional %s: %w", professionalID, err)
	}
	return payouts, nil
}

// GetStats returns the balance combined with payout counts by status. An
// unknown professional gets all-zero stats rather than an error.
func (s *cashoutService) GetStats(ctx context.Context, professionalID string) (*domain.CashoutStats, error) {
	balance, err := s.balanceRepo.GetBalance(ctx, s.dbExecutor, professionalID)
	if err != nil {
		if util.IsError(err, util.ErrNotFound) {
			return &domain.CashoutStats{
				AvailableBalance: decimal.Zero,
				TotalEarned:      decimal.Zero,
				TotalPaidOut:     decimal.Zero,
			}, nil
		}
		return nil, fmt.Errorf("get stats: failed to get balance for professional %s: %w", professionalID, err)
	}

	counts, err := s.payoutRepo.CountPayoutsByStatus(ctx, s.dbExecutor, professionalID)
	if err != nil {
		return nil, fmt.Errorf("get stats: failed to count payouts for professional %s: %w", professionalID, err)
	}

	return &domain.CashoutStats{
		AvailableBalance: balance.AvailableBalance,
		TotalEarned:      balance.TotalEarned,
		TotalPaidOut:     balance.TotalPaidOut,
		PendingPayouts:   counts[domain.PayoutStatusPending],
		CompletedPayouts: counts[domain.PayoutStatusSuccess],
		FailedPayouts:    counts[domain.PayoutStatusFailed],
	}, nil
}
