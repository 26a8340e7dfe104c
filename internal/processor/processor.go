// internal/processor/processor.go
package processor

import (
	"context"
	"log/slog"

	"github.com/jmoiron/sqlx/types"
	"github.com/shopspring/decimal"

	"propay-cashout/internal/config"
)

// ProcessRequest identifies one payout attempt to the payment processor.
type ProcessRequest struct {
	PayoutID       string          `json:"payout_id"`
	ProfessionalID string          `json:"professional_id"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
}

// ProcessResult is the processor's confirmation of a successful payout.
// Response is the raw processor payload, stored verbatim on the payout record.
type ProcessResult struct {
	TransactionID string
	Response      types.JSONText
}

// Processor is the external system that actually moves money.
// A failed call is terminal for the payout it was made for; it is never
// retried here, a new payout must be created instead.
type Processor interface {
	Process(ctx context.Context, req ProcessRequest) (*ProcessResult, error)
}

// NewProcessor selects the processor implementation from configuration.
// Without an API key the mock processor is used, for local development.
func NewProcessor(cfg config.ProcessorConfig, logger *slog.Logger) Processor {
	if cfg.APIKey == "" {
		logger.Warn("Payment processor API key not configured, using mock processor")
		return NewMockProcessor()
	}
	return NewHTTPProcessor(cfg, logger)
}
