// internal/processor/mock.go
package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// MockProcessor approves every payout without moving money. It stands in for
// the real processor when no API key is configured.
type MockProcessor struct{}

// NewMockProcessor creates a MockProcessor.
func NewMockProcessor() *MockProcessor {
	return &MockProcessor{}
}

// Process returns a synthetic successful confirmation.
func (p *MockProcessor) Process(ctx context.Context, req ProcessRequest) (*ProcessResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	transactionID := fmt.Sprintf("MOCK_%d", time.Now().UnixMilli())
	response, err := json.Marshal(map[string]interface{}{
		"status":         "success",
		"transaction_id": transactionID,
		"amount":         req.Amount,
		"currency":       req.Currency,
		"processed_at":   time.Now().UTC().Format(time.RFC3339),
		"processor":      "mock",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal mock response: %w", err)
	}

	return &ProcessResult{
		TransactionID: transactionID,
		Response:      types.JSONText(response),
	}, nil
}
