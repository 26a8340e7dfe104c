// internal/processor/http.go
package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx/types"

	"propay-cashout/internal/config"
)

// HTTPProcessor calls a payment processor over its HTTP API.
type HTTPProcessor struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *slog.Logger
}

// NewHTTPProcessor creates an HTTPProcessor from configuration.
func NewHTTPProcessor(cfg config.ProcessorConfig, logger *slog.Logger) *HTTPProcessor {
	return &HTTPProcessor{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{},
		logger:  logger,
	}
}

// httpProcessResponse is the subset of the processor response we act on.
// The full body is preserved verbatim in ProcessResult.Response.
type httpProcessResponse struct {
	TransactionID string `json:"transaction_id"`
}

// Process submits the payout to the processor. The caller bounds the call with
// a context deadline; this method does not retry.
func (p *HTTPProcessor) Process(ctx context.Context, procReq ProcessRequest) (*ProcessResult, error) {
	body, err := json.Marshal(procReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal process request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/payouts", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build processor request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("payment processor request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read processor response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		p.logger.Error("Payment processor rejected payout",
			"payout_id", procReq.PayoutID, "status", resp.StatusCode)
		return nil, fmt.Errorf("payment processor returned status %d: %s", resp.StatusCode, respBody)
	}

	var parsed httpProcessResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode processor response: %w", err)
	}
	if parsed.TransactionID == "" {
		return nil, fmt.Errorf("payment processor response missing transaction_id")
	}

	return &ProcessResult{
		TransactionID: parsed.TransactionID,
		Response:      types.JSONText(respBody),
	}, nil
}
