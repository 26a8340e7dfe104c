// internal/api/handler/cashout_test.go
package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"propay-cashout/internal/api"
	"propay-cashout/internal/api/handler"
	"propay-cashout/internal/domain"
	"propay-cashout/internal/service"
	"propay-cashout/internal/util"
)

// MockCashoutService is a mock implementation of service.CashoutService.
type MockCashoutService struct {
	mock.Mock
}

func (m *MockCashoutService) GetBalance(ctx context.Context, professionalID string) (*domain.Balance, error) {
	args := m.Called(ctx, professionalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Balance), args.Error(1)
}

func (m *MockCashoutService) GetPayout(ctx context.Context, payoutID string) (*domain.Payout, error) {
	args := m.Called(ctx, payoutID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payout), args.Error(1)
}

func (m *MockCashoutService) GetPayoutHistory(ctx context.Context, professionalID string) ([]domain.Payout, error) {
	args := m.Called(ctx, professionalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Payout), args.Error(1)
}

func (m *MockCashoutService) GetStats(ctx context.Context, professionalID string) (*domain.CashoutStats, error) {
	args := m.Called(ctx, professionalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CashoutStats), args.Error(1)
}

func (m *MockCashoutService) Validate(ctx context.Context, professionalID string, amount decimal.Decimal) (*service.ValidationResult, error) {
	args := m.Called(ctx, professionalID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ValidationResult), args.Error(1)
}

func (m *MockCashoutService) Submit(ctx context.Context, professionalID string, amount decimal.Decimal, metadata types.JSONText) (*domain.Payout, error) {
	args := m.Called(ctx, professionalID, amount, metadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payout), args.Error(1)
}

func (m *MockCashoutService) Cancel(ctx context.Context, payoutID string) error {
	args := m.Called(ctx, payoutID)
	return args.Error(0)
}

// newTestServer wires the mocked service behind the real router so route
// patterns and middleware are exercised too.
func newTestServer(svc service.CashoutService) *httptest.Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := handler.NewCashoutHandler(svc, logger)
	return httptest.NewServer(api.NewRouter(h, logger))
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dest interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

func successPayout(professionalID string, amount decimal.Decimal) *domain.Payout {
	payout := domain.NewPayout(professionalID, amount, "JMD", nil)
	txnID := "TXN-42"
	completedAt := time.Now().UTC()
	payout.Status = domain.PayoutStatusSuccess
	payout.TransactionID = &txnID
	payout.ProcessorResponse = types.JSONText(`{"status":"success"}`)
	payout.CompletedAt = &completedAt
	return payout
}

func TestValidateCashoutEndpoint(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		svc := new(MockCashoutService)
		server := newTestServer(svc)
		defer server.Close()

		available := decimal.NewFromInt(100)
		svc.On("Validate", mock.Anything, "pro-123", mock.Anything).
			Return(&service.ValidationResult{IsValid: true, AvailableBalance: available}, nil).Once()

		resp := postJSON(t, server.URL+"/cashout/validate", map[string]interface{}{
			"professional_id": "pro-123",
			"amount":          50,
		})

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body struct {
			IsValid          bool             `json:"is_valid"`
			AvailableBalance *decimal.Decimal `json:"available_balance"`
		}
		decodeBody(t, resp, &body)
		assert.True(t, body.IsValid)
		require.NotNil(t, body.AvailableBalance)
		assert.True(t, body.AvailableBalance.Equal(available))
		svc.AssertExpectations(t)
	})

	t.Run("RuleFailureStillAnswers200", func(t *testing.T) {
		svc := new(MockCashoutService)
		server := newTestServer(svc)
		defer server.Close()

		svc.On("Validate", mock.Anything, "pro-123", mock.Anything).
			Return(&service.ValidationResult{
				IsValid: false,
				Reason:  util.ReasonInsufficientBalance,
				Message: "Insufficient balance. Available: $0.00",
			}, nil).Once()

		resp := postJSON(t, server.URL+"/cashout/validate", map[string]interface{}{
			"professional_id": "pro-123",
			"amount":          50,
		})

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body struct {
			IsValid bool   `json:"is_valid"`
			Error   string `json:"error"`
			Reason  string `json:"reason"`
		}
		decodeBody(t, resp, &body)
		assert.False(t, body.IsValid)
		assert.Equal(t, "insufficient_balance", body.Reason)
		assert.Contains(t, body.Error, "Insufficient balance")
		svc.AssertExpectations(t)
	})

	t.Run("MissingFields", func(t *testing.T) {
		svc := new(MockCashoutService)
		server := newTestServer(svc)
		defer server.Close()

		resp := postJSON(t, server.URL+"/cashout/validate", map[string]interface{}{
			"amount": 50,
		})

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
		svc.AssertNotCalled(t, "Validate", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("MalformedJSON", func(t *testing.T) {
		svc := new(MockCashoutService)
		server := newTestServer(svc)
		defer server.Close()

		resp, err := http.Post(server.URL+"/cashout/validate", "application/json", bytes.NewReader([]byte("{not json")))
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})
}

func TestCashoutEndpoint(t *testing.T) {
	amount := decimal.NewFromInt(50)

	t.Run("Success", func(t *testing.T) {
		svc := new(MockCashoutService)
		server := newTestServer(svc)
		defer server.Close()

		payout := successPayout("pro-123", amount)
		svc.On("Submit", mock.Anything, "pro-123", mock.Anything, mock.Anything).Return(payout, nil).Once()

		resp := postJSON(t, server.URL+"/cashout", map[string]interface{}{
			"professional_id": "pro-123",
			"amount":          50,
			"metadata":        map[string]string{"source": "mobile"},
		})

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body struct {
			Success bool           `json:"success"`
			Message string         `json:"message"`
			Payout  *domain.Payout `json:"payout"`
		}
		decodeBody(t, resp, &body)
		assert.True(t, body.Success)
		require.NotNil(t, body.Payout)
		assert.Equal(t, domain.PayoutStatusSuccess, body.Payout.Status)
		assert.Equal(t, payout.ID, body.Payout.ID)
		svc.AssertExpectations(t)
	})

	t.Run("ProcessorFailureAnswers200", func(t *testing.T) {
		svc := new(MockCashoutService)
		server := newTestServer(svc)
		defer server.Close()

		payout := domain.NewPayout("pro-123", amount, "JMD", nil)
		errMsg := "Payment processor error: card network unavailable"
		completedAt := time.Now().UTC()
		payout.Status = domain.PayoutStatusFailed
		payout.ErrorMessage = &errMsg
		payout.CompletedAt = &completedAt
		svc.On("Submit", mock.Anything, "pro-123", mock.Anything, mock.Anything).Return(payout, nil).Once()

		resp := postJSON(t, server.URL+"/cashout", map[string]interface{}{
			"professional_id": "pro-123",
			"amount":          50,
		})

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body struct {
			Success bool           `json:"success"`
			Error   string         `json:"error"`
			Payout  *domain.Payout `json:"payout"`
		}
		decodeBody(t, resp, &body)
		assert.False(t, body.Success)
		assert.Contains(t, body.Error, "card network unavailable")
		require.NotNil(t, body.Payout)
		assert.Equal(t, domain.PayoutStatusFailed, body.Payout.Status)
		svc.AssertExpectations(t)
	})

	t.Run("RuleFailureAnswers400", func(t *testing.T) {
		svc := new(MockCashoutService)
		server := newTestServer(svc)
		defer server.Close()

		svc.On("Submit", mock.Anything, "pro-123", mock.Anything, mock.Anything).
			Return(nil, &util.ValidationError{
				Reason:  util.ReasonPayoutAlreadyPending,
				Message: "You have a pending cash-out request. Please wait for it to be processed.",
			}).Once()

		resp := postJSON(t, server.URL+"/cashout", map[string]interface{}{
			"professional_id": "pro-123",
			"amount":          50,
		})

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var body struct {
			Error string `json:"error"`
		}
		decodeBody(t, resp, &body)
		assert.Contains(t, body.Error, "pending cash-out request")
		svc.AssertExpectations(t)
	})

	t.Run("UnknownAccountAnswers404", func(t *testing.T) {
		svc := new(MockCashoutService)
		server := newTestServer(svc)
		defer server.Close()

		svc.On("Submit", mock.Anything, "ghost", mock.Anything, mock.Anything).
			Return(nil, &util.ValidationError{
				Reason:  util.ReasonAccountNotFound,
				Message: "Professional not found",
			}).Once()

		resp := postJSON(t, server.URL+"/cashout", map[string]interface{}{
			"professional_id": "ghost",
			"amount":          50,
		})

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		resp.Body.Close()
		svc.AssertExpectations(t)
	})

	t.Run("InternalErrorAnswers500", func(t *testing.T) {
		svc := new(MockCashoutService)
		server := newTestServer(svc)
		defer server.Close()

		svc.On("Submit", mock.Anything, "pro-123", mock.Anything, mock.Anything).
			Return(nil, fmt.Errorf("submit cashout: failed to begin transaction: connection refused")).Once()

		resp := postJSON(t, server.URL+"/cashout", map[string]interface{}{
			"professional_id": "pro-123",
			"amount":          50,
		})

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		var body struct {
			Error string `json:"error"`
		}
		decodeBody(t, resp, &body)
		// Internal details are logged, never surfaced.
		assert.Equal(t, "Internal server error", body.Error)
		svc.AssertExpectations(t)
	})
}

func TestBalanceEndpoint(t *testing.T) {
	svc := new(MockCashoutService)
	server := newTestServer(svc)
	defer server.Close()

	balance := domain.NewBalance("pro-123")
	balance.AvailableBalance = decimal.NewFromInt(150)
	svc.On("GetBalance", mock.Anything, "pro-123").Return(balance, nil).Once()

	resp, err := http.Get(server.URL + "/balance/pro-123")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		ProfessionalID   string          `json:"professional_id"`
		AvailableBalance decimal.Decimal `json:"available_balance"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, "pro-123", body.ProfessionalID)
	assert.True(t, body.AvailableBalance.Equal(decimal.NewFromInt(150)))
	svc.AssertExpectations(t)
}

func TestPayoutEndpoints(t *testing.T) {
	t.Run("History", func(t *testing.T) {
		svc := new(MockCashoutService)
		server := newTestServer(svc)
		defer server.Close()

		payouts := []domain.Payout{*successPayout("pro-123", decimal.NewFromInt(50))}
		svc.On("GetPayoutHistory", mock.Anything, "pro-123").Return(payouts, nil).Once()

		resp, err := http.Get(server.URL + "/payouts/pro-123")
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body struct {
			Payouts []domain.Payout `json:"payouts"`
		}
		decodeBody(t, resp, &body)
		require.Len(t, body.Payouts, 1)
		assert.Equal(t, payouts[0].ID, body.Payouts[0].ID)
		svc.AssertExpectations(t)
	})

	t.Run("ByID", func(t *testing.T) {
		svc := new(MockCashoutService)
		server := newTestServer(svc)
		defer server.Close()

		payout := successPayout("pro-123", decimal.NewFromInt(50))
		svc.On("GetPayout", mock.Anything, payout.ID).Return(payout, nil).Once()

		resp, err := http.Get(server.URL + "/payouts/byId/" + payout.ID)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body domain.Payout
		decodeBody(t, resp, &body)
		assert.Equal(t, payout.ID, body.ID)
		svc.AssertExpectations(t)
	})

	t.Run("ByIDNotFound", func(t *testing.T) {
		svc := new(MockCashoutService)
		server := newTestServer(svc)
		defer server.Close()

		svc.On("GetPayout", mock.Anything, "missing").
			Return(nil, fmt.Errorf("get payout: failed to get payout missing: %w", util.ErrNotFound)).Once()

		resp, err := http.Get(server.URL + "/payouts/byId/missing")
		require.NoError(t, err)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		resp.Body.Close()
		svc.AssertExpectations(t)
	})

	t.Run("CancelPending", func(t *testing.T) {
		svc := new(MockCashoutService)
		server := newTestServer(svc)
		defer server.Close()

		svc.On("Cancel", mock.Anything, "payout-1").Return(nil).Once()

		req, err := http.NewRequest(http.MethodDelete, server.URL+"/payouts/payout-1", nil)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body struct {
			Message string `json:"message"`
		}
		decodeBody(t, resp, &body)
		assert.Equal(t, "Payout cancelled successfully", body.Message)
		svc.AssertExpectations(t)
	})

	t.Run("CancelTerminal", func(t *testing.T) {
		svc := new(MockCashoutService)
		server := newTestServer(svc)
		defer server.Close()

		svc.On("Cancel", mock.Anything, "payout-1").Return(util.ErrPayoutNotCancellable).Once()

		req, err := http.NewRequest(http.MethodDelete, server.URL+"/payouts/payout-1", nil)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var body struct {
			Error string `json:"error"`
		}
		decodeBody(t, resp, &body)
		assert.Equal(t, "Payout not found or cannot be cancelled", body.Error)
		svc.AssertExpectations(t)
	})
}

func TestStatsEndpoint(t *testing.T) {
	svc := new(MockCashoutService)
	server := newTestServer(svc)
	defer server.Close()

	svc.On("GetStats", mock.Anything, "pro-123").Return(&domain.CashoutStats{
		AvailableBalance: decimal.NewFromInt(75),
		TotalEarned:      decimal.NewFromInt(500),
		TotalPaidOut:     decimal.NewFromInt(425),
		PendingPayouts:   0,
		CompletedPayouts: 4,
		FailedPayouts:    1,
	}, nil).Once()

	resp, err := http.Get(server.URL + "/cashout-stats/pro-123")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		AvailableBalance decimal.Decimal `json:"available_balance"`
		CompletedPayouts int             `json:"completed_payouts"`
		FailedPayouts    int             `json:"failed_payouts"`
	}
	decodeBody(t, resp, &body)
	assert.True(t, body.AvailableBalance.Equal(decimal.NewFromInt(75)))
	assert.Equal(t, 4, body.CompletedPayouts)
	assert.Equal(t, 1, body.FailedPayouts)
	svc.AssertExpectations(t)
}
