// internal/api/handler/cashout.go
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	sqlxtypes "github.com/jmoiron/sqlx/types"
	"github.com/shopspring/decimal"

	"propay-cashout/internal/api/types"
	"propay-cashout/internal/domain"
	"propay-cashout/internal/service"
	"propay-cashout/internal/util" // For custom errors
)

// DefaultTimeout is the per-request timeout applied by the router. It must
// exceed the processor timeout, which a submit request waits on synchronously.
const DefaultTimeout = 60 * time.Second

// CashoutHandler handles HTTP requests for the cash-out ledger.
type CashoutHandler struct {
	service  service.CashoutService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewCashoutHandler creates a new CashoutHandler.
func NewCashoutHandler(svc service.CashoutService, logger *slog.Logger) *CashoutHandler {
	return &CashoutHandler{
		service:  svc,
		validate: validator.New(),
		logger:   logger,
	}
}

// Helper function to send JSON responses.
func (h *CashoutHandler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// Helper function to send error responses. Validation errors are mapped
// per-endpoint; everything else lands here.
func (h *CashoutHandler) respondWithError(w http.ResponseWriter, err error) {
	statusCode := http.StatusInternalServerError
	message := "Internal server error"

	switch {
	case util.IsError(err, util.ErrInvalidInput):
		statusCode = http.StatusBadRequest
		message = "Missing required fields"
	case util.IsError(err, util.ErrNotFound), util.IsError(err, util.ErrPayoutNotFound):
		statusCode = http.StatusNotFound
		message = "Resource not found"
	case util.IsError(err, util.ErrPayoutNotCancellable):
		statusCode = http.StatusNotFound
		message = "Payout not found or cannot be cancelled"
	default:
		h.logger.Error("Unhandled service error", "error", err)
	}

	h.respondWithJSON(w, statusCode, types.ErrorResponse{Error: message})
}

// CashoutRequest represents the request body for both validate and submit.
// A zero amount counts as missing, matching the original API.
type CashoutRequest struct {
	ProfessionalID string          `json:"professional_id" validate:"required"`
	Amount         decimal.Decimal `json:"amount" validate:"required"`
	Metadata       json.RawMessage `json:"metadata,omitempty"`
}

// decodeCashoutRequest parses and validates the shared request body.
func (h *CashoutHandler) decodeCashoutRequest(r *http.Request) (*CashoutRequest, error) {
	var req CashoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, util.ErrInvalidInput
	}
	if err := h.validate.Struct(&req); err != nil {
		return nil, util.ErrInvalidInput
	}
	return &req, nil
}

// ValidateCashout handles the dry-run validation request.
// POST /cashout/validate
// Business-rule failures answer HTTP 200 with is_valid:false; only malformed
// requests get a 400.
func (h *CashoutHandler) ValidateCashout(w http.ResponseWriter, r *http.Request) {
	req, err := h.decodeCashoutRequest(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	result, err := h.service.Validate(r.Context(), req.ProfessionalID, req.Amount)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	if !result.IsValid {
		h.respondWithJSON(w, http.StatusOK, types.ValidateResponse{
			IsValid: false,
			Error:   result.Message,
			Reason:  string(result.Reason),
		})
		return
	}

	available := result.AvailableBalance
	h.respondWithJSON(w, http.StatusOK, types.ValidateResponse{
		IsValid:          true,
		AvailableBalance: &available,
	})
}

// Cashout handles the payout submission request.
// POST /cashout
// Business-rule failures answer HTTP 400 here (404 for an unknown account),
// unlike the validate endpoint. A processor failure is a committed terminal
// state and answers HTTP 200 with success:false.
func (h *CashoutHandler) Cashout(w http.ResponseWriter, r *http.Request) {
	req, err := h.decodeCashoutRequest(r)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	payout, err := h.service.Submit(r.Context(), req.ProfessionalID, req.Amount, sqlxtypes.JSONText(req.Metadata))
	if err != nil {
		if verr, ok := util.AsValidationError(err); ok {
			statusCode := http.StatusBadRequest
			if verr.Reason == util.ReasonAccountNotFound {
				statusCode = http.StatusNotFound
			}
			h.respondWithJSON(w, statusCode, types.ErrorResponse{Error: verr.Message})
			return
		}
		h.respondWithError(w, err)
		return
	}

	if payout.Status == domain.PayoutStatusFailed {
		h.respondWithJSON(w, http.StatusOK, types.CashoutResponse{
			Success: false,
			Error:   derefString(payout.ErrorMessage),
			Payout:  payout,
		})
		return
	}

	h.respondWithJSON(w, http.StatusOK, types.CashoutResponse{
		Success: true,
		Message: "Cash-out processed successfully",
		Payout:  payout,
	})
}

// GetBalance handles the balance snapshot request.
// GET /balance/{professionalID}
func (h *CashoutHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	professionalID := chi.URLParam(r, "professionalID")
	if professionalID == "" {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	balance, err := h.service.GetBalance(r.Context(), professionalID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, balance)
}

// GetPayoutHistory handles the payout history request.
// GET /payouts/{professionalID}
func (h *CashoutHandler) GetPayoutHistory(w http.ResponseWriter, r *http.Request) {
	professionalID := chi.URLParam(r, "professionalID")
	if professionalID == "" {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	payouts, err := h.service.GetPayoutHistory(r.Context(), professionalID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, types.PayoutListResponse{Payouts: payouts})
}

// GetPayout handles the single payout request.
// GET /payouts/byId/{payoutID}
func (h *CashoutHandler) GetPayout(w http.ResponseWriter, r *http.Request) {
	payoutID := chi.URLParam(r, "payoutID")
	if payoutID == "" {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	payout, err := h.service.GetPayout(r.Context(), payoutID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, payout)
}

// GetStats handles the cash-out statistics request.
// GET /cashout-stats/{professionalID}
func (h *CashoutHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	professionalID := chi.URLParam(r, "professionalID")
	if professionalID == "" {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	stats, err := h.service.GetStats(r.Context(), professionalID)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, stats)
}

// CancelPayout handles the payout cancellation request.
// DELETE /payouts/{payoutID}
func (h *CashoutHandler) CancelPayout(w http.ResponseWriter, r *http.Request) {
	payoutID := chi.URLParam(r, "payoutID")
	if payoutID == "" {
		h.respondWithError(w, util.ErrInvalidInput)
		return
	}

	if err := h.service.Cancel(r.Context(), payoutID); err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, types.MessageResponse{Message: "Payout cancelled successfully"})
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
