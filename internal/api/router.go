// internal/api/router.go
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"propay-cashout/internal/api/handler"
)

// NewRouter sets up and returns a new HTTP router.
func NewRouter(cashoutHandler *handler.CashoutHandler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middlewares
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(handler.DefaultTimeout))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Cash-out ledger API
	r.Get("/balance/{professionalID}", cashoutHandler.GetBalance)
	r.Get("/cashout-stats/{professionalID}", cashoutHandler.GetStats)
	r.Post("/cashout/validate", cashoutHandler.ValidateCashout)
	r.Post("/cashout", cashoutHandler.Cashout)

	r.Route("/payouts", func(r chi.Router) {
		r.Get("/byId/{payoutID}", cashoutHandler.GetPayout)
		r.Get("/{professionalID}", cashoutHandler.GetPayoutHistory)
		r.Delete("/{payoutID}", cashoutHandler.CancelPayout)
	})

	return r
}
