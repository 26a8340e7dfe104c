// internal/app.go
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jmoiron/sqlx"

	router "propay-cashout/internal/api"
	"propay-cashout/internal/api/handler"
	"propay-cashout/internal/config"
	"propay-cashout/internal/notify"
	"propay-cashout/internal/processor"
	"propay-cashout/internal/repository"
	"propay-cashout/internal/repository/postgres"
	"propay-cashout/internal/service"
	"propay-cashout/internal/util"
	"propay-cashout/pkg/db"
)

// Application holds all the initialized components of the application.
// Everything is constructed here and passed down explicitly; there is no
// ambient global state.
type Application struct {
	Config *config.AppConfig
	Logger *slog.Logger
	DB     *sqlx.DB

	// Repositories
	BalanceRepository repository.BalanceRepository
	PayoutRepository  repository.PayoutRepository

	// Collaborators
	Processor  processor.Processor
	Dispatcher notify.Dispatcher

	// Services
	CashoutService service.CashoutService

	// HTTP API
	HTTPHandler http.Handler
}

// NewApplication creates a new Application instance.
func NewApplication() *Application {
	return &Application{}
}

// Initialize initializes all application components.
func (app *Application) Initialize(ctx context.Context) error {
	// 1. Initialize Logger
	util.InitLogger()
	app.Logger = util.GetLogger()

	// 2. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	app.Config = cfg
	app.Logger.Info("Application configuration loaded successfully.")

	// 3. Connect to Database
	database, err := db.NewPostgresDB(app.Config.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = database
	app.Logger.Info("Database connection established.")

	// 4. Initialize Repositories
	app.BalanceRepository = postgres.NewBalanceRepository(app.DB)
	app.PayoutRepository = postgres.NewPayoutRepository(app.DB)
	app.Logger.Info("Repositories initialized.")

	// 5. Initialize external collaborators
	app.Processor = processor.NewProcessor(app.Config.Processor, app.Logger)
	app.Dispatcher = notify.NewDispatcher(app.Config.Notifier, app.Logger)

	// 6. Initialize Services
	app.CashoutService = service.NewCashoutService(
		app.DB, // This is the DBTxBeginner
		app.DB, // This is the DBExecutor
		app.BalanceRepository,
		app.PayoutRepository,
		app.Processor,
		app.Dispatcher,
		app.Config.Cashout,
		app.Config.Processor.Timeout,
		app.Logger,
		db.BeginTx,
		db.CommitTx,
		db.RollbackTx,
	)
	app.Logger.Info("Services initialized.")

	// 7. Initialize HTTP Handlers and Router
	cashoutHandler := handler.NewCashoutHandler(app.CashoutService, app.Logger)
	app.HTTPHandler = router.NewRouter(cashoutHandler, app.Logger)
	app.Logger.Info("HTTP router and handlers initialized.")

	return nil
}

// Shutdown gracefully shuts down application resources.
func (app *Application) Shutdown(ctx context.Context) error {
	app.Logger.Info("Shutting down application...")
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			app.Logger.Error("Failed to close database connection", "error", err)
			return fmt.Errorf("failed to close database connection: %w", err)
		}
		app.Logger.Info("Database connection closed.")
	}
	app.Logger.Info("Application shut down gracefully.")
	return nil
}
