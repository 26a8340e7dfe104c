// internal/config/config.go
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"propay-cashout/pkg/db" // Import db package for its Config struct
)

// CashoutConfig holds the business limits applied to cash-out requests.
type CashoutConfig struct {
	MinAmount decimal.Decimal
	MaxAmount decimal.Decimal
	Currency  string
}

// ProcessorConfig holds payment processor settings. An empty APIKey selects
// the mock processor, matching the original development behavior.
type ProcessorConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// NotifierConfig holds notification dispatcher settings. An empty URL disables
// dispatching entirely.
type NotifierConfig struct {
	URL     string
	Timeout time.Duration
}

// AppConfig holds all application-wide configurations.
type AppConfig struct {
	ServerPort string
	DB         db.Config
	Cashout    CashoutConfig
	Processor  ProcessorConfig
	Notifier   NotifierConfig
}

// LoadConfig loads configuration from environment variables, with an optional
// .env file for local development.
// It returns an AppConfig instance or an error if any variable is invalid.
func LoadConfig() (*AppConfig, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("Warning: .env file not found, reading from system environment variables")
	}

	dbPort, err := strconv.Atoi(getenv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	minAmount, err := decimal.NewFromString(getenv("CASHOUT_MIN_AMOUNT", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid CASHOUT_MIN_AMOUNT: %w", err)
	}
	maxAmount, err := decimal.NewFromString(getenv("CASHOUT_MAX_AMOUNT", "10000"))
	if err != nil {
		return nil, fmt.Errorf("invalid CASHOUT_MAX_AMOUNT: %w", err)
	}
	if maxAmount.LessThan(minAmount) {
		return nil, fmt.Errorf("CASHOUT_MAX_AMOUNT %s is below CASHOUT_MIN_AMOUNT %s", maxAmount, minAmount)
	}

	processorTimeout, err := time.ParseDuration(getenv("PAYMENT_PROCESSOR_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAYMENT_PROCESSOR_TIMEOUT: %w", err)
	}
	notifierTimeout, err := time.ParseDuration(getenv("NOTIFICATION_DISPATCHER_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid NOTIFICATION_DISPATCHER_TIMEOUT: %w", err)
	}

	return &AppConfig{
		ServerPort: getenv("SERVER_PORT", "8080"),
		DB: db.Config{
			Host:     getenv("DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getenv("DB_USER", "user"),
			Password: getenv("DB_PASSWORD", "password"),
			DBName:   getenv("DB_NAME", "cashoutdb"),
			SSLMode:  getenv("DB_SSLMODE", "disable"),
		},
		Cashout: CashoutConfig{
			MinAmount: minAmount,
			MaxAmount: maxAmount,
			Currency:  getenv("CASHOUT_CURRENCY", "JMD"),
		},
		Processor: ProcessorConfig{
			BaseURL: os.Getenv("PAYMENT_PROCESSOR_URL"),
			APIKey:  os.Getenv("PAYMENT_PROCESSOR_API_KEY"),
			Timeout: processorTimeout,
		},
		Notifier: NotifierConfig{
			URL:     os.Getenv("NOTIFICATION_DISPATCHER_URL"),
			Timeout: notifierTimeout,
		},
	}, nil
}

// getenv returns the value of the environment variable or a default.
func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
