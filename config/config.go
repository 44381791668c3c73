// Package config loads runtime configuration from the environment, with
// optional .env file support for local development.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config carries every runtime setting of the application.
type Config struct {
	// HTTP server
	Port string
	Host string

	// Ledger data
	LedgerFile string

	// Database
	SQLiteDBPath string

	// AMQP (optional; empty URL disables publishing)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Engine tuning
	ReconciliationThreshold decimal.Decimal
	RealizedFraction        decimal.Decimal
	ForecastLookbackDays    int
}

// Load reads configuration from the environment. A .env file in the working
// directory is merged in first when present; real environment variables win.
func Load() *Config {
	// Ignore a missing .env file; it is a development convenience.
	_ = godotenv.Load()

	return &Config{
		Port: getEnv("PORT", "8080"),
		Host: getEnv("HOST", "127.0.0.1"),

		LedgerFile:   getEnv("LEDGER_FILE", ""),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/finledger.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "finledger"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_events"),

		ReconciliationThreshold: getEnvDecimal("RECONCILIATION_THRESHOLD", decimal.RequireFromString("0.01")),
		RealizedFraction:        getEnvDecimal("REALIZED_FRACTION", decimal.NewFromInt(1)),
		ForecastLookbackDays:    getEnvInt("FORECAST_LOOKBACK_DAYS", 180),
	}
}

// Validate checks the configuration and returns a combined error listing
// every problem found.
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port %q: must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.SQLiteDBPath != "" {
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					problems = append(problems, fmt.Sprintf("cannot create database directory %q: %v", dir, err))
				}
			}
		}
	}

	if c.AMQPURL != "" {
		if parsed, err := url.Parse(c.AMQPURL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL %q: %v", c.AMQPURL, err))
		} else if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL scheme %q: must be amqp or amqps", parsed.Scheme))
		}
		if c.AMQPExchange == "" {
			problems = append(problems, "AMQP exchange name cannot be empty when an AMQP URL is set")
		}
		if c.AMQPQueue == "" {
			problems = append(problems, "AMQP queue name cannot be empty when an AMQP URL is set")
		}
	}

	if c.ReconciliationThreshold.IsNegative() {
		problems = append(problems, fmt.Sprintf("reconciliation threshold %s cannot be negative", c.ReconciliationThreshold))
	}
	if c.RealizedFraction.IsNegative() || c.RealizedFraction.GreaterThan(decimal.NewFromInt(1)) {
		problems = append(problems, fmt.Sprintf("realized fraction %s must be between 0 and 1", c.RealizedFraction))
	}
	if c.ForecastLookbackDays < 1 {
		problems = append(problems, fmt.Sprintf("forecast lookback of %d days must be at least 1", c.ForecastLookbackDays))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
	}
	return fallback
}
