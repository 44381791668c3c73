package config

import (
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, "0.01", cfg.ReconciliationThreshold.String())
	assert.Equal(t, "1", cfg.RealizedFraction.String())
	assert.Equal(t, 180, cfg.ForecastLookbackDays)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("REALIZED_FRACTION", "0.8")
	t.Setenv("FORECAST_LOOKBACK_DAYS", "90")

	cfg := Load()
	assert.Equal(t, "9999", cfg.Port)
	assert.Equal(t, "0.8", cfg.RealizedFraction.String())
	assert.Equal(t, 90, cfg.ForecastLookbackDays)
}

func TestLoad_BadValuesFallBack(t *testing.T) {
	t.Setenv("FORECAST_LOOKBACK_DAYS", "soon")
	t.Setenv("REALIZED_FRACTION", "most of it")

	cfg := Load()
	assert.Equal(t, 180, cfg.ForecastLookbackDays)
	assert.Equal(t, "1", cfg.RealizedFraction.String())
}

func TestValidate(t *testing.T) {
	cfg := Load()
	cfg.SQLiteDBPath = ""
	assert.NoError(t, cfg.Validate())

	cfg.Port = "notaport"
	cfg.AMQPURL = "http://localhost:5672"
	cfg.RealizedFraction = decimal.RequireFromString("1.5")
	cfg.ForecastLookbackDays = 0

	err := cfg.Validate()
	assert.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "invalid port"))
	assert.True(t, strings.Contains(err.Error(), "AMQP URL scheme"))
	assert.True(t, strings.Contains(err.Error(), "realized fraction"))
	assert.True(t, strings.Contains(err.Error(), "lookback"))
}
