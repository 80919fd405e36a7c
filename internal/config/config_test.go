package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, "storefront", cfg.Mongo.Database)
	assert.Equal(t, 5*time.Second, cfg.Mongo.ServerSelectionTimeout)
	assert.True(t, cfg.Pricing.TaxRate.Equal(decimal.RequireFromString("0.18")))
	assert.True(t, cfg.Pricing.FreeShippingThreshold.Equal(decimal.NewFromInt(1000)))
	assert.True(t, cfg.Pricing.ShippingFee.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, slog.LevelInfo, cfg.Log.Level)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("PRICING_TAX_RATE", "0.05")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("JWT_EXPIRATION", "2h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.True(t, cfg.Pricing.TaxRate.Equal(decimal.RequireFromString("0.05")))
	assert.Equal(t, slog.LevelDebug, cfg.Log.Level)
	assert.Equal(t, 2*time.Hour, cfg.JWT.Expiration)
}

func TestLoad_RejectsNegativePricing(t *testing.T) {
	t.Setenv("PRICING_SHIPPING_FEE", "-1")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_RejectsBadDecimal(t *testing.T) {
	t.Setenv("PRICING_TAX_RATE", "eighteen")

	_, err := Load()
	assert.Error(t, err)
}
