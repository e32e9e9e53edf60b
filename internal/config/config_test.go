package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "USD", string(cfg.Market.QuoteCurrency))
	assert.Equal(t, "BTC", string(cfg.Market.Asset))
	assert.True(t, cfg.Market.SeedMarketMakers)
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("EXCHANGE_QUOTE_CURRENCY", "EUR")
	t.Setenv("EXCHANGE_ASSET", "ETH")
	t.Setenv("EXCHANGE_SEED_MARKET_MAKERS", "false")
	t.Setenv("EXCHANGE_LOG_LEVEL", "debug")
	t.Setenv("EXCHANGE_COMMAND_BUFFER", "8")

	cfg, err := LoadFromEnv(filepath.Join(t.TempDir(), "missing.env"))
	// An explicit path must exist.
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("EXCHANGE_ASSET=SOL\n"), 0o644))

	cfg, err = LoadFromEnv(path)
	require.NoError(t, err)
	assert.Equal(t, "EUR", string(cfg.Market.QuoteCurrency))
	// The environment wins over the file.
	assert.Equal(t, "ETH", string(cfg.Market.Asset))
	assert.False(t, cfg.Market.SeedMarketMakers)
	assert.Equal(t, zerolog.DebugLevel, cfg.LogLevel)
	assert.Equal(t, 8, cfg.Runner.CommandBuffer)
}

func TestLoadFromEnv_Invalid(t *testing.T) {
	cases := map[string]string{
		"EXCHANGE_SEED_MARKET_MAKERS": "maybe",
		"EXCHANGE_LOG_LEVEL":          "loud",
		"EXCHANGE_COMMAND_BUFFER":     "-1",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			path := filepath.Join(t.TempDir(), "empty.env")
			require.NoError(t, os.WriteFile(path, nil, 0o644))

			_, err := LoadFromEnv(path)
			assert.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Market.Asset = cfg.Market.QuoteCurrency
	assert.Error(t, cfg.Validate())
}
