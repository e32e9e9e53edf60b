package config

import (
	"fmt"
	"os"
	"strconv"

	"spotex/internal/common"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

type Market struct {
	QuoteCurrency    common.Currency
	Asset            common.Currency
	SeedMarketMakers bool
}

type Runner struct {
	// CommandBuffer is the number of parsed commands that may queue ahead of
	// the engine.
	CommandBuffer int
}

type Config struct {
	Market   Market
	Runner   Runner
	LogLevel zerolog.Level
}

func Default() Config {
	return Config{
		Market: Market{
			QuoteCurrency:    "USD",
			Asset:            "BTC",
			SeedMarketMakers: true,
		},
		Runner: Runner{
			CommandBuffer: 100,
		},
		LogLevel: zerolog.InfoLevel,
	}
}

// LoadFromEnv loads configuration from a .env file (if it exists) and the
// environment. Priority: ENV > .env file > defaults.
func LoadFromEnv(envPath string) (Config, error) {
	cfg := Default()

	// The .env file is optional.
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil {
			return cfg, fmt.Errorf("load %s: %w", envPath, err)
		}
	} else {
		_ = godotenv.Load()
	}

	if quote := os.Getenv("EXCHANGE_QUOTE_CURRENCY"); quote != "" {
		cfg.Market.QuoteCurrency = common.Currency(quote)
	}
	if asset := os.Getenv("EXCHANGE_ASSET"); asset != "" {
		cfg.Market.Asset = common.Currency(asset)
	}
	if seed := os.Getenv("EXCHANGE_SEED_MARKET_MAKERS"); seed != "" {
		v, err := strconv.ParseBool(seed)
		if err != nil {
			return cfg, fmt.Errorf("EXCHANGE_SEED_MARKET_MAKERS: %w", err)
		}
		cfg.Market.SeedMarketMakers = v
	}
	if level := os.Getenv("EXCHANGE_LOG_LEVEL"); level != "" {
		v, err := zerolog.ParseLevel(level)
		if err != nil {
			return cfg, fmt.Errorf("EXCHANGE_LOG_LEVEL: %w", err)
		}
		cfg.LogLevel = v
	}
	if buffer := os.Getenv("EXCHANGE_COMMAND_BUFFER"); buffer != "" {
		v, err := strconv.Atoi(buffer)
		if err != nil {
			return cfg, fmt.Errorf("EXCHANGE_COMMAND_BUFFER: %w", err)
		}
		cfg.Runner.CommandBuffer = v
	}

	return cfg, cfg.Validate()
}

func (cfg Config) Validate() error {
	if cfg.Market.QuoteCurrency == cfg.Market.Asset {
		return fmt.Errorf("quote currency and asset must differ, both %q", cfg.Market.Asset)
	}
	if cfg.Runner.CommandBuffer < 0 {
		return fmt.Errorf("command buffer must not be negative, got %d", cfg.Runner.CommandBuffer)
	}
	return nil
}
