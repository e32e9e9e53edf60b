package main

import (
	"fmt"
	"io"
	"os"

	"spotex/internal/config"
	"spotex/internal/engine"
	"spotex/internal/runner"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "exchange",
		Short:         "Single pair limit order book and matching engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var (
		envPath    string
		scriptPath string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Replay a command script against a fresh book",
		Long: `Replay a command script against a fresh book, one command per line:

  user NAME
  deposit NAME CURRENCY AMOUNT
  limit NAME bid|ask PRICE QUANTITY
  market NAME bid|ask QUANTITY
  cancel NAME bid|ask id ORDER_ID
  cancel NAME bid|ask PRICE QUANTITY
  modify NAME ORDER_ID PRICE QUANTITY
  status ORDER_ID
  balance NAME
  quote QUANTITY
  depth | spread | trades`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadFromEnv(envPath)
			if err != nil {
				return err
			}
			setupLogging(cfg.LogLevel)

			in, closeIn, err := openScript(scriptPath)
			if err != nil {
				return err
			}
			defer closeIn()

			eng := engine.New(engine.WithCurrencies(cfg.Market.QuoteCurrency, cfg.Market.Asset))
			if cfg.Market.SeedMarketMakers {
				if err := eng.SeedMarketMakers(); err != nil {
					return fmt.Errorf("seed market makers: %w", err)
				}
			}

			log.Info().
				Str("quote", string(cfg.Market.QuoteCurrency)).
				Str("asset", string(cfg.Market.Asset)).
				Str("script", scriptPath).
				Msg("exchange running")

			return runner.New(eng, cfg.Runner.CommandBuffer).Replay(cmd.Context(), in, resultLogger(eng.QuoteCurrency(), eng.Asset()))
		},
	}

	cmd.Flags().StringVar(&envPath, "env", "", "Path to a .env file (defaults to ./.env when present)")
	cmd.Flags().StringVar(&scriptPath, "script", "-", "Command script to replay, '-' for stdin")
	return cmd
}

func setupLogging(level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

func openScript(path string) (io.Reader, func(), error) {
	if path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open script: %w", err)
	}
	return f, func() {
		if err := f.Close(); err != nil {
			log.Error().Err(err).Str("script", path).Msg("unable to close script")
		}
	}, nil
}
