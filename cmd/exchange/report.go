package main

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"spotex/internal/common"
	"spotex/internal/runner"
)

// resultLogger returns a handler writing one structured log line (or a few,
// for list results) per command. Balances list quote then asset.
func resultLogger(quote, asset common.Currency) runner.ResultHandler {
	return func(result runner.Result) {
		logResult(result, quote, asset)
	}
}

func logResult(result runner.Result, quote, asset common.Currency) {
	cmd := result.Command
	if result.Err != nil {
		log.Warn().
			Err(result.Err).
			Int("line", cmd.Line).
			Str("command", cmd.Kind.String()).
			Msg("command rejected")
		return
	}

	event := func() *zerolog.Event {
		return log.Info().Int("line", cmd.Line).Str("command", cmd.Kind.String())
	}
	switch {
	case result.Fill != nil:
		fill := result.Fill
		event().
			Str("owner", fill.Owner).
			Str("side", fill.Side.String()).
			Str("status", fill.Status.String()).
			Str("filled", fill.Filled.String()).
			Str("resting", fill.Resting.String()).
			Str("unfilled", fill.Unfilled.String()).
			Uint64("order", fill.OrderID).
			Uint64("replaced", fill.Replaced).
			Int("trades", len(fill.Trades)).
			Msg("order processed")
	case result.Cancel != nil:
		event().
			Uint64("order", result.Cancel.OrderID).
			Str("status", result.Cancel.Status.String()).
			Str("cancelled", result.Cancel.Cancelled.String()).
			Str("remaining", result.Cancel.Remaining.String()).
			Msg("order cancelled")
	case result.Balance != nil:
		event().
			Str("user", cmd.User).
			Str(string(quote), result.Balance.Get(quote).String()).
			Str(string(asset), result.Balance.Get(asset).String()).
			Msg("balance")
	case result.Order != nil:
		order := result.Order
		event().
			Uint64("order", order.ID).
			Str("owner", order.Owner).
			Str("side", order.Side.String()).
			Str("price", order.Price.String()).
			Str("quantity", order.Quantity.String()).
			Str("filled", order.Filled.String()).
			Str("cancelled", order.Cancelled.String()).
			Str("remaining", order.Remaining.String()).
			Str("status", order.Status.String()).
			Msg("order status")
	case result.Depth != nil:
		for _, ask := range result.Depth.Asks {
			log.Info().Str("side", "ask").Str("price", ask.Price.StringFixed(2)).
				Str("amount", ask.Quantity.String()).Str("total", ask.Total.StringFixed(2)).Msg("depth")
		}
		for _, bid := range result.Depth.Bids {
			log.Info().Str("side", "bid").Str("price", bid.Price.StringFixed(2)).
				Str("amount", bid.Quantity.String()).Str("total", bid.Total.StringFixed(2)).Msg("depth")
		}
	case result.Spread != nil:
		event().
			Str("best_bid", result.Spread.BestBid.String()).
			Str("best_ask", result.Spread.BestAsk.String()).
			Str("spread", result.Spread.Spread.String()).
			Msg("spread")
	case result.Quote != nil:
		for _, level := range result.Quote {
			log.Info().Str("price", level.Price.String()).Str("quantity", level.Quantity.String()).Msg("quote")
		}
	case result.Trades != nil:
		if len(result.Trades) == 0 {
			event().Msg("no trades have occurred yet")
		}
		for _, trade := range result.Trades {
			log.Info().
				Str("id", trade.ID.String()).
				Str("buyer", trade.Buyer).
				Str("seller", trade.Seller).
				Str("price", trade.Price.String()).
				Str("quantity", trade.Quantity.String()).
				Time("timestamp", trade.Timestamp).
				Msg("trade")
		}
	default:
		event().Str("user", cmd.User).Msg("ok")
	}
}
