package engine

import (
	"fmt"

	"spotex/internal/common"

	"github.com/shopspring/decimal"
)

const (
	MarketMakerAsks = "MarketMaker1"
	MarketMakerBids = "MarketMaker2"
)

var (
	seedQuoteBalance = decimal.NewFromInt(10_000_000)
	seedAssetBalance = decimal.NewFromInt(100)
)

type seedLevel struct {
	price    string
	quantity string
}

var seedAsks = []seedLevel{
	{"85924.96", "0.00006"},
	{"85924.54", "0.00006"},
	{"85924.52", "0.00039"},
	{"85924.19", "0.30604"},
	{"85924.18", "0.00014"},
	{"85924.00", "0.09517"},
	{"85923.99", "0.00014"},
	{"85923.98", "0.00006"},
	{"85923.02", "0.0480"},
	{"85923.00", "0.0400"},
	{"85922.90", "0.0440"},
	{"85922.88", "0.0520"},
	{"85922.78", "0.0400"},
	{"85922.75", "0.07510"},
	{"85922.74", "0.00014"},
	{"85922.67", "0.00041"},
	{"85922.66", "1.77704"},
}

var seedBids = []seedLevel{
	{"85921.74", "3.80013"},
	{"85921.67", "0.00007"},
	{"85921.58", "0.01326"},
	{"85921.57", "4.01376"},
	{"85921.50", "0.49514"},
	{"85921.35", "0.00007"},
	{"85921.24", "0.00096"},
	{"85921.23", "0.01328"},
	{"85921.16", "0.00259"},
	{"85921.09", "0.00007"},
	{"85921.08", "0.34329"},
	{"85920.82", "0.00013"},
	{"85920.00", "0.09528"},
	{"85919.69", "0.07804"},
	{"85919.49", "0.19946"},
	{"85919.20", "0.04656"},
	{"85919.00", "0.33926"},
}

// SeedMarketMakers funds two market makers and rests their initial ladders:
// asks from MarketMaker1 and bids from MarketMaker2. The ladders do not cross,
// so nothing matches. Nothing changes when either maker already exists.
func (engine *Engine) SeedMarketMakers() error {
	asks, err := parseSeedLevels(seedAsks)
	if err != nil {
		return err
	}
	bids, err := parseSeedLevels(seedBids)
	if err != nil {
		return err
	}

	engine.mu.Lock()
	defer engine.mu.Unlock()

	makers := []string{MarketMakerAsks, MarketMakerBids}
	for _, maker := range makers {
		if engine.ledger.HasUser(maker) {
			return fmt.Errorf("%w: %s", ErrUserExists, maker)
		}
	}

	for _, maker := range makers {
		if err := engine.ledger.CreateUser(maker); err != nil {
			return err
		}
		if err := engine.ledger.Credit(maker, engine.ledger.Quote(), seedQuoteBalance); err != nil {
			return err
		}
		if err := engine.ledger.Credit(maker, engine.ledger.Asset(), seedAssetBalance); err != nil {
			return err
		}
	}

	if err := engine.seedSide(MarketMakerAsks, common.Ask, asks); err != nil {
		return err
	}
	if err := engine.seedSide(MarketMakerBids, common.Bid, bids); err != nil {
		return err
	}

	engine.logger.Info().
		Int("asks", engine.asks.Len()).
		Int("bids", engine.bids.Len()).
		Msg("market makers seeded")
	return nil
}

type parsedLevel struct {
	price    decimal.Decimal
	quantity decimal.Decimal
}

func parseSeedLevels(levels []seedLevel) ([]parsedLevel, error) {
	parsed := make([]parsedLevel, 0, len(levels))
	for _, level := range levels {
		price, err := decimal.NewFromString(level.price)
		if err != nil {
			return nil, fmt.Errorf("seed price %q: %w", level.price, err)
		}
		quantity, err := decimal.NewFromString(level.quantity)
		if err != nil {
			return nil, fmt.Errorf("seed quantity %q: %w", level.quantity, err)
		}
		parsed = append(parsed, parsedLevel{price: price, quantity: quantity})
	}
	return parsed, nil
}

func (engine *Engine) seedSide(owner string, side common.Side, levels []parsedLevel) error {
	for _, level := range levels {
		order, err := engine.rest(owner, side, level.price, level.quantity)
		if err != nil {
			return err
		}
		engine.track(order, common.LimitOrder, level.quantity, decimal.Zero)
	}
	return nil
}
