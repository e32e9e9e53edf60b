package engine

import (
	"fmt"

	"spotex/internal/common"

	"github.com/shopspring/decimal"
)

type DepthEntry struct {
	OrderID  uint64
	Owner    string
	Price    decimal.Decimal
	Quantity decimal.Decimal
	Total    decimal.Decimal // Price * Quantity
}

// Depth is a snapshot of both sides. Both lists run from highest to lowest
// price, orders sharing a price in arrival order.
type Depth struct {
	Asks []DepthEntry
	Bids []DepthEntry
}

type Spread struct {
	BestBid decimal.Decimal
	BestAsk decimal.Decimal
	Spread  decimal.Decimal // BestAsk - BestBid
}

type QuoteLevel struct {
	Price    decimal.Decimal
	Quantity decimal.Decimal
}

func (engine *Engine) Depth() Depth {
	engine.mu.Lock()
	defer engine.mu.Unlock()

	depth := Depth{
		Asks: make([]DepthEntry, 0, engine.asks.Len()),
		Bids: make([]DepthEntry, 0, engine.bids.Len()),
	}
	collect := func(into *[]DepthEntry) func(level *PriceLevel) bool {
		return func(level *PriceLevel) bool {
			for _, order := range level.orders {
				*into = append(*into, DepthEntry{
					OrderID:  order.ID,
					Owner:    order.Owner,
					Price:    order.Price,
					Quantity: order.Quantity,
					Total:    order.Price.Mul(order.Quantity),
				})
			}
			return true
		}
	}

	// Asks are kept least first, so walk them backwards.
	engine.asks.levels.Reverse(collect(&depth.Asks))
	engine.bids.levels.Scan(collect(&depth.Bids))
	return depth
}

// Spread reports the best bid, best ask and their difference.
func (engine *Engine) Spread() (Spread, error) {
	engine.mu.Lock()
	defer engine.mu.Unlock()

	bestBid, bidOk := engine.bids.PeekBest()
	bestAsk, askOk := engine.asks.PeekBest()
	if !bidOk || !askOk {
		return Spread{}, fmt.Errorf("%w: both sides need resting orders for a spread", ErrInsufficientData)
	}
	return Spread{
		BestBid: bestBid.Price,
		BestAsk: bestAsk.Price,
		Spread:  bestAsk.Price.Sub(bestBid.Price),
	}, nil
}

// Quote returns the ask levels a buyer of quantity would sweep, best first,
// with the amount taken at each. When the asks cannot cover quantity the
// schedule simply ends early.
func (engine *Engine) Quote(quantity decimal.Decimal) ([]QuoteLevel, error) {
	if !quantity.IsPositive() {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidArgument)
	}

	engine.mu.Lock()
	defer engine.mu.Unlock()

	remaining := quantity
	schedule := make([]QuoteLevel, 0)
	engine.asks.levels.Scan(func(level *PriceLevel) bool {
		take := decimal.Min(remaining, level.Volume())
		schedule = append(schedule, QuoteLevel{Price: level.price, Quantity: take})
		remaining = remaining.Sub(take)
		return remaining.IsPositive()
	})
	return schedule, nil
}

// FlatOrder is a comparable view of a resting order.
type FlatOrder struct {
	ID            uint64
	Owner         string
	Quantity      string
	TotalQuantity string
}

// FlatPriceLevel is a comparable view of a price level, used to assert on
// book state.
type FlatPriceLevel struct {
	PriceLevel string
	Orders     []FlatOrder
}

func FlattenLevels(levels []*PriceLevel) []FlatPriceLevel {
	flat := make([]FlatPriceLevel, 0, len(levels))
	for _, level := range levels {
		orders := make([]FlatOrder, 0, len(level.orders))
		for _, order := range level.orders {
			orders = append(orders, FlatOrder{
				ID:            order.ID,
				Owner:         order.Owner,
				Quantity:      order.Quantity.String(),
				TotalQuantity: order.TotalQuantity.String(),
			})
		}
		flat = append(flat, FlatPriceLevel{
			PriceLevel: level.price.String(),
			Orders:     orders,
		})
	}
	return flat
}

// Levels returns a flattened copy of one side in matching priority.
func (engine *Engine) Levels(side common.Side) []FlatPriceLevel {
	engine.mu.Lock()
	defer engine.mu.Unlock()

	return FlattenLevels(engine.book(side).Levels())
}
