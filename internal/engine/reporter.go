package engine

import (
	"fmt"

	"spotex/internal/common"

	"github.com/shopspring/decimal"
)

// Reporter is notified of every settled trade and every change to a tracked
// order, in the order they happen. It is called with the engine locked and
// must not call back into the engine.
type Reporter interface {
	ReportTrade(trade common.Trade)
	ReportOrder(state OrderState)
}

type nopReporter struct{}

func (nopReporter) ReportTrade(common.Trade) {}
func (nopReporter) ReportOrder(OrderState)   {}

// WithReporter sets the receiver of trade and order events.
func WithReporter(reporter Reporter) Option {
	return func(engine *Engine) {
		engine.SetReporter(reporter)
	}
}

// SetReporter replaces the receiver of trade and order events. A nil reporter
// discards them.
func (engine *Engine) SetReporter(reporter Reporter) {
	if reporter == nil {
		reporter = nopReporter{}
	}

	engine.mu.Lock()
	defer engine.mu.Unlock()

	engine.reporter = reporter
}

// track starts following an order placed on the book. filled is what the
// submission matched before the remainder rested.
func (engine *Engine) track(order *common.Order, kind common.OrderType, requested, filled decimal.Decimal) {
	state := &OrderState{
		ID:        order.ID,
		Owner:     order.Owner,
		Side:      order.Side,
		Type:      kind,
		Price:     order.Price,
		Quantity:  requested,
		Filled:    filled,
		Cancelled: decimal.Zero,
		Remaining: order.Quantity,
		Status:    Resting,
		Created:   order.Timestamp,
		Updated:   order.Timestamp,
	}
	if filled.IsPositive() {
		state.Status = PartiallyFilled
	}
	engine.orders[order.ID] = state
	engine.reporter.ReportOrder(*state)
}

// fillTracked records quantity matched against a resting order.
func (engine *Engine) fillTracked(order *common.Order, quantity decimal.Decimal) {
	state, ok := engine.orders[order.ID]
	if !ok {
		return
	}
	state.Filled = state.Filled.Add(quantity)
	state.Remaining = order.Quantity
	state.Status = PartiallyFilled
	if !order.Quantity.IsPositive() {
		state.Status = Filled
	}
	state.Updated = engine.now()
	engine.reporter.ReportOrder(*state)
}

// cancelTracked records quantity taken off a resting order by its owner.
func (engine *Engine) cancelTracked(id uint64, quantity, remaining decimal.Decimal) {
	state, ok := engine.orders[id]
	if !ok {
		return
	}
	state.Cancelled = state.Cancelled.Add(quantity)
	state.Remaining = remaining
	if !remaining.IsPositive() {
		state.Status = Cancelled
	}
	state.Updated = engine.now()
	engine.reporter.ReportOrder(*state)
}

// Order returns the tracked state of an order that reached the book.
func (engine *Engine) Order(id uint64) (OrderState, error) {
	engine.mu.Lock()
	defer engine.mu.Unlock()

	state, ok := engine.orders[id]
	if !ok {
		return OrderState{}, fmt.Errorf("%w: %d", ErrOrderNotFound, id)
	}
	return *state, nil
}
