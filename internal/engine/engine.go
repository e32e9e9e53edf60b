package engine

import (
	"fmt"
	"sync"
	"time"

	"spotex/internal/common"
	"spotex/internal/ledger"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const (
	DefaultQuoteCurrency common.Currency = "USD"
	DefaultAsset         common.Currency = "BTC"
)

// This is the main matching engine. It exclusively owns both book sides and
// the ledger; every exported method runs under a single lock, so a match is
// never observable half way through.
type Engine struct {
	mu sync.Mutex

	bids   *BookSide
	asks   *BookSide
	ledger *ledger.Ledger

	nextOrderID uint64                 // Last order id handed out.
	orders      map[uint64]*OrderState // Every order that reached the book.
	reporter    Reporter
	now         func() time.Time
	logger      zerolog.Logger
}

type Option func(*Engine)

// WithLogger replaces the global logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(engine *Engine) {
		engine.logger = logger
	}
}

// WithClock sets the time source for order and trade timestamps.
func WithClock(now func() time.Time) Option {
	return func(engine *Engine) {
		engine.now = now
	}
}

// WithCurrencies sets the pair traded on the book.
func WithCurrencies(quote, asset common.Currency) Option {
	return func(engine *Engine) {
		engine.ledger = ledger.New(quote, asset)
	}
}

func New(opts ...Option) *Engine {
	engine := &Engine{
		bids:     NewBookSide(common.Bid),
		asks:     NewBookSide(common.Ask),
		ledger:   ledger.New(DefaultQuoteCurrency, DefaultAsset),
		orders:   make(map[uint64]*OrderState),
		reporter: nopReporter{},
		now:      time.Now,
		logger:   log.Logger,
	}
	for _, opt := range opts {
		opt(engine)
	}
	engine.ledger.SetClock(engine.now)
	return engine
}

func (engine *Engine) QuoteCurrency() common.Currency { return engine.ledger.Quote() }
func (engine *Engine) Asset() common.Currency         { return engine.ledger.Asset() }

func (engine *Engine) CreateUser(username string) (string, error) {
	if username == "" {
		return "", fmt.Errorf("%w: empty username", ErrInvalidArgument)
	}

	engine.mu.Lock()
	defer engine.mu.Unlock()

	if err := engine.ledger.CreateUser(username); err != nil {
		return "", err
	}
	engine.logger.Info().Str("user", username).Msg("user created")
	return username, nil
}

// Deposit credits a positive amount of one of the pair's currencies.
func (engine *Engine) Deposit(username string, currency common.Currency, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: deposit amount must be positive", ErrInvalidArgument)
	}

	engine.mu.Lock()
	defer engine.mu.Unlock()

	if currency != engine.ledger.Quote() && currency != engine.ledger.Asset() {
		return fmt.Errorf("%w: unsupported currency %q", ErrInvalidArgument, currency)
	}
	if err := engine.ledger.Credit(username, currency, amount); err != nil {
		return err
	}
	engine.logger.Info().
		Str("user", username).
		Str("currency", string(currency)).
		Str("amount", amount.String()).
		Msg("deposit")
	return nil
}

// Balance returns a copy of the user's holdings.
func (engine *Engine) Balance(username string) (ledger.Balance, error) {
	engine.mu.Lock()
	defer engine.mu.Unlock()

	return engine.ledger.Balance(username)
}

// SubmitLimit matches a limit order against the opposing side in price-time
// priority and rests whatever is left on its own side.
func (engine *Engine) SubmitLimit(
	username string,
	side common.Side,
	price, quantity decimal.Decimal,
) (FillReport, error) {
	if err := validateOrder(side, quantity); err != nil {
		return FillReport{}, err
	}
	if !price.IsPositive() {
		return FillReport{}, fmt.Errorf("%w: price must be positive", ErrInvalidArgument)
	}

	engine.mu.Lock()
	defer engine.mu.Unlock()

	if !engine.ledger.HasUser(username) {
		return FillReport{}, fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}
	return engine.submitLimit(username, side, price, quantity)
}

func (engine *Engine) submitLimit(
	username string,
	side common.Side,
	price, quantity decimal.Decimal,
) (FillReport, error) {
	report := FillReport{
		Owner:     username,
		Side:      side,
		Type:      common.LimitOrder,
		Requested: quantity,
		Resting:   decimal.Zero,
		Unfilled:  decimal.Zero,
	}
	report.Filled, report.Trades = engine.match(username, side, quantity, &price)

	remaining := quantity.Sub(report.Filled)
	switch {
	case !remaining.IsPositive():
		report.Status = Filled
	default:
		order, err := engine.rest(username, side, price, remaining)
		if err != nil {
			return report, err
		}
		engine.track(order, common.LimitOrder, quantity, report.Filled)
		report.OrderID = order.ID
		report.Resting = remaining
		report.Status = Resting
		if report.Filled.IsPositive() {
			report.Status = PartiallyFilled
		}
	}
	return report, nil
}

// SubmitMarket matches at any opposing price until filled or the opposing side
// runs dry. The remainder is reported as unfilled and never rests.
func (engine *Engine) SubmitMarket(username string, side common.Side, quantity decimal.Decimal) (FillReport, error) {
	if err := validateOrder(side, quantity); err != nil {
		return FillReport{}, err
	}

	engine.mu.Lock()
	defer engine.mu.Unlock()

	if !engine.ledger.HasUser(username) {
		return FillReport{}, fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}

	report := FillReport{
		Owner:     username,
		Side:      side,
		Type:      common.MarketOrder,
		Requested: quantity,
		Resting:   decimal.Zero,
	}
	report.Filled, report.Trades = engine.match(username, side, quantity, nil)
	report.Unfilled = quantity.Sub(report.Filled)

	if report.Unfilled.IsPositive() {
		// The unfilled remainder is dropped.
		report.Status = Cancelled
		engine.logger.Info().
			Str("owner", username).
			Str("side", side.String()).
			Str("unfilled", report.Unfilled.String()).
			Msg("insufficient liquidity for market order")
	} else {
		report.Status = Filled
	}
	return report, nil
}

// Modify replaces a resting order of the user with a new limit order on the
// same side at price for quantity. The old order is cancelled first, so the
// replacement gets a fresh id, loses time priority and may match on arrival.
func (engine *Engine) Modify(username string, id uint64, price, quantity decimal.Decimal) (FillReport, error) {
	if !price.IsPositive() {
		return FillReport{}, fmt.Errorf("%w: price must be positive", ErrInvalidArgument)
	}
	if !quantity.IsPositive() {
		return FillReport{}, fmt.Errorf("%w: quantity must be positive", ErrInvalidArgument)
	}

	engine.mu.Lock()
	defer engine.mu.Unlock()

	if !engine.ledger.HasUser(username) {
		return FillReport{}, fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}

	book := engine.bids
	if _, ok := book.Get(id); !ok {
		book = engine.asks
	}
	cancelled, err := engine.cancelByID(book, username, id)
	if err != nil {
		return FillReport{}, err
	}

	report, err := engine.submitLimit(username, cancelled.Side, price, quantity)
	report.Replaced = id
	if err == nil {
		engine.logger.Debug().
			Str("owner", username).
			Uint64("replaced", id).
			Uint64("order", report.OrderID).
			Msg("order modified")
	}
	return report, err
}

// Cancel removes or shrinks one of the user's resting orders on side. It never
// touches balances or the trade log.
func (engine *Engine) Cancel(username string, side common.Side, selector CancelSelector) (CancelReport, error) {
	if !side.Valid() {
		return CancelReport{}, fmt.Errorf("%w: unknown side %d", ErrInvalidArgument, side)
	}
	if !selector.ByID && (!selector.Price.IsPositive() || !selector.Quantity.IsPositive()) {
		return CancelReport{}, fmt.Errorf("%w: price and quantity must be positive", ErrInvalidArgument)
	}

	engine.mu.Lock()
	defer engine.mu.Unlock()

	if !engine.ledger.HasUser(username) {
		return CancelReport{}, fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}

	book := engine.book(side)
	if selector.ByID {
		return engine.cancelByID(book, username, selector.OrderID)
	}
	return engine.cancelAt(book, username, selector.Price, selector.Quantity)
}

func (engine *Engine) cancelByID(book *BookSide, username string, id uint64) (CancelReport, error) {
	order, ok := book.Get(id)
	if !ok {
		return CancelReport{}, fmt.Errorf("%w: %v order %d", ErrOrderNotFound, book.Side(), id)
	}
	if order.Owner != username {
		return CancelReport{}, fmt.Errorf("%w: order %d", ErrNotOwner, id)
	}

	if _, err := book.Remove(id); err != nil {
		return CancelReport{}, err
	}
	engine.cancelTracked(id, order.Quantity, decimal.Zero)
	engine.logger.Debug().
		Str("owner", username).
		Uint64("order", id).
		Msg("order cancelled")

	return CancelReport{
		OrderID:   id,
		Side:      book.Side(),
		Status:    Cancelled,
		Cancelled: order.Quantity,
		Remaining: decimal.Zero,
	}, nil
}

func (engine *Engine) cancelAt(book *BookSide, username string, price, quantity decimal.Decimal) (CancelReport, error) {
	order, ok := book.FirstOwnedAt(username, price)
	if !ok {
		return CancelReport{}, fmt.Errorf("%w: no %v order of %s at %s", ErrOrderNotFound, book.Side(), username, price)
	}

	// Reduce rejects over-cancels and removes the order on an exact match.
	if err := book.Reduce(order.ID, quantity); err != nil {
		return CancelReport{}, err
	}

	report := CancelReport{
		OrderID:   order.ID,
		Side:      book.Side(),
		Status:    Resting,
		Cancelled: quantity,
		Remaining: order.Quantity,
	}
	if _, ok := book.Get(order.ID); !ok {
		report.Status = Cancelled
		report.Remaining = decimal.Zero
	}
	engine.cancelTracked(order.ID, quantity, report.Remaining)
	engine.logger.Debug().
		Str("owner", username).
		Uint64("order", order.ID).
		Str("cancelled", quantity.String()).
		Str("status", report.Status.String()).
		Msg("order cancelled")
	return report, nil
}

// TradeHistory returns every settled trade in execution order.
func (engine *Engine) TradeHistory() []common.Trade {
	engine.mu.Lock()
	defer engine.mu.Unlock()

	return engine.ledger.Trades()
}

// match walks the side opposing an incoming order in priority order, settling
// fills at the resting price. A nil limit means a market order. A resting
// order whose settlement fails is skipped untouched; the walk ends early once
// the incoming owner holds nothing left to pay with. Returns the quantity
// filled and the trades made.
func (engine *Engine) match(
	owner string,
	side common.Side,
	quantity decimal.Decimal,
	limit *decimal.Decimal,
) (decimal.Decimal, []common.Trade) {
	opposing := engine.book(side.Opposite())
	remaining := quantity
	trades := make([]common.Trade, 0)
	var exhausted []uint64

	opposing.Walk(func(resting *common.Order) bool {
		if limit != nil && !marketable(side, *limit, resting.Price) {
			return false
		}

		matchQty := decimal.Min(remaining, resting.Quantity)
		buyer, seller := owner, resting.Owner
		var buyOrderID, sellOrderID uint64 = 0, resting.ID
		if side == common.Ask {
			buyer, seller = resting.Owner, owner
			buyOrderID, sellOrderID = resting.ID, 0
		}

		trade, err := engine.ledger.Transfer(buyer, seller, buyOrderID, sellOrderID, resting.Price, matchQty)
		if err != nil {
			engine.logger.Warn().
				Err(err).
				Str("owner", owner).
				Uint64("resting", resting.ID).
				Str("price", resting.Price.String()).
				Str("quantity", matchQty.String()).
				Msg("settlement failed, skipping resting order")
			return !engine.drained(owner, side)
		}

		opposing.consume(resting, matchQty)
		remaining = remaining.Sub(matchQty)
		trades = append(trades, trade)
		if resting.Quantity.IsZero() {
			exhausted = append(exhausted, resting.ID)
		}
		engine.reporter.ReportTrade(trade)
		engine.fillTracked(resting, matchQty)

		engine.logger.Debug().
			Str("buyer", buyer).
			Str("seller", seller).
			Str("price", trade.Price.String()).
			Str("quantity", trade.Quantity.String()).
			Msg("trade")

		return remaining.IsPositive()
	})

	opposing.prune(exhausted)
	return quantity.Sub(remaining), trades
}

// rest places a new order on its own side with a fresh id.
func (engine *Engine) rest(owner string, side common.Side, price, quantity decimal.Decimal) (*common.Order, error) {
	engine.nextOrderID++
	order := &common.Order{
		ID:            engine.nextOrderID,
		Owner:         owner,
		Side:          side,
		Price:         price,
		Quantity:      quantity,
		TotalQuantity: quantity,
		Timestamp:     engine.now(),
	}
	if err := engine.book(side).Insert(order); err != nil {
		return nil, err
	}

	engine.logger.Debug().
		Str("owner", owner).
		Uint64("order", order.ID).
		Str("side", side.String()).
		Str("price", price.String()).
		Str("quantity", quantity.String()).
		Msg("order resting")
	return order, nil
}

// drained reports whether owner holds none of what an order on side pays
// with: quote currency for a bid, the asset for an ask.
func (engine *Engine) drained(owner string, side common.Side) bool {
	balance, err := engine.ledger.Balance(owner)
	if err != nil {
		return true
	}
	currency := engine.ledger.Quote()
	if side == common.Ask {
		currency = engine.ledger.Asset()
	}
	return !balance.Get(currency).IsPositive()
}

func (engine *Engine) book(side common.Side) *BookSide {
	if side == common.Bid {
		return engine.bids
	}
	return engine.asks
}

// marketable reports whether an incoming order on side limited at price may
// trade against a resting order at resting.
func marketable(side common.Side, price, resting decimal.Decimal) bool {
	if side == common.Bid {
		return price.GreaterThanOrEqual(resting)
	}
	return price.LessThanOrEqual(resting)
}

func validateOrder(side common.Side, quantity decimal.Decimal) error {
	if !side.Valid() {
		return fmt.Errorf("%w: unknown side %d", ErrInvalidArgument, side)
	}
	if !quantity.IsPositive() {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidArgument)
	}
	return nil
}
