package ledger

import (
	"errors"
	"fmt"
	"time"

	"spotex/internal/common"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserExists        = errors.New("user already exists")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInsufficientAsset = errors.New("insufficient asset")
)

// Balance maps a currency symbol to the amount held. Missing symbols are zero.
type Balance map[common.Currency]decimal.Decimal

// Get returns the amount held in currency, zero when absent.
func (b Balance) Get(currency common.Currency) decimal.Decimal {
	return b[currency]
}

func (b Balance) clone() Balance {
	out := make(Balance, len(b))
	for currency, amount := range b {
		out[currency] = amount
	}
	return out
}

// Ledger holds every user's balances for one trading pair and the append-only
// log of settled trades. It is not safe for concurrent use; the engine owns it
// and serializes access.
type Ledger struct {
	quote common.Currency // Currency the asset is priced in
	asset common.Currency // Traded asset

	balances map[string]Balance
	trades   []common.Trade
	now      func() time.Time
}

func New(quote, asset common.Currency) *Ledger {
	return &Ledger{
		quote:    quote,
		asset:    asset,
		balances: make(map[string]Balance),
		trades:   make([]common.Trade, 0, 64),
		now:      time.Now,
	}
}

// SetClock replaces the source of trade timestamps.
func (l *Ledger) SetClock(now func() time.Time) {
	l.now = now
}

func (l *Ledger) Quote() common.Currency { return l.quote }
func (l *Ledger) Asset() common.Currency { return l.asset }

// CreateUser registers user with a zero balance in both currencies of the pair.
func (l *Ledger) CreateUser(user string) error {
	if _, ok := l.balances[user]; ok {
		return fmt.Errorf("%w: %s", ErrUserExists, user)
	}
	l.balances[user] = Balance{
		l.quote: decimal.Zero,
		l.asset: decimal.Zero,
	}
	return nil
}

func (l *Ledger) HasUser(user string) bool {
	_, ok := l.balances[user]
	return ok
}

// Credit adds amount to the user's balance in currency, creating the entry at
// zero if absent. Negative amounts debit; callers outside settlement only
// credit non-negative amounts.
func (l *Ledger) Credit(user string, currency common.Currency, amount decimal.Decimal) error {
	balance, ok := l.balances[user]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUserNotFound, user)
	}
	balance[currency] = balance[currency].Add(amount)
	return nil
}

// Balance returns a copy of the user's holdings.
func (l *Ledger) Balance(user string) (Balance, error) {
	balance, ok := l.balances[user]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, user)
	}
	return balance.clone(), nil
}

// CanSettle checks the preconditions of Transfer without mutating anything.
func (l *Ledger) CanSettle(buyer, seller string, price, quantity decimal.Decimal) error {
	buyerBalance, ok := l.balances[buyer]
	if !ok {
		return fmt.Errorf("%w: buyer %s", ErrUserNotFound, buyer)
	}
	sellerBalance, ok := l.balances[seller]
	if !ok {
		return fmt.Errorf("%w: seller %s", ErrUserNotFound, seller)
	}

	cost := price.Mul(quantity)
	if buyerBalance.Get(l.quote).LessThan(cost) {
		return fmt.Errorf("%w: %s needs %s %s", ErrInsufficientFunds, buyer, cost, l.quote)
	}
	if sellerBalance.Get(l.asset).LessThan(quantity) {
		return fmt.Errorf("%w: %s needs %s %s", ErrInsufficientAsset, seller, quantity, l.asset)
	}
	return nil
}

// Transfer settles quantity of the asset at price between buyer and seller and
// appends the resulting trade to the log. Either every balance moves and the
// trade is recorded, or nothing changes and an error is returned.
func (l *Ledger) Transfer(
	buyer, seller string,
	buyOrderID, sellOrderID uint64,
	price, quantity decimal.Decimal,
) (common.Trade, error) {
	if err := l.CanSettle(buyer, seller, price, quantity); err != nil {
		return common.Trade{}, err
	}

	cost := price.Mul(quantity)
	buyerBalance := l.balances[buyer]
	sellerBalance := l.balances[seller]

	// Buyer and seller may be the same user, so each leg reads the map fresh.
	buyerBalance[l.quote] = buyerBalance[l.quote].Sub(cost)
	buyerBalance[l.asset] = buyerBalance[l.asset].Add(quantity)
	sellerBalance[l.quote] = sellerBalance[l.quote].Add(cost)
	sellerBalance[l.asset] = sellerBalance[l.asset].Sub(quantity)

	trade := common.Trade{
		ID:          uuid.New(),
		Buyer:       buyer,
		Seller:      seller,
		BuyOrderID:  buyOrderID,
		SellOrderID: sellOrderID,
		Price:       price,
		Quantity:    quantity,
		Timestamp:   l.now(),
	}
	l.trades = append(l.trades, trade)
	return trade, nil
}

// Trades returns a copy of the trade log in execution order.
func (l *Ledger) Trades() []common.Trade {
	out := make([]common.Trade, len(l.trades))
	copy(out, l.trades)
	return out
}
