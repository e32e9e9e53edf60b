package engine

import (
	"time"

	"spotex/internal/common"

	"github.com/shopspring/decimal"
)

// OrderStatus tracks an order through its life:
// Pending -> Resting -> PartiallyFilled -> Filled | Cancelled.
type OrderStatus int

const (
	Pending OrderStatus = iota
	Resting
	PartiallyFilled
	Filled
	Cancelled
)

func (s OrderStatus) String() string {
	switch s {
	case Pending:
		return "pending"
	case Resting:
		return "resting"
	case PartiallyFilled:
		return "partially_filled"
	case Filled:
		return "filled"
	case Cancelled:
		return "cancelled"
	}
	return "unknown"
}

// FillReport is the outcome of a submission.
type FillReport struct {
	OrderID   uint64 // Id of the resting remainder, zero if nothing rested
	Replaced  uint64 // Id of the order a modify took off the book
	Owner     string
	Side      common.Side
	Type      common.OrderType
	Status    OrderStatus
	Requested decimal.Decimal
	Filled    decimal.Decimal
	Resting   decimal.Decimal // Limit remainder placed on the book
	Unfilled  decimal.Decimal // Market remainder discarded for lack of liquidity
	Trades    []common.Trade
}

// CancelSelector picks the order a cancel applies to: an exact order id, or
// the first order of the user at a price together with the quantity to take
// off it.
type CancelSelector struct {
	OrderID  uint64
	ByID     bool
	Price    decimal.Decimal
	Quantity decimal.Decimal
}

func ByOrderID(id uint64) CancelSelector {
	return CancelSelector{OrderID: id, ByID: true}
}

func ByPriceQuantity(price, quantity decimal.Decimal) CancelSelector {
	return CancelSelector{Price: price, Quantity: quantity}
}

type CancelReport struct {
	OrderID   uint64
	Side      common.Side
	Status    OrderStatus // Cancelled when removed, Resting after a partial cancel
	Cancelled decimal.Decimal
	Remaining decimal.Decimal
}

// OrderState is the tracked life of an order that reached the book. It stays
// queryable after the order is filled or cancelled.
type OrderState struct {
	ID        uint64
	Owner     string
	Side      common.Side
	Type      common.OrderType
	Price     decimal.Decimal
	Quantity  decimal.Decimal // Requested at submission
	Filled    decimal.Decimal
	Cancelled decimal.Decimal
	Remaining decimal.Decimal // Still resting
	Status    OrderStatus
	Created   time.Time
	Updated   time.Time
}

// Open reports whether the order still rests on the book.
func (state OrderState) Open() bool {
	return state.Status == Resting || state.Status == PartiallyFilled
}
