package common

type Side int

const (
	Bid Side = iota
	Ask
)

func (s Side) String() string {
	switch s {
	case Bid:
		return "bid"
	case Ask:
		return "ask"
	}
	return "unknown"
}

// Opposite returns the side an order on s matches against.
func (s Side) Opposite() Side {
	if s == Bid {
		return Ask
	}
	return Bid
}

// Valid reports whether s is one of the two book sides.
func (s Side) Valid() bool {
	return s == Bid || s == Ask
}

type OrderType int

const (
	// Limit orders are an order to buy or sell at a specified price or
	// better. Any quantity not matched on arrival rests on the book.
	LimitOrder OrderType = iota
	// Market orders are instructions to buy or sell immediately against
	// whatever liquidity is resting, at any price. They never rest.
	MarketOrder
)

func (t OrderType) String() string {
	switch t {
	case LimitOrder:
		return "limit"
	case MarketOrder:
		return "market"
	}
	return "unknown"
}

// Currency is a balance symbol, e.g. the quote currency "USD" or the traded
// asset "BTC".
type Currency string
