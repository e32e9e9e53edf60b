package common

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID            uint64          // Engine assigned id, never reused
	Owner         string          // Who owns this order
	Side          Side            // Order side
	Price         decimal.Decimal // Limiting price
	Quantity      decimal.Decimal // Remaining quantity
	TotalQuantity decimal.Decimal // Quantity when the order came to rest
	Sequence      uint64          // Arrival sequence on its side, for time priority
	Timestamp     time.Time       // Time the order came to rest
}

func (order Order) String() string {
	return fmt.Sprintf(
		`ID:        %d
Owner:     %s
Side:      %v
Price:     %s
Quantity:  %s (Total: %s)
Sequence:  %d
Timestamp: %v`,
		order.ID,
		order.Owner,
		order.Side,
		order.Price,
		order.Quantity,
		order.TotalQuantity,
		order.Sequence,
		order.Timestamp.Format(time.RFC3339),
	)
}
