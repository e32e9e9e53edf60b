package common

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Trade is a single settled fill between a buyer and a seller. The incoming
// side of a fill never rests, so its order id is zero.
type Trade struct {
	ID          uuid.UUID
	Buyer       string
	Seller      string
	BuyOrderID  uint64
	SellOrderID uint64
	Price       decimal.Decimal
	Quantity    decimal.Decimal
	Timestamp   time.Time
}

// Notional is price times quantity, the quote currency that changed hands.
func (t Trade) Notional() decimal.Decimal {
	return t.Price.Mul(t.Quantity)
}

func (t Trade) String() string {
	return fmt.Sprintf(
		`ID:        %s
Buyer:     %s (order %d)
Seller:    %s (order %d)
Price:     %s
Quantity:  %s
Timestamp: %v`,
		t.ID,
		t.Buyer,
		t.BuyOrderID,
		t.Seller,
		t.SellOrderID,
		t.Price,
		t.Quantity,
		t.Timestamp.Format(time.RFC3339),
	)
}
