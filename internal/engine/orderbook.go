package engine

import (
	"fmt"

	"spotex/internal/common"

	"github.com/shopspring/decimal"
	"github.com/tidwall/btree"
)

type PriceLevel struct {
	price  decimal.Decimal
	orders []*common.Order // Sorted by arrival, as they are push-back'd
}

func (level *PriceLevel) Price() decimal.Decimal { return level.price }

// Volume is the total remaining quantity resting on the level.
func (level *PriceLevel) Volume() decimal.Decimal {
	volume := decimal.Zero
	for _, order := range level.orders {
		volume = volume.Add(order.Quantity)
	}
	return volume
}

type PriceLevels = btree.BTreeG[*PriceLevel]

// BookSide holds the resting orders of one side of the book. Levels are kept
// in matching priority (best price first) and each level is a FIFO queue, so
// iterating levels then orders yields price-time priority.
type BookSide struct {
	side   common.Side
	levels *PriceLevels
	index  map[uint64]*common.Order

	// Some book keeping
	seq    uint64          // Last sequence number handed out on this side.
	volume decimal.Decimal // Track the liquidity of this side.
}

func NewBookSide(side common.Side) *BookSide {
	var less func(a, b *PriceLevel) bool
	switch side {
	case common.Bid:
		// Sorted greatest first.
		less = func(a, b *PriceLevel) bool { return a.price.GreaterThan(b.price) }
	default:
		// Sorted least first.
		less = func(a, b *PriceLevel) bool { return a.price.LessThan(b.price) }
	}
	return &BookSide{
		side:   side,
		levels: btree.NewBTreeG(less),
		index:  make(map[uint64]*common.Order),
		volume: decimal.Zero,
	}
}

func (book *BookSide) Side() common.Side { return book.side }

// Insert appends order to the back of its price level and stamps it with the
// next sequence number of this side.
func (book *BookSide) Insert(order *common.Order) error {
	if order.Side != book.side {
		return fmt.Errorf("%w: %v order on %v side", ErrInvalidArgument, order.Side, book.side)
	}
	if !order.Quantity.IsPositive() {
		return fmt.Errorf("%w: resting quantity must be positive", ErrInvalidArgument)
	}
	if _, ok := book.index[order.ID]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicateOrder, order.ID)
	}

	book.seq++
	order.Sequence = book.seq

	// Levels comparator only accounts for price levels, so we create a dummy
	// price level for the search.
	level, ok := book.levels.GetMut(&PriceLevel{price: order.Price})
	if ok {
		level.orders = append(level.orders, order)
	} else {
		book.levels.Set(&PriceLevel{
			price:  order.Price,
			orders: []*common.Order{order},
		})
	}

	book.index[order.ID] = order
	book.volume = book.volume.Add(order.Quantity)
	return nil
}

// PeekBest returns the highest priority order without removing it.
func (book *BookSide) PeekBest() (*common.Order, bool) {
	level, ok := book.levels.Min()
	if !ok || len(level.orders) == 0 {
		return nil, false
	}
	return level.orders[0], true
}

func (book *BookSide) Get(id uint64) (*common.Order, bool) {
	order, ok := book.index[id]
	return order, ok
}

// Remove takes the order out of the book entirely, dropping its price level
// once empty.
func (book *BookSide) Remove(id uint64) (*common.Order, error) {
	order, ok := book.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrOrderNotFound, id)
	}

	level, ok := book.levels.GetMut(&PriceLevel{price: order.Price})
	if ok {
		for i, o := range level.orders {
			if o.ID == id {
				level.orders = append(level.orders[:i], level.orders[i+1:]...)
				break
			}
		}
		if len(level.orders) == 0 {
			book.levels.Delete(level)
		}
	}

	delete(book.index, id)
	book.volume = book.volume.Sub(order.Quantity)
	return order, nil
}

// Reduce shrinks the remaining quantity of a resting order by amount, keeping
// its time priority. An order reduced to zero is removed.
func (book *BookSide) Reduce(id uint64, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: reduce amount must be positive", ErrInvalidArgument)
	}
	order, ok := book.index[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrOrderNotFound, id)
	}
	if amount.GreaterThan(order.Quantity) {
		return fmt.Errorf("%w: order %d holds %s, asked %s", ErrInsufficientQuantity, id, order.Quantity, amount)
	}
	if amount.Equal(order.Quantity) {
		_, err := book.Remove(id)
		return err
	}

	order.Quantity = order.Quantity.Sub(amount)
	book.volume = book.volume.Sub(amount)
	return nil
}

func (book *BookSide) IsEmpty() bool { return len(book.index) == 0 }

// Len is the number of resting orders.
func (book *BookSide) Len() int { return len(book.index) }

// Volume is the total remaining quantity resting on this side.
func (book *BookSide) Volume() decimal.Decimal { return book.volume }

// Levels returns the price levels in matching priority.
func (book *BookSide) Levels() []*PriceLevel {
	return book.levels.Items()
}

// Walk visits resting orders in price-time priority until fn returns false.
// fn must not insert or remove orders; quantity changes go through consume.
func (book *BookSide) Walk(fn func(order *common.Order) bool) {
	book.levels.Scan(func(level *PriceLevel) bool {
		for _, order := range level.orders {
			if !fn(order) {
				return false
			}
		}
		return true
	})
}

// FirstOwnedAt returns the earliest order owned by owner resting at exactly
// price.
func (book *BookSide) FirstOwnedAt(owner string, price decimal.Decimal) (*common.Order, bool) {
	level, ok := book.levels.Get(&PriceLevel{price: price})
	if !ok {
		return nil, false
	}
	for _, order := range level.orders {
		if order.Owner == owner {
			return order, true
		}
	}
	return nil, false
}

// consume takes a matched quantity off a resting order during a walk. Orders
// left at zero must be pruned once the walk is over.
func (book *BookSide) consume(order *common.Order, quantity decimal.Decimal) {
	order.Quantity = order.Quantity.Sub(quantity)
	book.volume = book.volume.Sub(quantity)
}

// prune removes the given fully filled orders.
func (book *BookSide) prune(ids []uint64) {
	for _, id := range ids {
		// Filled orders carry zero quantity, so volume is already settled.
		_, _ = book.Remove(id)
	}
}
