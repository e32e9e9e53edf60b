package engine

import (
	"testing"

	"spotex/internal/common"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var d = decimal.RequireFromString

func newTestOrder(id uint64, side common.Side, price, quantity string) *common.Order {
	return &common.Order{
		ID:            id,
		Owner:         "owner",
		Side:          side,
		Price:         d(price),
		Quantity:      d(quantity),
		TotalQuantity: d(quantity),
	}
}

func walkIDs(book *BookSide) []uint64 {
	var ids []uint64
	book.Walk(func(order *common.Order) bool {
		ids = append(ids, order.ID)
		return true
	})
	return ids
}

func TestBookSide_BidPriority(t *testing.T) {
	book := NewBookSide(common.Bid)

	require.NoError(t, book.Insert(newTestOrder(1, common.Bid, "99", "1")))
	require.NoError(t, book.Insert(newTestOrder(2, common.Bid, "101", "1")))
	require.NoError(t, book.Insert(newTestOrder(3, common.Bid, "99", "1")))
	require.NoError(t, book.Insert(newTestOrder(4, common.Bid, "100", "1")))

	// Highest price first, earliest arrival first within a price.
	assert.Equal(t, []uint64{2, 4, 1, 3}, walkIDs(book))

	best, ok := book.PeekBest()
	require.True(t, ok)
	assert.Equal(t, uint64(2), best.ID)
	assert.Equal(t, 3, len(book.Levels()))
}

func TestBookSide_AskPriority(t *testing.T) {
	book := NewBookSide(common.Ask)

	require.NoError(t, book.Insert(newTestOrder(1, common.Ask, "100", "1")))
	require.NoError(t, book.Insert(newTestOrder(2, common.Ask, "99", "1")))
	require.NoError(t, book.Insert(newTestOrder(3, common.Ask, "99.0", "1")))

	// 99 and 99.0 share a level.
	assert.Equal(t, []uint64{2, 3, 1}, walkIDs(book))
	assert.Equal(t, 2, len(book.Levels()))
}

func TestBookSide_InsertAssignsSequence(t *testing.T) {
	book := NewBookSide(common.Ask)
	first := newTestOrder(10, common.Ask, "100", "1")
	second := newTestOrder(11, common.Ask, "101", "1")

	require.NoError(t, book.Insert(first))
	require.NoError(t, book.Insert(second))

	assert.Equal(t, uint64(1), first.Sequence)
	assert.Equal(t, uint64(2), second.Sequence)
	assert.Equal(t, "2", book.Volume().String())
	assert.Equal(t, 2, book.Len())
}

func TestBookSide_InsertRejects(t *testing.T) {
	book := NewBookSide(common.Ask)
	require.NoError(t, book.Insert(newTestOrder(1, common.Ask, "100", "1")))

	assert.ErrorIs(t, book.Insert(newTestOrder(1, common.Ask, "101", "1")), ErrDuplicateOrder)
	assert.ErrorIs(t, book.Insert(newTestOrder(2, common.Ask, "101", "0")), ErrInvalidArgument)
	assert.ErrorIs(t, book.Insert(newTestOrder(3, common.Bid, "101", "1")), ErrInvalidArgument)
	assert.Equal(t, 1, book.Len())
}

func TestBookSide_Remove(t *testing.T) {
	book := NewBookSide(common.Ask)
	require.NoError(t, book.Insert(newTestOrder(1, common.Ask, "100", "1")))
	require.NoError(t, book.Insert(newTestOrder(2, common.Ask, "100", "2")))
	require.NoError(t, book.Insert(newTestOrder(3, common.Ask, "101", "3")))

	removed, err := book.Remove(1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), removed.ID)
	assert.Equal(t, []uint64{2, 3}, walkIDs(book))

	// Removing the last order of a level drops the level.
	_, err = book.Remove(2)
	require.NoError(t, err)
	assert.Equal(t, 1, len(book.Levels()))
	assert.Equal(t, "3", book.Volume().String())

	_, err = book.Remove(2)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestBookSide_Reduce(t *testing.T) {
	book := NewBookSide(common.Bid)
	require.NoError(t, book.Insert(newTestOrder(1, common.Bid, "100", "1")))
	require.NoError(t, book.Insert(newTestOrder(2, common.Bid, "100", "1")))

	require.NoError(t, book.Reduce(1, d("0.25")))
	order, ok := book.Get(1)
	require.True(t, ok)
	assert.Equal(t, "0.75", order.Quantity.String())
	// Time priority is kept.
	assert.Equal(t, []uint64{1, 2}, walkIDs(book))

	assert.ErrorIs(t, book.Reduce(1, d("0.8")), ErrInsufficientQuantity)
	assert.ErrorIs(t, book.Reduce(1, d("0")), ErrInvalidArgument)
	assert.ErrorIs(t, book.Reduce(9, d("0.1")), ErrOrderNotFound)

	require.NoError(t, book.Reduce(1, d("0.75")))
	_, ok = book.Get(1)
	assert.False(t, ok)
	assert.Equal(t, "1", book.Volume().String())
}

func TestBookSide_Empty(t *testing.T) {
	book := NewBookSide(common.Bid)
	assert.True(t, book.IsEmpty())

	_, ok := book.PeekBest()
	assert.False(t, ok)

	require.NoError(t, book.Insert(newTestOrder(1, common.Bid, "100", "1")))
	assert.False(t, book.IsEmpty())
}

func TestBookSide_FirstOwnedAt(t *testing.T) {
	book := NewBookSide(common.Ask)
	other := newTestOrder(1, common.Ask, "100", "1")
	other.Owner = "other"
	require.NoError(t, book.Insert(other))
	require.NoError(t, book.Insert(newTestOrder(2, common.Ask, "100", "1")))
	require.NoError(t, book.Insert(newTestOrder(3, common.Ask, "100", "1")))

	order, ok := book.FirstOwnedAt("owner", d("100"))
	require.True(t, ok)
	assert.Equal(t, uint64(2), order.ID)

	_, ok = book.FirstOwnedAt("owner", d("100.5"))
	assert.False(t, ok)
}
