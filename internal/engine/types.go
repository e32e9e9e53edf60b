package engine

import (
	"errors"

	"spotex/internal/ledger"
)

// Ledger failures surface unchanged through the engine so callers only need
// to match against this package.
var (
	ErrUserNotFound      = ledger.ErrUserNotFound
	ErrUserExists        = ledger.ErrUserExists
	ErrInsufficientFunds = ledger.ErrInsufficientFunds
	ErrInsufficientAsset = ledger.ErrInsufficientAsset
)

var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrNotOwner             = errors.New("order not owned by user")
	ErrInsufficientQuantity = errors.New("insufficient order quantity")
	ErrInsufficientData     = errors.New("insufficient data")
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrDuplicateOrder       = errors.New("duplicate order id")
)
