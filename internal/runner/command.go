package runner

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"spotex/internal/common"
	"spotex/internal/engine"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptyLine      = errors.New("empty line")
	ErrUnknownCommand = errors.New("unknown command")
	ErrBadArguments   = errors.New("bad arguments")
)

type Kind int

const (
	Invalid Kind = iota
	CreateUser
	Deposit
	Limit
	Market
	Cancel
	Balance
	Depth
	Spread
	Quote
	Trades
	Modify
	Status
)

var kindNames = map[Kind]string{
	Invalid:    "invalid",
	CreateUser: "user",
	Deposit:    "deposit",
	Limit:      "limit",
	Market:     "market",
	Cancel:     "cancel",
	Balance:    "balance",
	Depth:      "depth",
	Spread:     "spread",
	Quote:      "quote",
	Trades:     "trades",
	Modify:     "modify",
	Status:     "status",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Command is one engine operation. Invalid commands carry the parse error so
// they keep their place in the result stream.
type Command struct {
	Kind     Kind
	Line     int
	User     string
	Side     common.Side
	Currency common.Currency
	Price    decimal.Decimal
	Quantity decimal.Decimal
	Selector engine.CancelSelector
	OrderID  uint64
	Err      error
}

// ParseCommand reads one line of the script format:
//
//	user NAME
//	deposit NAME CURRENCY AMOUNT
//	limit NAME bid|ask PRICE QUANTITY
//	market NAME bid|ask QUANTITY
//	cancel NAME bid|ask id ORDER_ID
//	cancel NAME bid|ask PRICE QUANTITY
//	modify NAME ORDER_ID PRICE QUANTITY
//	status ORDER_ID
//	balance NAME
//	depth | spread | trades
//	quote QUANTITY
//
// Blank lines and lines starting with '#' yield ErrEmptyLine.
func ParseCommand(line string) (Command, error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return Command{}, ErrEmptyLine
	}

	fields := strings.Fields(line)
	name, args := strings.ToLower(fields[0]), fields[1:]

	var cmd Command
	var err error
	switch name {
	case "user":
		cmd.Kind = CreateUser
		err = expectArgs(args, 1)
		if err == nil {
			cmd.User = args[0]
		}
	case "deposit":
		cmd.Kind = Deposit
		if err = expectArgs(args, 3); err == nil {
			cmd.User = args[0]
			cmd.Currency = common.Currency(strings.ToUpper(args[1]))
			cmd.Quantity, err = parseDecimal("amount", args[2])
		}
	case "limit":
		cmd.Kind = Limit
		if err = expectArgs(args, 4); err == nil {
			cmd.User = args[0]
			if cmd.Side, err = parseSide(args[1]); err != nil {
				break
			}
			if cmd.Price, err = parseDecimal("price", args[2]); err != nil {
				break
			}
			cmd.Quantity, err = parseDecimal("quantity", args[3])
		}
	case "market":
		cmd.Kind = Market
		if err = expectArgs(args, 3); err == nil {
			cmd.User = args[0]
			if cmd.Side, err = parseSide(args[1]); err != nil {
				break
			}
			cmd.Quantity, err = parseDecimal("quantity", args[2])
		}
	case "cancel":
		cmd.Kind = Cancel
		if err = expectArgs(args, 4); err == nil {
			cmd.User = args[0]
			if cmd.Side, err = parseSide(args[1]); err != nil {
				break
			}
			cmd.Selector, err = parseSelector(args[2], args[3])
		}
	case "modify":
		cmd.Kind = Modify
		if err = expectArgs(args, 4); err == nil {
			cmd.User = args[0]
			if cmd.OrderID, err = parseOrderID(args[1]); err != nil {
				break
			}
			if cmd.Price, err = parseDecimal("price", args[2]); err != nil {
				break
			}
			cmd.Quantity, err = parseDecimal("quantity", args[3])
		}
	case "status":
		cmd.Kind = Status
		if err = expectArgs(args, 1); err == nil {
			cmd.OrderID, err = parseOrderID(args[0])
		}
	case "balance":
		cmd.Kind = Balance
		if err = expectArgs(args, 1); err == nil {
			cmd.User = args[0]
		}
	case "depth":
		cmd.Kind = Depth
		err = expectArgs(args, 0)
	case "spread":
		cmd.Kind = Spread
		err = expectArgs(args, 0)
	case "trades":
		cmd.Kind = Trades
		err = expectArgs(args, 0)
	case "quote":
		cmd.Kind = Quote
		if err = expectArgs(args, 1); err == nil {
			cmd.Quantity, err = parseDecimal("quantity", args[0])
		}
	default:
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}

	if err != nil {
		return Command{}, fmt.Errorf("%s: %w", name, err)
	}
	return cmd, nil
}

func expectArgs(args []string, n int) error {
	if len(args) != n {
		return fmt.Errorf("%w: want %d, got %d", ErrBadArguments, n, len(args))
	}
	return nil
}

func parseSide(s string) (common.Side, error) {
	switch strings.ToLower(s) {
	case "bid", "buy":
		return common.Bid, nil
	case "ask", "sell":
		return common.Ask, nil
	}
	return 0, fmt.Errorf("%w: side %q", ErrBadArguments, s)
}

func parseDecimal(what, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %s %q", ErrBadArguments, what, s)
	}
	return d, nil
}

func parseOrderID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: order id %q", ErrBadArguments, s)
	}
	return id, nil
}

func parseSelector(first, second string) (engine.CancelSelector, error) {
	if strings.ToLower(first) == "id" {
		id, err := parseOrderID(second)
		if err != nil {
			return engine.CancelSelector{}, err
		}
		return engine.ByOrderID(id), nil
	}

	price, err := parseDecimal("price", first)
	if err != nil {
		return engine.CancelSelector{}, err
	}
	quantity, err := parseDecimal("quantity", second)
	if err != nil {
		return engine.CancelSelector{}, err
	}
	return engine.ByPriceQuantity(price, quantity), nil
}
