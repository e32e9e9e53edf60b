package runner

import (
	"bufio"
	"context"
	"errors"
	"io"

	"spotex/internal/common"
	"spotex/internal/engine"
	"spotex/internal/ledger"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

const DefaultCommandBuffer = 100

// Result pairs a command with what the engine answered. Only the field
// matching the command kind is set.
type Result struct {
	Command Command
	Fill    *engine.FillReport
	Cancel  *engine.CancelReport
	Balance ledger.Balance
	Depth   *engine.Depth
	Spread  *engine.Spread
	Quote   []engine.QuoteLevel
	Trades  []common.Trade
	Order   *engine.OrderState
	Err     error
}

type ResultHandler = func(Result)

// Runner feeds commands to the engine one at a time, in arrival order. The
// reader and the engine run on separate goroutines joined by a buffered
// channel, so parsing never interleaves with a match.
type Runner struct {
	engine *engine.Engine
	buffer int
}

func New(eng *engine.Engine, buffer int) *Runner {
	if buffer < 0 {
		buffer = DefaultCommandBuffer
	}
	return &Runner{engine: eng, buffer: buffer}
}

// Replay parses commands from in and applies them, handing each result to
// handle in order. It returns once the input is exhausted and every command
// has been applied, or when ctx is cancelled.
func (r *Runner) Replay(ctx context.Context, in io.Reader, handle ResultHandler) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t, _ := tomb.WithContext(ctx)
	commands := make(chan Command, r.buffer)
	results := make(chan Result, r.buffer)

	// The reader and the handler are started from inside the tomb so it
	// cannot be found dead between calls to Go.
	t.Go(func() error {
		t.Go(func() error {
			return r.feed(t, in, commands)
		})
		t.Go(func() error {
			for result := range results {
				handle(result)
			}
			return nil
		})
		return r.apply(t, commands, results)
	})

	return t.Wait()
}

// feed scans lines off in and queues them. Unparseable lines are queued as
// Invalid so they are reported in order. The scanner runs on its own
// goroutine outside the tomb: a read blocked on in cannot be interrupted, so
// feed stops waiting on it once the tomb is dying and leaves it to finish
// whenever in yields.
func (r *Runner) feed(t *tomb.Tomb, in io.Reader, commands chan<- Command) error {
	defer close(commands)

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go scan(in, lines, scanErr, t.Dying())

	line := 0
	for {
		var text string
		var ok bool
		select {
		case <-t.Dying():
			return nil
		case text, ok = <-lines:
		}
		if !ok {
			break
		}

		line++
		cmd, err := ParseCommand(text)
		if errors.Is(err, ErrEmptyLine) {
			continue
		}
		if err != nil {
			cmd = Command{Kind: Invalid, Err: err}
		}
		cmd.Line = line

		select {
		case <-t.Dying():
			return nil
		case commands <- cmd:
		}
	}

	if err := <-scanErr; err != nil {
		log.Error().Err(err).Int("line", line).Msg("error reading commands")
		return err
	}
	return nil
}

// scan forwards every line of in until EOF or done closes. The read error, if
// any, is sent on errc before lines is closed.
func scan(in io.Reader, lines chan<- string, errc chan<- error, done <-chan struct{}) {
	defer close(lines)

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		select {
		case <-done:
			errc <- nil
			return
		case lines <- scanner.Text():
		}
	}
	errc <- scanner.Err()
}

// apply is the single consumer of commands.
func (r *Runner) apply(t *tomb.Tomb, commands <-chan Command, results chan<- Result) error {
	defer close(results)

	for {
		select {
		case <-t.Dying():
			return nil
		case cmd, ok := <-commands:
			if !ok {
				return nil
			}
			result := r.Apply(cmd)
			select {
			case <-t.Dying():
				return nil
			case results <- result:
			}
		}
	}
}

// Apply runs one command against the engine synchronously.
func (r *Runner) Apply(cmd Command) Result {
	result := Result{Command: cmd}
	eng := r.engine

	switch cmd.Kind {
	case Invalid:
		result.Err = cmd.Err
	case CreateUser:
		_, result.Err = eng.CreateUser(cmd.User)
	case Deposit:
		result.Err = eng.Deposit(cmd.User, cmd.Currency, cmd.Quantity)
	case Limit:
		fill, err := eng.SubmitLimit(cmd.User, cmd.Side, cmd.Price, cmd.Quantity)
		result.Fill, result.Err = &fill, err
	case Market:
		fill, err := eng.SubmitMarket(cmd.User, cmd.Side, cmd.Quantity)
		result.Fill, result.Err = &fill, err
	case Cancel:
		report, err := eng.Cancel(cmd.User, cmd.Side, cmd.Selector)
		result.Cancel, result.Err = &report, err
	case Balance:
		result.Balance, result.Err = eng.Balance(cmd.User)
	case Depth:
		depth := eng.Depth()
		result.Depth = &depth
	case Spread:
		spread, err := eng.Spread()
		if err == nil {
			result.Spread = &spread
		}
		result.Err = err
	case Quote:
		result.Quote, result.Err = eng.Quote(cmd.Quantity)
	case Trades:
		result.Trades = eng.TradeHistory()
	case Modify:
		fill, err := eng.Modify(cmd.User, cmd.OrderID, cmd.Price, cmd.Quantity)
		result.Fill, result.Err = &fill, err
	case Status:
		state, err := eng.Order(cmd.OrderID)
		if err == nil {
			result.Order = &state
		}
		result.Err = err
	default:
		result.Err = ErrUnknownCommand
	}
	return result
}
