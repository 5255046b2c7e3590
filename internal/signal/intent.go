// Package signal turns free-form alert text into a canonical trade intent.
//
// Inbound messages arrive in a handful of loosely structured dialects
// (different upstream alert providers). Each dialect is recognised by a
// marker substring and extracted by its own matcher; matchers are tried in a
// fixed priority order and the first match wins.
package signal

import (
	"errors"
	"fmt"
)

// Action is the trade direction carried by a signal.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
)

// Opposite returns the closing direction for a position opened with a.
func (a Action) Opposite() Action {
	if a == ActionBuy {
		return ActionSell
	}
	return ActionBuy
}

// TradeIntent is the fully validated form of an inbound signal. A TradeIntent
// is only ever produced complete: action, symbol, entry and stop are all
// present, or parsing reports a failure instead.
type TradeIntent struct {
	Action      Action
	Symbol      string
	EntryPrice  float64
	StopLoss    float64
	TakeProfits []float64 // priority order: index 0 is TP1, index 1 is TP2, ...
}

// Parse failure categories. The webhook layer maps these onto HTTP statuses.
var (
	ErrUnknownFormat    = errors.New("no known signal dialect matches")
	ErrIncompleteFields = errors.New("signal is missing required fields")
	ErrMalformedPayload = errors.New("embedded signal payload is malformed")
)

// ParseError reports which dialect rejected the message and why.
type ParseError struct {
	Dialect string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Dialect == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("dialect %s: %v", e.Dialect, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func failure(dialect string, err error) error {
	return &ParseError{Dialect: dialect, Err: err}
}
