package trader

import (
	"errors"
	"time"

	"sigbridge/internal/signal"
)

// State is a monitored position's lifecycle stage.
type State string

const (
	// StateOpen: position is live, TP1 not yet handled.
	StateOpen State = "open"
	// StateTP1Hit: half taken at TP1, stop moved to entry, TP2 armed.
	StateTP1Hit State = "tp1_hit"
	// StateClosed: the TP1 playbook completed; supervision is over and
	// the remaining half is protected by the venue's stops.
	StateClosed State = "closed"
	// StateVanished: position left the venue before the playbook
	// completed, e.g. stopped out or closed manually in the terminal.
	StateVanished State = "vanished"
)

// OrderRecord is the immutable snapshot of a submitted order that the
// monitor works from. Prices are already rounded to Digits.
type OrderRecord struct {
	OrderID     string
	TraceID     string
	Symbol      string
	Action      signal.Action
	Volume      float64
	EntryPrice  float64
	StopLoss    float64
	TakeProfits []float64
	Digits      int
	MinVolume   float64
	PlacedAt    time.Time
}

// Result is what the webhook returns to the caller after a submit.
type Result struct {
	OrderID   string
	TraceID   string
	Symbol    string
	Action    signal.Action
	Volume    float64
	Monitored bool
}

var (
	// ErrVolumeOutOfRange: the sized volume falls outside the venue's
	// min/max bounds for the symbol.
	ErrVolumeOutOfRange = errors.New("sized volume outside venue bounds")

	// ErrLimitCrossed: an entry-limit order would fill immediately at the
	// current book, which is never what the signal meant.
	ErrLimitCrossed = errors.New("limit price crosses the current book")
)
