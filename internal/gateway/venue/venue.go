// Package venue defines the contract against the brokerage execution venue.
// The venue is a remote service with its own session lifecycle; the core
// only depends on this interface so tests can substitute a simulated one.
package venue

import (
	"context"

	"sigbridge/internal/signal"
)

// Gateway is the surface the pipeline needs from the execution venue. All
// prices passed in must already be rounded to the symbol's digit precision.
// Implementations must be safe for concurrent use by independent monitors.
type Gateway interface {
	// SymbolInfo returns metadata for a symbol, or ErrSymbolNotFound.
	SymbolInfo(ctx context.Context, symbol string) (SymbolInfo, error)

	// EnsureVisible makes a symbol tradeable in the venue terminal.
	// Idempotent; a no-op when the symbol is already visible.
	EnsureVisible(ctx context.Context, symbol string) error

	// Quote returns the current bid/ask, or ErrQuoteUnavailable.
	Quote(ctx context.Context, symbol string) (Quote, error)

	// SubmitOrder places a market or entry-limit order. A refusal comes
	// back as a *RejectedError.
	SubmitOrder(ctx context.Context, req OrderRequest) (OrderTicket, error)

	// ClosePartial closes part of an open position at the given price.
	ClosePartial(ctx context.Context, req CloseRequest) error

	// ModifyStops rewrites the stop-loss and take-profit on an open
	// position. takeProfit of zero clears the level.
	ModifyStops(ctx context.Context, orderID string, stopLoss, takeProfit float64) error

	// QueryPosition fetches the live state of a position, or
	// ErrPositionNotFound once the venue no longer holds it.
	QueryPosition(ctx context.Context, orderID string) (PositionSnapshot, error)
}

// SymbolInfo is the venue's metadata for one instrument.
type SymbolInfo struct {
	Symbol       string
	Digits       int
	ContractSize float64
	MinVolume    float64
	MaxVolume    float64
	Visible      bool
}

// Quote is a top-of-book snapshot.
type Quote struct {
	Symbol string
	Bid    float64
	Ask    float64
}

// OrderRequest describes a new entry order. Price zero means market
// execution at the current tick.
type OrderRequest struct {
	Action         signal.Action
	Symbol         string
	Volume         float64
	Price          float64
	StopLoss       float64
	TakeProfit     float64
	SlippagePoints int
	Tag            string
}

// OrderTicket is the venue's acknowledgement of an accepted order. OrderID
// is the primary key for everything downstream.
type OrderTicket struct {
	OrderID string
}

// CloseRequest closes part of an existing position. Action is the opposite
// of the position's opening direction.
type CloseRequest struct {
	OrderID string
	Symbol  string
	Volume  float64
	Action  signal.Action
	Price   float64
}

// PositionSnapshot is the venue-held state of an open position.
type PositionSnapshot struct {
	OrderID    string
	Symbol     string
	Action     signal.Action
	Volume     float64
	EntryPrice float64
	StopLoss   float64
	TakeProfit float64
}
