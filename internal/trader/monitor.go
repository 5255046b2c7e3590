package trader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"sigbridge/internal/gateway/notifier"
	"sigbridge/internal/gateway/venue"
	"sigbridge/internal/logger"
	"sigbridge/internal/pkg/trading"
	"sigbridge/internal/signal"
)

// Monitor supervises one open position: once price reaches the first
// take-profit (within tolerance), it closes half the volume, moves the
// stop-loss to the entry price and re-arms the take-profit at TP2. The
// close and the modify are strictly ordered; a failure of either halts
// supervision and pushes an alert, it is never retried. Supervision ends
// once the TP1 adjustment succeeds; from there the venue's server-side
// stops own the position.
type Monitor struct {
	gw       venue.Gateway
	notify   notifier.TextNotifier
	rec      OrderRecord
	interval time.Duration
	// tolerance is the absolute price band under/over TP1 that already
	// counts as reached, pre-scaled to the symbol's point size.
	tolerance float64

	mu    sync.Mutex
	state State
}

func NewMonitor(gw venue.Gateway, notify notifier.TextNotifier, rec OrderRecord, interval time.Duration, tolerance float64) *Monitor {
	if notify == nil {
		notify = notifier.Nop{}
	}
	return &Monitor{
		gw:        gw,
		notify:    notify,
		rec:       rec,
		interval:  interval,
		tolerance: tolerance,
		state:     StateOpen,
	}
}

// State returns the monitor's current lifecycle stage.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Monitor) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// Run polls until a terminal disposition is reached and returns the final
// state.
func (m *Monitor) Run(ctx context.Context) State {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	logger.Infof("[%s] monitoring order %s (%s %s, tp1=%v)",
		m.rec.TraceID, m.rec.OrderID, m.rec.Action, m.rec.Symbol, m.rec.TakeProfits[0])

	for {
		select {
		case <-ctx.Done():
			return m.State()
		case <-ticker.C:
		}

		pos, err := m.gw.QueryPosition(ctx, m.rec.OrderID)
		if err != nil {
			if errors.Is(err, venue.ErrPositionNotFound) {
				// Stopped out or closed externally; a normal exit.
				m.setState(StateVanished)
				logger.Infof("[%s] order %s left the venue before TP1", m.rec.TraceID, m.rec.OrderID)
				return StateVanished
			}
			// Transient read failure: the venue keeps protecting the
			// position via its server-side stops, so just poll again.
			logger.Warnf("[%s] position poll failed for %s: %v", m.rec.TraceID, m.rec.OrderID, err)
			continue
		}

		quote, err := m.gw.Quote(ctx, m.rec.Symbol)
		if err != nil {
			logger.Warnf("[%s] quote poll failed for %s: %v", m.rec.TraceID, m.rec.Symbol, err)
			continue
		}
		price := exitPrice(m.rec.Action, quote)

		if !trading.TargetReached(m.rec.Action, price, m.rec.TakeProfits[0], m.tolerance) {
			continue
		}

		return m.handleTP1(ctx, pos, price)
	}
}

// handleTP1 runs the partial-close playbook and returns the terminal state.
func (m *Monitor) handleTP1(ctx context.Context, pos venue.PositionSnapshot, price float64) State {
	half := trading.HalfVolume(pos.Volume)
	if half < m.rec.MinVolume {
		logger.Warnf("[%s] cannot take half of %s: %v below venue minimum %v",
			m.rec.TraceID, m.rec.OrderID, half, m.rec.MinVolume)
		m.push("⚠️", "Partial take skipped",
			notifier.F("Order", m.rec.OrderID),
			notifier.F("Reason", fmt.Sprintf("half volume %v below venue minimum %v", half, m.rec.MinVolume)))
		return m.State() // remains Open; terminal no-op
	}

	err := m.gw.ClosePartial(ctx, venue.CloseRequest{
		OrderID: m.rec.OrderID,
		Symbol:  m.rec.Symbol,
		Volume:  half,
		Action:  m.rec.Action.Opposite(),
		Price:   price,
	})
	if err != nil {
		if errors.Is(err, venue.ErrPositionNotFound) {
			m.setState(StateVanished)
			return StateVanished
		}
		logger.Errorf("[%s] partial close of %s failed: %v", m.rec.TraceID, m.rec.OrderID, err)
		m.push("🛑", "Partial close failed, supervision halted",
			notifier.F("Order", m.rec.OrderID),
			notifier.F("Error", err.Error()))
		return m.State()
	}

	m.setState(StateTP1Hit)

	tp2 := 0.0
	if len(m.rec.TakeProfits) > 1 {
		tp2 = m.rec.TakeProfits[1]
	}
	if err := m.gw.ModifyStops(ctx, m.rec.OrderID, m.rec.EntryPrice, tp2); err != nil {
		if errors.Is(err, venue.ErrPositionNotFound) {
			m.setState(StateVanished)
			return StateVanished
		}
		logger.Errorf("[%s] stop modify of %s failed after partial close: %v", m.rec.TraceID, m.rec.OrderID, err)
		m.push("🛑", "Breakeven move failed, supervision halted",
			notifier.F("Order", m.rec.OrderID),
			notifier.F("Error", err.Error()))
		return StateTP1Hit
	}

	logger.Infof("[%s] order %s: took %v at TP1, stop moved to entry %v, tp2=%v",
		m.rec.TraceID, m.rec.OrderID, half, m.rec.EntryPrice, tp2)
	m.push("🎯", "TP1 reached",
		notifier.F("Order", m.rec.OrderID),
		notifier.F("Symbol", m.rec.Symbol),
		notifier.F("Closed", half),
		notifier.F("Stop", m.rec.EntryPrice),
		notifier.F("Next TP", tp2))

	// Supervision is done; the remaining half rides on the venue's stops.
	m.setState(StateClosed)
	return StateClosed
}

func (m *Monitor) push(icon, title string, fields ...notifier.Field) {
	msg := notifier.TradeMessage{Icon: icon, Title: title, Fields: fields, Footer: m.rec.TraceID}
	go func() {
		if err := m.notify.SendText(msg.RenderMarkdown()); err != nil {
			logger.Warnf("[%s] notification failed: %v", m.rec.TraceID, err)
		}
	}()
}

// exitPrice picks the side of the book a close would execute against.
func exitPrice(action signal.Action, q venue.Quote) float64 {
	if action == signal.ActionBuy {
		return q.Bid
	}
	return q.Ask
}
