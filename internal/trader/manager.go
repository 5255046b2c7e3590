package trader

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"sigbridge/internal/config"
	"sigbridge/internal/gateway/notifier"
	"sigbridge/internal/gateway/venue"
	"sigbridge/internal/logger"
	"sigbridge/internal/pkg/trading"
	"sigbridge/internal/risk"
	"sigbridge/internal/signal"
)

// Manager drives a signal through the full pipeline: parse, alias, price
// formatting, sizing, submission, and finally spawning a monitor when the
// signal carried take-profit levels. The webhook path is synchronous up to
// and including SubmitOrder; everything after is detached.
type Manager struct {
	gw       venue.Gateway
	sizer    *risk.Sizer
	registry *risk.Registry
	notify   notifier.TextNotifier
	monitors *MonitorSet
	cfg      config.TradingConfig

	mu      sync.Mutex
	baseCtx context.Context
}

func NewManager(gw venue.Gateway, sizer *risk.Sizer, registry *risk.Registry, notify notifier.TextNotifier, monitors *MonitorSet, cfg config.TradingConfig) *Manager {
	if notify == nil {
		notify = notifier.Nop{}
	}
	return &Manager{
		gw:       gw,
		sizer:    sizer,
		registry: registry,
		notify:   notify,
		monitors: monitors,
		cfg:      cfg,
		baseCtx:  context.Background(),
	}
}

// Run parks until ctx is cancelled, then drains running monitors. Monitors
// spawned while running inherit ctx, so cancelling it stops them all.
func (m *Manager) Run(ctx context.Context) error {
	m.mu.Lock()
	m.baseCtx = ctx
	m.mu.Unlock()
	<-ctx.Done()
	m.monitors.Wait()
	return nil
}

func (m *Manager) monitorContext() context.Context {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.baseCtx
}

// HandleSignal processes one raw webhook payload end to end.
func (m *Manager) HandleSignal(ctx context.Context, raw string) (*Result, error) {
	traceID := uuid.NewString()[:8]
	logger.Infof("[%s] signal received (%d bytes)", traceID, len(raw))
	m.pushAsync(traceID, notifier.TradeMessage{Icon: "📨", Title: "Signal received", Footer: raw})

	intent, err := signal.Parse(raw)
	if err != nil {
		logger.Warnf("[%s] parse failed: %v", traceID, err)
		return nil, err
	}

	sym := m.registry.Snapshot().Aliases.Resolve(intent.Symbol)
	info, err := m.gw.SymbolInfo(ctx, sym)
	if err != nil {
		return nil, fmt.Errorf("symbol %s: %w", sym, err)
	}
	if !info.Visible {
		if err := m.gw.EnsureVisible(ctx, sym); err != nil {
			return nil, fmt.Errorf("selecting %s: %w", sym, err)
		}
	}

	entry := trading.RoundPrice(intent.EntryPrice, info.Digits)
	stop := trading.RoundPrice(intent.StopLoss, info.Digits)
	tps := make([]float64, 0, len(intent.TakeProfits))
	for _, tp := range intent.TakeProfits {
		tps = append(tps, trading.RoundPrice(tp, info.Digits))
	}

	lots, class, err := m.sizer.SizeDetail(entry, stop, sym, info.ContractSize)
	if err != nil {
		return nil, err
	}
	if lots < info.MinVolume || (info.MaxVolume > 0 && lots > info.MaxVolume) {
		return nil, fmt.Errorf("%s sized at %v (min %v, max %v): %w",
			sym, lots, info.MinVolume, info.MaxVolume, ErrVolumeOutOfRange)
	}

	price := 0.0
	if m.cfg.OrderType == "limit" {
		quote, err := m.gw.Quote(ctx, sym)
		if err != nil {
			return nil, fmt.Errorf("limit pre-check for %s: %w", sym, err)
		}
		if limitCrossed(intent.Action, entry, quote) {
			return nil, fmt.Errorf("%s %s limit at %v against bid %v / ask %v: %w",
				intent.Action, sym, entry, quote.Bid, quote.Ask, ErrLimitCrossed)
		}
		price = entry
	}

	tp1 := 0.0
	if len(tps) > 0 {
		tp1 = tps[0]
	}
	ticket, err := m.gw.SubmitOrder(ctx, venue.OrderRequest{
		Action:         intent.Action,
		Symbol:         sym,
		Volume:         lots,
		Price:          price,
		StopLoss:       stop,
		TakeProfit:     tp1,
		SlippagePoints: m.cfg.SlippagePoints,
		Tag:            m.cfg.OrderTag,
	})
	if err != nil {
		logger.Errorf("[%s] order submit failed for %s: %v", traceID, sym, err)
		return nil, err
	}

	logger.Infof("[%s] order %s placed: %s %s lots=%v class=%s entry=%v stop=%v tps=%v",
		traceID, ticket.OrderID, intent.Action, sym, lots, class, entry, stop, tps)

	rec := OrderRecord{
		OrderID:     ticket.OrderID,
		TraceID:     traceID,
		Symbol:      sym,
		Action:      intent.Action,
		Volume:      lots,
		EntryPrice:  entry,
		StopLoss:    stop,
		TakeProfits: tps,
		Digits:      info.Digits,
		MinVolume:   info.MinVolume,
		PlacedAt:    time.Now(),
	}

	monitored := false
	if len(tps) > 0 {
		mon := NewMonitor(m.gw, m.notify, rec, m.pollInterval(), m.tpTolerance(info.Digits))
		monitored = m.monitors.Spawn(m.monitorContext(), rec.OrderID, func(ctx context.Context) {
			mon.Run(ctx)
		})
	}

	m.pushAsync(traceID, notifier.TradeMessage{
		Icon:  "✅",
		Title: "Order placed",
		Fields: []notifier.Field{
			notifier.F("Order", ticket.OrderID),
			notifier.F("Symbol", sym),
			notifier.F("Action", intent.Action),
			notifier.F("Lots", lots),
			notifier.F("Class", class),
			notifier.F("Entry", entry),
			notifier.F("Stop", stop),
			notifier.F("TPs", fmt.Sprint(tps)),
		},
	})

	return &Result{
		OrderID:   ticket.OrderID,
		TraceID:   traceID,
		Symbol:    sym,
		Action:    intent.Action,
		Volume:    lots,
		Monitored: monitored,
	}, nil
}

func (m *Manager) pollInterval() time.Duration {
	if m.cfg.PollIntervalSeconds <= 0 {
		return time.Second
	}
	return time.Duration(m.cfg.PollIntervalSeconds) * time.Second
}

// tpTolerance converts the configured point tolerance into an absolute
// price band for the symbol's precision.
func (m *Manager) tpTolerance(digits int) float64 {
	return m.cfg.TPTolerancePoints * trading.Point(digits)
}

// pushAsync sends a notification without blocking the webhook path.
func (m *Manager) pushAsync(traceID string, msg notifier.TradeMessage) {
	if msg.Footer == "" {
		msg.Footer = traceID
	}
	go func() {
		if err := m.notify.SendText(msg.RenderMarkdown()); err != nil {
			logger.Warnf("[%s] notification failed: %v", traceID, err)
		}
	}()
}

// limitCrossed reports whether an entry-limit at price would execute
// immediately: a buy limit must rest below the ask, a sell limit above
// the bid.
func limitCrossed(action signal.Action, price float64, q venue.Quote) bool {
	if action == signal.ActionBuy {
		return price >= q.Ask
	}
	return price <= q.Bid
}
