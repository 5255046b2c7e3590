package trader

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sigbridge/internal/config"
	"sigbridge/internal/gateway/venue"
	"sigbridge/internal/pkg/symbol"
	"sigbridge/internal/risk"
	"sigbridge/internal/signal"
)

type modifyCall struct {
	orderID    string
	stopLoss   float64
	takeProfit float64
}

// fakeGateway is a scriptable in-memory venue for pipeline tests.
type fakeGateway struct {
	mu        sync.Mutex
	symbols   map[string]venue.SymbolInfo
	quotes    map[string]venue.Quote
	positions map[string]venue.PositionSnapshot

	submitErr error
	closeErr  error
	modifyErr error
	quoteErr  error
	queryErr  error

	orders   []venue.OrderRequest
	closes   []venue.CloseRequest
	modifies []modifyCall
	selected []string
	nextID   int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		symbols:   make(map[string]venue.SymbolInfo),
		quotes:    make(map[string]venue.Quote),
		positions: make(map[string]venue.PositionSnapshot),
	}
}

func (f *fakeGateway) SymbolInfo(_ context.Context, sym string) (venue.SymbolInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	info, ok := f.symbols[sym]
	if !ok {
		return venue.SymbolInfo{}, venue.ErrSymbolNotFound
	}
	return info, nil
}

func (f *fakeGateway) EnsureVisible(_ context.Context, sym string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.symbols[sym]; !ok {
		return venue.ErrSymbolNotFound
	}
	f.selected = append(f.selected, sym)
	info := f.symbols[sym]
	info.Visible = true
	f.symbols[sym] = info
	return nil
}

func (f *fakeGateway) Quote(_ context.Context, sym string) (venue.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.quoteErr != nil {
		return venue.Quote{}, f.quoteErr
	}
	q, ok := f.quotes[sym]
	if !ok {
		return venue.Quote{}, venue.ErrQuoteUnavailable
	}
	return q, nil
}

func (f *fakeGateway) SubmitOrder(_ context.Context, req venue.OrderRequest) (venue.OrderTicket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return venue.OrderTicket{}, f.submitErr
	}
	f.orders = append(f.orders, req)
	f.nextID++
	id := fmt.Sprintf("%d", f.nextID)
	f.positions[id] = venue.PositionSnapshot{
		OrderID: id, Symbol: req.Symbol, Action: req.Action,
		Volume: req.Volume, EntryPrice: req.Price,
		StopLoss: req.StopLoss, TakeProfit: req.TakeProfit,
	}
	return venue.OrderTicket{OrderID: id}, nil
}

func (f *fakeGateway) ClosePartial(_ context.Context, req venue.CloseRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closeErr != nil {
		return f.closeErr
	}
	pos, ok := f.positions[req.OrderID]
	if !ok {
		return venue.ErrPositionNotFound
	}
	pos.Volume -= req.Volume
	f.positions[req.OrderID] = pos
	f.closes = append(f.closes, req)
	return nil
}

func (f *fakeGateway) ModifyStops(_ context.Context, orderID string, stopLoss, takeProfit float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.modifyErr != nil {
		return f.modifyErr
	}
	if _, ok := f.positions[orderID]; !ok {
		return venue.ErrPositionNotFound
	}
	f.modifies = append(f.modifies, modifyCall{orderID: orderID, stopLoss: stopLoss, takeProfit: takeProfit})
	return nil
}

func (f *fakeGateway) QueryPosition(_ context.Context, orderID string) (venue.PositionSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.queryErr != nil {
		return venue.PositionSnapshot{}, f.queryErr
	}
	pos, ok := f.positions[orderID]
	if !ok {
		return venue.PositionSnapshot{}, venue.ErrPositionNotFound
	}
	return pos, nil
}

func (f *fakeGateway) closeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.closes)
}

func (f *fakeGateway) modifyCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.modifies)
}

func testTradingConfig() config.TradingConfig {
	return config.TradingConfig{
		RiskBudgetUSD:       50,
		OrderType:           "market",
		SlippagePoints:      20,
		OrderTag:            "sigbridge",
		PollIntervalSeconds: 1,
		TPTolerancePoints:   10,
		MaxMonitors:         8,
	}
}

func testRegistry(t *testing.T) *risk.Registry {
	t.Helper()
	reg, err := risk.NewStaticRegistry(risk.PolicyFile{
		Aliases: symbol.AliasTable{
			StripSuffix: symbol.SuffixRule{From: "USDT", To: "USD"},
			Map:         map[string]string{"US100": "US100.cash"},
		},
		Classes: map[string]risk.ClassPolicy{
			"forex":   {Symbols: []string{"EURUSD", "USDJPY"}, Mode: risk.ModeRisk},
			"metal":   {Symbols: []string{"XAUUSD"}, Mode: risk.ModeRisk},
			"bitcoin": {Symbols: []string{"BTCUSD"}, Mode: risk.ModeFlat, Lot: 0.09},
		},
	})
	require.NoError(t, err)
	return reg
}

func newTestManager(t *testing.T, gw venue.Gateway, cfg config.TradingConfig) *Manager {
	t.Helper()
	reg := testRegistry(t)
	sizer, err := risk.NewSizer(reg, cfg.RiskBudgetUSD)
	require.NoError(t, err)
	return NewManager(gw, sizer, reg, nil, NewMonitorSet(cfg.MaxMonitors), cfg)
}

const eurusdSignal = "1234, EURUSD Buy signal triggered\n" +
	"price = 1.2000\n" +
	"TP-levels: 1.2050\n" +
	"TP-levels: 1.2100\n" +
	"SL: 1.1950"

func seedEURUSD(gw *fakeGateway) {
	gw.symbols["EURUSD"] = venue.SymbolInfo{
		Symbol: "EURUSD", Digits: 4, ContractSize: 100000,
		MinVolume: 0.01, MaxVolume: 100, Visible: true,
	}
	gw.quotes["EURUSD"] = venue.Quote{Symbol: "EURUSD", Bid: 1.1999, Ask: 1.2001}
}

func TestManager_HandleSignal_MarketOrder(t *testing.T) {
	gw := newFakeGateway()
	seedEURUSD(gw)
	mgr := newTestManager(t, gw, testTradingConfig())

	res, err := mgr.HandleSignal(context.Background(), eurusdSignal)
	require.NoError(t, err)
	assert.Equal(t, "EURUSD", res.Symbol)
	assert.Equal(t, signal.ActionBuy, res.Action)
	assert.Equal(t, 0.10, res.Volume) // 50 / 0.005 / 100000
	assert.True(t, res.Monitored)
	assert.NotEmpty(t, res.TraceID)

	require.Len(t, gw.orders, 1)
	order := gw.orders[0]
	assert.Zero(t, order.Price) // market order
	assert.Equal(t, 1.1950, order.StopLoss)
	assert.Equal(t, 1.2050, order.TakeProfit) // first TP rides on the order
	assert.Equal(t, 20, order.SlippagePoints)
	assert.Equal(t, "sigbridge", order.Tag)
}

func TestManager_HandleSignal_AliasAndFlatLot(t *testing.T) {
	gw := newFakeGateway()
	gw.symbols["BTCUSD"] = venue.SymbolInfo{
		Symbol: "BTCUSD", Digits: 2, ContractSize: 1,
		MinVolume: 0.01, MaxVolume: 10, Visible: true,
	}
	mgr := newTestManager(t, gw, testTradingConfig())

	msg := "Smart Signal Alert!\nBuy BTCUSDT\nEntry: 65000\nTP1: 66000\nSL: 64000"
	res, err := mgr.HandleSignal(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, "BTCUSD", res.Symbol) // USDT suffix stripped
	assert.Equal(t, 0.09, res.Volume)     // flat class lot
}

func TestManager_HandleSignal_ParseErrorPropagates(t *testing.T) {
	mgr := newTestManager(t, newFakeGateway(), testTradingConfig())

	_, err := mgr.HandleSignal(context.Background(), "nothing tradeable here")
	require.Error(t, err)
	var perr *signal.ParseError
	assert.ErrorAs(t, err, &perr)
}

func TestManager_HandleSignal_NoTPsSkipsMonitor(t *testing.T) {
	gw := newFakeGateway()
	seedEURUSD(gw)
	mgr := newTestManager(t, gw, testTradingConfig())

	msg := "1234, EURUSD Buy signal triggered\nprice = 1.2000\nSL: 1.1950"
	res, err := mgr.HandleSignal(context.Background(), msg)
	require.NoError(t, err)
	assert.False(t, res.Monitored)
	require.Len(t, gw.orders, 1)
	assert.Zero(t, gw.orders[0].TakeProfit)
}

func TestManager_HandleSignal_MakesSymbolVisible(t *testing.T) {
	gw := newFakeGateway()
	seedEURUSD(gw)
	info := gw.symbols["EURUSD"]
	info.Visible = false
	gw.symbols["EURUSD"] = info
	mgr := newTestManager(t, gw, testTradingConfig())

	_, err := mgr.HandleSignal(context.Background(), eurusdSignal)
	require.NoError(t, err)
	assert.Equal(t, []string{"EURUSD"}, gw.selected)
}

func TestManager_HandleSignal_UnknownSymbol(t *testing.T) {
	mgr := newTestManager(t, newFakeGateway(), testTradingConfig())

	_, err := mgr.HandleSignal(context.Background(), eurusdSignal)
	assert.ErrorIs(t, err, venue.ErrSymbolNotFound)
}

func TestManager_HandleSignal_VolumeBelowVenueMinimum(t *testing.T) {
	gw := newFakeGateway()
	seedEURUSD(gw)
	info := gw.symbols["EURUSD"]
	info.MinVolume = 1
	gw.symbols["EURUSD"] = info
	mgr := newTestManager(t, gw, testTradingConfig())

	_, err := mgr.HandleSignal(context.Background(), eurusdSignal)
	assert.ErrorIs(t, err, ErrVolumeOutOfRange)
	assert.Empty(t, gw.orders)
}

func TestManager_HandleSignal_LimitMode(t *testing.T) {
	cfg := testTradingConfig()
	cfg.OrderType = "limit"

	t.Run("resting limit placed at entry", func(t *testing.T) {
		gw := newFakeGateway()
		seedEURUSD(gw)
		gw.quotes["EURUSD"] = venue.Quote{Symbol: "EURUSD", Bid: 1.2040, Ask: 1.2042}
		mgr := newTestManager(t, gw, cfg)

		_, err := mgr.HandleSignal(context.Background(), eurusdSignal)
		require.NoError(t, err)
		require.Len(t, gw.orders, 1)
		assert.Equal(t, 1.2000, gw.orders[0].Price)
	})

	t.Run("crossed buy limit rejected locally", func(t *testing.T) {
		gw := newFakeGateway()
		seedEURUSD(gw)
		gw.quotes["EURUSD"] = venue.Quote{Symbol: "EURUSD", Bid: 1.1950, Ask: 1.1952}
		mgr := newTestManager(t, gw, cfg)

		_, err := mgr.HandleSignal(context.Background(), eurusdSignal)
		assert.ErrorIs(t, err, ErrLimitCrossed)
		assert.Empty(t, gw.orders)
	})
}

func TestManager_HandleSignal_RejectedSubmitPassesThrough(t *testing.T) {
	gw := newFakeGateway()
	seedEURUSD(gw)
	gw.submitErr = venue.Rejected("order", "not enough money")
	mgr := newTestManager(t, gw, testTradingConfig())

	_, err := mgr.HandleSignal(context.Background(), eurusdSignal)
	require.Error(t, err)
	assert.True(t, venue.IsRejected(err))
}

func TestManager_HandleSignal_ZeroStopDistance(t *testing.T) {
	gw := newFakeGateway()
	seedEURUSD(gw)
	mgr := newTestManager(t, gw, testTradingConfig())

	msg := "1234, EURUSD Buy signal triggered\nprice = 1.2000\nSL: 1.2000"
	_, err := mgr.HandleSignal(context.Background(), msg)
	assert.ErrorIs(t, err, risk.ErrInvalidRisk)
	assert.Empty(t, gw.orders)
}

func TestManager_Run_StopsOnCancel(t *testing.T) {
	mgr := newTestManager(t, newFakeGateway(), testTradingConfig())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- mgr.Run(ctx) }()
	cancel()
	assert.NoError(t, <-done)
}
