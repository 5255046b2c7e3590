package app

import (
	"context"
	"fmt"

	sbcfg "sigbridge/internal/config"
	"sigbridge/internal/gateway/mt5bridge"
	"sigbridge/internal/gateway/notifier"
	"sigbridge/internal/gateway/venue"
	"sigbridge/internal/risk"
	"sigbridge/internal/trader"
	"sigbridge/internal/transport/http/webhook"
)

// AppBuilder assembles the App. The gateway and notifier constructors are
// swappable so tests can assemble a full app against fakes.
type AppBuilder struct {
	cfg *sbcfg.Config

	gatewayFn  func(sbcfg.VenueConfig) (venue.Gateway, error)
	notifierFn func(sbcfg.NotifyConfig) notifier.TextNotifier
	registryFn func(string) (*risk.Registry, error)
}

type AppBuilderOption func(*AppBuilder)

func NewAppBuilder(cfg *sbcfg.Config, opts ...AppBuilderOption) *AppBuilder {
	b := &AppBuilder{
		cfg:        cfg,
		gatewayFn:  buildGateway,
		notifierFn: buildNotifier,
		registryFn: risk.NewRegistry,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// WithGateway overrides the venue gateway constructor.
func WithGateway(fn func(sbcfg.VenueConfig) (venue.Gateway, error)) AppBuilderOption {
	return func(b *AppBuilder) { b.gatewayFn = fn }
}

// WithNotifier overrides the notifier constructor.
func WithNotifier(fn func(sbcfg.NotifyConfig) notifier.TextNotifier) AppBuilderOption {
	return func(b *AppBuilder) { b.notifierFn = fn }
}

// WithRegistry overrides the policy registry constructor.
func WithRegistry(fn func(string) (*risk.Registry, error)) AppBuilderOption {
	return func(b *AppBuilder) { b.registryFn = fn }
}

// Build assembles the application graph.
func (b *AppBuilder) Build(_ context.Context) (*App, error) {
	cfg := b.cfg

	registry, err := b.registryFn(cfg.Trading.PolicyPath)
	if err != nil {
		return nil, fmt.Errorf("loading sizing policy: %w", err)
	}
	sizer, err := risk.NewSizer(registry, cfg.Trading.RiskBudgetUSD)
	if err != nil {
		return nil, err
	}
	gw, err := b.gatewayFn(cfg.Venue)
	if err != nil {
		return nil, fmt.Errorf("building venue gateway: %w", err)
	}

	notify := b.notifierFn(cfg.Notify)
	monitors := trader.NewMonitorSet(cfg.Trading.MaxMonitors)
	manager := trader.NewManager(gw, sizer, registry, notify, monitors, cfg.Trading)

	server, err := webhook.NewServer(webhook.ServerConfig{
		Addr:    cfg.App.HTTPAddr,
		Handler: manager,
	})
	if err != nil {
		return nil, err
	}

	return &App{cfg: cfg, manager: manager, server: server}, nil
}

func buildGateway(cfg sbcfg.VenueConfig) (venue.Gateway, error) {
	return mt5bridge.NewClient(cfg)
}

func buildNotifier(cfg sbcfg.NotifyConfig) notifier.TextNotifier {
	if cfg.Telegram.Enabled {
		return notifier.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	}
	return notifier.Nop{}
}
