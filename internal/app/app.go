package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	sbcfg "sigbridge/internal/config"
	"sigbridge/internal/logger"
	"sigbridge/internal/trader"
	"sigbridge/internal/transport/http/webhook"
)

// App wires the pipeline together: policy registry → sizer → venue client →
// order manager → webhook server.
type App struct {
	cfg     *sbcfg.Config
	manager *trader.Manager
	server  *webhook.Server
}

// NewApp builds the application from configuration without starting it.
func NewApp(cfg *sbcfg.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return buildAppWithWire(context.Background(), cfg)
}

// Run starts the webhook server and the monitor supervisor, and blocks
// until ctx is cancelled or either fails.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}

	logger.Infof("listening on %s (venue=%s, order_type=%s)",
		a.server.Addr(), a.cfg.Venue.APIURL, a.cfg.Trading.OrderType)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := a.server.Start(ctx); err != nil {
			return fmt.Errorf("webhook server error: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		return a.manager.Run(ctx)
	})
	return group.Wait()
}

// Manager exposes the order manager, for test harnesses.
func (a *App) Manager() *trader.Manager {
	if a == nil {
		return nil
	}
	return a.manager
}
