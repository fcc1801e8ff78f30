// Package app provides the top-level application lifecycle for the bot. It
// wires the venue client, price feed pollers, FX refresher and trading engine
// together and supervises them until shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/quantfield/chaser/internal/config"
)

// App is the root application object.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run wires all dependencies, starts the background pollers and the trading
// engine, and blocks until the context is cancelled or a task fails. Pollers
// only ever return on cancellation; the engine's exit tears the group down.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting application",
		slog.String("venue_pair", a.cfg.Venue.Pair),
		slog.String("reference_pair", a.cfg.Reference.Pair),
		slog.Int("feeds", len(a.cfg.Feeds)),
	)

	deps, err := Wire(a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}

	group, gctx := errgroup.WithContext(ctx)
	for _, r := range deps.Runners {
		r := r
		group.Go(func() error {
			err := r.Run(gctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}
	group.Go(func() error {
		return deps.Engine.Run(gctx)
	})

	return group.Wait()
}
