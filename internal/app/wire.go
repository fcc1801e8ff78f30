package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/quantfield/chaser/internal/clock"
	"github.com/quantfield/chaser/internal/config"
	"github.com/quantfield/chaser/internal/domain"
	"github.com/quantfield/chaser/internal/engine"
	"github.com/quantfield/chaser/internal/feed"
	"github.com/quantfield/chaser/internal/notify"
	"github.com/quantfield/chaser/internal/platform/venue"
	"github.com/quantfield/chaser/internal/refprice"
	"github.com/quantfield/chaser/internal/request"
)

// runner is a background task supervised by the application errgroup.
type runner interface {
	Run(ctx context.Context) error
}

// Dependencies bundles everything the trading loop needs. It is constructed
// by Wire.
type Dependencies struct {
	Engine  *engine.Engine
	Runners []runner // pollers, FX refresher, streaming feeds
}

// Wire constructs all concrete implementations from the validated
// configuration.
func Wire(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	clk := clock.System()

	venuePair, err := config.ParsePair(cfg.Venue.Pair)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	refPair, err := config.ParsePair(cfg.Reference.Pair)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	deps := &Dependencies{}

	// --- Target venue ---
	client := venue.NewClient(cfg.Venue.BaseURL, cfg.Venue.APIKey, cfg.Venue.APISecret)

	// --- Reference price sources ---
	var sources []*refprice.Source
	for _, fc := range cfg.Feeds {
		var pf domain.PriceFeed
		switch fc.Name {
		case "kraken":
			pf = feed.NewKraken(fc.BaseURL)
		case "bitfinex":
			pf = feed.NewBitfinex(fc.BaseURL)
		case "bitstamp":
			pf = feed.NewBitstamp(fc.BaseURL)
		case "binance":
			stream := feed.NewBinanceStream(fc.BaseURL, refPair, logger)
			deps.Runners = append(deps.Runners, stream)
			pf = stream
		default:
			return nil, fmt.Errorf("app: unknown feed %q", fc.Name)
		}
		src := refprice.NewSource(pf, refPair, fc.PollInterval.Duration, clk, logger)
		sources = append(sources, src)
		deps.Runners = append(deps.Runners, src)
	}

	// --- FX conversion (only across quote currencies) ---
	var fxCell *refprice.FxCell
	if cfg.CrossCurrency() {
		fixer := feed.NewFixer(cfg.Fx.BaseURL)
		fxCell = refprice.NewFxCell(
			fixer,
			venuePair.Quote,
			refPair.Quote,
			cfg.Fx.RefreshInterval.Duration,
			cfg.Fx.StalenessWindow.Duration,
			clk,
			logger,
		)
		deps.Runners = append(deps.Runners, fxCell)
	}

	params := cfg.TradingParameters()
	aggregator := refprice.NewAggregator(sources, params.StalenessWindow, params.PriceScale, fxCell, clk, logger)

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" {
		senders = append(senders, notify.NewTelegramSender(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID))
	}
	var notifier engine.Notifier
	if len(senders) > 0 {
		notifier = notify.NewNotifier(senders, logger)
	}

	// --- Trading core ---
	exec := request.NewExecutor(cfg.Retry.TransientDelay.Duration, cfg.Retry.RateLimitDelay.Duration, clk, logger)
	ctrl := engine.NewController(client, client, client, exec, aggregator, params, venuePair, clk, logger)
	deps.Engine = engine.NewEngine(ctrl, client, exec, params, clk, notifier, logger)

	return deps, nil
}
