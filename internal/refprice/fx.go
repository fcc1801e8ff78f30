package refprice

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quantfield/chaser/internal/clock"
	"github.com/quantfield/chaser/internal/domain"
)

// FxCell caches the conversion rate between the traded pair's quote currency
// and the reference pair's quote currency. It follows the same
// poller-plus-cell mechanism as a price source: one refresher goroutine
// writes, the aggregator reads without blocking.
type FxCell struct {
	provider  domain.FxRateProvider
	base      string
	quote     string
	interval  time.Duration
	staleness time.Duration
	clock     clock.Clock
	logger    *slog.Logger

	cell atomic.Pointer[observation]
}

// NewFxCell creates a cell for the base→quote rate refreshed every interval.
// Observations older than staleness are treated as unavailable.
func NewFxCell(provider domain.FxRateProvider, base, quote string, interval, staleness time.Duration, clk clock.Clock, logger *slog.Logger) *FxCell {
	return &FxCell{
		provider:  provider,
		base:      base,
		quote:     quote,
		interval:  interval,
		staleness: staleness,
		clock:     clk,
		logger: logger.With(
			slog.String("component", "fx"),
			slog.String("base", base),
			slog.String("quote", quote),
		),
	}
}

// Run refreshes the rate on a fixed delay until ctx is cancelled. Failures
// keep the previous rate; it ages out through the staleness check.
func (c *FxCell) Run(ctx context.Context) error {
	for {
		c.refresh(ctx)
		if err := c.clock.Sleep(ctx, c.interval); err != nil {
			return err
		}
	}
}

func (c *FxCell) refresh(ctx context.Context) {
	rate, err := c.provider.Rate(ctx, c.base, c.quote)
	if err != nil {
		if ctx.Err() == nil {
			c.logger.Warn("fx refresh failed, keeping last rate",
				slog.String("error", err.Error()),
			)
		}
		return
	}
	c.cell.Store(&observation{price: rate, at: c.clock.Now()})
	c.logger.Debug("fx rate updated", slog.String("rate", rate.String()))
}

// Rate returns the cached conversion rate. ok is false before the first
// successful refresh or once the cached rate is older than the staleness
// window.
func (c *FxCell) Rate() (decimal.Decimal, bool) {
	obs := c.cell.Load()
	if obs == nil {
		return decimal.Decimal{}, false
	}
	if c.clock.Now().Sub(obs.at) >= c.staleness {
		return decimal.Decimal{}, false
	}
	return obs.price, true
}
