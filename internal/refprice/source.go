// Package refprice computes a robust reference price from several
// independent external venues. Each venue is polled on its own cadence by its
// own goroutine, which publishes into an atomically swapped cell; the
// aggregator reads the cells without ever blocking on the network.
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

// observation is one cached (price, timestamp) pair. Instances are immutable;
// the cell is swapped wholesale so readers always see a consistent pair.
type observation struct {
	price decimal.Decimal
	at    time.Time
}

// Source owns the cached last price of one external feed. The cell is written
// only by the source's own poller; everyone else reads.
type Source struct {
	feed     domain.PriceFeed
	pair     domain.Pair
	interval time.Duration
	clock    clock.Clock
	logger   *slog.Logger

	cell atomic.Pointer[observation]
}

// NewSource wraps feed with a cached cell polled every interval.
func NewSource(feed domain.PriceFeed, pair domain.Pair, interval time.Duration, clk clock.Clock, logger *slog.Logger) *Source {
	return &Source{
		feed:     feed,
		pair:     pair,
		interval: interval,
		clock:    clk,
		logger: logger.With(
			slog.String("component", "refprice"),
			slog.String("source", feed.Name()),
		),
	}
}

// Name returns the underlying feed identifier.
func (s *Source) Name() string {
	return s.feed.Name()
}

// Run polls the feed on a fixed delay until ctx is cancelled. A failed poll
// is logged and leaves the cached value untouched; the old observation ages
// out through the staleness filter instead of being destroyed.
func (s *Source) Run(ctx context.Context) error {
	for {
		s.poll(ctx)
		if err := s.clock.Sleep(ctx, s.interval); err != nil {
			return err
		}
	}
}

func (s *Source) poll(ctx context.Context) {
	price, err := s.feed.BestBidPrice(ctx, s.pair)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Warn("poll failed, keeping last price",
				slog.String("error", err.Error()),
			)
		}
		return
	}
	s.publish(price, s.clock.Now())
	s.logger.Debug("price updated", slog.String("price", price.String()))
}

func (s *Source) publish(price decimal.Decimal, at time.Time) {
	s.cell.Store(&observation{price: price, at: at})
}

// last returns the cached observation, ok=false before the first successful
// poll.
func (s *Source) last() (observation, bool) {
	obs := s.cell.Load()
	if obs == nil {
		return observation{}, false
	}
	return *obs, true
}
