package refprice

import (
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quantfield/chaser/internal/clock"
)

// Aggregator computes the freshness-filtered mean of the cached source
// prices. It never touches the network: a dead source simply ages out.
type Aggregator struct {
	sources   []*Source
	staleness time.Duration
	scale     int32
	fx        *FxCell // nil when the traded and reference pairs share a quote currency
	clock     clock.Clock
	logger    *slog.Logger
}

// NewAggregator builds an Aggregator over the given sources. staleness is the
// maximum observation age admitted into the mean; scale is the decimal places
// of the result. fx may be nil when no currency conversion is required.
func NewAggregator(sources []*Source, staleness time.Duration, scale int32, fx *FxCell, clk clock.Clock, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		sources:   sources,
		staleness: staleness,
		scale:     scale,
		fx:        fx,
		clock:     clk,
		logger:    logger.With(slog.String("component", "refprice")),
	}
}

// Sources returns the aggregator's sources for poller supervision.
func (a *Aggregator) Sources() []*Source {
	return a.sources
}

// CurrentReferencePrice returns the arithmetic mean of every fresh source
// price, rounded down to the configured scale and converted into the venue
// quote currency when an FX cell is configured. ok is false when no source
// passes the freshness filter, or when conversion is needed and no FX rate is
// available; both are defined states, not errors.
func (a *Aggregator) CurrentReferencePrice() (decimal.Decimal, bool) {
	now := a.clock.Now()

	sum := decimal.Zero
	count := 0
	for _, src := range a.sources {
		obs, ok := src.last()
		if !ok {
			continue
		}
		if now.Sub(obs.at) >= a.staleness {
			continue
		}
		sum = sum.Add(obs.price)
		count++
	}
	if count == 0 {
		return decimal.Decimal{}, false
	}

	mean := sum.Div(decimal.NewFromInt(int64(count)))

	if a.fx != nil {
		rate, ok := a.fx.Rate()
		if !ok {
			// Fail closed: without a conversion rate there is no usable
			// reference.
			a.logger.Warn("fx rate unavailable, reference price withheld")
			return decimal.Decimal{}, false
		}
		mean = mean.Div(rate)
	}

	return mean.RoundDown(a.scale), true
}
