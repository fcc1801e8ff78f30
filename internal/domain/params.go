package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradingParameters is the immutable knob set consumed by the trading core.
// All monetary values are decimals; binary floating point is never used for
// prices, volumes or balances.
type TradingParameters struct {
	// PriceAcceptabilityRatio is the minimum edge demanded before entering:
	// the venue best bid times this ratio must not exceed the reference price.
	PriceAcceptabilityRatio decimal.Decimal

	// PriceScale and VolumeScale are the decimal places the venue accepts.
	PriceScale  int32
	VolumeScale int32

	// PriceAddition is added to the best bid when placing our order.
	PriceAddition decimal.Decimal

	// MaxPrice caps the price we are willing to bid. Zero means unlimited.
	MaxPrice decimal.Decimal

	// StalenessWindow is the maximum age of a cached source observation
	// before it is excluded from the reference price.
	StalenessWindow time.Duration

	// RecomputeInterval is how long the controller waits between entry
	// condition evaluations while the price is not acceptable.
	RecomputeInterval time.Duration

	// StepToMove fires a replace when the best bid moves this far above our
	// order price.
	StepToMove decimal.Decimal

	// VolumeToMove fires a replace when this much volume accumulates at
	// prices above our order.
	VolumeToMove decimal.Decimal

	// Sensitivity fires a replace when our order sits this far above the
	// next lower bid.
	Sensitivity decimal.Decimal

	// OrderCheckInterval is the monitoring poll cadence for order status.
	OrderCheckInterval time.Duration

	// InterCycleWait is the pause between completed trading cycles.
	InterCycleWait time.Duration

	// MinOrderVolume is the smallest order the venue (or the operator)
	// accepts; anything below is treated as "nothing to do".
	MinOrderVolume decimal.Decimal

	// FxMargin is the safety multiplier applied to the venue-side price when
	// the traded pair and the reference pair settle in different currencies.
	// One when no conversion is needed.
	FxMargin decimal.Decimal
}
