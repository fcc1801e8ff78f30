// Package policy holds the predicates that decide whether the standing order
// must be cancelled and replaced. The controller evaluates them as a flat OR:
// any one firing triggers the same single cancellation, with no priority
// between policies.
package policy

import (
	"github.com/shopspring/decimal"

	"github.com/quantfield/chaser/internal/book"
	"github.com/quantfield/chaser/internal/domain"
)

// Policy decides whether the standing order should be cancelled given a fresh
// orderbook snapshot.
type Policy interface {
	Name() string
	ShouldCancel(order domain.Order, ob domain.OrderBook) bool
}

// FirstFiring returns the name of the first policy that wants the order
// cancelled, or ok=false when none fire. Which policy fires first carries no
// meaning beyond logging.
func FirstFiring(policies []Policy, order domain.Order, ob domain.OrderBook) (string, bool) {
	for _, p := range policies {
		if p.ShouldCancel(order, ob) {
			return p.Name(), true
		}
	}
	return "", false
}

// SingleBidRow fires when fewer than two bid levels remain, meaning our own
// order is essentially the entire visible book and there is nobody left to
// trade against.
type SingleBidRow struct{}

func (SingleBidRow) Name() string { return "single_bid_row" }

func (SingleBidRow) ShouldCancel(_ domain.Order, ob domain.OrderBook) bool {
	return len(ob.Bids) < 2
}

// StepToMove fires when the best bid has moved more than Threshold above our
// order price, i.e. we have fallen too far behind the top of the book.
type StepToMove struct {
	Threshold decimal.Decimal
}

func (StepToMove) Name() string { return "step_to_move" }

func (p StepToMove) ShouldCancel(order domain.Order, ob domain.OrderBook) bool {
	bestBid, ok := book.BestBidPrice(ob)
	if !ok {
		return false
	}
	return bestBid.Sub(order.Price).Cmp(p.Threshold) > 0
}

// VolumeToMove fires when at least Threshold volume is resting at prices
// above our order, i.e. too much better-priced liquidity is queued ahead.
type VolumeToMove struct {
	Threshold decimal.Decimal
}

func (VolumeToMove) Name() string { return "volume_to_move" }

func (p VolumeToMove) ShouldCancel(order domain.Order, ob domain.OrderBook) bool {
	return book.VolumeAbove(ob, order.Price).Cmp(p.Threshold) >= 0
}

// Sensitivity fires when our order sits more than Threshold above the next
// lower bid; an isolated order can be repriced tighter without losing queue
// position to anyone.
type Sensitivity struct {
	Threshold decimal.Decimal
}

func (Sensitivity) Name() string { return "sensitivity" }

func (p Sensitivity) ShouldCancel(order domain.Order, ob domain.OrderBook) bool {
	next, ok := book.NextBidBelow(ob, order.Price)
	if !ok {
		return false
	}
	return order.Price.Sub(next).Cmp(p.Threshold) > 0
}

// ReferenceInvalidated fires when the entry condition the order was placed
// under no longer holds, recomputed live against the current reference price.
// Holds receives the best bid of the fresh snapshot; an empty book never
// fires this policy (SingleBidRow covers that case).
type ReferenceInvalidated struct {
	Holds func(bestBid decimal.Decimal) bool
}

func (ReferenceInvalidated) Name() string { return "reference_invalidated" }

func (p ReferenceInvalidated) ShouldCancel(_ domain.Order, ob domain.OrderBook) bool {
	bestBid, ok := book.BestBidPrice(ob)
	if !ok {
		return false
	}
	return !p.Holds(bestBid)
}
