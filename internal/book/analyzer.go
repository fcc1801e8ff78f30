// Package book provides pure read-only analysis over orderbook snapshots.
// Bids are assumed strictly descending by price; callers must supply a valid
// snapshot.
package book

import (
	"github.com/shopspring/decimal"

	"github.com/quantfield/chaser/internal/domain"
)

// BestBidPrice returns the price of the highest bid level. ok is false when
// the book has no bids.
func BestBidPrice(ob domain.OrderBook) (decimal.Decimal, bool) {
	if len(ob.Bids) == 0 {
		return decimal.Decimal{}, false
	}
	return ob.Bids[0].Price, true
}

// VolumeAbove sums the volume of every bid level priced strictly greater than
// price. It returns zero when no level qualifies.
func VolumeAbove(ob domain.OrderBook, price decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, level := range ob.Bids {
		if level.Price.Cmp(price) <= 0 {
			// Bids are descending, nothing further can qualify.
			break
		}
		total = total.Add(level.Volume)
	}
	return total
}

// NextBidBelow returns the price of the first bid level strictly below price,
// scanning from the top of the book. ok is false when no such level exists.
// The distance to it measures how exposed an order at price is to being
// undercut from below.
func NextBidBelow(ob domain.OrderBook, price decimal.Decimal) (decimal.Decimal, bool) {
	for _, level := range ob.Bids {
		if level.Price.Cmp(price) < 0 {
			return level.Price, true
		}
	}
	return decimal.Decimal{}, false
}
