package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceLevel is a single price+volume entry in an orderbook.
type PriceLevel struct {
	Price  decimal.Decimal
	Volume decimal.Decimal
}

// OrderBook is an immutable snapshot of the venue book for one pair. Bids are
// sorted strictly descending by price, asks strictly ascending. A snapshot is
// created fresh on every query and never mutated afterwards.
type OrderBook struct {
	Pair      Pair
	Bids      []PriceLevel
	Asks      []PriceLevel
	Timestamp time.Time
}

// Pair is a traded instrument, e.g. BTC/USD.
type Pair struct {
	Base  string
	Quote string
}

func (p Pair) String() string {
	return p.Base + "/" + p.Quote
}

// Balance is the account balance for a single currency.
type Balance struct {
	Currency  string
	Available decimal.Decimal
	Total     decimal.Decimal
}
