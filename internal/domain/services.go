package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// TradeService is the order management surface of the target venue.
type TradeService interface {
	// PlaceLimitOrder submits a limit order and returns the venue order ID.
	PlaceLimitOrder(ctx context.Context, side OrderSide, volume decimal.Decimal, pair Pair, price decimal.Decimal) (string, error)
	// CancelOrder cancels one order. Cancelling an order that is already
	// filled or killed returns ErrOrderFinal.
	CancelOrder(ctx context.Context, orderID string) error
	// CancelAllOrders cancels every open order on the account.
	CancelAllOrders(ctx context.Context) error
	// GetOrderStatus returns the current remote state of an order.
	GetOrderStatus(ctx context.Context, orderID string) (Order, error)
}

// MarketDataService is the public market data surface of the target venue.
type MarketDataService interface {
	GetOrderBook(ctx context.Context, pair Pair) (OrderBook, error)
	GetTicker(ctx context.Context, pair Pair) (decimal.Decimal, error)
}

// AccountService exposes account balances on the target venue.
type AccountService interface {
	GetBalance(ctx context.Context, currency string) (Balance, error)
}

// PriceFeed is one external reference venue. BestBidPrice performs a network
// round trip; callers cache the result and apply their own staleness rules.
type PriceFeed interface {
	Name() string
	BestBidPrice(ctx context.Context, pair Pair) (decimal.Decimal, error)
}

// FxRateProvider converts between quote currencies. Rate returns how many
// units of quote one unit of base buys.
type FxRateProvider interface {
	Rate(ctx context.Context, base, quote string) (decimal.Decimal, error)
}
