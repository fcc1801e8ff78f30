package domain

import (
	"github.com/shopspring/decimal"
)

// OrderSide indicates whether this is a buy or sell.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// OrderStatus is the remote lifecycle state reported by the venue.
type OrderStatus string

const (
	OrderStatusActive OrderStatus = "active"
	OrderStatusFilled OrderStatus = "filled"
	OrderStatusKilled OrderStatus = "killed"
)

// Final reports whether the venue will never again change this status.
func (s OrderStatus) Final() bool {
	return s == OrderStatusFilled || s == OrderStatusKilled
}

// Order is the single resting bid this process may own on the venue at any
// time. ID is empty while no order exists.
type Order struct {
	ID              string
	Side            OrderSide
	Price           decimal.Decimal
	Volume          decimal.Decimal
	RemainingVolume decimal.Decimal
	Status          OrderStatus
}

// Exists reports whether the order has been placed on the venue.
func (o Order) Exists() bool {
	return o.ID != ""
}
