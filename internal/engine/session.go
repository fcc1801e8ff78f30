package engine

import (
	"github.com/shopspring/decimal"

	"github.com/quantfield/chaser/internal/domain"
)

// Session is the mutable trading state of one controller. It is owned
// exclusively by the control goroutine and mutated only through the state
// machine transitions; pollers publish into their own cells and never touch
// it.
type Session struct {
	// Order is the standing bid, zero-valued while none exists. At most one
	// order exists at any time; the controller cancels before it replaces.
	Order domain.Order

	// ReferencePrice is the last reference price observed by the controller.
	ReferencePrice decimal.Decimal

	// BestBid is the last venue best bid observed by the controller.
	BestBid decimal.Decimal
}

// clearOrder forgets the standing order after a cancel or kill.
func (s *Session) clearOrder() {
	s.Order = domain.Order{}
}
