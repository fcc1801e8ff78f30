// Package engine drives the order lifecycle: wait for an acceptable entry
// price, place a single resting bid just above the best bid, monitor it, and
// replace it whenever a cancel policy fires, until it fills.
package engine

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/quantfield/chaser/internal/book"
	"github.com/quantfield/chaser/internal/clock"
	"github.com/quantfield/chaser/internal/domain"
	"github.com/quantfield/chaser/internal/policy"
	"github.com/quantfield/chaser/internal/request"
)

// State is a phase of the order lifecycle state machine.
type State string

const (
	StateAwaitingEntryPrice State = "awaiting_entry_price"
	StatePlacing            State = "placing"
	StateMonitoring         State = "monitoring"
	StateNeedsReplace       State = "needs_replace"
	StateFilled             State = "filled"
)

// CycleResult is the terminal outcome of one successful cycle.
type CycleResult int

const (
	// CycleFilled means the standing order filled.
	CycleFilled CycleResult = iota
	// CycleNothingToDo means the available balance was too small to place a
	// meaningful order; distinguished from a fill.
	CycleNothingToDo
)

// ReferenceSource supplies the current reference price without blocking.
type ReferenceSource interface {
	CurrentReferencePrice() (decimal.Decimal, bool)
}

// Controller runs the state machine for a single pair. It is not safe for
// concurrent use; one goroutine owns it.
type Controller struct {
	trade   domain.TradeService
	market  domain.MarketDataService
	account domain.AccountService
	exec    *request.Executor
	ref     ReferenceSource
	params  domain.TradingParameters
	pair    domain.Pair
	clock   clock.Clock
	logger  *slog.Logger

	policies []policy.Policy
	session  Session
}

// NewController wires a controller for pair. The cancel policy set is fixed:
// single bid row, step to move, volume to move, sensitivity, and reference
// invalidation, evaluated as a flat OR.
func NewController(
	trade domain.TradeService,
	market domain.MarketDataService,
	account domain.AccountService,
	exec *request.Executor,
	ref ReferenceSource,
	params domain.TradingParameters,
	pair domain.Pair,
	clk clock.Clock,
	logger *slog.Logger,
) *Controller {
	c := &Controller{
		trade:   trade,
		market:  market,
		account: account,
		exec:    exec,
		ref:     ref,
		params:  params,
		pair:    pair,
		clock:   clk,
		logger:  logger.With(slog.String("component", "controller"), slog.String("pair", pair.String())),
	}
	c.policies = []policy.Policy{
		policy.SingleBidRow{},
		policy.StepToMove{Threshold: params.StepToMove},
		policy.VolumeToMove{Threshold: params.VolumeToMove},
		policy.Sensitivity{Threshold: params.Sensitivity},
		policy.ReferenceInvalidated{Holds: c.entryConditionHolds},
	}
	return c
}

// Session returns a copy of the controller's current session state.
func (c *Controller) Session() Session {
	return c.session
}

// entryConditionHolds reports whether bidding at bestBid is acceptable: a
// reference price must be available and the best bid, scaled by the
// acceptability ratio and the FX safety margin, must not exceed it.
func (c *Controller) entryConditionHolds(bestBid decimal.Decimal) bool {
	ref, ok := c.ref.CurrentReferencePrice()
	if !ok {
		return false
	}
	return bestBid.Mul(c.params.PriceAcceptabilityRatio).Mul(c.params.FxMargin).Cmp(ref) <= 0
}

// RunCycle executes one full cycle of the state machine, from awaiting an
// acceptable entry price through a fill (or "nothing to do"). Any error is
// either cancellation or a fatal venue error for this cycle.
func (c *Controller) RunCycle(ctx context.Context) (CycleResult, error) {
	state := StateAwaitingEntryPrice
	for {
		c.logger.Debug("state transition", slog.String("state", string(state)))
		var err error
		switch state {
		case StateAwaitingEntryPrice:
			if err = c.awaitEntryPrice(ctx); err == nil {
				state = StatePlacing
			}
		case StatePlacing:
			var placed bool
			placed, err = c.place(ctx)
			if err == nil && !placed {
				return CycleNothingToDo, nil
			}
			state = StateMonitoring
		case StateMonitoring:
			state, err = c.monitor(ctx)
		case StateNeedsReplace:
			state = StateAwaitingEntryPrice
		case StateFilled:
			c.logger.Info("order filled",
				slog.String("order_id", c.session.Order.ID),
				slog.String("price", c.session.Order.Price.String()),
				slog.String("volume", c.session.Order.Volume.String()),
			)
			return CycleFilled, nil
		}
		if err != nil {
			return 0, err
		}
	}
}

// awaitEntryPrice blocks until the entry condition holds. While it fails, any
// order left over from an earlier iteration is cancelled so it cannot fill on
// assumptions that no longer hold.
func (c *Controller) awaitEntryPrice(ctx context.Context) error {
	for {
		bestBid, err := c.fetchBestBid(ctx)
		if err != nil {
			return err
		}
		c.session.BestBid = bestBid

		ref, refOK := c.ref.CurrentReferencePrice()
		if refOK {
			c.session.ReferencePrice = ref
			if c.entryConditionHolds(bestBid) {
				c.logger.Info("entry price acceptable",
					slog.String("reference_price", ref.String()),
					slog.String("best_bid", bestBid.String()),
				)
				return nil
			}
			c.logger.Info("waiting for acceptable price",
				slog.String("reference_price", ref.String()),
				slog.String("best_bid", bestBid.String()),
			)
		} else {
			c.logger.Info("no reference price, waiting for sources")
		}

		if c.session.Order.Exists() {
			if err := c.cancelStandingOrder(ctx, "entry condition no longer holds"); err != nil {
				return err
			}
		}

		if err := c.clock.Sleep(ctx, c.params.RecomputeInterval); err != nil {
			return err
		}
	}
}

// place computes the order price and volume and submits the bid. It returns
// placed=false, with no order on the venue, when the affordable volume is
// below the configured minimum.
func (c *Controller) place(ctx context.Context) (placed bool, err error) {
	price := c.session.BestBid.Add(c.params.PriceAddition)
	if !c.params.MaxPrice.IsZero() && price.Cmp(c.params.MaxPrice) > 0 {
		c.logger.Warn("computed price above maximum, not placing",
			slog.String("price", price.String()),
			slog.String("max_price", c.params.MaxPrice.String()),
		)
		return false, nil
	}

	balance, err := request.Do(ctx, c.exec, "getBalance", func(ctx context.Context) (domain.Balance, error) {
		return c.account.GetBalance(ctx, c.pair.Quote)
	})
	if err != nil {
		return false, err
	}

	volume := balance.Available.Div(price).RoundDown(c.params.VolumeScale)
	if volume.Cmp(c.params.MinOrderVolume) < 0 {
		c.logger.Info("available balance below minimum order size, nothing to do",
			slog.String("available", balance.Available.String()),
			slog.String("volume", volume.String()),
			slog.String("min_order_volume", c.params.MinOrderVolume.String()),
		)
		return false, nil
	}

	orderID, err := request.Do(ctx, c.exec, "placeLimitOrder", func(ctx context.Context) (string, error) {
		return c.trade.PlaceLimitOrder(ctx, domain.OrderSideBuy, volume, c.pair, price)
	})
	if err != nil {
		return false, err
	}

	c.session.Order = domain.Order{
		ID:              orderID,
		Side:            domain.OrderSideBuy,
		Price:           price,
		Volume:          volume,
		RemainingVolume: volume,
		Status:          domain.OrderStatusActive,
	}
	c.logger.Info("order placed",
		slog.String("order_id", orderID),
		slog.String("price", price.String()),
		slog.String("volume", volume.String()),
	)
	return true, nil
}

// monitor polls the standing order until it fills or a cancel policy fires.
// When a policy fires the status is re-checked once before cancelling, to
// avoid racing a concurrent fill or kill.
func (c *Controller) monitor(ctx context.Context) (State, error) {
	for {
		if err := c.clock.Sleep(ctx, c.params.OrderCheckInterval); err != nil {
			return "", err
		}

		order, err := c.fetchOrderStatus(ctx)
		if err != nil {
			return "", err
		}
		c.logger.Debug("order status", slog.String("status", string(order.Status)))

		switch order.Status {
		case domain.OrderStatusFilled:
			c.session.Order.Status = domain.OrderStatusFilled
			return StateFilled, nil
		case domain.OrderStatusKilled:
			// Killed remotely (operator or venue); start over.
			c.logger.Warn("order killed remotely", slog.String("order_id", order.ID))
			c.session.clearOrder()
			return StateNeedsReplace, nil
		}

		ob, err := request.Do(ctx, c.exec, "getOrderBook", func(ctx context.Context) (domain.OrderBook, error) {
			return c.market.GetOrderBook(ctx, c.pair)
		})
		if err != nil {
			return "", err
		}
		if bid, ok := book.BestBidPrice(ob); ok {
			c.session.BestBid = bid
		}

		name, fired := policy.FirstFiring(c.policies, c.session.Order, ob)
		if !fired {
			continue
		}
		c.logger.Info("cancel policy fired",
			slog.String("policy", name),
			slog.String("order_id", c.session.Order.ID),
		)

		// Re-check once: the order may have filled while the policy looked at
		// an older book.
		order, err = c.fetchOrderStatus(ctx)
		if err != nil {
			return "", err
		}
		if order.Status == domain.OrderStatusFilled {
			c.session.Order.Status = domain.OrderStatusFilled
			return StateFilled, nil
		}
		if order.Status == domain.OrderStatusKilled {
			c.session.clearOrder()
			return StateNeedsReplace, nil
		}

		if err := c.cancelStandingOrder(ctx, name); err != nil {
			return "", err
		}
		return StateNeedsReplace, nil
	}
}

// fetchBestBid retrieves the venue best bid, waiting out empty books; an
// empty book means the venue is momentarily without liquidity, not an error.
func (c *Controller) fetchBestBid(ctx context.Context) (decimal.Decimal, error) {
	for {
		ob, err := request.Do(ctx, c.exec, "getOrderBook", func(ctx context.Context) (domain.OrderBook, error) {
			return c.market.GetOrderBook(ctx, c.pair)
		})
		if err != nil {
			return decimal.Decimal{}, err
		}
		if bid, ok := book.BestBidPrice(ob); ok {
			return bid, nil
		}
		c.logger.Info("venue orderbook empty, waiting for liquidity")
		if err := c.clock.Sleep(ctx, c.params.RecomputeInterval); err != nil {
			return decimal.Decimal{}, err
		}
	}
}

func (c *Controller) fetchOrderStatus(ctx context.Context) (domain.Order, error) {
	id := c.session.Order.ID
	return request.Do(ctx, c.exec, "getOrderStatus", func(ctx context.Context) (domain.Order, error) {
		return c.trade.GetOrderStatus(ctx, id)
	})
}

// cancelStandingOrder cancels the session order best-effort. A venue report
// that the order is already filled or killed is logged and swallowed; the
// cancel must be idempotent.
func (c *Controller) cancelStandingOrder(ctx context.Context, reason string) error {
	id := c.session.Order.ID
	err := c.exec.Run(ctx, "cancelOrder", func(ctx context.Context) error {
		return c.trade.CancelOrder(ctx, id)
	})
	switch {
	case err == nil:
		c.logger.Info("order cancelled",
			slog.String("order_id", id),
			slog.String("reason", reason),
		)
	case errors.Is(err, domain.ErrOrderFinal), errors.Is(err, domain.ErrOrderNotFound):
		c.logger.Info("order already final, cancel skipped",
			slog.String("order_id", id),
		)
	default:
		return err
	}
	c.session.clearOrder()
	return nil
}
