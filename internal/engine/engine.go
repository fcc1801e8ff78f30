package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/quantfield/chaser/internal/clock"
	"github.com/quantfield/chaser/internal/domain"
	"github.com/quantfield/chaser/internal/request"
)

// shutdownCancelTimeout bounds the final best-effort cancel-all on exit.
const shutdownCancelTimeout = 30 * time.Second

// Notifier receives operator-facing events. Implementations must be safe for
// concurrent use; a nil Notifier disables notifications.
type Notifier interface {
	Notify(ctx context.Context, title, message string)
}

// Engine runs trading cycles forever: cancel all venue orders, run one full
// lifecycle to a fill (or "nothing to do"), wait the inter-cycle interval,
// repeat. A fatal venue error aborts the cycle, not the process. Any order
// still outstanding is cancelled on the way out.
type Engine struct {
	ctrl     *Controller
	trade    domain.TradeService
	exec     *request.Executor
	params   domain.TradingParameters
	clock    clock.Clock
	notifier Notifier
	logger   *slog.Logger
}

// NewEngine wraps ctrl with the outer cycle loop. notifier may be nil.
func NewEngine(ctrl *Controller, trade domain.TradeService, exec *request.Executor, params domain.TradingParameters, clk clock.Clock, notifier Notifier, logger *slog.Logger) *Engine {
	return &Engine{
		ctrl:     ctrl,
		trade:    trade,
		exec:     exec,
		params:   params,
		clock:    clk,
		notifier: notifier,
		logger:   logger.With(slog.String("component", "engine")),
	}
}

// Run blocks until ctx is cancelled. The process never recovers state from a
// previous run: every cycle starts by cancelling all orders at the venue.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("engine started")
	defer e.shutdownCancel()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := e.cancelAll(ctx); err != nil {
			return err
		}

		result, err := e.ctrl.RunCycle(ctx)
		switch {
		case err == nil:
			switch result {
			case CycleFilled:
				e.logger.Info("cycle completed: order filled")
				e.notify(ctx, "order filled", fmt.Sprintf("bid filled at %s for %s",
					e.ctrl.Session().Order.Price, e.ctrl.Session().Order.Volume))
			case CycleNothingToDo:
				e.logger.Info("cycle completed: nothing to do")
			}
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return err
		default:
			// Fatal venue error for this cycle only; start a fresh one after
			// the inter-cycle wait.
			e.logger.Error("cycle aborted", slog.String("error", err.Error()))
			e.notify(ctx, "cycle aborted", err.Error())
		}

		if err := e.clock.Sleep(ctx, e.params.InterCycleWait); err != nil {
			return err
		}
	}
}

// cancelAll cancels every account order through the retrying executor.
func (e *Engine) cancelAll(ctx context.Context) error {
	err := e.exec.Run(ctx, "cancelAllOrders", e.trade.CancelAllOrders)
	if err != nil {
		return err
	}
	e.logger.Info("cancelled all active account orders")
	return nil
}

// shutdownCancel makes one synchronous best-effort attempt to leave no order
// behind. It runs on a detached context because the engine context is already
// cancelled by the time we get here.
func (e *Engine) shutdownCancel() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownCancelTimeout)
	defer cancel()
	if err := e.trade.CancelAllOrders(ctx); err != nil {
		e.logger.Error("final cancel-all failed", slog.String("error", err.Error()))
		return
	}
	e.logger.Info("engine stopped, all orders cancelled")
}

func (e *Engine) notify(ctx context.Context, title, message string) {
	if e.notifier == nil {
		return
	}
	e.notifier.Notify(ctx, title, message)
}
