package matching

import (
	"fmt"

	"go.uber.org/zap"
)

// dispatch classifies one inbound command and routes it to the Book,
// Validator, Matcher, or Lifecycle, replying synchronously once all of the
// command's state mutations (and synchronous event emissions) are
// complete. Unrecognised commands would be silently ignored, but the
// command type is closed over this package so that case can't arise from
// within matchcore itself.
func (e *Engine) dispatch(cmd command) {
	switch c := cmd.(type) {
	case PlaceBid:
		c.Order.Side = SideBid
		success, reason := e.admitOrReject(c.Order)
		c.Reply <- BidResult{Success: success, Reason: reason}

	case PlaceAsk:
		c.Order.Side = SideAsk
		success, reason := e.admitOrReject(c.Order)
		c.Reply <- AskResult{Success: success, Reason: reason}

	case GetPrice:
		bid, ask := e.book.BestBid(), e.book.BestAsk()
		reason, success := ReasonPriceUnavail, false
		if bid != nil && ask != nil {
			reason, success = ReasonPriceAvailable, true
		}
		c.Reply <- GetPriceResult{Bid: bid, Ask: ask, Success: success, Reason: reason}

	case GetTrades:
		trades := e.book.Trades()
		if len(trades) == 0 {
			c.Reply <- GetTradesResult{Success: false, Reason: ReasonNoTrades}
			return
		}
		orders := make([]Order, 0, len(trades)*2)
		for _, t := range trades {
			orders = append(orders, t.BidOrder, t.AskOrder)
		}
		c.Reply <- GetTradesResult{Orders: orders, Success: true, Reason: fmt.Sprintf("%d Orders Filled", len(orders))}

	case Halt:
		e.lifecycle.halt()
		e.metrics.halted.Set(1)
		e.logger.Info("engine halted", zap.String("symbol", e.symbol))

	case Start:
		e.lifecycle.start()
		e.metrics.halted.Set(0)
		e.logger.Info("engine started", zap.String("symbol", e.symbol))

	case DrainCheck:
		c.Reply <- DrainCheckResult{
			Halted:      !e.lifecycle.isRunning(),
			QueuedCount: len(e.commands),
		}
	}
}

// admitOrReject runs the order through Lifecycle then Validator then
// Matcher, in that order, since a halted engine rejects before validation
// is even attempted.
func (e *Engine) admitOrReject(o Order) (bool, string) {
	if !e.lifecycle.isRunning() {
		e.metrics.ordersRejected.WithLabelValues("halted").Inc()
		return false, ReasonEngineHalted
	}

	if err := Validate(e.book, o); err != nil {
		e.metrics.ordersRejected.WithLabelValues("invalid").Inc()
		e.logger.Debug("order rejected", zap.String("order_id", o.OrderID), zap.Error(err))
		return false, ReasonInvalidOrder
	}

	e.matcher.Admit(o)
	e.metrics.ordersPlaced.Inc()
	return true, ReasonValidOrder
}
