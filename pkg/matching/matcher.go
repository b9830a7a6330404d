package matching

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Matcher implements the crossing algorithm: admit, snapshot counter-orders,
// fill loop with maker-priced trades, and the settle-then-mutate event
// ordering contract.
type Matcher struct {
	book    *Book
	events  *EventPublisher
	metrics *EngineMetrics
	symbol  string
	logger  *zap.Logger
}

// NewMatcher constructs a Matcher bound to one book/publisher/symbol.
func NewMatcher(book *Book, events *EventPublisher, metrics *EngineMetrics, symbol string, logger *zap.Logger) *Matcher {
	return &Matcher{book: book, events: events, metrics: metrics, symbol: symbol, logger: logger}
}

// Admit inserts a validated order and runs it through the fill loop. The
// caller (Dispatcher) is responsible for running Validate first; Admit
// assumes the order is admissible.
func (m *Matcher) Admit(o Order) {
	ro := &ResidualOrder{Order: o, RemainingUnits: o.Units}

	bidBefore, askBefore := m.book.BestBid(), m.book.BestAsk()
	m.book.Insert(ro)
	m.events.Publish(OrderPlaced{Order: o})
	m.emitPriceChangedIfChanged(bidBefore, askBefore)

	candidates := m.book.CandidatesFor(o)
	for _, counter := range candidates {
		if ro.RemainingUnits <= 0 {
			break
		}
		if counter.RemainingUnits <= 0 {
			continue
		}

		q := min(ro.RemainingUnits, counter.RemainingUnits)
		trade := m.buildTrade(o, ro, counter, q)

		bidBeforeFill, askBeforeFill := m.book.BestBid(), m.book.BestAsk()

		// settle-then-fill: publish before mutating residuals.
		m.events.Publish(TradeSettled{
			Symbol:     m.symbol,
			BidOrderID: trade.BidOrder.OrderID,
			AskOrderID: trade.AskOrder.OrderID,
			Price:      trade.Price,
			Units:      trade.Units,
		})
		m.book.AppendTrade(trade)
		m.metrics.tradesSettled.Inc()
		m.metrics.tradeVolume.Add(float64(trade.Units))

		m.logger.Debug("trade settled",
			zap.String("symbol", m.symbol),
			zap.String("bid_order_id", trade.BidOrder.OrderID),
			zap.String("ask_order_id", trade.AskOrder.OrderID),
			zap.String("price", trade.Price.String()),
			zap.Int64("units", trade.Units))

		counter.RemainingUnits -= q
		if counter.RemainingUnits == 0 {
			m.book.Remove(counter)
		}

		ro.RemainingUnits -= q
		if ro.RemainingUnits == 0 {
			m.book.Remove(ro)
		}

		m.emitPriceChangedIfChanged(bidBeforeFill, askBeforeFill)
	}
}

// buildTrade wires bid/ask order references and prices the trade at the
// maker's (resting counter-order's) price.
func (m *Matcher) buildTrade(taker Order, ro, counter *ResidualOrder, units int64) Trade {
	if taker.Side == SideBid {
		return Trade{BidOrder: ro.Order, AskOrder: counter.Order, Price: counter.Order.Price, Units: units}
	}
	return Trade{BidOrder: counter.Order, AskOrder: ro.Order, Price: counter.Order.Price, Units: units}
}

func (m *Matcher) emitPriceChangedIfChanged(beforeBid, beforeAsk *decimal.Decimal) {
	afterBid, afterAsk := m.book.BestBid(), m.book.BestAsk()
	if priceEqual(beforeBid, afterBid) && priceEqual(beforeAsk, afterAsk) {
		return
	}
	m.events.Publish(PriceChanged{Symbol: m.symbol, Bid: afterBid, Ask: afterAsk})
}

func priceEqual(a, b *decimal.Decimal) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
