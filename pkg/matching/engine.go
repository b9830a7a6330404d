package matching

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/tradsys/matchcore/pkg/config"
)

// Engine is the single-symbol matching engine: one Book, one Matcher, one
// EventPublisher, one Lifecycle, all fed by one command channel drained by a
// single dispatcher goroutine. Commands are processed strictly
// sequentially, one at a time, to completion.
type Engine struct {
	symbol    string
	book      *Book
	matcher   *Matcher
	events    *EventPublisher
	lifecycle *lifecycle
	metrics   *EngineMetrics
	logger    *zap.Logger

	commands chan command
	done     chan struct{}
}

// NewEngine wires a Book, Matcher, EventPublisher, and EngineMetrics for one
// symbol and starts its dispatcher goroutine. reg may be nil to skip
// Prometheus registration (e.g. in tests).
func NewEngine(cfg config.EngineConfig, logger *zap.Logger, reg prometheus.Registerer) (*Engine, error) {
	events, err := NewEventPublisher(cfg.EventWorkerPool, logger)
	if err != nil {
		return nil, err
	}

	book := NewBook(logger)
	metrics := NewEngineMetrics(reg, cfg.Symbol)
	matcher := NewMatcher(book, events, metrics, cfg.Symbol, logger)

	e := &Engine{
		symbol:    cfg.Symbol,
		book:      book,
		matcher:   matcher,
		events:    events,
		lifecycle: newLifecycle(),
		metrics:   metrics,
		logger:    logger,
		commands:  make(chan command, cfg.CommandBufferSize),
		done:      make(chan struct{}),
	}

	go e.run()
	return e, nil
}

func (e *Engine) run() {
	for cmd := range e.commands {
		e.dispatch(cmd)
	}
	close(e.done)
}

// PlaceBid submits a buy order and blocks until it has been admitted or
// rejected.
func (e *Engine) PlaceBid(o Order) BidResult {
	o.Symbol = e.symbol
	reply := make(chan BidResult, 1)
	e.commands <- PlaceBid{Order: o, Reply: reply}
	return <-reply
}

// PlaceAsk submits a sell order and blocks until it has been admitted or
// rejected.
func (e *Engine) PlaceAsk(o Order) AskResult {
	o.Symbol = e.symbol
	reply := make(chan AskResult, 1)
	e.commands <- PlaceAsk{Order: o, Reply: reply}
	return <-reply
}

// GetPrice returns the current best bid/ask.
func (e *Engine) GetPrice() GetPriceResult {
	reply := make(chan GetPriceResult, 1)
	e.commands <- GetPrice{Reply: reply}
	return <-reply
}

// GetTrades returns the flattened order list of every settled trade.
func (e *Engine) GetTrades() GetTradesResult {
	reply := make(chan GetTradesResult, 1)
	e.commands <- GetTrades{Reply: reply}
	return <-reply
}

// Halt stops order admission; queries keep working. Queued commands ahead
// of it still run first, preserving submission order.
func (e *Engine) Halt() {
	e.commands <- Halt{}
}

// Start resumes order admission after a Halt.
func (e *Engine) Start() {
	e.commands <- Start{}
}

// DrainCheck reports lifecycle state and queue depth.
func (e *Engine) DrainCheck() DrainCheckResult {
	reply := make(chan DrainCheckResult, 1)
	e.commands <- DrainCheck{Reply: reply}
	return <-reply
}

// Events exposes the engine's broadcast event sink (OrderPlaced,
// PriceChanged, TradeSettled).
func (e *Engine) Events() <-chan Event {
	return e.events.Events()
}

// Close stops accepting new commands, waits for the dispatcher to drain
// what's already queued, and releases the event publisher's resources.
// Close must only be called once, and no goroutine may call Place*/Get*/
// Halt/Start concurrently with or after it.
func (e *Engine) Close() error {
	close(e.commands)
	<-e.done
	return e.events.Close()
}
