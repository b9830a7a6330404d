// Package matching implements a single-symbol continuous limit-order
// matching engine: book, validator, crossing matcher, event publisher,
// lifecycle, and command dispatcher, all bound to one instrument.
package matching

import (
	"github.com/shopspring/decimal"
)

// Side is which book an order rests on.
type Side string

const (
	SideBid Side = "bid"
	SideAsk Side = "ask"
)

// Order is an immutable intent submitted by a client.
type Order struct {
	OrderID string
	Symbol  string
	Side    Side
	Price   decimal.Decimal
	Units   int64
}

// ResidualOrder is a resting order in the book: an Order plus its mutable
// remaining quantity.
type ResidualOrder struct {
	Order          Order
	RemainingUnits int64
}

// Trade is an immutable record of one execution.
type Trade struct {
	BidOrder Order
	AskOrder Order
	// Price is the resting (maker) counter-order's price.
	Price decimal.Decimal
	Units int64
}

// --- Inbound commands ---
//
// Each command other than Halt/Start carries its own reply channel, so the
// dispatcher can reply synchronously without a generic envelope type. A
// command is processed to completion — including all synchronous event
// emissions — before the next one is read off the channel.
type command interface {
	isCommand()
}

// PlaceBid submits a buy order.
type PlaceBid struct {
	Order Order
	Reply chan BidResult
}

// PlaceAsk submits a sell order.
type PlaceAsk struct {
	Order Order
	Reply chan AskResult
}

// GetPrice queries the current best bid/ask.
type GetPrice struct {
	Reply chan GetPriceResult
}

// GetTrades queries the flattened order list of every settled trade.
type GetTrades struct {
	Reply chan GetTradesResult
}

// Halt stops order admission; queries keep working.
type Halt struct{}

// Start resumes order admission.
type Start struct{}

// DrainCheck reports lifecycle state and queue depth, as an additional
// observability surface alongside the mandated reject-while-halted
// semantics.
type DrainCheck struct {
	Reply chan DrainCheckResult
}

func (PlaceBid) isCommand()    {}
func (PlaceAsk) isCommand()    {}
func (GetPrice) isCommand()    {}
func (GetTrades) isCommand()   {}
func (Halt) isCommand()        {}
func (Start) isCommand()       {}
func (DrainCheck) isCommand()  {}

// --- Outbound replies ---

const (
	ReasonValidOrder     = "Valid Order"
	ReasonInvalidOrder   = "Invalid Order"
	ReasonEngineHalted   = "Engine Halted"
	ReasonPriceAvailable = "Price Available"
	ReasonPriceUnavail   = "Price Unavailable"
	ReasonNoTrades       = "No order has been executed"
)

// BidResult is the reply to PlaceBid.
type BidResult struct {
	Success bool
	Reason  string
}

// AskResult is the reply to PlaceAsk.
type AskResult struct {
	Success bool
	Reason  string
}

// GetPriceResult is the reply to GetPrice. Bid/Ask are nil when that side
// of the book is empty.
type GetPriceResult struct {
	Bid     *decimal.Decimal
	Ask     *decimal.Decimal
	Success bool
	Reason  string
}

// GetTradesResult is the reply to GetTrades.
type GetTradesResult struct {
	Orders  []Order
	Success bool
	Reason  string
}

// DrainCheckResult is the reply to DrainCheck.
type DrainCheckResult struct {
	Halted       bool
	QueuedCount  int
}

// --- Outbound broadcast events ---

// OrderPlaced fires once an order is admitted, before any resulting trades.
type OrderPlaced struct {
	Order Order
}

// PriceChanged fires whenever BestBid/BestAsk transition, including
// transitions to/from "none".
type PriceChanged struct {
	Symbol string
	Bid    *decimal.Decimal
	Ask    *decimal.Decimal
}

// TradeSettled fires once per fill, before the residuals it describes are
// mutated.
type TradeSettled struct {
	Symbol      string
	BidOrderID  string
	AskOrderID  string
	Price       decimal.Decimal
	Units       int64
}
