package matching

import (
	"github.com/shopspring/decimal"
	"github.com/tidwall/btree"
	"go.uber.org/zap"
)

// priceLevel is one price point on one side of the book: a FIFO of resting
// orders at that exact price, oldest first.
type priceLevel struct {
	price  decimal.Decimal
	orders []*ResidualOrder
}

// priceLevels is a price-ordered map of price -> FIFO. The Less function
// encodes priority directly so that Scan always visits levels
// best-price-first, regardless of side.
type priceLevels = btree.BTreeG[*priceLevel]

// Book is the engine-local state: both sides of resting orders, the
// append-only trade log, and the derived best bid/ask.
type Book struct {
	bids *priceLevels
	asks *priceLevels

	// orderIndex maps a live order_id to its resting order. Remove does not
	// consult it: it looks up the order's price level and scans that
	// level's FIFO.
	orderIndex map[string]*ResidualOrder

	// seenIDs is never purged, so a filled-and-removed order's ID stays
	// rejected on resubmission.
	seenIDs map[string]struct{}

	trades []Trade

	bestBid *decimal.Decimal
	bestAsk *decimal.Decimal

	logger *zap.Logger
}

// NewBook constructs an empty book.
func NewBook(logger *zap.Logger) *Book {
	bids := btree.NewBTreeG(func(a, b *priceLevel) bool {
		return a.price.GreaterThan(b.price)
	})
	asks := btree.NewBTreeG(func(a, b *priceLevel) bool {
		return a.price.LessThan(b.price)
	})
	return &Book{
		bids:       bids,
		asks:       asks,
		orderIndex: make(map[string]*ResidualOrder),
		seenIDs:    make(map[string]struct{}),
		logger:     logger,
	}
}

func (b *Book) levelsFor(side Side) *priceLevels {
	if side == SideBid {
		return b.bids
	}
	return b.asks
}

// Seen reports whether order_id has ever been admitted to this book,
// whether or not it is still resting.
func (b *Book) Seen(orderID string) bool {
	_, ok := b.seenIDs[orderID]
	return ok
}

// Insert adds a residual order to its side, creating the price level if
// needed, and recomputes that side's derived best price.
func (b *Book) Insert(ro *ResidualOrder) {
	b.seenIDs[ro.Order.OrderID] = struct{}{}
	b.orderIndex[ro.Order.OrderID] = ro

	levels := b.levelsFor(ro.Order.Side)
	pivot := &priceLevel{price: ro.Order.Price}
	level, ok := levels.Get(pivot)
	if !ok {
		level = &priceLevel{price: ro.Order.Price, orders: []*ResidualOrder{ro}}
		levels.Set(level)
	} else {
		level.orders = append(level.orders, ro)
	}

	b.recomputeBest(ro.Order.Side)
}

// Remove takes a residual order off its side (and out of the index),
// deleting an emptied price level, and recomputes that side's best price.
func (b *Book) Remove(ro *ResidualOrder) {
	delete(b.orderIndex, ro.Order.OrderID)

	levels := b.levelsFor(ro.Order.Side)
	pivot := &priceLevel{price: ro.Order.Price}
	level, ok := levels.Get(pivot)
	if !ok {
		return
	}
	for i, o := range level.orders {
		if o == ro {
			level.orders = append(level.orders[:i], level.orders[i+1:]...)
			break
		}
	}
	if len(level.orders) == 0 {
		levels.Delete(level)
	}

	b.recomputeBest(ro.Order.Side)
}

// CandidatesFor returns a stable snapshot of resting counter-orders that
// could fill incoming, in book priority order: best price first, FIFO
// within a price level.
func (b *Book) CandidatesFor(incoming Order) []*ResidualOrder {
	var counterSide Side
	var crosses func(counterPrice decimal.Decimal) bool
	if incoming.Side == SideBid {
		counterSide = SideAsk
		crosses = func(p decimal.Decimal) bool { return p.LessThanOrEqual(incoming.Price) }
	} else {
		counterSide = SideBid
		crosses = func(p decimal.Decimal) bool { return p.GreaterThanOrEqual(incoming.Price) }
	}

	var snapshot []*ResidualOrder
	b.levelsFor(counterSide).Scan(func(level *priceLevel) bool {
		if !crosses(level.price) {
			return false
		}
		snapshot = append(snapshot, level.orders...)
		return true
	})
	return snapshot
}

// BestBid returns the best (highest) resting bid price, or nil.
func (b *Book) BestBid() *decimal.Decimal {
	return b.bestBid
}

// BestAsk returns the best (lowest) resting ask price, or nil.
func (b *Book) BestAsk() *decimal.Decimal {
	return b.bestAsk
}

// AppendTrade records a settled trade. trades is append-only: entries are
// never mutated or removed once recorded.
func (b *Book) AppendTrade(t Trade) {
	b.trades = append(b.trades, t)
}

// Trades returns the append-only trade log, oldest first.
func (b *Book) Trades() []Trade {
	return b.trades
}

func (b *Book) recomputeBest(side Side) {
	levels := b.levelsFor(side)
	top, ok := levels.Min()

	var newVal *decimal.Decimal
	if ok {
		p := top.price
		newVal = &p
	}

	if side == SideBid {
		b.bestBid = newVal
	} else {
		b.bestAsk = newVal
	}
}
