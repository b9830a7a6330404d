package matching

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestBook() *Book {
	return NewBook(zap.NewNop())
}

func TestBook_EmptyBookHasNoBestPrices(t *testing.T) {
	b := newTestBook()
	assert.Nil(t, b.BestBid())
	assert.Nil(t, b.BestAsk())
}

func TestBook_InsertSetsBestPrice(t *testing.T) {
	b := newTestBook()
	ro := &ResidualOrder{
		Order:          Order{OrderID: "b1", Side: SideBid, Price: decimal.NewFromFloat(10), Units: 5},
		RemainingUnits: 5,
	}
	b.Insert(ro)

	require.NotNil(t, b.BestBid())
	assert.True(t, b.BestBid().Equal(decimal.NewFromFloat(10)))
	assert.Nil(t, b.BestAsk())
}

func TestBook_BestBidIsHighestBestAskIsLowest(t *testing.T) {
	b := newTestBook()
	b.Insert(&ResidualOrder{Order: Order{OrderID: "b1", Side: SideBid, Price: decimal.NewFromFloat(10), Units: 1}, RemainingUnits: 1})
	b.Insert(&ResidualOrder{Order: Order{OrderID: "b2", Side: SideBid, Price: decimal.NewFromFloat(12), Units: 1}, RemainingUnits: 1})
	b.Insert(&ResidualOrder{Order: Order{OrderID: "a1", Side: SideAsk, Price: decimal.NewFromFloat(20), Units: 1}, RemainingUnits: 1})
	b.Insert(&ResidualOrder{Order: Order{OrderID: "a2", Side: SideAsk, Price: decimal.NewFromFloat(15), Units: 1}, RemainingUnits: 1})

	assert.True(t, b.BestBid().Equal(decimal.NewFromFloat(12)))
	assert.True(t, b.BestAsk().Equal(decimal.NewFromFloat(15)))
}

func TestBook_RemoveEmptiesLevelAndRecomputesBest(t *testing.T) {
	b := newTestBook()
	low := &ResidualOrder{Order: Order{OrderID: "b1", Side: SideBid, Price: decimal.NewFromFloat(10), Units: 1}, RemainingUnits: 1}
	high := &ResidualOrder{Order: Order{OrderID: "b2", Side: SideBid, Price: decimal.NewFromFloat(12), Units: 1}, RemainingUnits: 1}
	b.Insert(low)
	b.Insert(high)

	b.Remove(high)
	require.NotNil(t, b.BestBid())
	assert.True(t, b.BestBid().Equal(decimal.NewFromFloat(10)))

	b.Remove(low)
	assert.Nil(t, b.BestBid())
}

func TestBook_SeenRejectsReuseAfterRemoval(t *testing.T) {
	b := newTestBook()
	ro := &ResidualOrder{Order: Order{OrderID: "dup-1", Side: SideBid, Price: decimal.NewFromFloat(10), Units: 1}, RemainingUnits: 1}
	b.Insert(ro)
	b.Remove(ro)

	assert.True(t, b.Seen("dup-1"))
}

func TestBook_CandidatesForOrdersByPriceThenFIFO(t *testing.T) {
	b := newTestBook()
	// two asks at the same best price, inserted in order
	first := &ResidualOrder{Order: Order{OrderID: "a1", Side: SideAsk, Price: decimal.NewFromFloat(10), Units: 1}, RemainingUnits: 1}
	second := &ResidualOrder{Order: Order{OrderID: "a2", Side: SideAsk, Price: decimal.NewFromFloat(10), Units: 1}, RemainingUnits: 1}
	worse := &ResidualOrder{Order: Order{OrderID: "a3", Side: SideAsk, Price: decimal.NewFromFloat(11), Units: 1}, RemainingUnits: 1}
	b.Insert(first)
	b.Insert(second)
	b.Insert(worse)

	incoming := Order{OrderID: "b1", Side: SideBid, Price: decimal.NewFromFloat(11), Units: 3}
	candidates := b.CandidatesFor(incoming)

	require.Len(t, candidates, 3)
	assert.Equal(t, "a1", candidates[0].Order.OrderID)
	assert.Equal(t, "a2", candidates[1].Order.OrderID)
	assert.Equal(t, "a3", candidates[2].Order.OrderID)
}

func TestBook_CandidatesForExcludesNonCrossingLevels(t *testing.T) {
	b := newTestBook()
	b.Insert(&ResidualOrder{Order: Order{OrderID: "a1", Side: SideAsk, Price: decimal.NewFromFloat(10), Units: 1}, RemainingUnits: 1})
	b.Insert(&ResidualOrder{Order: Order{OrderID: "a2", Side: SideAsk, Price: decimal.NewFromFloat(20), Units: 1}, RemainingUnits: 1})

	incoming := Order{OrderID: "b1", Side: SideBid, Price: decimal.NewFromFloat(15), Units: 1}
	candidates := b.CandidatesFor(incoming)

	require.Len(t, candidates, 1)
	assert.Equal(t, "a1", candidates[0].Order.OrderID)
}

func TestBook_TradesIsAppendOnly(t *testing.T) {
	b := newTestBook()
	assert.Empty(t, b.Trades())

	t1 := Trade{BidOrder: Order{OrderID: "b1"}, AskOrder: Order{OrderID: "a1"}, Price: decimal.NewFromFloat(10), Units: 1}
	b.AppendTrade(t1)
	require.Len(t, b.Trades(), 1)
	assert.Equal(t, t1, b.Trades()[0])
}
