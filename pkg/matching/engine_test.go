package matching

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tradsys/matchcore/pkg/config"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	cfg := config.EngineConfig{
		Symbol:            "TEST",
		CommandBufferSize: 16,
		EventWorkerPool:   2,
		ShutdownTimeout:   time.Second,
	}
	e, err := NewEngine(cfg, zap.NewNop(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestEngine_GetPriceOnEmptyBookIsUnavailable(t *testing.T) {
	e := newTestEngine(t)

	res := e.GetPrice()
	assert.False(t, res.Success)
	assert.Equal(t, ReasonPriceUnavail, res.Reason)
}

func TestEngine_PlaceBidThenGetPriceReflectsBestBid(t *testing.T) {
	e := newTestEngine(t)

	bid := e.PlaceBid(Order{OrderID: "b1", Price: decimal.NewFromFloat(10), Units: 5})
	assert.True(t, bid.Success)
	assert.Equal(t, ReasonValidOrder, bid.Reason)

	price := e.GetPrice()
	assert.False(t, price.Success)
	require.NotNil(t, price.Bid)
	assert.True(t, price.Bid.Equal(decimal.NewFromFloat(10)))
	assert.Nil(t, price.Ask)
}

func TestEngine_GetTradesWithNoFillsReportsNoTrades(t *testing.T) {
	e := newTestEngine(t)

	res := e.GetTrades()
	assert.False(t, res.Success)
	assert.Equal(t, ReasonNoTrades, res.Reason)
}

func TestEngine_MatchProducesGetTradesReport(t *testing.T) {
	e := newTestEngine(t)

	e.PlaceAsk(Order{OrderID: "a1", Price: decimal.NewFromFloat(10), Units: 5})
	e.PlaceBid(Order{OrderID: "b1", Price: decimal.NewFromFloat(10), Units: 5})

	res := e.GetTrades()
	assert.True(t, res.Success)
	assert.Equal(t, "2 Orders Filled", res.Reason)
	require.Len(t, res.Orders, 2)
}

func TestEngine_DuplicateOrderIDIsRejected(t *testing.T) {
	e := newTestEngine(t)

	first := e.PlaceBid(Order{OrderID: "dup", Price: decimal.NewFromFloat(10), Units: 1})
	require.True(t, first.Success)

	second := e.PlaceBid(Order{OrderID: "dup", Price: decimal.NewFromFloat(11), Units: 1})
	assert.False(t, second.Success)
	assert.Equal(t, ReasonInvalidOrder, second.Reason)
}

func TestEngine_HaltRejectsNewOrdersButAllowsQueries(t *testing.T) {
	e := newTestEngine(t)

	e.Halt()

	bid := e.PlaceBid(Order{OrderID: "b1", Price: decimal.NewFromFloat(10), Units: 1})
	assert.False(t, bid.Success)
	assert.Equal(t, ReasonEngineHalted, bid.Reason)

	price := e.GetPrice()
	assert.False(t, price.Success)
	assert.Equal(t, ReasonPriceUnavail, price.Reason)

	drain := e.DrainCheck()
	assert.True(t, drain.Halted)
}

func TestEngine_StartResumesAdmissionAfterHalt(t *testing.T) {
	e := newTestEngine(t)

	e.Halt()
	e.Start()

	bid := e.PlaceBid(Order{OrderID: "b1", Price: decimal.NewFromFloat(10), Units: 1})
	assert.True(t, bid.Success)
}

func TestEngine_EventsChannelReceivesOrderPlaced(t *testing.T) {
	e := newTestEngine(t)

	e.PlaceBid(Order{OrderID: "b1", Price: decimal.NewFromFloat(10), Units: 1})

	select {
	case evt := <-e.Events():
		op, ok := evt.(OrderPlaced)
		require.True(t, ok)
		assert.Equal(t, "b1", op.Order.OrderID)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for OrderPlaced event")
	}
}
