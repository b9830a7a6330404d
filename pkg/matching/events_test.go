package matching

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestEventPublisher_PreservesPublishOrder(t *testing.T) {
	logger := zap.NewNop()
	ep, err := NewEventPublisher(4, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ep.Close() })

	price := decimal.NewFromFloat(10)
	ep.Publish(OrderPlaced{Order: Order{OrderID: "o1"}})
	ep.Publish(PriceChanged{Symbol: "TEST", Bid: &price})
	ep.Publish(TradeSettled{Symbol: "TEST", BidOrderID: "o1", AskOrderID: "o2", Price: price, Units: 1})

	var received []Event
	for i := 0; i < 3; i++ {
		select {
		case evt := <-ep.Events():
			received = append(received, evt)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for event %d", i)
		}
	}

	require.Len(t, received, 3)
	_, isOrderPlaced := received[0].(OrderPlaced)
	_, isPriceChanged := received[1].(PriceChanged)
	_, isTradeSettled := received[2].(TradeSettled)
	assert.True(t, isOrderPlaced, "expected OrderPlaced first, got %T", received[0])
	assert.True(t, isPriceChanged, "expected PriceChanged second, got %T", received[1])
	assert.True(t, isTradeSettled, "expected TradeSettled third, got %T", received[2])
}

func TestEventPublisher_MatchAdmissionOrdersEventsCorrectly(t *testing.T) {
	m, book, events := newTestMatcher(t)
	_ = book

	m.Admit(Order{OrderID: "a1", Side: SideAsk, Price: decimal.NewFromFloat(10), Units: 5})
	m.Admit(Order{OrderID: "b1", Side: SideBid, Price: decimal.NewFromFloat(10), Units: 5})

	var kinds []string
	deadline := time.After(2 * time.Second)
collect:
	for {
		select {
		case evt := <-events.Events():
			switch evt.(type) {
			case OrderPlaced:
				kinds = append(kinds, "order-placed")
			case PriceChanged:
				kinds = append(kinds, "price-changed")
			case TradeSettled:
				kinds = append(kinds, "trade-settled")
			}
			if len(kinds) == 6 {
				break collect
			}
		case <-deadline:
			break collect
		}
	}

	// admit a1 (ask): order-placed, price-changed (best ask now set)
	// admit b1 (bid): order-placed, price-changed (best bid now set),
	// then one fill that empties both sides: trade-settled, price-changed
	require.Equal(t, []string{
		"order-placed", "price-changed",
		"order-placed", "price-changed",
		"trade-settled", "price-changed",
	}, kinds)
}
