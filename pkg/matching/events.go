package matching

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const (
	// topicMatchingEvents carries every event kind on a single topic,
	// tagged by the event_type metadata key. A single topic means a
	// single gochannel and a single fan-in goroutine, so the order the
	// matcher publishes in is the order subscribers observe — splitting
	// kinds across independent topics would let their fan-in goroutines
	// race each other and reorder events that must stay ordered.
	topicMatchingEvents = "matching-events"

	eventTypeOrderPlaced  = "order-placed"
	eventTypePriceChanged = "price-changed"
	eventTypeTradeSettled = "trade-settled"
)

// Event is whatever concrete event type was published: OrderPlaced,
// PriceChanged, or TradeSettled.
type Event interface{}

// EventPublisher is the engine's back door: a non-blocking, fire-and-forget
// broadcast bus built on watermill's in-process pub/sub, carrying
// OrderPlaced, PriceChanged, and TradeSettled events.
//
// Publish enqueues onto a bounded job queue and returns immediately — a
// full queue drops the event rather than blocking the caller; the engine
// must never block on sink backpressure. A single long-lived worker, run
// on an ants pool of size one so its lifecycle is managed the same way as
// the rest of this codebase's pool-backed subsystems, drains that queue
// strictly in submission order and wraps
// each publish in a gobreaker.CircuitBreaker so a wedged underlying bus
// trips the breaker and fails fast instead of the queue backing up behind
// it. Dispatching each event to its own ants task (one Submit per event)
// would not serialize correctly here: Submit returns as soon as a task is
// handed to a worker, not after it finishes, so two fast consecutive
// Submits race for the same single worker instead of queueing behind one
// another — the queue-plus-one-persistent-worker shape is what actually
// guarantees order.
type EventPublisher struct {
	pub     message.Publisher
	sub     message.Subscriber
	pool    *ants.Pool
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
	events  chan Event
	jobs    chan *message.Message
}

// NewEventPublisher constructs a publisher. poolSize sizes the job queue
// and events buffer (EngineConfig.EventWorkerPool); dispatch itself is
// always a single persistent worker, since correctness requires the
// publish side effects of one command to land in the order the matcher
// emitted them. The returned publisher must be closed with Close.
func NewEventPublisher(poolSize int, logger *zap.Logger) (*EventPublisher, error) {
	if poolSize <= 0 {
		poolSize = 1
	}

	wmLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer:            1024,
		Persistent:                     false,
		BlockPublishUntilSubscriberAck: true,
	}, wmLogger)

	pool, err := ants.NewPool(1, ants.WithNonblocking(true))
	if err != nil {
		return nil, err
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "event-publisher",
		MaxRequests: 1,
		Timeout:     5 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})

	ep := &EventPublisher{
		pub:     pubSub,
		sub:     pubSub,
		pool:    pool,
		breaker: breaker,
		logger:  logger,
		events:  make(chan Event, poolSize*128),
		jobs:    make(chan *message.Message, poolSize*128),
	}

	msgs, err := ep.sub.Subscribe(context.Background(), topicMatchingEvents)
	if err != nil {
		return nil, err
	}
	go ep.fanIn(msgs)

	if err := ep.pool.Submit(ep.drainJobs); err != nil {
		return nil, err
	}

	return ep, nil
}

// drainJobs is the single persistent worker: it owns all calls into the
// underlying bus, so publishes never interleave with one another.
func (ep *EventPublisher) drainJobs() {
	for msg := range ep.jobs {
		_, err := ep.breaker.Execute(func() (interface{}, error) {
			return nil, ep.pub.Publish(topicMatchingEvents, msg)
		})
		if err != nil {
			ep.logger.Warn("event delivery failed, dropping",
				zap.String("event_type", msg.Metadata.Get("event_type")), zap.Error(err))
		}
	}
}

// fanIn is the single goroutine that turns delivered messages back into
// typed Events, in the exact order they were published (one topic, one
// subscriber channel, one reader).
func (ep *EventPublisher) fanIn(msgs <-chan *message.Message) {
	for msg := range msgs {
		event, err := decodeEvent(msg)
		if err != nil {
			ep.logger.Error("failed to decode event", zap.Error(err))
			msg.Ack()
			continue
		}
		select {
		case ep.events <- event:
		default:
			ep.logger.Warn("event sink channel full, dropping event")
		}
		msg.Ack()
	}
}

func decodeEvent(msg *message.Message) (Event, error) {
	switch msg.Metadata.Get("event_type") {
	case eventTypeOrderPlaced:
		var e OrderPlaced
		err := json.Unmarshal(msg.Payload, &e)
		return e, err
	case eventTypePriceChanged:
		var e PriceChanged
		err := json.Unmarshal(msg.Payload, &e)
		return e, err
	case eventTypeTradeSettled:
		var e TradeSettled
		err := json.Unmarshal(msg.Payload, &e)
		return e, err
	default:
		return nil, &unknownEventTypeError{eventType: msg.Metadata.Get("event_type")}
	}
}

type unknownEventTypeError struct{ eventType string }

func (e *unknownEventTypeError) Error() string {
	return "matching: unknown event_type " + e.eventType
}

// Events returns the channel the engine's in-process event sink reads
// from. A real deployment would instead have downstream subscribers attach
// directly to the watermill bus; this channel is the default sink.
func (ep *EventPublisher) Events() <-chan Event {
	return ep.events
}

// Publish enqueues the event for delivery without blocking the caller.
// A full queue means the event is dropped and logged, never retried —
// the sink is responsible for its own reliability.
func (ep *EventPublisher) Publish(event Event) {
	eventType, ok := eventTypeOf(event)
	if !ok {
		ep.logger.Error("unrecognised event kind, dropping", zap.String("go_type", typeName(event)))
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		ep.logger.Error("failed to encode event", zap.Error(err))
		return
	}

	msg := message.NewMessage(uuid.New().String(), payload)
	msg.Metadata.Set("event_type", eventType)

	select {
	case ep.jobs <- msg:
	default:
		ep.logger.Warn("event queue full, dropping event", zap.String("event_type", eventType))
	}
}

func eventTypeOf(event Event) (string, bool) {
	switch event.(type) {
	case OrderPlaced:
		return eventTypeOrderPlaced, true
	case PriceChanged:
		return eventTypePriceChanged, true
	case TradeSettled:
		return eventTypeTradeSettled, true
	default:
		return "", false
	}
}

func typeName(event Event) string {
	if event == nil {
		return "<nil>"
	}
	switch event.(type) {
	case OrderPlaced:
		return "OrderPlaced"
	case PriceChanged:
		return "PriceChanged"
	case TradeSettled:
		return "TradeSettled"
	default:
		return "unknown"
	}
}

// Close stops accepting new jobs, waits (up to five seconds) for the
// persistent worker to publish what's already queued — each publish returns
// only once the fan-in goroutine has taken the message — and releases the
// underlying bus. Close must only be called once, after the caller
// guarantees no further Publish calls are in flight.
func (ep *EventPublisher) Close() error {
	close(ep.jobs)
	if err := ep.pool.ReleaseTimeout(5 * time.Second); err != nil {
		ep.logger.Warn("event worker did not finish draining before close", zap.Error(err))
	}
	return ep.pub.Close()
}
