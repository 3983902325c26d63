// internal/bus/bus.go
package bus

import (
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Topic is a named event channel.
type Topic string

const (
	TopicFrameChanged     Topic = "current-frame-changed"
	TopicMaxFrameChanged  Topic = "max-frame-changed"
	TopicZoomChanged      Topic = "zoom-changed"
	TopicPlayStateChanged Topic = "play-state-changed"
	TopicRefreshRequested Topic = "refresh-requested"
	TopicConfigChanged    Topic = "config-changed"
)

// Event is delivered to every subscriber of its topic.
type Event struct {
	Topic   Topic
	Payload any
	Time    time.Time
}

// HandlerFunc reacts to an event. Handlers run synchronously on the
// publishing goroutine, in subscription order.
type HandlerFunc func(Event)

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Option configures a subscription.
type Option func(*config)

type config struct {
	name   string
	logged bool
}

// Named labels the subscription for logging and debugging.
func Named(name string) Option {
	return func(c *config) {
		c.name = name
	}
}

// Logged adds debug logging around handler invocations.
func Logged() Option {
	return func(c *config) {
		c.logged = true
	}
}

// Subscription is the handle returned by Subscribe. Closing it removes the
// handler; closing twice is a no-op.
type Subscription struct {
	bus    *Bus
	topic  Topic
	id     uint64
	name   string
	closed bool
}

// Topic returns the topic this subscription listens on.
func (s *Subscription) Topic() Topic { return s.topic }

// Close removes the handler from the bus.
func (s *Subscription) Close() {
	if s == nil || s.closed {
		return
	}
	s.closed = true
	s.bus.unsubscribe(s)
}

type subscriber struct {
	id      uint64
	name    string
	handler HandlerFunc
}

// Bus is a process-wide publish/subscribe channel. Publishing invokes every
// registered subscriber synchronously, in subscription order, on the calling
// goroutine; there is no queuing or deferral. The bus is not safe for
// concurrent use: all mutation happens on the editor's single event loop.
type Bus struct {
	subscribers map[Topic][]subscriber
	nextID      uint64
	logger      Logger

	published metric.Int64Counter
	delivered metric.Int64Counter
}

// New creates a bus with the given logger. Uses the global OTel meter for
// metrics (no-op if not configured).
func New(logger Logger) (*Bus, error) {
	b := &Bus{
		subscribers: make(map[Topic][]subscriber),
		logger:      logger,
	}

	m := meter()

	var err error
	b.published, err = m.Int64Counter(
		"bus.events.published",
		metric.WithDescription("Total events published per topic"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating published counter: %w", err)
	}

	b.delivered, err = m.Int64Counter(
		"bus.events.delivered",
		metric.WithDescription("Total handler invocations per topic"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating delivered counter: %w", err)
	}

	return b, nil
}

// Subscribe registers a handler for the topic and returns its handle.
func (b *Bus) Subscribe(topic Topic, h HandlerFunc, opts ...Option) *Subscription {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	handler := h
	if cfg.logged {
		handler = b.withLogging(topic, cfg.name, handler)
	}

	b.nextID++
	sub := subscriber{id: b.nextID, name: cfg.name, handler: handler}
	b.subscribers[topic] = append(b.subscribers[topic], sub)

	return &Subscription{bus: b, topic: topic, id: sub.id, name: cfg.name}
}

// Publish delivers an event to every subscriber of the topic, in
// subscription order. The event's timestamp is filled in if unset.
func (b *Bus) Publish(topic Topic, payload any) {
	e := Event{Topic: topic, Payload: payload, Time: time.Now()}

	attrs := metric.WithAttributes(attribute.String("topic", string(topic)))
	b.published.Add(ctx(), 1, attrs)

	// copy so a handler subscribing or unsubscribing mid-publish does not
	// shift the slice under the loop
	subs := make([]subscriber, len(b.subscribers[topic]))
	copy(subs, b.subscribers[topic])

	for _, sub := range subs {
		sub.handler(e)
		b.delivered.Add(ctx(), 1, attrs)
	}
}

// SubscriberCount returns the number of handlers registered for the topic.
func (b *Bus) SubscriberCount(topic Topic) int {
	return len(b.subscribers[topic])
}

// ClearAll drops every subscription. Called when an editing session ends so
// no handler outlives the session it references.
func (b *Bus) ClearAll() {
	b.subscribers = make(map[Topic][]subscriber)
}

func (b *Bus) unsubscribe(s *Subscription) {
	subs := b.subscribers[s.topic]
	for i, sub := range subs {
		if sub.id == s.id {
			b.subscribers[s.topic] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}

func (b *Bus) withLogging(topic Topic, name string, h HandlerFunc) HandlerFunc {
	return func(e Event) {
		start := time.Now()
		b.logger.Debug("delivering event", "topic", topic, "subscriber", name)

		h(e)

		b.logger.Debug("event handled", "topic", topic, "subscriber", name,
			"duration", time.Since(start))
	}
}
