package eventbus

import (
	"fmt"
	"sync"
)

// maxPublishDepth bounds re-entrant publishes on a single topic. A handler that
// synchronously triggers a mutation which publishes the same topic again will
// be cut off at this depth instead of looping forever.
const maxPublishDepth = 8

// Logger is the subset of logging the bus needs. It matches the service
// logger's method set so one implementation can serve both.
type Logger interface {
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Handler consumes events published on a subscribed topic.
type Handler func(Event)

// Subscription identifies a registered handler so it can be removed later.
// Function values are not comparable in Go, so unsubscription is by token
// rather than by handler identity.
type Subscription struct {
	topic Topic
	id    uint64
}

// Topic returns the topic the subscription is registered on.
func (s Subscription) Topic() Topic { return s.topic }

type entry struct {
	id      uint64
	handler Handler
}

// Bus is a synchronous named-topic publish/subscribe channel. Publish invokes
// all handlers registered at publish time in registration order before
// returning. A handler that panics is recovered and logged without stopping
// the remaining handlers, and handlers may subscribe or unsubscribe during a
// publish without corrupting delivery.
type Bus struct {
	mu       sync.Mutex
	nextID   uint64
	handlers map[Topic][]entry
	depth    map[Topic]int
	logger   Logger
}

// Option configures a Bus.
type Option func(*Bus)

// WithLogger sets the logger used for handler panics and depth violations.
func WithLogger(logger Logger) Option {
	return func(b *Bus) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// New constructs an empty bus.
func New(opts ...Option) *Bus {
	b := &Bus{
		handlers: make(map[Topic][]entry),
		depth:    make(map[Topic]int),
		logger:   noopLogger{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers handler on topic and returns a token for Unsubscribe.
// Handlers are invoked in registration order.
func (b *Bus) Subscribe(topic Topic, handler Handler) Subscription {
	if handler == nil {
		return Subscription{}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	sub := Subscription{topic: topic, id: b.nextID}
	b.handlers[topic] = append(b.handlers[topic], entry{id: sub.id, handler: handler})
	return sub
}

// Unsubscribe removes a previously registered handler. Removing an unknown or
// already-removed subscription is a no-op. A publish already in flight still
// delivers to the handler list snapshot it took.
func (b *Bus) Unsubscribe(sub Subscription) {
	if sub.id == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	entries := b.handlers[sub.topic]
	for i, e := range entries {
		if e.id == sub.id {
			b.handlers[sub.topic] = append(append([]entry(nil), entries[:i]...), entries[i+1:]...)
			return
		}
	}
}

// SubscriberCount returns the number of handlers registered on topic.
func (b *Bus) SubscriberCount(topic Topic) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers[topic])
}

// Publish delivers event synchronously to every handler registered on its
// topic at the moment of the call. Re-entrant publishes of the same topic
// beyond maxPublishDepth are dropped and logged.
func (b *Bus) Publish(event Event) {
	if event == nil {
		return
	}
	topic := event.Topic()

	b.mu.Lock()
	if b.depth[topic] >= maxPublishDepth {
		b.mu.Unlock()
		b.logger.Error("eventbus: publish depth exceeded, dropping event", "topic", string(topic), "depth", maxPublishDepth)
		return
	}
	b.depth[topic]++
	snapshot := append([]entry(nil), b.handlers[topic]...)
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		b.depth[topic]--
		b.mu.Unlock()
	}()

	for _, e := range snapshot {
		b.invoke(topic, e, event)
	}
}

func (b *Bus) invoke(topic Topic, e entry, event Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("eventbus: handler panicked", "topic", string(topic), "panic", fmt.Sprint(r))
		}
	}()
	e.handler(event)
}
