package events

import (
	"fmt"
	"sync"
	"time"
)

// EventFilter is a function that determines if an event should be delivered
type EventFilter func(Event) bool

// Subscription represents a subscription to events. Events are delivered
// through Channel in publish order. A blocking subscription applies
// backpressure to publishers when its channel is full; a non-blocking one
// drops instead. A blocking subscriber must keep draining its channel until
// it unsubscribes, or it will stall every publisher.
type Subscription struct {
	ID       string
	Filter   EventFilter
	Channel  chan Event
	Blocking bool
	Closed   bool
	mu       sync.RWMutex
}

// Close closes the subscription
func (s *Subscription) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.Closed {
		close(s.Channel)
		s.Closed = true
	}
}

// IsClosed returns whether the subscription is closed
func (s *Subscription) IsClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Closed
}

// deliver hands one event to the subscription and reports whether it was
// accepted. Holding the read lock for the duration of a blocking send keeps
// Close from closing the channel mid-send.
func (s *Subscription) deliver(event Event) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.Closed {
		return false
	}
	if s.Blocking {
		s.Channel <- event
		return true
	}
	select {
	case s.Channel <- event:
		return true
	default:
		return false
	}
}

// Bus provides publish/subscribe functionality for events
type Bus interface {
	// Publish publishes an event to all matching subscribers
	Publish(event Event)

	// Subscribe creates a channel subscription. A nil filter matches all
	// events. When the channel is full, events for this subscription are
	// dropped. Never returns nil; on a closed bus the subscription comes
	// back already closed.
	Subscribe(filter EventFilter, bufferSize int) *Subscription

	// SubscribeBlocking is Subscribe with lossless delivery: when the
	// channel is full, Publish blocks until the subscriber drains it.
	SubscribeBlocking(filter EventFilter, bufferSize int) *Subscription

	// Unsubscribe removes a subscription
	Unsubscribe(subscription *Subscription)

	// GetMetrics returns event bus metrics
	GetMetrics() BusMetrics

	// Close closes the event bus and all subscriptions
	Close()
}

// BusMetrics tracks event bus activity
type BusMetrics struct {
	TotalSubscriptions  int
	ActiveSubscriptions int
	EventsPublished     int64
	EventsDelivered     int64
	EventsDropped       int64
	LastEventTime       time.Time
	EventsByType        map[EventType]int64
}

// DefaultBus is the default implementation of Bus.
//
// Delivery is channel-based and happens inline with Publish, so a single
// consumer draining its channel observes events in exactly the order they
// were published. A blocking subscription additionally sees every event:
// when its channel fills up, publishers wait instead of dropping. Both
// guarantees together are what the dashboard's single-queue model relies on.
type DefaultBus struct {
	subscriptions map[string]*Subscription
	metrics       BusMetrics
	mu            sync.RWMutex
	subIDCounter  int64
	closed        bool
}

// NewBus creates a new event bus
func NewBus() Bus {
	return &DefaultBus{
		subscriptions: make(map[string]*Subscription),
		metrics: BusMetrics{
			EventsByType: make(map[EventType]int64),
		},
	}
}

// Publish publishes an event to all matching subscribers
func (b *DefaultBus) Publish(event Event) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}

	// Copy subscriptions so delivery happens without holding the lock
	subscriptionsCopy := make(map[string]*Subscription, len(b.subscriptions))
	for k, v := range b.subscriptions {
		subscriptionsCopy[k] = v
	}
	b.mu.RUnlock()

	delivered := 0
	dropped := 0

	for subID, subscription := range subscriptionsCopy {
		if subscription.IsClosed() {
			// Clean up closed subscriptions
			b.mu.Lock()
			delete(b.subscriptions, subID)
			b.metrics.ActiveSubscriptions--
			b.mu.Unlock()
			continue
		}

		if subscription.Filter != nil && !subscription.Filter(event) {
			continue
		}

		if subscription.deliver(event) {
			delivered++
		} else {
			dropped++
		}
	}

	b.mu.Lock()
	b.metrics.EventsPublished++
	b.metrics.EventsByType[event.Type()]++
	b.metrics.LastEventTime = event.Timestamp()
	b.metrics.EventsDelivered += int64(delivered)
	b.metrics.EventsDropped += int64(dropped)
	b.mu.Unlock()
}

// Subscribe creates a channel subscription with drop-on-full delivery
func (b *DefaultBus) Subscribe(filter EventFilter, bufferSize int) *Subscription {
	return b.subscribe(filter, bufferSize, false)
}

// SubscribeBlocking creates a channel subscription with lossless delivery
func (b *DefaultBus) SubscribeBlocking(filter EventFilter, bufferSize int) *Subscription {
	return b.subscribe(filter, bufferSize, true)
}

func (b *DefaultBus) subscribe(filter EventFilter, bufferSize int, blocking bool) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		// Hand back a dead subscription so callers can range over the
		// channel without a nil check.
		subscription := &Subscription{
			ID:      "sub-closed",
			Filter:  filter,
			Channel: make(chan Event),
			Closed:  true,
		}
		close(subscription.Channel)
		return subscription
	}

	b.subIDCounter++
	subID := fmt.Sprintf("sub-%d", b.subIDCounter)

	subscription := &Subscription{
		ID:       subID,
		Filter:   filter,
		Channel:  make(chan Event, bufferSize),
		Blocking: blocking,
		Closed:   false,
	}

	b.subscriptions[subID] = subscription
	b.metrics.TotalSubscriptions++
	b.metrics.ActiveSubscriptions++

	return subscription
}

// Unsubscribe removes a subscription
func (b *DefaultBus) Unsubscribe(subscription *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subscriptions[subscription.ID]; exists {
		subscription.Close()
		delete(b.subscriptions, subscription.ID)
		b.metrics.ActiveSubscriptions--
	}
}

// GetMetrics returns event bus metrics
func (b *DefaultBus) GetMetrics() BusMetrics {
	b.mu.RLock()
	defer b.mu.RUnlock()

	// Return a copy to prevent external modification
	metrics := b.metrics
	metrics.EventsByType = make(map[EventType]int64, len(b.metrics.EventsByType))
	for k, v := range b.metrics.EventsByType {
		metrics.EventsByType[k] = v
	}

	return metrics
}

// Close closes the event bus and all subscriptions
func (b *DefaultBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true

	for _, subscription := range b.subscriptions {
		subscription.Close()
	}

	b.subscriptions = make(map[string]*Subscription)
	b.metrics.ActiveSubscriptions = 0
}

// FilterByType creates a filter that matches events of specific types
func FilterByType(eventTypes ...EventType) EventFilter {
	typeMap := make(map[EventType]bool)
	for _, t := range eventTypes {
		typeMap[t] = true
	}

	return func(event Event) bool {
		return typeMap[event.Type()]
	}
}

// FilterBySource creates a filter that matches events from specific sources
func FilterBySource(sources ...string) EventFilter {
	sourceMap := make(map[string]bool)
	for _, s := range sources {
		sourceMap[s] = true
	}

	return func(event Event) bool {
		return sourceMap[event.Source()]
	}
}

// CombineFilters combines multiple filters with AND logic
func CombineFilters(filters ...EventFilter) EventFilter {
	return func(event Event) bool {
		for _, filter := range filters {
			if !filter(event) {
				return false
			}
		}
		return true
	}
}

// AnyFilter combines multiple filters with OR logic
func AnyFilter(filters ...EventFilter) EventFilter {
	return func(event Event) bool {
		for _, filter := range filters {
			if filter(event) {
				return true
			}
		}
		return false
	}
}
