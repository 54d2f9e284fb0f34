package events

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBus(t *testing.T) {
	bus := NewBus()
	assert.NotNil(t, bus)

	metrics := bus.GetMetrics()
	assert.Equal(t, 0, metrics.TotalSubscriptions)
	assert.Equal(t, int64(0), metrics.EventsPublished)
	assert.NotNil(t, metrics.EventsByType)
}

func TestBus_PublishPreservesOrder(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	sub := bus.Subscribe(nil, 64)
	require.NotNil(t, sub)

	const n = 20
	for i := 0; i < n; i++ {
		bus.Publish(NewWorkerMessageEvent("w", fmt.Sprintf("line %d", i)))
	}

	for i := 0; i < n; i++ {
		event := <-sub.Channel
		msg, ok := event.(*WorkerMessageEvent)
		require.True(t, ok)
		assert.Equal(t, fmt.Sprintf("line %d", i), msg.Text)
	}
}

func TestBus_SubscribeWithFilter(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	sub := bus.Subscribe(FilterByType(EventTypeInstallStart), 8)

	bus.Publish(NewWorkerStartEvent("w", nil))
	bus.Publish(NewInstallStartEvent())
	bus.Publish(NewConsoleLogEvent("log", "x"))

	event := <-sub.Channel
	assert.Equal(t, EventTypeInstallStart, event.Type())

	select {
	case extra := <-sub.Channel:
		t.Fatalf("unexpected extra event: %v", extra)
	default:
	}
}

func TestBus_DropsWhenChannelFull(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	sub := bus.Subscribe(nil, 1)
	require.NotNil(t, sub)

	bus.Publish(NewInstallStartEvent())
	bus.Publish(NewInstallCompleteEvent())

	metrics := bus.GetMetrics()
	assert.Equal(t, int64(2), metrics.EventsPublished)
	assert.Equal(t, int64(1), metrics.EventsDelivered)
	assert.Equal(t, int64(1), metrics.EventsDropped)

	event := <-sub.Channel
	assert.Equal(t, EventTypeInstallStart, event.Type())
}

func TestBus_BlockingSubscriptionNeverDrops(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	// A one-slot channel with a consumer slower than the publisher: every
	// message must still arrive, in order, via backpressure.
	sub := bus.SubscribeBlocking(nil, 1)
	require.NotNil(t, sub)

	const n = 200
	published := make(chan struct{})
	go func() {
		defer close(published)
		for i := 0; i < n; i++ {
			bus.Publish(NewWorkerMessageEvent("w", fmt.Sprintf("line %d", i)))
		}
	}()

	for i := 0; i < n; i++ {
		if i%10 == 0 {
			time.Sleep(time.Millisecond)
		}
		event := <-sub.Channel
		msg, ok := event.(*WorkerMessageEvent)
		require.True(t, ok)
		assert.Equal(t, fmt.Sprintf("line %d", i), msg.Text)
	}

	<-published
	metrics := bus.GetMetrics()
	assert.Equal(t, int64(n), metrics.EventsPublished)
	assert.Equal(t, int64(n), metrics.EventsDelivered)
	assert.Equal(t, int64(0), metrics.EventsDropped)
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	sub := bus.Subscribe(nil, 8)
	bus.Unsubscribe(sub)

	assert.True(t, sub.IsClosed())

	// Publishing after unsubscribe must not panic or deliver.
	bus.Publish(NewInstallStartEvent())

	_, open := <-sub.Channel
	assert.False(t, open)
}

func TestBus_Close(t *testing.T) {
	bus := NewBus()

	sub1 := bus.Subscribe(nil, 8)
	sub2 := bus.Subscribe(nil, 8)

	bus.Close()

	assert.True(t, sub1.IsClosed())
	assert.True(t, sub2.IsClosed())

	// Subscribing on a closed bus yields a dead subscription that can
	// still be ranged over; publishing is a no-op.
	dead := bus.Subscribe(nil, 8)
	require.NotNil(t, dead)
	assert.True(t, dead.IsClosed())
	_, open := <-dead.Channel
	assert.False(t, open)

	bus.Publish(NewInstallStartEvent())

	metrics := bus.GetMetrics()
	assert.Equal(t, 0, metrics.ActiveSubscriptions)
	assert.Equal(t, int64(0), metrics.EventsPublished)
}

func TestBus_MetricsByType(t *testing.T) {
	bus := NewBus()
	defer bus.Close()

	bus.Publish(NewWorkerStartEvent("a", nil))
	bus.Publish(NewWorkerStartEvent("b", nil))
	bus.Publish(NewServerStartEvent(1, "h", 80, "http", nil))

	metrics := bus.GetMetrics()
	assert.Equal(t, int64(2), metrics.EventsByType[EventTypeWorkerStart])
	assert.Equal(t, int64(1), metrics.EventsByType[EventTypeServerStart])
	assert.False(t, metrics.LastEventTime.IsZero())
}
