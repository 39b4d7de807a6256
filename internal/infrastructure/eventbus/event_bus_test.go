package eventbus

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/wacana/backend/internal/domain/events"
	"github.com/wacana/backend/internal/domain/metric"
	"github.com/stretchr/testify/assert"
)

func TestEventBus_Subscribe(t *testing.T) {
	bus := NewEventBus()

	var received atomic.Bool
	unsub := bus.Subscribe(events.QueryCompleted, events.HandlerFunc(func(event events.Event) error {
		received.Store(true)
		return nil
	}))
	defer unsub()

	bus.Publish(events.NewQueryCompletedEvent(&metric.RequestMetric{}))

	// Close 等待异步处理完成
	bus.Close()
	assert.True(t, received.Load(), "handler should have received the event")
}

func TestEventBus_OnlyMatchingType(t *testing.T) {
	bus := NewEventBus()

	var count atomic.Int32
	bus.Subscribe(events.GuestIdentified, events.HandlerFunc(func(event events.Event) error {
		count.Add(1)
		return nil
	}))

	bus.Publish(events.NewQueryCompletedEvent(&metric.RequestMetric{}))
	bus.Publish(events.NewGuestIdentifiedEvent("g", "u"))
	bus.Close()

	assert.Equal(t, int32(1), count.Load())
}

func TestEventBus_Unsubscribe(t *testing.T) {
	bus := NewEventBus()

	var count atomic.Int32
	unsub := bus.Subscribe(events.QueryCompleted, events.HandlerFunc(func(event events.Event) error {
		count.Add(1)
		return nil
	}))
	unsub()

	bus.Publish(events.NewQueryCompletedEvent(&metric.RequestMetric{}))
	bus.Close()

	assert.Equal(t, int32(0), count.Load())
}

func TestEventBus_HandlerErrorAndPanicIsolated(t *testing.T) {
	bus := NewEventBus()

	var ok atomic.Bool
	bus.Subscribe(events.QueryCompleted, events.HandlerFunc(func(event events.Event) error {
		return errors.New("boom")
	}))
	bus.Subscribe(events.QueryCompleted, events.HandlerFunc(func(event events.Event) error {
		panic("handler panic")
	}))
	bus.Subscribe(events.QueryCompleted, events.HandlerFunc(func(event events.Event) error {
		time.Sleep(10 * time.Millisecond)
		ok.Store(true)
		return nil
	}))

	assert.NotPanics(t, func() {
		bus.Publish(events.NewQueryCompletedEvent(&metric.RequestMetric{}))
		bus.Close()
	})
	assert.True(t, ok.Load())
}

func TestEventBus_PublishAfterClose(t *testing.T) {
	bus := NewEventBus()

	var called atomic.Bool
	bus.Subscribe(events.QueryCompleted, events.HandlerFunc(func(event events.Event) error {
		called.Store(true)
		return nil
	}))
	bus.Close()
	bus.Close()

	bus.Publish(events.NewQueryCompletedEvent(&metric.RequestMetric{}))
	time.Sleep(20 * time.Millisecond)
	assert.False(t, called.Load())
}
