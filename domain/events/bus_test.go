package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestBus_Subscribe(t *testing.T) {
	t.Run("Should accept known event types", func(t *testing.T) {
		bus := NewBus(zap.NewNop())

		err := bus.Subscribe(EventTypeCacheHit, func(context.Context, DomainEvent) {})
		assert.NoError(t, err)
		assert.Equal(t, 1, bus.SubscriberCount(EventTypeCacheHit))
	})

	t.Run("Should reject unknown event types", func(t *testing.T) {
		bus := NewBus(zap.NewNop())

		err := bus.Subscribe("cache.hti", func(context.Context, DomainEvent) {})
		assert.Error(t, err)
	})

	t.Run("Should reject nil handlers", func(t *testing.T) {
		bus := NewBus(zap.NewNop())

		err := bus.Subscribe(EventTypeCacheMiss, nil)
		assert.Error(t, err)
	})
}

func TestBus_Publish(t *testing.T) {
	t.Run("Should deliver event to all subscribers of its type", func(t *testing.T) {
		bus := NewBus(zap.NewNop())
		received := 0
		bus.Subscribe(EventTypeCacheInvalidated, func(_ context.Context, e DomainEvent) {
			received++
			assert.Equal(t, EventTypeCacheInvalidated, e.GetEventType())
		})
		bus.Subscribe(EventTypeCacheInvalidated, func(context.Context, DomainEvent) {
			received++
		})

		bus.Publish(context.Background(), NewCacheInvalidated("template", "tpl-1", "", 3, time.Now()))

		assert.Equal(t, 2, received)
	})

	t.Run("Should not deliver to subscribers of other types", func(t *testing.T) {
		bus := NewBus(zap.NewNop())
		called := false
		bus.Subscribe(EventTypeCacheHit, func(context.Context, DomainEvent) {
			called = true
		})

		bus.Publish(context.Background(), NewCacheMiss("template", "k", time.Now()))

		assert.False(t, called)
	})

	t.Run("Should recover from panicking handlers", func(t *testing.T) {
		bus := NewBus(zap.NewNop())
		bus.Subscribe(EventTypeClientBlocked, func(context.Context, DomainEvent) {
			panic("boom")
		})
		reached := false
		bus.Subscribe(EventTypeClientBlocked, func(context.Context, DomainEvent) {
			reached = true
		})

		assert.NotPanics(t, func() {
			bus.Publish(context.Background(), NewClientBlocked("ip:1.2.3.4", "contact", "severe", "high", 600, "ref-1", time.Now()))
		})
		assert.True(t, reached, "handlers after the panicking one still run")
	})

	t.Run("Should be a no-op on a nil bus", func(t *testing.T) {
		var bus *Bus

		assert.NotPanics(t, func() {
			bus.Publish(context.Background(), NewCacheHit("order", "k", time.Now()))
		})
		assert.Equal(t, 0, bus.SubscriberCount(EventTypeCacheHit))
	})
}

func TestEventConstructors(t *testing.T) {
	t.Run("Should stamp cache events with type and aggregate", func(t *testing.T) {
		now := time.Now()
		e := NewCacheSet("blog_article", "printora:blog_article:id=7", 5000, 1200, "gzip", now)

		assert.Equal(t, EventTypeCacheSet, e.GetEventType())
		assert.Equal(t, "printora:blog_article:id=7", e.GetAggregateID())
		assert.Equal(t, now, e.GetTimestamp())
		assert.Equal(t, 1, e.GetVersion())
		assert.Equal(t, "gzip", e.Method)
	})

	t.Run("Should stamp limiter events with type and key", func(t *testing.T) {
		e := NewRateLimitExceeded("ip:10.0.0.9", "order", "medium", 2.6, "ref-42", time.Now())

		assert.Equal(t, EventTypeRateLimitExceeded, e.GetEventType())
		assert.Equal(t, "ip:10.0.0.9", e.GetAggregateID())
		assert.InDelta(t, 2.6, e.OverageRatio, 0.001)
	})
}
