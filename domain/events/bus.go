package events

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Handler processes a published event. Handlers run synchronously on the
// publisher's goroutine and must not block for long.
type Handler func(ctx context.Context, event DomainEvent)

// Bus fans events out to subscribers. The event types are a closed set;
// subscribing to an unknown type is an error so misspelled subscriptions fail
// at startup rather than staying silent.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	known    map[string]struct{}
	logger   *zap.Logger
}

// NewBus creates an event bus
func NewBus(logger *zap.Logger) *Bus {
	known := make(map[string]struct{})
	for _, t := range KnownEventTypes() {
		known[t] = struct{}{}
	}
	return &Bus{
		handlers: make(map[string][]Handler),
		known:    known,
		logger:   logger,
	}
}

// Subscribe registers a handler for one event type
func (b *Bus) Subscribe(eventType string, handler Handler) error {
	if b == nil {
		return fmt.Errorf("event bus is nil")
	}
	if _, ok := b.known[eventType]; !ok {
		return fmt.Errorf("unknown event type %q", eventType)
	}
	if handler == nil {
		return fmt.Errorf("handler for %q is nil", eventType)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	return nil
}

// Publish delivers the event to every subscriber of its type. A panicking
// handler is recovered and logged; it never takes down the publisher. Publish
// on a nil bus is a no-op so components can run without one in tests.
func (b *Bus) Publish(ctx context.Context, event DomainEvent) {
	if b == nil || event == nil {
		return
	}

	b.mu.RLock()
	handlers := b.handlers[event.GetEventType()]
	b.mu.RUnlock()

	for _, handler := range handlers {
		b.invoke(ctx, event, handler)
	}
}

func (b *Bus) invoke(ctx context.Context, event DomainEvent, handler Handler) {
	defer func() {
		if rec := recover(); rec != nil {
			b.logger.Error("Event handler panicked",
				zap.String("event_type", event.GetEventType()),
				zap.String("aggregate_id", event.GetAggregateID()),
				zap.Any("panic", rec),
			)
		}
	}()
	handler(ctx, event)
}

// SubscriberCount returns the number of handlers for an event type
func (b *Bus) SubscriberCount(eventType string) int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[eventType])
}
