package eventbridge

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"printora-backend/application/ports"
	"printora-backend/domain/events"
)

// DefaultForwardedEvents is the outbound subset of the in-process event set.
// Invalidations are broadcast so sibling instances can drop stale entries;
// block and suspicion events feed the platform's abuse alarms. Hit, miss and
// set events stay in process, they are per-request noise externally.
func DefaultForwardedEvents() []string {
	return []string{
		events.EventTypeCacheInvalidated,
		events.EventTypeClientBlocked,
		events.EventTypeClientUnblocked,
		events.EventTypeSuspicionRaised,
	}
}

// Forwarder subscribes to the in-process bus and ships selected events to an
// external publisher from a background worker. Bus handlers run on the
// publisher's goroutine, so the handler only enqueues; when the queue is
// full the event is dropped rather than stalling a request.
type Forwarder struct {
	publisher ports.EventPublisher
	queue     chan events.DomainEvent
	logger    *zap.Logger

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	droppedMu sync.Mutex
	dropped   uint64
}

// NewForwarder creates a forwarder and subscribes it to the given event
// types, or to DefaultForwardedEvents when none are named. The worker starts
// immediately; call Close during shutdown to flush the queue.
func NewForwarder(
	bus *events.Bus,
	publisher ports.EventPublisher,
	logger *zap.Logger,
	eventTypes ...string,
) (*Forwarder, error) {
	if len(eventTypes) == 0 {
		eventTypes = DefaultForwardedEvents()
	}

	f := &Forwarder{
		publisher: publisher,
		queue:     make(chan events.DomainEvent, 1024),
		logger:    logger,
		done:      make(chan struct{}),
	}

	for _, eventType := range eventTypes {
		if err := bus.Subscribe(eventType, f.enqueue); err != nil {
			return nil, err
		}
	}

	f.wg.Add(1)
	go f.worker()
	return f, nil
}

// Close flushes pending events and stops the worker.
func (f *Forwarder) Close() {
	f.closeOnce.Do(func() {
		close(f.done)
	})
	f.wg.Wait()
}

// Dropped reports how many events were discarded because the queue was full.
func (f *Forwarder) Dropped() uint64 {
	f.droppedMu.Lock()
	defer f.droppedMu.Unlock()
	return f.dropped
}

func (f *Forwarder) enqueue(_ context.Context, event events.DomainEvent) {
	select {
	case f.queue <- event:
	default:
		f.droppedMu.Lock()
		f.dropped++
		total := f.dropped
		f.droppedMu.Unlock()

		f.logger.Warn("Event forward queue full, dropping event",
			zap.String("event_type", event.GetEventType()),
			zap.Uint64("dropped_total", total))
	}
}

func (f *Forwarder) worker() {
	defer f.wg.Done()

	batch := make([]events.DomainEvent, 0, putEventsBatchSize)
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := f.publisher.PublishBatch(ctx, batch); err != nil {
			f.logger.Warn("Failed to forward events", zap.Error(err))
		}
		cancel()
		batch = batch[:0]
	}

	for {
		select {
		case event := <-f.queue:
			batch = append(batch, event)
			if len(batch) >= putEventsBatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-f.done:
			for {
				select {
				case event := <-f.queue:
					batch = append(batch, event)
					if len(batch) >= putEventsBatchSize {
						flush()
					}
				default:
					flush()
					return
				}
			}
		}
	}
}
