package observability

import (
	"context"
	"fmt"
	"strconv"

	"printora-backend/domain/events"
)

// BindEventMetrics subscribes the collector to the engine's event bus so
// cache and rate limiter activity shows up as Prometheus counters.
func BindEventMetrics(bus *events.Bus, collector *Collector) error {
	subscriptions := map[string]events.Handler{
		events.EventTypeCacheHit: func(ctx context.Context, e events.DomainEvent) {
			if hit, ok := e.(events.CacheHit); ok {
				collector.CacheHits.WithLabelValues(hit.EntityType).Inc()
			}
		},
		events.EventTypeCacheMiss: func(ctx context.Context, e events.DomainEvent) {
			if miss, ok := e.(events.CacheMiss); ok {
				collector.CacheMisses.WithLabelValues(miss.EntityType).Inc()
			}
		},
		events.EventTypeCacheSet: func(ctx context.Context, e events.DomainEvent) {
			if set, ok := e.(events.CacheSet); ok {
				collector.CacheSets.WithLabelValues(set.EntityType, set.Method).Inc()
			}
		},
		events.EventTypeCacheEvicted: func(ctx context.Context, e events.DomainEvent) {
			if evicted, ok := e.(events.CacheEvicted); ok {
				collector.CacheEvictions.WithLabelValues(evicted.EntityType, evicted.Reason).Inc()
			}
		},
		events.EventTypeCacheInvalidated: func(ctx context.Context, e events.DomainEvent) {
			if inv, ok := e.(events.CacheInvalidated); ok {
				collector.CacheInvalidations.WithLabelValues(inv.EntityType).Add(float64(inv.Removed))
			}
		},
		events.EventTypeCacheCleanup: func(ctx context.Context, e events.DomainEvent) {
			if cleanup, ok := e.(events.CacheCleanup); ok {
				collector.CacheEvictions.WithLabelValues(cleanup.EntityType, events.EvictionReasonExpired).
					Add(float64(cleanup.Removed))
			}
		},
		events.EventTypeRateLimitExceeded: func(ctx context.Context, e events.DomainEvent) {
			if exceeded, ok := e.(events.RateLimitExceeded); ok {
				collector.RateLimitRejections.WithLabelValues(exceeded.Preset, exceeded.Severity).Inc()
			}
		},
		events.EventTypeClientBlocked: func(ctx context.Context, e events.DomainEvent) {
			if blocked, ok := e.(events.ClientBlocked); ok {
				collector.ClientBlocks.WithLabelValues(blocked.Severity, blocked.ThreatLevel).Inc()
			}
		},
		events.EventTypeClientUnblocked: func(ctx context.Context, e events.DomainEvent) {
			if unblocked, ok := e.(events.ClientUnblocked); ok {
				collector.ClientUnblocks.WithLabelValues(unblocked.Reason).Inc()
			}
		},
		events.EventTypeSuspicionRaised: func(ctx context.Context, e events.DomainEvent) {
			if raised, ok := e.(events.SuspicionRaised); ok {
				collector.SuspicionRaises.WithLabelValues(raised.ThreatLevel).Inc()
			}
		},
	}

	for eventType, handler := range subscriptions {
		if err := bus.Subscribe(eventType, handler); err != nil {
			return fmt.Errorf("failed to bind metrics to %s: %w", eventType, err)
		}
	}
	return nil
}

// StatusLabel renders an HTTP status code as a metric label
func StatusLabel(status int) string {
	return strconv.Itoa(status)
}
