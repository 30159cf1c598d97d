package events

import (
	"time"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

// SourceStorefront identifies events originating from this service on the
// external bus.
const SourceStorefront = "printora.storefront"

// Event types form a closed set. Subscribing to a type outside this list is
// an error, so a typo in a subscriber fails at startup instead of never
// firing.
const (
	EventTypeCacheHit         = "cache.hit"
	EventTypeCacheMiss        = "cache.miss"
	EventTypeCacheSet         = "cache.set"
	EventTypeCacheEvicted     = "cache.evicted"
	EventTypeCacheInvalidated = "cache.invalidated"
	EventTypeCacheCleanup     = "cache.cleanup"

	EventTypeRateLimitExceeded = "ratelimit.exceeded"
	EventTypeClientBlocked     = "ratelimit.client_blocked"
	EventTypeClientUnblocked   = "ratelimit.client_unblocked"
	EventTypeSuspicionRaised   = "ratelimit.suspicion_raised"
)

// KnownEventTypes returns the closed set of event types this system emits.
func KnownEventTypes() []string {
	return []string{
		EventTypeCacheHit,
		EventTypeCacheMiss,
		EventTypeCacheSet,
		EventTypeCacheEvicted,
		EventTypeCacheInvalidated,
		EventTypeCacheCleanup,
		EventTypeRateLimitExceeded,
		EventTypeClientBlocked,
		EventTypeClientUnblocked,
		EventTypeSuspicionRaised,
	}
}
