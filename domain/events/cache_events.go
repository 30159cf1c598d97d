package events

import (
	"time"
)

// Cache Events

// CacheHit is raised when a lookup finds a live entry
type CacheHit struct {
	BaseEvent
	EntityType string `json:"entity_type"`
	Key        string `json:"key"`
}

// NewCacheHit creates a CacheHit event
func NewCacheHit(entityType, key string, timestamp time.Time) CacheHit {
	return CacheHit{
		BaseEvent: BaseEvent{
			AggregateID: key,
			EventType:   EventTypeCacheHit,
			Timestamp:   timestamp,
			Version:     1,
		},
		EntityType: entityType,
		Key:        key,
	}
}

// CacheMiss is raised when a lookup finds no live entry
type CacheMiss struct {
	BaseEvent
	EntityType string `json:"entity_type"`
	Key        string `json:"key"`
}

// NewCacheMiss creates a CacheMiss event
func NewCacheMiss(entityType, key string, timestamp time.Time) CacheMiss {
	return CacheMiss{
		BaseEvent: BaseEvent{
			AggregateID: key,
			EventType:   EventTypeCacheMiss,
			Timestamp:   timestamp,
			Version:     1,
		},
		EntityType: entityType,
		Key:        key,
	}
}

// CacheSet is raised when an entry is stored
type CacheSet struct {
	BaseEvent
	EntityType     string `json:"entity_type"`
	Key            string `json:"key"`
	OriginalSize   int    `json:"original_size"`
	CompressedSize int    `json:"compressed_size"`
	Method         string `json:"method"`
}

// NewCacheSet creates a CacheSet event
func NewCacheSet(entityType, key string, originalSize, compressedSize int, method string, timestamp time.Time) CacheSet {
	return CacheSet{
		BaseEvent: BaseEvent{
			AggregateID: key,
			EventType:   EventTypeCacheSet,
			Timestamp:   timestamp,
			Version:     1,
		},
		EntityType:     entityType,
		Key:            key,
		OriginalSize:   originalSize,
		CompressedSize: compressedSize,
		Method:         method,
	}
}

// CacheEvicted is raised when an entry is removed to reclaim space or because
// it expired
type CacheEvicted struct {
	BaseEvent
	EntityType string `json:"entity_type"`
	Key        string `json:"key"`
	Reason     string `json:"reason"`
}

// Eviction reasons
const (
	EvictionReasonLRU     = "lru"
	EvictionReasonExpired = "expired"
	EvictionReasonCleared = "cleared"
)

// NewCacheEvicted creates a CacheEvicted event
func NewCacheEvicted(entityType, key, reason string, timestamp time.Time) CacheEvicted {
	return CacheEvicted{
		BaseEvent: BaseEvent{
			AggregateID: key,
			EventType:   EventTypeCacheEvicted,
			Timestamp:   timestamp,
			Version:     1,
		},
		EntityType: entityType,
		Key:        key,
		Reason:     reason,
	}
}

// CacheInvalidated is raised when entries are removed on purpose, either for
// one entity or for a whole entity type
type CacheInvalidated struct {
	BaseEvent
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id,omitempty"`
	Pattern    string `json:"pattern,omitempty"`
	Removed    int    `json:"removed"`
}

// NewCacheInvalidated creates a CacheInvalidated event
func NewCacheInvalidated(entityType, entityID, pattern string, removed int, timestamp time.Time) CacheInvalidated {
	return CacheInvalidated{
		BaseEvent: BaseEvent{
			AggregateID: entityType,
			EventType:   EventTypeCacheInvalidated,
			Timestamp:   timestamp,
			Version:     1,
		},
		EntityType: entityType,
		EntityID:   entityID,
		Pattern:    pattern,
		Removed:    removed,
	}
}

// CacheCleanup is raised after a background sweep removed expired entries
type CacheCleanup struct {
	BaseEvent
	EntityType string `json:"entity_type"`
	Removed    int    `json:"removed"`
}

// NewCacheCleanup creates a CacheCleanup event
func NewCacheCleanup(entityType string, removed int, timestamp time.Time) CacheCleanup {
	return CacheCleanup{
		BaseEvent: BaseEvent{
			AggregateID: entityType,
			EventType:   EventTypeCacheCleanup,
			Timestamp:   timestamp,
			Version:     1,
		},
		EntityType: entityType,
		Removed:    removed,
	}
}
