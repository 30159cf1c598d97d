package cache

import (
	"container/list"
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"printora-backend/domain/events"
	"printora-backend/pkg/errors"
)

// Config tunes one cache instance.
type Config struct {
	// EntityType labels the instance in stats, logs and events.
	EntityType string

	// MaxEntries caps the number of live entries.
	MaxEntries int

	// MaxBytes caps the stored (compressed) payload bytes.
	MaxBytes int64

	// MaxEntryFraction is the portion of MaxBytes a single entry may use.
	// Larger entries are rejected outright instead of flushing the whole
	// cache to make room.
	MaxEntryFraction float64

	// DefaultTTL applies when Set is called with a non-positive TTL.
	DefaultTTL time.Duration

	// CleanupInterval is the background sweep period.
	CleanupInterval time.Duration

	// CompressionThreshold is the payload size that triggers compression.
	CompressionThreshold int
}

func (c Config) withDefaults() Config {
	if c.EntityType == "" {
		c.EntityType = "default"
	}
	if c.MaxEntries <= 0 {
		c.MaxEntries = 1000
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 50 << 20
	}
	if c.MaxEntryFraction <= 0 || c.MaxEntryFraction > 1 {
		c.MaxEntryFraction = 0.10
	}
	if c.DefaultTTL <= 0 {
		c.DefaultTTL = 5 * time.Minute
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = time.Minute
	}
	if c.CompressionThreshold <= 0 {
		c.CompressionThreshold = DefaultCompressionThreshold
	}
	return c
}

// entry is a stored value with its bookkeeping.
type entry struct {
	key            string
	data           []byte
	method         CompressionMethod
	originalSize   int
	compressedSize int
	storedAt       time.Time
	expiresAt      time.Time
	element        *list.Element
}

// MemoryCache is an in-process cache with TTL expiry, LRU eviction and a byte
// budget. Values are JSON-encoded and transparently compressed above the
// configured threshold. Internal failures degrade to misses; the cache never
// panics outward.
type MemoryCache struct {
	cfg    Config
	codec  *Codec
	logger *zap.Logger
	bus    *events.Bus

	mu            sync.Mutex
	entries       map[string]*entry
	lru           *list.List // front = most recently used
	bytesUsed     int64
	originalBytes int64

	hits             uint64
	misses           uint64
	sets             uint64
	evictionsLRU     uint64
	evictionsExpired uint64
	rejections       uint64

	group singleflight.Group

	done      chan struct{}
	closeOnce sync.Once
}

// NewMemoryCache creates a cache instance and starts its background sweep.
func NewMemoryCache(cfg Config, logger *zap.Logger, bus *events.Bus) *MemoryCache {
	cfg = cfg.withDefaults()
	c := &MemoryCache{
		cfg:     cfg,
		codec:   NewCodec(cfg.CompressionThreshold, logger),
		logger:  logger,
		bus:     bus,
		entries: make(map[string]*entry),
		lru:     list.New(),
		done:    make(chan struct{}),
	}
	go c.cleanupLoop()
	return c
}

// EntityType returns the label this instance reports under.
func (c *MemoryCache) EntityType() string { return c.cfg.EntityType }

// Set stores a value under key with the given TTL. A non-positive TTL uses
// the instance default. Values whose compressed size exceeds the per-entry
// limit are rejected with a capacity error.
func (c *MemoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.NewCacheOperationError("marshal", err)
	}
	return c.setBytes(ctx, key, data, ttl)
}

func (c *MemoryCache) setBytes(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	encoded, method, cerr := c.codec.Encode(data)
	if cerr != nil {
		c.logger.Warn("Storing entry uncompressed after codec failure",
			zap.String("entity_type", c.cfg.EntityType),
			zap.String("key", key),
			zap.Error(cerr),
		)
	}

	maxEntry := int(float64(c.cfg.MaxBytes) * c.cfg.MaxEntryFraction)
	if len(encoded) > maxEntry {
		c.mu.Lock()
		c.rejections++
		c.mu.Unlock()
		return errors.NewCacheCapacityError(key, len(encoded), maxEntry)
	}

	if ttl <= 0 {
		ttl = c.cfg.DefaultTTL
	}
	now := time.Now()
	ent := &entry{
		key:            key,
		data:           encoded,
		method:         method,
		originalSize:   len(data),
		compressedSize: len(encoded),
		storedAt:       now,
		expiresAt:      now.Add(ttl),
	}

	var evicted []events.CacheEvicted

	c.mu.Lock()
	if old, ok := c.entries[key]; ok {
		c.removeLocked(old)
	}
	for (c.bytesUsed+int64(ent.compressedSize) > c.cfg.MaxBytes || len(c.entries) >= c.cfg.MaxEntries) && c.lru.Len() > 0 {
		victim := c.lru.Back().Value.(*entry)
		c.removeLocked(victim)
		c.evictionsLRU++
		evicted = append(evicted, events.NewCacheEvicted(c.cfg.EntityType, victim.key, events.EvictionReasonLRU, now))
	}
	ent.element = c.lru.PushFront(ent)
	c.entries[key] = ent
	c.bytesUsed += int64(ent.compressedSize)
	c.originalBytes += int64(ent.originalSize)
	c.sets++
	c.mu.Unlock()

	for _, e := range evicted {
		c.bus.Publish(ctx, e)
	}
	c.bus.Publish(ctx, events.NewCacheSet(c.cfg.EntityType, key, ent.originalSize, ent.compressedSize, string(method), now))
	return nil
}

// Get loads the value stored under key into dest. It returns false on a miss;
// expired entries are removed on touch. A corrupt entry is dropped and
// reported as a miss.
func (c *MemoryCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	now := time.Now()

	c.mu.Lock()
	ent, ok := c.entries[key]
	if !ok {
		c.misses++
		c.mu.Unlock()
		c.bus.Publish(ctx, events.NewCacheMiss(c.cfg.EntityType, key, now))
		return false, nil
	}
	if now.After(ent.expiresAt) {
		c.removeLocked(ent)
		c.evictionsExpired++
		c.misses++
		c.mu.Unlock()
		c.bus.Publish(ctx, events.NewCacheEvicted(c.cfg.EntityType, key, events.EvictionReasonExpired, now))
		c.bus.Publish(ctx, events.NewCacheMiss(c.cfg.EntityType, key, now))
		return false, nil
	}
	c.lru.MoveToFront(ent.element)
	data, method := ent.data, ent.method
	c.mu.Unlock()

	raw, err := c.codec.Decode(data, method)
	if err == nil {
		if uerr := json.Unmarshal(raw, dest); uerr != nil {
			err = errors.NewCacheOperationError("unmarshal", uerr)
		}
	}
	if err != nil {
		c.logger.Error("Dropping undecodable cache entry",
			zap.String("entity_type", c.cfg.EntityType),
			zap.String("key", key),
			zap.Error(err),
		)
		c.Delete(key)
		c.mu.Lock()
		c.misses++
		c.mu.Unlock()
		c.bus.Publish(ctx, events.NewCacheMiss(c.cfg.EntityType, key, now))
		return false, nil
	}

	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
	c.bus.Publish(ctx, events.NewCacheHit(c.cfg.EntityType, key, now))
	return true, nil
}

// GetOrSet loads the value for key into dest, computing it with loader on a
// miss. Exactly one loader runs per key at a time; concurrent callers for the
// same key wait for that one result. A loader error is returned to every
// waiter and nothing is cached. A caching failure (such as a capacity
// rejection) is logged and the computed value is still returned.
func (c *MemoryCache) GetOrSet(ctx context.Context, key string, ttl time.Duration, dest interface{}, loader func(ctx context.Context) (interface{}, error)) error {
	found, err := c.Get(ctx, key, dest)
	if err != nil {
		return err
	}
	if found {
		return nil
	}

	ch := c.group.DoChan(key, func() (interface{}, error) {
		// Another waiter may have populated the key while we queued.
		if raw, ok := c.peekDecoded(key); ok {
			return raw, nil
		}

		value, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(value)
		if err != nil {
			return nil, errors.NewCacheOperationError("marshal", err)
		}
		if err := c.setBytes(ctx, key, data, ttl); err != nil {
			c.logger.Warn("Computed value not cached",
				zap.String("entity_type", c.cfg.EntityType),
				zap.String("key", key),
				zap.Error(err),
			)
		}
		return data, nil
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return res.Err
		}
		data, ok := res.Val.([]byte)
		if !ok {
			return errors.NewCacheOperationError("flight result", nil)
		}
		if err := json.Unmarshal(data, dest); err != nil {
			return errors.NewCacheOperationError("unmarshal", err)
		}
		return nil
	}
}

// peekDecoded returns the decoded JSON payload for a live entry without
// touching stats, recency or events.
func (c *MemoryCache) peekDecoded(key string) ([]byte, bool) {
	c.mu.Lock()
	ent, ok := c.entries[key]
	if !ok || time.Now().After(ent.expiresAt) {
		c.mu.Unlock()
		return nil, false
	}
	data, method := ent.data, ent.method
	c.mu.Unlock()

	raw, err := c.codec.Decode(data, method)
	if err != nil {
		return nil, false
	}
	return raw, true
}

// Delete removes key, reporting whether it was present.
func (c *MemoryCache) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	ent, ok := c.entries[key]
	if !ok {
		return false
	}
	c.removeLocked(ent)
	return true
}

// DeleteByPattern removes every entry whose key matches the glob pattern
// (only '*' is special) and returns the number removed.
func (c *MemoryCache) DeleteByPattern(pattern string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, ent := range c.entries {
		if matchGlob(pattern, key) {
			c.removeLocked(ent)
			removed++
		}
	}
	return removed
}

// DeleteByID removes every entry keyed by the given entity ID and returns the
// number removed. Parameter matching is exact, so ID "7" does not catch keys
// for ID "70".
func (c *MemoryCache) DeleteByID(id string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, ent := range c.entries {
		if hasParam(key, "id", id) {
			c.removeLocked(ent)
			removed++
		}
	}
	return removed
}

// Clear removes every entry and returns the number removed.
func (c *MemoryCache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := len(c.entries)
	c.entries = make(map[string]*entry)
	c.lru.Init()
	c.bytesUsed = 0
	c.originalBytes = 0
	return removed
}

// Cleanup sweeps expired entries now and returns the number removed.
func (c *MemoryCache) Cleanup() int {
	now := time.Now()

	c.mu.Lock()
	removed := 0
	for _, ent := range c.entries {
		if now.After(ent.expiresAt) {
			c.removeLocked(ent)
			c.evictionsExpired++
			removed++
		}
	}
	c.mu.Unlock()

	if removed > 0 {
		c.bus.Publish(context.Background(), events.NewCacheCleanup(c.cfg.EntityType, removed, now))
	}
	return removed
}

// Resize applies new capacity limits and default TTL, evicting least recently
// used entries until the instance fits. Used by configuration hot reload.
func (c *MemoryCache) Resize(maxEntries int, maxBytes int64, defaultTTL time.Duration) {
	now := time.Now()
	var evicted []events.CacheEvicted

	c.mu.Lock()
	if maxEntries > 0 {
		c.cfg.MaxEntries = maxEntries
	}
	if maxBytes > 0 {
		c.cfg.MaxBytes = maxBytes
	}
	if defaultTTL > 0 {
		c.cfg.DefaultTTL = defaultTTL
	}
	for (c.bytesUsed > c.cfg.MaxBytes || len(c.entries) > c.cfg.MaxEntries) && c.lru.Len() > 0 {
		victim := c.lru.Back().Value.(*entry)
		c.removeLocked(victim)
		c.evictionsLRU++
		evicted = append(evicted, events.NewCacheEvicted(c.cfg.EntityType, victim.key, events.EvictionReasonLRU, now))
	}
	c.mu.Unlock()

	for _, e := range evicted {
		c.bus.Publish(context.Background(), e)
	}
}

// Stats returns a point-in-time snapshot.
func (c *MemoryCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	rate := hitRate(c.hits, c.misses)
	return Stats{
		EntityType:       c.cfg.EntityType,
		Entries:          len(c.entries),
		Hits:             c.hits,
		Misses:           c.misses,
		Sets:             c.sets,
		EvictionsLRU:     c.evictionsLRU,
		EvictionsExpired: c.evictionsExpired,
		Rejections:       c.rejections,
		BytesUsed:        c.bytesUsed,
		OriginalBytes:    c.originalBytes,
		MaxBytes:         c.cfg.MaxBytes,
		HitRate:          rate,
		CompressionRatio: compressionRatio(c.bytesUsed, c.originalBytes),
		Efficiency:       EfficiencyTier(rate),
	}
}

// Close stops the background sweep. Entries remain readable until the
// instance is garbage collected.
func (c *MemoryCache) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

func (c *MemoryCache) removeLocked(ent *entry) {
	delete(c.entries, ent.key)
	c.lru.Remove(ent.element)
	c.bytesUsed -= int64(ent.compressedSize)
	c.originalBytes -= int64(ent.originalSize)
}

func (c *MemoryCache) cleanupLoop() {
	ticker := time.NewTicker(c.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.Cleanup()
		}
	}
}
