package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"printora-backend/domain/events"
)

// Entity types the storefront caches. Unknown types fall back to the default
// profile, so adding a type is never a hard failure.
const (
	EntityTemplate    = "template"
	EntityBlogArticle = "blog_article"
	EntityBlogList    = "blog_list"
	EntityOrder       = "order"
	EntityImageMeta   = "image_meta"
	EntitySession     = "session"
	EntityPage        = "page"
)

// Profile is the tuning for one entity type's cache instance.
type Profile struct {
	MaxEntries           int
	MaxBytes             int64
	TTL                  time.Duration
	CleanupInterval      time.Duration
	CompressionThreshold int
}

// RegistryConfig configures the registry and its per-type profiles.
type RegistryConfig struct {
	Namespace string
	Default   Profile
	Profiles  map[string]Profile
}

// Registry owns one tuned cache instance per entity type and fans
// invalidation out to them. Instances are created lazily on first use.
type Registry struct {
	logger *zap.Logger
	bus    *events.Bus
	keys   *KeyBuilder

	mu        sync.RWMutex
	cfg       RegistryConfig
	instances map[string]*MemoryCache
}

// NewRegistry creates a cache registry.
func NewRegistry(cfg RegistryConfig, logger *zap.Logger, bus *events.Bus) *Registry {
	if cfg.Namespace == "" {
		cfg.Namespace = "printora"
	}
	return &Registry{
		logger:    logger,
		bus:       bus,
		keys:      NewKeyBuilder(cfg.Namespace),
		cfg:       cfg,
		instances: make(map[string]*MemoryCache),
	}
}

// Keys returns the registry's key builder.
func (r *Registry) Keys() *KeyBuilder { return r.keys }

// For returns the cache instance for an entity type, creating it from the
// type's profile (or the default profile) on first use.
func (r *Registry) For(entityType string) *MemoryCache {
	r.mu.RLock()
	inst, ok := r.instances[entityType]
	r.mu.RUnlock()
	if ok {
		return inst
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if inst, ok := r.instances[entityType]; ok {
		return inst
	}

	profile := r.profileLocked(entityType)
	inst = NewMemoryCache(Config{
		EntityType:           entityType,
		MaxEntries:           profile.MaxEntries,
		MaxBytes:             profile.MaxBytes,
		DefaultTTL:           profile.TTL,
		CleanupInterval:      profile.CleanupInterval,
		CompressionThreshold: profile.CompressionThreshold,
	}, r.logger, r.bus)
	r.instances[entityType] = inst

	r.logger.Debug("Cache instance created",
		zap.String("entity_type", entityType),
		zap.Int("max_entries", profile.MaxEntries),
		zap.Int64("max_bytes", profile.MaxBytes),
		zap.Duration("ttl", profile.TTL),
	)
	return inst
}

func (r *Registry) profileLocked(entityType string) Profile {
	if p, ok := r.cfg.Profiles[entityType]; ok {
		return p
	}
	return r.cfg.Default
}

// Invalidate removes cached entries for an entity type. An empty entityID
// clears the whole type; otherwise only entries keyed by that ID go. Returns
// the number of entries removed.
func (r *Registry) Invalidate(ctx context.Context, entityType, entityID string) int {
	r.mu.RLock()
	inst, ok := r.instances[entityType]
	r.mu.RUnlock()

	removed := 0
	if ok {
		if entityID == "" {
			removed = inst.Clear()
		} else {
			removed = inst.DeleteByID(entityID)
		}
	}

	r.logger.Info("Cache invalidated",
		zap.String("entity_type", entityType),
		zap.String("entity_id", entityID),
		zap.Int("removed", removed),
	)
	r.bus.Publish(ctx, events.NewCacheInvalidated(entityType, entityID, "", removed, time.Now()))
	return removed
}

// InvalidatePattern removes entries matching a glob pattern across every
// instance and returns the number removed.
func (r *Registry) InvalidatePattern(ctx context.Context, pattern string) int {
	r.mu.RLock()
	instances := make([]*MemoryCache, 0, len(r.instances))
	for _, inst := range r.instances {
		instances = append(instances, inst)
	}
	r.mu.RUnlock()

	removed := 0
	for _, inst := range instances {
		removed += inst.DeleteByPattern(pattern)
	}

	r.logger.Info("Cache pattern invalidated",
		zap.String("pattern", pattern),
		zap.Int("removed", removed),
	)
	r.bus.Publish(ctx, events.NewCacheInvalidated("", "", pattern, removed, time.Now()))
	return removed
}

// GlobalStats aggregates stats across every live instance.
func (r *Registry) GlobalStats() GlobalStats {
	r.mu.RLock()
	instances := make(map[string]*MemoryCache, len(r.instances))
	for entityType, inst := range r.instances {
		instances[entityType] = inst
	}
	r.mu.RUnlock()

	global := GlobalStats{Instances: make(map[string]Stats, len(instances))}
	for entityType, inst := range instances {
		stats := inst.Stats()
		global.Instances[entityType] = stats
		global.TotalEntries += stats.Entries
		global.TotalHits += stats.Hits
		global.TotalMisses += stats.Misses
		global.TotalBytesUsed += stats.BytesUsed
	}
	global.OverallHitRate = hitRate(global.TotalHits, global.TotalMisses)
	global.OverallEfficiency = EfficiencyTier(global.OverallHitRate)
	return global
}

// CleanupAll sweeps expired entries in every instance now.
func (r *Registry) CleanupAll() int {
	r.mu.RLock()
	instances := make([]*MemoryCache, 0, len(r.instances))
	for _, inst := range r.instances {
		instances = append(instances, inst)
	}
	r.mu.RUnlock()

	removed := 0
	for _, inst := range instances {
		removed += inst.Cleanup()
	}
	return removed
}

// Reconfigure swaps the profile table and applies new limits to live
// instances. Called by configuration hot reload; a snapshot is applied
// atomically per instance.
func (r *Registry) Reconfigure(cfg RegistryConfig) {
	r.mu.Lock()
	if cfg.Namespace == "" {
		cfg.Namespace = r.cfg.Namespace
	}
	r.cfg = cfg
	instances := make(map[string]*MemoryCache, len(r.instances))
	for entityType, inst := range r.instances {
		instances[entityType] = inst
	}
	r.mu.Unlock()

	for entityType, inst := range instances {
		r.mu.RLock()
		profile := r.profileLocked(entityType)
		r.mu.RUnlock()
		inst.Resize(profile.MaxEntries, profile.MaxBytes, profile.TTL)
	}

	r.logger.Info("Cache registry reconfigured",
		zap.Int("profiles", len(cfg.Profiles)),
		zap.Int("instances", len(instances)),
	)
}

// CloseAll stops every instance's background sweep.
func (r *Registry) CloseAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, inst := range r.instances {
		inst.Close()
	}
}
