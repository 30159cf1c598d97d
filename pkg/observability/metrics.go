package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"printora-backend/pkg/cache"
	"printora-backend/pkg/ratelimit"
)

// Collector holds all Prometheus metrics for the storefront engine.
// Counters are fed live from the event bus; gauges are refreshed from
// engine snapshots by the stats pump.
type Collector struct {
	// Registry for this collector instance
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Cache metrics
	CacheHits          *prometheus.CounterVec
	CacheMisses        *prometheus.CounterVec
	CacheSets          *prometheus.CounterVec
	CacheEvictions     *prometheus.CounterVec
	CacheInvalidations *prometheus.CounterVec
	CacheEntries       *prometheus.GaugeVec
	CacheBytes         *prometheus.GaugeVec
	CacheHitRate       *prometheus.GaugeVec

	// Rate limiter metrics
	RateLimitRejections *prometheus.CounterVec
	ClientBlocks        *prometheus.CounterVec
	ClientUnblocks      *prometheus.CounterVec
	SuspicionRaises     *prometheus.CounterVec
	LimiterWindows      prometheus.Gauge
	LimiterClients      prometheus.Gauge
	LimiterBlocks       prometheus.Gauge
}

// NewCollector creates a metrics collector with its own registry
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	cacheHits := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits",
		},
		[]string{"entity_type"},
	)

	cacheMisses := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses",
		},
		[]string{"entity_type"},
	)

	cacheSets := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_sets_total",
			Help:      "Total number of cache stores",
		},
		[]string{"entity_type", "method"},
	)

	cacheEvictions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_evictions_total",
			Help:      "Total number of cache evictions",
		},
		[]string{"entity_type", "reason"},
	)

	cacheInvalidations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_invalidations_total",
			Help:      "Total number of purposeful cache invalidations",
		},
		[]string{"entity_type"},
	)

	cacheEntries := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cache_entries",
			Help:      "Live entries per cache instance",
		},
		[]string{"entity_type"},
	)

	cacheBytes := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cache_bytes_used",
			Help:      "Stored bytes per cache instance",
		},
		[]string{"entity_type"},
	)

	cacheHitRate := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cache_hit_rate",
			Help:      "Hit rate per cache instance",
		},
		[]string{"entity_type"},
	)

	rateLimitRejections := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ratelimit_rejections_total",
			Help:      "Total number of rate limited requests",
		},
		[]string{"preset", "severity"},
	)

	clientBlocks := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ratelimit_blocks_total",
			Help:      "Total number of client blocks created",
		},
		[]string{"severity", "threat_level"},
	)

	clientUnblocks := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ratelimit_unblocks_total",
			Help:      "Total number of client blocks removed",
		},
		[]string{"reason"},
	)

	suspicionRaises := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ratelimit_suspicion_raises_total",
			Help:      "Total number of behavioral threat escalations",
		},
		[]string{"threat_level"},
	)

	limiterWindows := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ratelimit_active_windows",
			Help:      "Tracked request windows",
		},
	)

	limiterClients := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ratelimit_tracked_clients",
			Help:      "Clients with behavioral history",
		},
	)

	limiterBlocks := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ratelimit_active_blocks",
			Help:      "Currently blocked clients",
		},
	)

	registry.MustRegister(
		httpRequests,
		httpDuration,
		cacheHits,
		cacheMisses,
		cacheSets,
		cacheEvictions,
		cacheInvalidations,
		cacheEntries,
		cacheBytes,
		cacheHitRate,
		rateLimitRejections,
		clientBlocks,
		clientUnblocks,
		suspicionRaises,
		limiterWindows,
		limiterClients,
		limiterBlocks,
	)

	return &Collector{
		registry:            registry,
		HTTPRequests:        httpRequests,
		HTTPDuration:        httpDuration,
		CacheHits:           cacheHits,
		CacheMisses:         cacheMisses,
		CacheSets:           cacheSets,
		CacheEvictions:      cacheEvictions,
		CacheInvalidations:  cacheInvalidations,
		CacheEntries:        cacheEntries,
		CacheBytes:          cacheBytes,
		CacheHitRate:        cacheHitRate,
		RateLimitRejections: rateLimitRejections,
		ClientBlocks:        clientBlocks,
		ClientUnblocks:      clientUnblocks,
		SuspicionRaises:     suspicionRaises,
		LimiterWindows:      limiterWindows,
		LimiterClients:      limiterClients,
		LimiterBlocks:       limiterBlocks,
	}
}

// ObserveHTTPRequest records one served request
func (c *Collector) ObserveHTTPRequest(method, route, status string, duration time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, status).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// UpdateCacheStats refreshes the cache gauges from a registry snapshot
func (c *Collector) UpdateCacheStats(stats cache.GlobalStats) {
	for entityType, instance := range stats.Instances {
		c.CacheEntries.WithLabelValues(entityType).Set(float64(instance.Entries))
		c.CacheBytes.WithLabelValues(entityType).Set(float64(instance.BytesUsed))
		c.CacheHitRate.WithLabelValues(entityType).Set(instance.HitRate)
	}
}

// UpdateLimiterStats refreshes the limiter gauges from a stats snapshot
func (c *Collector) UpdateLimiterStats(stats ratelimit.Stats) {
	c.LimiterWindows.Set(float64(stats.ActiveWindows))
	c.LimiterClients.Set(float64(stats.TrackedClients))
	c.LimiterBlocks.Set(float64(stats.ActiveBlocks))
}

// GetRegistry returns the Prometheus registry for this collector
func (c *Collector) GetRegistry() *prometheus.Registry {
	return c.registry
}
