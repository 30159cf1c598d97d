package observability

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"printora-backend/pkg/cache"
	"printora-backend/pkg/ratelimit"
)

// CacheStatsSource exposes a snapshot of every cache instance.
// *cache.Registry satisfies it.
type CacheStatsSource interface {
	GlobalStats() cache.GlobalStats
}

// LimiterStatsSource exposes a snapshot of the rate limiter.
// *ratelimit.Limiter satisfies it.
type LimiterStatsSource interface {
	GetStats() ratelimit.Stats
}

// StatsSink receives periodic snapshots. External publishers (CloudWatch)
// implement it; failures are logged and never interrupt the pump.
type StatsSink interface {
	PublishCacheStats(ctx context.Context, stats cache.GlobalStats) error
	PublishLimiterStats(ctx context.Context, stats ratelimit.Stats) error
}

// StatsPump periodically snapshots the cache registry and the rate limiter,
// refreshes the Prometheus gauges and forwards the snapshots to any
// configured sinks. Counters are not pumped; they come straight from the
// event bus via BindEventMetrics.
type StatsPump struct {
	interval  time.Duration
	caches    CacheStatsSource
	limiter   LimiterStatsSource
	collector *Collector
	sinks     []StatsSink
	logger    *zap.Logger

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewStatsPump creates a pump. It does not start ticking until Start is
// called. A nil collector skips the gauge refresh; sinks may be empty.
func NewStatsPump(
	interval time.Duration,
	caches CacheStatsSource,
	limiter LimiterStatsSource,
	collector *Collector,
	logger *zap.Logger,
	sinks ...StatsSink,
) *StatsPump {
	if interval <= 0 {
		interval = time.Minute
	}
	return &StatsPump{
		interval:  interval,
		caches:    caches,
		limiter:   limiter,
		collector: collector,
		sinks:     sinks,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// Start begins the periodic push. The first snapshot is taken immediately so
// gauges are populated before the first interval elapses.
func (p *StatsPump) Start() {
	p.wg.Add(1)
	go p.run()
}

// Stop halts the pump and waits for the in-flight push to finish.
func (p *StatsPump) Stop() {
	p.closeOnce.Do(func() {
		close(p.done)
	})
	p.wg.Wait()
}

func (p *StatsPump) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.push()

	for {
		select {
		case <-ticker.C:
			p.push()
		case <-p.done:
			return
		}
	}
}

func (p *StatsPump) push() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var (
		cacheStats   cache.GlobalStats
		limiterStats ratelimit.Stats
	)
	if p.caches != nil {
		cacheStats = p.caches.GlobalStats()
	}
	if p.limiter != nil {
		limiterStats = p.limiter.GetStats()
	}

	if p.collector != nil {
		if p.caches != nil {
			p.collector.UpdateCacheStats(cacheStats)
		}
		if p.limiter != nil {
			p.collector.UpdateLimiterStats(limiterStats)
		}
	}

	for _, sink := range p.sinks {
		if p.caches != nil {
			if err := sink.PublishCacheStats(ctx, cacheStats); err != nil {
				p.logger.Warn("Failed to publish cache stats", zap.Error(err))
			}
		}
		if p.limiter != nil {
			if err := sink.PublishLimiterStats(ctx, limiterStats); err != nil {
				p.logger.Warn("Failed to publish rate limiter stats", zap.Error(err))
			}
		}
	}
}
