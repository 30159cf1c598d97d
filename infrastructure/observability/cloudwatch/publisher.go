// Package cloudwatch ships cache and rate limiter snapshots to CloudWatch
// custom metrics. Prometheus serves live scraping; CloudWatch keeps the
// long-retention view dashboards and alarms are built on.
package cloudwatch

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"

	"printora-backend/application/ports"
	"printora-backend/pkg/cache"
	"printora-backend/pkg/ratelimit"
)

// PutMetricData rejects oversized payloads, so datums are sent in chunks.
const maxDatumsPerCall = 20

// StatsPublisher implements ports.StatsPublisher on CloudWatch.
type StatsPublisher struct {
	client      *cloudwatch.Client
	namespace   string
	environment string
	logger      *zap.Logger
}

// NewStatsPublisher creates a CloudWatch stats publisher. A nil client turns
// every publish into a no-op, which is how local development runs.
func NewStatsPublisher(
	client *cloudwatch.Client,
	namespace string,
	environment string,
	logger *zap.Logger,
) ports.StatsPublisher {
	return &StatsPublisher{
		client:      client,
		namespace:   namespace,
		environment: environment,
		logger:      logger,
	}
}

// PublishCacheStats ships one datum per instance gauge plus the aggregate
// totals. Cumulative counters are not shipped here; they are derivable from
// the Prometheus counters fed by the event bus.
func (p *StatsPublisher) PublishCacheStats(ctx context.Context, stats cache.GlobalStats) error {
	if p.client == nil {
		return nil
	}

	now := time.Now()
	datums := make([]types.MetricDatum, 0, len(stats.Instances)*3+3)

	for entityType, instance := range stats.Instances {
		dims := p.dimensions("EntityType", entityType)
		datums = append(datums,
			p.datum("CacheEntries", float64(instance.Entries), types.StandardUnitCount, dims, now),
			p.datum("CacheBytesUsed", float64(instance.BytesUsed), types.StandardUnitBytes, dims, now),
			p.datum("CacheHitRate", instance.HitRate*100, types.StandardUnitPercent, dims, now),
		)
	}

	totals := p.dimensions("", "")
	datums = append(datums,
		p.datum("CacheTotalEntries", float64(stats.TotalEntries), types.StandardUnitCount, totals, now),
		p.datum("CacheTotalBytesUsed", float64(stats.TotalBytesUsed), types.StandardUnitBytes, totals, now),
		p.datum("CacheOverallHitRate", stats.OverallHitRate*100, types.StandardUnitPercent, totals, now),
	)

	return p.send(ctx, datums)
}

// PublishLimiterStats ships the limiter gauges and lifetime counters.
func (p *StatsPublisher) PublishLimiterStats(ctx context.Context, stats ratelimit.Stats) error {
	if p.client == nil {
		return nil
	}

	now := time.Now()
	dims := p.dimensions("", "")
	datums := []types.MetricDatum{
		p.datum("RateLimitActiveWindows", float64(stats.ActiveWindows), types.StandardUnitCount, dims, now),
		p.datum("RateLimitTrackedClients", float64(stats.TrackedClients), types.StandardUnitCount, dims, now),
		p.datum("RateLimitActiveBlocks", float64(stats.ActiveBlocks), types.StandardUnitCount, dims, now),
		p.datum("RateLimitAllowed", float64(stats.TotalAllowed), types.StandardUnitCount, dims, now),
		p.datum("RateLimitRejected", float64(stats.TotalRejected), types.StandardUnitCount, dims, now),
		p.datum("RateLimitBlockedRejections", float64(stats.TotalBlockedRejections), types.StandardUnitCount, dims, now),
		p.datum("RateLimitBlocksCreated", float64(stats.BlocksCreated), types.StandardUnitCount, dims, now),
	}

	return p.send(ctx, datums)
}

func (p *StatsPublisher) dimensions(name, value string) []types.Dimension {
	dims := []types.Dimension{
		{
			Name:  aws.String("Environment"),
			Value: aws.String(p.environment),
		},
	}
	if name != "" {
		dims = append(dims, types.Dimension{
			Name:  aws.String(name),
			Value: aws.String(value),
		})
	}
	return dims
}

func (p *StatsPublisher) datum(name string, value float64, unit types.StandardUnit, dims []types.Dimension, at time.Time) types.MetricDatum {
	return types.MetricDatum{
		MetricName: aws.String(name),
		Dimensions: dims,
		Value:      aws.Float64(value),
		Unit:       unit,
		Timestamp:  aws.Time(at),
	}
}

func (p *StatsPublisher) send(ctx context.Context, datums []types.MetricDatum) error {
	for start := 0; start < len(datums); start += maxDatumsPerCall {
		end := start + maxDatumsPerCall
		if end > len(datums) {
			end = len(datums)
		}

		input := &cloudwatch.PutMetricDataInput{
			Namespace:  aws.String(p.namespace),
			MetricData: datums[start:end],
		}
		if _, err := p.client.PutMetricData(ctx, input); err != nil {
			return fmt.Errorf("failed to put metric data: %w", err)
		}
	}

	p.logger.Debug("Stats shipped to CloudWatch",
		zap.Int("datums", len(datums)),
		zap.String("namespace", p.namespace))
	return nil
}
