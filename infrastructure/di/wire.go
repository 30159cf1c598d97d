//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"printora-backend/infrastructure/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideDomainConfig,
	ProvideBus,
	ProvideRegistry,
	ProvideLimiter,
	ProvideTuningWatcher,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideCloudWatchClient,
	ProvideContentStore,
	ProvideCatalogService,
	ProvideBlogService,
	ProvideOrderService,
	ProvideImageService,
	ProvideSessionService,
	ProvideContactService,
	ProvideCollector,
	ProvideTracer,
	ProvideEventPublisher,
	ProvideForwarder,
	ProvideStatsPublisher,
	ProvideStatsPump,
	ProvideTemplateHandler,
	ProvideBlogHandler,
	ProvideOrderHandler,
	ProvideContactHandler,
	ProvideImageHandler,
	ProvideSessionHandler,
	ProvideAdminHandler,
	ProvideRateLimitMiddleware,
	ProvidePageCacheMiddleware,
	ProvideCircuitBreaker,
	ProvideSessionMiddleware,
	ProvideV1Router,
	ProvideRouter,
	ProvideHTTPHandler,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
