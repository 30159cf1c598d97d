package di

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"printora-backend/application/ports"
	"printora-backend/application/services"
	domainconfig "printora-backend/domain/config"
	"printora-backend/domain/events"
	"printora-backend/infrastructure/config"
	"printora-backend/infrastructure/messaging/eventbridge"
	cloudwatchstats "printora-backend/infrastructure/observability/cloudwatch"
	"printora-backend/infrastructure/persistence/dynamodb"
	"printora-backend/infrastructure/persistence/memory"
	"printora-backend/interfaces/http/rest"
	"printora-backend/interfaces/http/rest/handlers"
	"printora-backend/interfaces/http/rest/middleware"
	v1 "printora-backend/interfaces/http/rest/v1"
	"printora-backend/pkg/cache"
	"printora-backend/pkg/observability"
	"printora-backend/pkg/ratelimit"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	if level, err := zapcore.ParseLevel(cfg.LogLevel); err == nil {
		zapCfg.Level = zap.NewAtomicLevelAt(level)
	}

	return zapCfg.Build()
}

// ProvideDomainConfig loads the environment defaults overlaid with the
// optional tuning file
func ProvideDomainConfig(cfg *config.Config) (*domainconfig.DomainConfig, error) {
	return config.LoadTuning(cfg.TuningFile, cfg.Environment)
}

// ProvideBus creates the in-process event bus
func ProvideBus(logger *zap.Logger) *events.Bus {
	return events.NewBus(logger)
}

// ProvideRegistry creates the cache registry from the domain tuning
func ProvideRegistry(dc *domainconfig.DomainConfig, logger *zap.Logger, bus *events.Bus) *cache.Registry {
	return cache.NewRegistry(registryConfigFrom(dc), logger, bus)
}

// ProvideLimiter creates the rate limiter from the domain tuning
func ProvideLimiter(dc *domainconfig.DomainConfig, logger *zap.Logger, bus *events.Bus) (*ratelimit.Limiter, error) {
	allowlist, err := ratelimit.NewAllowlist(dc.AllowlistedIPs)
	if err != nil {
		return nil, fmt.Errorf("invalid allowlist: %w", err)
	}

	return ratelimit.NewLimiter(ratelimit.LimiterConfig{
		Presets:           limiterPresetsFrom(dc),
		DefaultPreset:     dc.DefaultRateLimitPreset,
		Allowlist:         allowlist,
		MaxTrackedKeys:    dc.MaxTrackedKeys,
		MaxTrackedClients: dc.MaxTrackedClients,
		MaxBlocks:         dc.MaxBlocks,
		SweepInterval:     dc.LimiterSweepInterval,
		HistoryWindow:     dc.BehaviorWindow,
	}, logger, bus), nil
}

// ProvideTuningWatcher watches the tuning file and pushes reloads into the
// registry and limiter. Returns nil when no file is configured or watching
// is disabled; operators then tune via restart.
func ProvideTuningWatcher(
	cfg *config.Config,
	caches *cache.Registry,
	limiter *ratelimit.Limiter,
	logger *zap.Logger,
) (*config.TuningWatcher, error) {
	if cfg.TuningFile == "" || !cfg.WatchTuning {
		return nil, nil
	}

	watcher, err := config.NewTuningWatcher(cfg.TuningFile, cfg.Environment, logger)
	if err != nil {
		return nil, err
	}

	watcher.OnChange(func(dc *domainconfig.DomainConfig) {
		caches.Reconfigure(registryConfigFrom(dc))

		allowlist, err := ratelimit.NewAllowlist(dc.AllowlistedIPs)
		if err != nil {
			logger.Error("Ignoring reloaded allowlist", zap.Error(err))
			allowlist = nil
		}
		limiter.Reconfigure(limiterPresetsFrom(dc), dc.DefaultRateLimitPreset, allowlist)
	})

	watcher.Start()
	return watcher, nil
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
	if err != nil {
		return aws.Config{}, err
	}

	if cfg.EnableTracing {
		observability.InstrumentAWSV2(&awsCfg)
	}
	return awsCfg, nil
}

// ProvideDynamoDBClient creates a DynamoDB client. The memory backend runs
// without one.
func ProvideDynamoDBClient(awsCfg aws.Config, cfg *config.Config) *awsdynamodb.Client {
	if cfg.ContentBackend != "dynamodb" {
		return nil
	}
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client, or nil in
// development where events stay in-process
func ProvideEventBridgeClient(awsCfg aws.Config, cfg *config.Config) *awseventbridge.Client {
	if cfg.IsDevelopment() {
		return nil
	}
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client, or nil in development
// or when metrics are disabled
func ProvideCloudWatchClient(awsCfg aws.Config, cfg *config.Config) *awscloudwatch.Client {
	if cfg.IsDevelopment() || !cfg.EnableMetrics {
		return nil
	}
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideContentStore selects the content backend. The memory backend is
// seeded with demo content for local development.
func ProvideContentStore(cfg *config.Config, client *awsdynamodb.Client, logger *zap.Logger) ports.ContentStore {
	if cfg.ContentBackend == "dynamodb" {
		return dynamodb.NewContentStore(client, cfg.DynamoDBTable, cfg.IndexName, cfg.GSI2IndexName, logger)
	}

	store := memory.NewContentStore(logger)
	memory.SeedDemoContent(store)
	return store
}

// ProvideCatalogService creates the template catalog service
func ProvideCatalogService(store ports.ContentStore, caches *cache.Registry, logger *zap.Logger) *services.CatalogService {
	return services.NewCatalogService(store, caches, logger)
}

// ProvideBlogService creates the blog service
func ProvideBlogService(store ports.ContentStore, caches *cache.Registry, logger *zap.Logger) *services.BlogService {
	return services.NewBlogService(store, caches, logger)
}

// ProvideOrderService creates the order service
func ProvideOrderService(store ports.ContentStore, caches *cache.Registry, logger *zap.Logger) *services.OrderService {
	return services.NewOrderService(store, caches, logger)
}

// ProvideImageService creates the image metadata service
func ProvideImageService(store ports.ContentStore, caches *cache.Registry, logger *zap.Logger) *services.ImageService {
	return services.NewImageService(store, caches, logger)
}

// ProvideSessionService creates the visitor session service
func ProvideSessionService(caches *cache.Registry, logger *zap.Logger) *services.SessionService {
	return services.NewSessionService(caches, logger)
}

// ProvideContactService creates the contact form service
func ProvideContactService(store ports.ContentStore, logger *zap.Logger) *services.ContactService {
	return services.NewContactService(store, logger)
}

// ProvideCollector creates the Prometheus collector and binds the event bus
// to it: counters are fed by events, the audit trail goes to the log. The
// CloudWatch namespace from the config does not apply here; Prometheus
// metric names carry a flat prefix instead.
func ProvideCollector(bus *events.Bus, logger *zap.Logger) (*observability.Collector, error) {
	collector := observability.NewCollector("printora")

	if err := observability.BindEventMetrics(bus, collector); err != nil {
		return nil, err
	}
	if err := observability.BindAuditLog(bus, logger); err != nil {
		return nil, err
	}

	return collector, nil
}

// ProvideTracer creates the X-Ray tracer
func ProvideTracer() *observability.Tracer {
	return observability.NewTracer("printora-storefront")
}

// ProvideEventPublisher creates the outbound EventBridge publisher
func ProvideEventPublisher(client *awseventbridge.Client, cfg *config.Config, logger *zap.Logger) ports.EventPublisher {
	return eventbridge.NewPublisher(client, cfg.EventBusName, logger)
}

// ProvideForwarder subscribes the EventBridge forwarder to the bus
func ProvideForwarder(bus *events.Bus, publisher ports.EventPublisher, logger *zap.Logger) (*eventbridge.Forwarder, error) {
	return eventbridge.NewForwarder(bus, publisher, logger)
}

// ProvideStatsPublisher creates the CloudWatch stats publisher
func ProvideStatsPublisher(client *awscloudwatch.Client, cfg *config.Config, logger *zap.Logger) ports.StatsPublisher {
	return cloudwatchstats.NewStatsPublisher(client, cfg.MetricsNamespace, cfg.Environment, logger)
}

// ProvideStatsPump starts the periodic stats snapshot pump
func ProvideStatsPump(
	cfg *config.Config,
	caches *cache.Registry,
	limiter *ratelimit.Limiter,
	collector *observability.Collector,
	publisher ports.StatsPublisher,
	logger *zap.Logger,
) *observability.StatsPump {
	pump := observability.NewStatsPump(cfg.StatsInterval, caches, limiter, collector, logger, publisher)
	pump.Start()
	return pump
}

// ProvideTemplateHandler creates the template handler
func ProvideTemplateHandler(catalog *services.CatalogService, sessions *services.SessionService, logger *zap.Logger) *handlers.TemplateHandler {
	return handlers.NewTemplateHandler(catalog, sessions, logger)
}

// ProvideBlogHandler creates the blog handler
func ProvideBlogHandler(blog *services.BlogService, logger *zap.Logger) *handlers.BlogHandler {
	return handlers.NewBlogHandler(blog, logger)
}

// ProvideOrderHandler creates the order handler
func ProvideOrderHandler(orders *services.OrderService, cfg *config.Config, logger *zap.Logger) *handlers.OrderHandler {
	return handlers.NewOrderHandler(orders, int64(cfg.MaxRequestBody), logger)
}

// ProvideContactHandler creates the contact handler
func ProvideContactHandler(contact *services.ContactService, cfg *config.Config, logger *zap.Logger) *handlers.ContactHandler {
	return handlers.NewContactHandler(contact, int64(cfg.MaxRequestBody), logger)
}

// ProvideImageHandler creates the image metadata handler
func ProvideImageHandler(images *services.ImageService, logger *zap.Logger) *handlers.ImageHandler {
	return handlers.NewImageHandler(images, logger)
}

// ProvideSessionHandler creates the session handler
func ProvideSessionHandler(sessions *services.SessionService, logger *zap.Logger) *handlers.SessionHandler {
	return handlers.NewSessionHandler(sessions, logger)
}

// ProvideAdminHandler creates the admin handler
func ProvideAdminHandler(caches *cache.Registry, limiter *ratelimit.Limiter, cfg *config.Config, logger *zap.Logger) *handlers.AdminHandler {
	return handlers.NewAdminHandler(caches, limiter, int64(cfg.MaxRequestBody), logger)
}

// ProvideRateLimitMiddleware creates the rate limiting middleware
func ProvideRateLimitMiddleware(limiter *ratelimit.Limiter, logger *zap.Logger) *middleware.RateLimiter {
	return middleware.NewRateLimiter(limiter, logger)
}

// ProvidePageCacheMiddleware creates the rendered page cache middleware
func ProvidePageCacheMiddleware(caches *cache.Registry, logger *zap.Logger) *middleware.PageCache {
	return middleware.NewPageCache(caches, logger)
}

// ProvideCircuitBreaker creates the content store circuit breaker
func ProvideCircuitBreaker(logger *zap.Logger) *middleware.CircuitBreaker {
	return middleware.NewCircuitBreaker("content-store", logger)
}

// ProvideSessionMiddleware creates the visitor session middleware
func ProvideSessionMiddleware(sessions *services.SessionService, logger *zap.Logger) *middleware.Session {
	return middleware.NewSession(sessions, logger)
}

// ProvideV1Router assembles the public API router
func ProvideV1Router(
	templateHandler *handlers.TemplateHandler,
	blogHandler *handlers.BlogHandler,
	orderHandler *handlers.OrderHandler,
	contactHandler *handlers.ContactHandler,
	imageHandler *handlers.ImageHandler,
	sessionHandler *handlers.SessionHandler,
	limits *middleware.RateLimiter,
	pages *middleware.PageCache,
	breaker *middleware.CircuitBreaker,
	session *middleware.Session,
	collector *observability.Collector,
) *mux.Router {
	return v1.NewRouter(
		templateHandler,
		blogHandler,
		orderHandler,
		contactHandler,
		imageHandler,
		sessionHandler,
		limits,
		pages,
		breaker,
		session,
		collector,
	)
}

// ProvideRouter assembles the root router
func ProvideRouter(
	cfg *config.Config,
	v1Router *mux.Router,
	admin *handlers.AdminHandler,
	orders *handlers.OrderHandler,
	collector *observability.Collector,
	tracer *observability.Tracer,
	logger *zap.Logger,
) *rest.Router {
	return rest.NewRouter(cfg, v1Router, admin, orders, collector, tracer, logger)
}

// ProvideHTTPHandler configures all routes and returns the server handler
func ProvideHTTPHandler(router *rest.Router) http.Handler {
	return router.Setup()
}

// registryConfigFrom maps the domain tuning onto the cache registry
// configuration
func registryConfigFrom(dc *domainconfig.DomainConfig) cache.RegistryConfig {
	profiles := make(map[string]cache.Profile, len(dc.CacheProfiles))
	for entityType, profile := range dc.CacheProfiles {
		profiles[entityType] = cacheProfileFrom(dc, profile)
	}

	return cache.RegistryConfig{
		Namespace: dc.CacheNamespace,
		Default:   cacheProfileFrom(dc, dc.DefaultCacheProfile),
		Profiles:  profiles,
	}
}

func cacheProfileFrom(dc *domainconfig.DomainConfig, profile domainconfig.CacheProfile) cache.Profile {
	return cache.Profile{
		MaxEntries:           profile.MaxEntries,
		MaxBytes:             profile.MaxBytes,
		TTL:                  profile.TTL,
		CleanupInterval:      dc.CacheCleanupInterval,
		CompressionThreshold: dc.CompressionThreshold,
	}
}

// limiterPresetsFrom maps the domain rate limit rules onto limiter presets
func limiterPresetsFrom(dc *domainconfig.DomainConfig) map[string]ratelimit.Config {
	presets := make(map[string]ratelimit.Config, len(dc.RateLimitRules))
	for name, rule := range dc.RateLimitRules {
		presets[name] = ratelimit.Config{
			Limit:     rule.Limit,
			Window:    rule.Window,
			Scope:     ratelimit.Scope(rule.Scope),
			Sensitive: rule.Sensitive,
		}
	}
	return presets
}
