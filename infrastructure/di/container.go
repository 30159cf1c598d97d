package di

import (
	"net/http"

	"go.uber.org/zap"

	"printora-backend/application/ports"
	"printora-backend/application/services"
	"printora-backend/domain/events"
	"printora-backend/infrastructure/config"
	"printora-backend/infrastructure/messaging/eventbridge"
	"printora-backend/pkg/cache"
	"printora-backend/pkg/observability"
	"printora-backend/pkg/ratelimit"
)

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	Bus     *events.Bus
	Caches  *cache.Registry
	Limiter *ratelimit.Limiter
	Tuning  *config.TuningWatcher

	Store    ports.ContentStore
	Catalog  *services.CatalogService
	Blog     *services.BlogService
	Orders   *services.OrderService
	Images   *services.ImageService
	Sessions *services.SessionService
	Contact  *services.ContactService

	Collector *observability.Collector
	Tracer    *observability.Tracer
	StatsPump *observability.StatsPump
	Forwarder *eventbridge.Forwarder

	Handler http.Handler
}

// Shutdown releases container resources in reverse dependency order. The
// HTTP server must already be drained when this runs, so in-flight requests
// never see a closed cache or limiter.
func (c *Container) Shutdown() {
	if c.StatsPump != nil {
		c.StatsPump.Stop()
	}
	if c.Forwarder != nil {
		c.Forwarder.Close()
	}
	if c.Tuning != nil {
		c.Tuning.Stop()
	}
	if c.Limiter != nil {
		c.Limiter.Close()
	}
	if c.Caches != nil {
		c.Caches.CloseAll()
	}
	if c.Logger != nil {
		c.Logger.Sync()
	}
}
