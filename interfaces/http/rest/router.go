package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"printora-backend/infrastructure/config"
	"printora-backend/interfaces/http/rest/handlers"
	"printora-backend/interfaces/http/rest/middleware"
	"printora-backend/pkg/observability"
)

// Router creates and configures the HTTP router
type Router struct {
	cfg       *config.Config
	v1        http.Handler
	admin     *handlers.AdminHandler
	orders    *handlers.OrderHandler
	collector *observability.Collector
	tracer    *observability.Tracer
	logger    *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	cfg *config.Config,
	v1 http.Handler,
	admin *handlers.AdminHandler,
	orders *handlers.OrderHandler,
	collector *observability.Collector,
	tracer *observability.Tracer,
	logger *zap.Logger,
) *Router {
	return &Router{
		cfg:       cfg,
		v1:        v1,
		admin:     admin,
		orders:    orders,
		collector: collector,
		tracer:    tracer,
		logger:    logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.RequestContext())
	router.Use(middleware.Logger(rt.logger))

	if rt.cfg.EnableTracing {
		router.Use(rt.tracer.Middleware)
	}

	// CORS configuration. Credentials stay on so the session cookie
	// survives cross-origin fetches from the storefront frontend.
	if rt.cfg.EnableCORS {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"http://localhost:3000", "https://*.printora.com"},
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Accept-Language", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID", "X-Cache", "Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	// Prometheus scrape endpoint
	if rt.cfg.EnableMetrics {
		router.Method(http.MethodGet, "/metrics",
			promhttp.HandlerFor(rt.collector.GetRegistry(), promhttp.HandlerOpts{}))
	}

	// Operator surface. Not rate limited: these routes are reachable only
	// from the internal network.
	router.Route("/admin", func(r chi.Router) {
		r.Use(middleware.Metrics(rt.collector))

		r.Get("/cache/stats", rt.admin.GetCacheStats)
		r.Post("/cache/invalidate", rt.admin.InvalidateCache)
		r.Post("/cache/cleanup", rt.admin.CleanupCache)
		r.Get("/ratelimit/stats", rt.admin.GetRateLimitStats)
		r.Post("/ratelimit/unblock", rt.admin.UnblockClient)
		r.Post("/orders/{orderID}/status", rt.orders.UpdateOrderStatus)
	})

	// Public storefront API. The v1 router matches the full /api/v1 prefix
	// itself, and chi passes the original path through on Mount.
	router.Mount("/api/v1", rt.v1)

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness check requests. Caches and limiter live
// in-process, so a live process is a ready one.
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
