package v1

import (
	"net/http"

	"github.com/gorilla/mux"

	"printora-backend/interfaces/http/rest/handlers"
	"printora-backend/interfaces/http/rest/middleware"
	"printora-backend/pkg/observability"
	"printora-backend/pkg/ratelimit"
)

// NewRouter creates the v1 API router. Every route is rate limited first,
// so rejected requests never touch the session cache, the page cache or the
// content store.
func NewRouter(
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
	router := mux.NewRouter()
	v1 := router.PathPrefix("/api/v1").Subrouter()

	// Apply middleware
	v1.Use(middleware.Metrics(collector))
	v1.Use(versionHeaders)

	// page serves cacheable rendered content: cached pages answer even when
	// the breaker is open because the cache runs before it.
	page := func(h http.HandlerFunc) http.Handler {
		return session.Handler(pages.Handler(breaker.Handler(h)))
	}
	// store serves per-visitor content straight from the content store
	store := func(h http.HandlerFunc) http.Handler {
		return session.Handler(breaker.Handler(h))
	}

	// Template endpoints
	v1.Handle("/templates", limits.Limit(ratelimit.PresetTemplateAPI)(page(templateHandler.ListTemplates))).Methods("GET")
	v1.Handle("/templates/categories", limits.Limit(ratelimit.PresetTemplateAPI)(page(templateHandler.ListCategories))).Methods("GET")
	v1.Handle("/templates/slug/{slug}", limits.Limit(ratelimit.PresetTemplateAPI)(page(templateHandler.GetTemplateBySlug))).Methods("GET")
	v1.Handle("/templates/{templateID}", limits.Limit(ratelimit.PresetTemplateAPI)(page(templateHandler.GetTemplate))).Methods("GET")

	// Blog endpoints
	v1.Handle("/blog", limits.Limit(ratelimit.PresetBlogAPI)(page(blogHandler.ListArticles))).Methods("GET")
	v1.Handle("/blog/slug/{slug}", limits.Limit(ratelimit.PresetBlogAPI)(page(blogHandler.GetArticleBySlug))).Methods("GET")
	v1.Handle("/blog/{articleID}", limits.Limit(ratelimit.PresetBlogAPI)(page(blogHandler.GetArticle))).Methods("GET")

	// Order endpoints
	v1.Handle("/orders", limits.LimitWithEmail(ratelimit.PresetOrder)(store(orderHandler.CreateOrder))).Methods("POST")
	v1.Handle("/orders/number/{number}", limits.Limit(ratelimit.PresetPolling)(store(orderHandler.GetOrderStatus))).Methods("GET")
	v1.Handle("/orders/{orderID}", limits.Limit(ratelimit.PresetPolling)(store(orderHandler.GetOrder))).Methods("GET")

	// Contact form
	v1.Handle("/contact", limits.LimitWithEmail(ratelimit.PresetContact)(store(contactHandler.SubmitContact))).Methods("POST")

	// Image metadata
	v1.Handle("/images/meta", limits.Limit(ratelimit.PresetImage)(store(imageHandler.GetImageMeta))).Methods("GET")

	// Session endpoint is served wholly in-process, so no breaker
	v1.Handle("/session", limits.Limit(ratelimit.PresetBrowsing)(session.Handler(http.HandlerFunc(sessionHandler.GetSession)))).Methods("GET")

	return router
}

// versionHeaders adds API version headers to responses
func versionHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-API-Version", "v1")
		next.ServeHTTP(w, r)
	})
}
