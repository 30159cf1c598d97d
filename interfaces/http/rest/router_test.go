package rest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"printora-backend/application/services"
	"printora-backend/domain/events"
	"printora-backend/infrastructure/config"
	"printora-backend/infrastructure/persistence/memory"
	"printora-backend/interfaces/http/rest/handlers"
	"printora-backend/interfaces/http/rest/middleware"
	v1 "printora-backend/interfaces/http/rest/v1"
	"printora-backend/pkg/cache"
	"printora-backend/pkg/common"
	"printora-backend/pkg/observability"
	"printora-backend/pkg/ratelimit"
)

// newTestStack wires the full HTTP surface against the in-memory content
// store, the same way the container does in development mode. A nil presets
// map uses the built-in traffic classes.
func newTestStack(t *testing.T, presets map[string]ratelimit.Config) http.Handler {
	t.Helper()
	logger := zap.NewNop()
	bus := events.NewBus(logger)

	caches := cache.NewRegistry(cache.RegistryConfig{Namespace: "printora"}, logger, bus)
	t.Cleanup(caches.CloseAll)

	limiter := ratelimit.NewLimiter(ratelimit.LimiterConfig{Presets: presets}, logger, bus)
	t.Cleanup(limiter.Close)

	store := memory.NewContentStore(logger)
	memory.SeedDemoContent(store)

	catalog := services.NewCatalogService(store, caches, logger)
	blog := services.NewBlogService(store, caches, logger)
	orders := services.NewOrderService(store, caches, logger)
	images := services.NewImageService(store, caches, logger)
	sessions := services.NewSessionService(caches, logger)
	contact := services.NewContactService(store, logger)

	collector := observability.NewCollector("printora")
	require.NoError(t, observability.BindEventMetrics(bus, collector))

	const maxBody = 1 << 20
	templateHandler := handlers.NewTemplateHandler(catalog, sessions, logger)
	blogHandler := handlers.NewBlogHandler(blog, logger)
	orderHandler := handlers.NewOrderHandler(orders, maxBody, logger)
	contactHandler := handlers.NewContactHandler(contact, maxBody, logger)
	imageHandler := handlers.NewImageHandler(images, logger)
	sessionHandler := handlers.NewSessionHandler(sessions, logger)
	adminHandler := handlers.NewAdminHandler(caches, limiter, maxBody, logger)

	limits := middleware.NewRateLimiter(limiter, logger)
	pages := middleware.NewPageCache(caches, logger)
	breaker := middleware.NewCircuitBreaker("content-store", logger)
	session := middleware.NewSession(sessions, logger)

	apiRouter := v1.NewRouter(templateHandler, blogHandler, orderHandler, contactHandler,
		imageHandler, sessionHandler, limits, pages, breaker, session, collector)

	cfg := &config.Config{EnableMetrics: true}
	return NewRouter(cfg, apiRouter, adminHandler, orderHandler, collector, nil, logger).Setup()
}

func doRequest(t *testing.T, h http.Handler, method, target, body string, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.RemoteAddr = "203.0.113.10:52100"
	for _, fn := range mutate {
		fn(req)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) common.APIResponse {
	t.Helper()
	var resp common.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func dataMap(t *testing.T, resp common.APIResponse) map[string]interface{} {
	t.Helper()
	m, ok := resp.Data.(map[string]interface{})
	require.True(t, ok, "response data should be an object, got %T", resp.Data)
	return m
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == "psid" {
			return c
		}
	}
	return nil
}

func TestHealthEndpoints(t *testing.T) {
	h := newTestStack(t, nil)

	rec := doRequest(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, h, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTemplateListServedFromPageCache(t *testing.T) {
	h := newTestStack(t, nil)

	first := doRequest(t, h, http.MethodGet, "/api/v1/templates", "")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	assert.Equal(t, "v1", first.Header().Get("X-API-Version"))

	resp := decodeEnvelope(t, first)
	require.True(t, resp.Success)
	templates, ok := dataMap(t, resp)["templates"].([]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, templates)

	cookie := sessionCookie(first)
	require.NotNil(t, cookie, "first storefront response should start a session")

	second := doRequest(t, h, http.MethodGet, "/api/v1/templates", "", func(r *http.Request) {
		r.AddCookie(cookie)
	})
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Nil(t, sessionCookie(second), "a known session should not be reissued")
}

func TestTemplateLookups(t *testing.T) {
	h := newTestStack(t, nil)

	rec := doRequest(t, h, http.MethodGet, "/api/v1/templates/tpl-classic-card", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tpl-classic-card", dataMap(t, decodeEnvelope(t, rec))["id"])

	rec = doRequest(t, h, http.MethodGet, "/api/v1/templates/slug/classic-business-card", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tpl-classic-card", dataMap(t, decodeEnvelope(t, rec))["id"])

	rec = doRequest(t, h, http.MethodGet, "/api/v1/templates/categories", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, dataMap(t, decodeEnvelope(t, rec))["categories"])

	rec = doRequest(t, h, http.MethodGet, "/api/v1/templates/no-such-template", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeEnvelope(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, common.StandardErrorCodes.NotFound, resp.Error.Code)
}

func TestRateLimitRejectsAfterBurst(t *testing.T) {
	presets := ratelimit.DefaultPresets()
	presets[ratelimit.PresetTemplateAPI] = ratelimit.Config{
		Limit:  3,
		Window: time.Minute,
		Scope:  ratelimit.ScopeIPResource,
	}
	h := newTestStack(t, presets)

	for i := 0; i < 3; i++ {
		rec := doRequest(t, h, http.MethodGet, "/api/v1/templates", "")
		require.Equal(t, http.StatusOK, rec.Code, "request %d should pass", i+1)
		assert.Equal(t, "3", rec.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, fmt.Sprintf("%d", 2-i), rec.Header().Get("X-RateLimit-Remaining"))
	}

	rec := doRequest(t, h, http.MethodGet, "/api/v1/templates", "")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	resp := decodeEnvelope(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, common.StandardErrorCodes.TooManyRequests, resp.Error.Code)
	assert.NotEmpty(t, resp.Error.Details["reference_id"])

	// Another address still has its own allowance.
	rec = doRequest(t, h, http.MethodGet, "/api/v1/templates", "", func(r *http.Request) {
		r.RemoteAddr = "198.51.100.20:40000"
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminCacheInvalidation(t *testing.T) {
	h := newTestStack(t, nil)

	doRequest(t, h, http.MethodGet, "/api/v1/templates", "")
	rec := doRequest(t, h, http.MethodGet, "/api/v1/templates", "")
	require.Equal(t, "HIT", rec.Header().Get("X-Cache"))

	rec = doRequest(t, h, http.MethodPost, "/admin/cache/invalidate", `{"entityType":"page"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	invalidated, ok := dataMap(t, decodeEnvelope(t, rec))["invalidated"].(float64)
	require.True(t, ok)
	assert.GreaterOrEqual(t, invalidated, float64(1))

	rec = doRequest(t, h, http.MethodGet, "/api/v1/templates", "")
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))

	rec = doRequest(t, h, http.MethodPost, "/admin/cache/invalidate", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrderLifecycle(t *testing.T) {
	h := newTestStack(t, nil)

	body := `{
		"email": "ada@example.com",
		"currency": "EUR",
		"items": [{"templateId": "tpl-classic-card", "quantity": 2, "unitPriceCents": 1295}]
	}`
	rec := doRequest(t, h, http.MethodPost, "/api/v1/orders", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	created := dataMap(t, decodeEnvelope(t, rec))
	orderID, _ := created["id"].(string)
	number, _ := created["number"].(string)
	require.NotEmpty(t, orderID)
	require.NotEmpty(t, number)
	assert.Equal(t, "pending", created["status"])
	assert.Equal(t, float64(2590), created["totalCents"])

	// The polling view must not leak the email or the line items.
	rec = doRequest(t, h, http.MethodGet, "/api/v1/orders/number/"+number, "")
	require.Equal(t, http.StatusOK, rec.Code)
	status := dataMap(t, decodeEnvelope(t, rec))
	assert.Equal(t, "pending", status["status"])
	assert.NotContains(t, rec.Body.String(), "ada@example.com")
	assert.NotContains(t, rec.Body.String(), "items")

	rec = doRequest(t, h, http.MethodPost, "/admin/orders/"+orderID+"/status", `{"status":"paid"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	// The status change dropped the cached views, so the next poll sees it.
	rec = doRequest(t, h, http.MethodGet, "/api/v1/orders/number/"+number, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "paid", dataMap(t, decodeEnvelope(t, rec))["status"])

	rec = doRequest(t, h, http.MethodGet, "/api/v1/orders/"+orderID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, orderID, dataMap(t, decodeEnvelope(t, rec))["id"])
}

func TestOrderValidation(t *testing.T) {
	h := newTestStack(t, nil)

	rec := doRequest(t, h, http.MethodPost, "/api/v1/orders",
		`{"currency": "EUR", "items": [{"templateId": "tpl-classic-card", "quantity": 1}]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeEnvelope(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, common.StandardErrorCodes.ValidationError, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "email")
}

func TestContactSubmission(t *testing.T) {
	h := newTestStack(t, nil)

	rec := doRequest(t, h, http.MethodPost, "/api/v1/contact",
		`{"name": "Ada", "email": "ada@example.com", "subject": "Paper stock", "message": "Which paper suits business cards?"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotEmpty(t, dataMap(t, decodeEnvelope(t, rec))["id"])

	rec = doRequest(t, h, http.MethodPost, "/api/v1/contact",
		`{"name": "Ada", "email": "not-an-email", "subject": "Hi", "message": "Hello"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionEndpoint(t *testing.T) {
	h := newTestStack(t, nil)

	rec := doRequest(t, h, http.MethodGet, "/api/v1/session", "")
	require.Equal(t, http.StatusOK, rec.Code)

	cookie := sessionCookie(rec)
	require.NotNil(t, cookie)
	assert.Equal(t, cookie.Value, dataMap(t, decodeEnvelope(t, rec))["id"])
}

func TestImageMetaEndpoint(t *testing.T) {
	h := newTestStack(t, nil)

	rec := doRequest(t, h, http.MethodGet, "/api/v1/images/meta?path=previews/classic-business-card.webp", "")
	require.Equal(t, http.StatusOK, rec.Code)
	meta := dataMap(t, decodeEnvelope(t, rec))
	assert.Equal(t, float64(1200), meta["width"])

	rec = doRequest(t, h, http.MethodGet, "/api/v1/images/meta", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminRateLimitSurface(t *testing.T) {
	h := newTestStack(t, nil)

	doRequest(t, h, http.MethodGet, "/api/v1/templates", "")

	rec := doRequest(t, h, http.MethodGet, "/admin/ratelimit/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	stats, ok := dataMap(t, decodeEnvelope(t, rec))["stats"].(map[string]interface{})
	require.True(t, ok)
	assert.GreaterOrEqual(t, stats["totalAllowed"], float64(1))

	rec = doRequest(t, h, http.MethodPost, "/admin/ratelimit/unblock", `{"key":"nobody"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsExposition(t *testing.T) {
	h := newTestStack(t, nil)

	doRequest(t, h, http.MethodGet, "/api/v1/templates", "")

	rec := doRequest(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "printora_")
}
