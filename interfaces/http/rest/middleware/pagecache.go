package middleware

import (
	"bytes"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"printora-backend/pkg/cache"
	"printora-backend/pkg/common"
)

// RenderedPage is one cached response body. Only 200s are cached; errors and
// redirects always render fresh.
type RenderedPage struct {
	Status      int    `json:"status"`
	ContentType string `json:"contentType"`
	Body        []byte `json:"body"`
}

// PageCache serves whole GET responses from the page cache instance, keyed by
// path, canonical query string and locale. It runs after the rate limiter
// and before the circuit breaker, so cached pages keep serving while the
// store is shedding load.
type PageCache struct {
	caches *cache.Registry
	logger *zap.Logger
}

// NewPageCache creates the page caching middleware
func NewPageCache(caches *cache.Registry, logger *zap.Logger) *PageCache {
	return &PageCache{
		caches: caches,
		logger: logger,
	}
}

// Handler is the middleware function
func (m *PageCache) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		locale, _ := common.GetLocale(ctx)
		key := m.caches.Keys().Build(cache.EntityPage, map[string]string{
			"path":   r.URL.Path,
			"query":  r.URL.Query().Encode(),
			"locale": locale,
		})
		instance := m.caches.For(cache.EntityPage)

		var page RenderedPage
		if hit, err := instance.Get(ctx, key, &page); err == nil && hit {
			if page.ContentType != "" {
				w.Header().Set("Content-Type", page.ContentType)
			}
			w.Header().Set("X-Cache", "HIT")
			w.WriteHeader(page.Status)
			w.Write(page.Body)
			return
		}

		var buf bytes.Buffer
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		ww.Tee(&buf)
		ww.Header().Set("X-Cache", "MISS")

		next.ServeHTTP(ww, r)

		if ww.Status() != http.StatusOK {
			return
		}
		page = RenderedPage{
			Status:      ww.Status(),
			ContentType: ww.Header().Get("Content-Type"),
			Body:        buf.Bytes(),
		}
		if err := instance.Set(ctx, key, page, 0); err != nil {
			m.logger.Debug("Page not cached",
				zap.String("path", r.URL.Path),
				zap.Error(err))
		}
	})
}
