package middleware

import (
	"net"
	"net/http"
	"strings"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"printora-backend/pkg/common"
)

// RequestContext copies request identity into typed context keys so handlers
// and the rate limiter read one canonical source: request ID, client IP,
// locale and start time.
func RequestContext() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ctx = common.EnrichContext(ctx, chimiddleware.GetReqID(ctx), clientIP(r))
			ctx = common.WithLocale(ctx, requestLocale(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// clientIP returns the remote address without the port. RealIP runs before
// this, so RemoteAddr already holds the forwarded client address.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// requestLocale resolves the request locale: explicit query parameter first,
// then the first Accept-Language tag. Empty means locale-neutral content.
func requestLocale(r *http.Request) string {
	if locale := r.URL.Query().Get("locale"); locale != "" {
		return locale
	}

	header := r.Header.Get("Accept-Language")
	if header == "" {
		return ""
	}
	first := strings.SplitN(header, ",", 2)[0]
	first = strings.SplitN(first, ";", 2)[0]
	return strings.TrimSpace(first)
}
