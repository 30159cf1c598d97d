package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"printora-backend/pkg/common"
	"printora-backend/pkg/ratelimit"
)

// emailPeekLimit bounds how much of a body the email probe reads. Order and
// contact payloads fit well under it; anything bigger falls back to IP keying.
const emailPeekLimit = 64 << 10

// RateLimiter guards routes with the limiter, one traffic-class preset per
// route. Rejections become structured 429 responses; allowed requests are
// fed back into the limiter's behavioral history after they complete.
type RateLimiter struct {
	limiter *ratelimit.Limiter
	logger  *zap.Logger
}

// NewRateLimiter creates the rate limiting middleware factory
func NewRateLimiter(limiter *ratelimit.Limiter, logger *zap.Logger) *RateLimiter {
	return &RateLimiter{
		limiter: limiter,
		logger:  logger,
	}
}

// Limit guards a route with the named preset, keyed by the preset's scope.
func (m *RateLimiter) Limit(preset string) func(http.Handler) http.Handler {
	return m.guard(preset, nil)
}

// LimitWithEmail guards a form-style route whose preset keys on IP plus the
// submitted email address. The body is peeked for the email field and then
// restored for the handler.
func (m *RateLimiter) LimitWithEmail(preset string) func(http.Handler) http.Handler {
	return m.guard(preset, peekEmail)
}

func (m *RateLimiter) guard(preset string, emailFn func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ip, ok := common.GetClientIP(ctx)
			if !ok || ip == "" {
				ip = clientIP(r)
			}
			locale, _ := common.GetLocale(ctx)

			req := ratelimit.Request{
				IP:       ip,
				Resource: routeResource(r),
				Preset:   preset,
				Locale:   locale,
			}
			if emailFn != nil {
				req.Email = emailFn(r)
			}

			decision := m.limiter.Check(ctx, req)
			writeRateHeaders(w, decision)
			if !decision.Allowed {
				m.reject(w, r, decision)
				return
			}

			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			m.limiter.RecordOutcome(ctx, req, ww.Status())
		})
	}
}

func (m *RateLimiter) reject(w http.ResponseWriter, r *http.Request, decision ratelimit.Decision) {
	retryAfter := int(decision.RetryAfter.Seconds() + 0.5)
	if retryAfter < 1 {
		retryAfter = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))

	details := map[string]interface{}{
		"retry_after_seconds": retryAfter,
		"reference_id":        decision.ReferenceID,
	}
	if decision.Blocked {
		details["blocked"] = true
	}

	m.logger.Info("Request rejected by rate limiter",
		zap.String("path", r.URL.Path),
		zap.String("preset", decision.Preset),
		zap.Bool("blocked", decision.Blocked),
		zap.String("reference_id", decision.ReferenceID))

	common.RespondErrorWithDetails(w, http.StatusTooManyRequests,
		common.StandardErrorCodes.TooManyRequests, decision.Message, details)
}

func writeRateHeaders(w http.ResponseWriter, decision ratelimit.Decision) {
	if decision.Limit <= 0 {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
	if !decision.ResetAt.IsZero() {
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))
	}
}

// routeResource labels the request for resource-scoped counting. The route
// template keeps cardinality bounded; raw paths with IDs in them would give
// every order its own window.
func routeResource(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if template, err := route.GetPathTemplate(); err == nil {
			return template
		}
	}
	return r.URL.Path
}

// peekEmail reads the email field out of a JSON body and puts the body back
// for the handler. Any failure just means IP-keyed counting.
func peekEmail(r *http.Request) string {
	if r.Body == nil {
		return ""
	}
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		return ""
	}

	buf, err := io.ReadAll(io.LimitReader(r.Body, emailPeekLimit))
	r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(buf), r.Body))
	if err != nil {
		return ""
	}

	var probe struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(buf, &probe); err != nil {
		return ""
	}
	return probe.Email
}
