package middleware

import (
	"errors"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"printora-backend/pkg/common"
)

// errUpstreamFailure marks a 5xx response so the breaker counts it. The
// response itself was already written by the handler.
var errUpstreamFailure = errors.New("upstream returned server error")

// CircuitBreaker sheds load off store-backed routes when the backend keeps
// failing. Rejected requests get an immediate 503 instead of piling onto a
// struggling store. Cached pages are unaffected as long as the page cache
// middleware runs before this one.
type CircuitBreaker struct {
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewCircuitBreaker creates a breaker middleware. The breaker trips when at
// least ten requests in the interval failed at a 60% rate, stays open for
// thirty seconds and then probes with a handful of requests.
func NewCircuitBreaker(name string, logger *zap.Logger) *CircuitBreaker {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRate := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRate >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}
	return &CircuitBreaker{
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  logger,
	}
}

// Handler is the middleware function
func (m *CircuitBreaker) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, err := m.breaker.Execute(func() (interface{}, error) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			if ww.Status() >= http.StatusInternalServerError {
				return nil, errUpstreamFailure
			}
			return nil, nil
		})

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			common.RespondError(w, http.StatusServiceUnavailable,
				common.StandardErrorCodes.ServiceUnavailable,
				"Service temporarily unavailable, please retry shortly")
			return
		}
	})
}
