package middleware

import (
	"net/http"

	"go.uber.org/zap"

	"printora-backend/application/services"
	"printora-backend/pkg/common"
)

const (
	sessionCookieName = "psid"

	// Sessions only live as long as their cache entry; the cookie outlasting
	// the entry is fine, the visitor just gets a fresh session.
	sessionCookieMaxAge = 30 * 24 * 60 * 60

	defaultCurrency = "EUR"
)

// Session resolves the anonymous visitor session for storefront routes. A
// missing or expired session cookie starts a new session; the session ID and
// its locale end up in the request context.
type Session struct {
	sessions *services.SessionService
	logger   *zap.Logger
}

// NewSession creates the session middleware
func NewSession(sessions *services.SessionService, logger *zap.Logger) *Session {
	return &Session{
		sessions: sessions,
		logger:   logger,
	}
}

// Handler is the middleware function
func (m *Session) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		locale, _ := common.GetLocale(ctx)

		var sessionID string
		if cookie, err := r.Cookie(sessionCookieName); err == nil {
			sessionID = cookie.Value
		}

		currency := r.URL.Query().Get("currency")
		if currency == "" {
			currency = defaultCurrency
		}

		session, created := m.sessions.GetOrCreate(ctx, sessionID, locale, currency)
		if created {
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookieName,
				Value:    session.ID,
				Path:     "/",
				MaxAge:   sessionCookieMaxAge,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
			m.logger.Debug("Visitor session started",
				zap.String("session_id", session.ID),
				zap.String("locale", session.Locale))
		}

		ctx = common.WithSessionID(ctx, session.ID)
		if locale == "" && session.Locale != "" {
			ctx = common.WithLocale(ctx, session.Locale)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
