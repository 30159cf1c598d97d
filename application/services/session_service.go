package services

import (
	"context"

	"go.uber.org/zap"

	"printora-backend/domain/content"
	"printora-backend/pkg/cache"
)

// SessionService keeps visitor sessions in the cache. Sessions have no
// backing store: losing one on eviction or restart just means the visitor
// starts a fresh anonymous session.
type SessionService struct {
	caches *cache.Registry
	logger *zap.Logger
}

// NewSessionService creates a new session service
func NewSessionService(caches *cache.Registry, logger *zap.Logger) *SessionService {
	return &SessionService{
		caches: caches,
		logger: logger,
	}
}

// GetOrCreate loads an existing session or starts a new one. The boolean
// reports whether a new session was created.
func (s *SessionService) GetOrCreate(ctx context.Context, sessionID, locale, currency string) (*content.VisitorSession, bool) {
	instance := s.caches.For(cache.EntitySession)

	if sessionID != "" {
		var session content.VisitorSession
		key := s.caches.Keys().BuildID(cache.EntitySession, sessionID)
		if hit, err := instance.Get(ctx, key, &session); err == nil && hit {
			session.Touch()
			s.save(ctx, &session)
			return &session, false
		}
	}

	session := content.NewVisitorSession(locale, currency)
	s.save(ctx, session)
	return session, true
}

// Get loads a session without creating one. Returns nil when the session
// does not exist or has expired.
func (s *SessionService) Get(ctx context.Context, sessionID string) *content.VisitorSession {
	if sessionID == "" {
		return nil
	}

	var session content.VisitorSession
	key := s.caches.Keys().BuildID(cache.EntitySession, sessionID)
	hit, err := s.caches.For(cache.EntitySession).Get(ctx, key, &session)
	if err != nil || !hit {
		return nil
	}
	return &session
}

// RememberTemplate records a template view on the session
func (s *SessionService) RememberTemplate(ctx context.Context, sessionID, templateID string) {
	if sessionID == "" || templateID == "" {
		return
	}

	var session content.VisitorSession
	key := s.caches.Keys().BuildID(cache.EntitySession, sessionID)
	hit, err := s.caches.For(cache.EntitySession).Get(ctx, key, &session)
	if err != nil || !hit {
		return
	}

	session.RememberTemplate(templateID)
	s.save(ctx, &session)
}

func (s *SessionService) save(ctx context.Context, session *content.VisitorSession) {
	key := s.caches.Keys().BuildID(cache.EntitySession, session.ID)
	if err := s.caches.For(cache.EntitySession).Set(ctx, key, session, 0); err != nil {
		s.logger.Warn("Failed to store session",
			zap.String("session_id", session.ID),
			zap.Error(err))
	}
}
