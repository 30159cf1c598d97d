package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"printora-backend/application/services"
	"printora-backend/pkg/common"
)

// SessionHandler serves the visitor's own session
type SessionHandler struct {
	sessions *services.SessionService
	logger   *zap.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions *services.SessionService, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		logger:   logger,
	}
}

// GetSession handles GET /session. The session middleware runs before this
// handler, so a missing session here means it expired between the two reads.
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := common.GetSessionID(r.Context())
	if !ok {
		common.RespondError(w, http.StatusNotFound,
			common.StandardErrorCodes.NotFound, "No active session")
		return
	}

	session := h.sessions.Get(r.Context(), sessionID)
	if session == nil {
		common.RespondError(w, http.StatusNotFound,
			common.StandardErrorCodes.NotFound, "No active session")
		return
	}
	common.RespondJSON(w, http.StatusOK, session)
}
