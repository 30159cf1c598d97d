package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"printora-backend/pkg/cache"
	"printora-backend/pkg/common"
	"printora-backend/pkg/ratelimit"
	"printora-backend/pkg/utils"
)

// AdminHandler exposes cache and rate limiter operations for operators.
// These routes live under /admin, outside the public API surface; access
// control is handled at the network edge.
type AdminHandler struct {
	caches  *cache.Registry
	limiter *ratelimit.Limiter
	maxBody int64
	logger  *zap.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(caches *cache.Registry, limiter *ratelimit.Limiter, maxBody int64, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		caches:  caches,
		limiter: limiter,
		maxBody: maxBody,
		logger:  logger,
	}
}

// InvalidateCacheRequest targets either one entity or a key pattern
type InvalidateCacheRequest struct {
	EntityType string `json:"entityType,omitempty"`
	EntityID   string `json:"entityId,omitempty"`
	Pattern    string `json:"pattern,omitempty"`
}

// UnblockClientRequest names the limiter key to unblock
type UnblockClientRequest struct {
	Key string `json:"key" validate:"required"`
}

type blockView struct {
	Key         string    `json:"key"`
	Preset      string    `json:"preset"`
	Severity    string    `json:"severity"`
	ThreatLevel string    `json:"threatLevel"`
	ReferenceID string    `json:"referenceId"`
	CreatedAt   time.Time `json:"createdAt"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// GetCacheStats handles GET /admin/cache/stats
func (h *AdminHandler) GetCacheStats(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, h.caches.GlobalStats())
}

// InvalidateCache handles POST /admin/cache/invalidate. CMS publish hooks
// call this when content changes.
func (h *AdminHandler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	var req InvalidateCacheRequest
	if err := common.ParseJSONBody(r, &req, h.maxBody); err != nil {
		common.RespondError(w, http.StatusBadRequest,
			common.StandardErrorCodes.BadRequest, "Invalid request body: "+err.Error())
		return
	}

	var invalidated int
	switch {
	case req.Pattern != "":
		invalidated = h.caches.InvalidatePattern(r.Context(), req.Pattern)
	case req.EntityType != "":
		invalidated = h.caches.Invalidate(r.Context(), req.EntityType, req.EntityID)
	default:
		common.RespondError(w, http.StatusBadRequest,
			common.StandardErrorCodes.ValidationError, "either entityType or pattern is required")
		return
	}

	h.logger.Info("Cache invalidated by operator",
		zap.String("entity_type", req.EntityType),
		zap.String("entity_id", req.EntityID),
		zap.String("pattern", req.Pattern),
		zap.Int("invalidated", invalidated))
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"invalidated": invalidated,
	})
}

// CleanupCache handles POST /admin/cache/cleanup. Expired entries are
// normally removed lazily on read and by LRU pressure; this forces a full
// sweep.
func (h *AdminHandler) CleanupCache(w http.ResponseWriter, r *http.Request) {
	removed := h.caches.CleanupAll()

	h.logger.Info("Cache cleanup completed", zap.Int("removed", removed))
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"removed": removed,
	})
}

// GetRateLimitStats handles GET /admin/ratelimit/stats
func (h *AdminHandler) GetRateLimitStats(w http.ResponseWriter, r *http.Request) {
	blocks := h.limiter.Blocks()
	views := make([]blockView, 0, len(blocks))
	for _, b := range blocks {
		views = append(views, blockView{
			Key:         b.Key,
			Preset:      b.Preset,
			Severity:    string(b.Severity),
			ThreatLevel: string(b.ThreatLevel),
			ReferenceID: b.ReferenceID,
			CreatedAt:   b.CreatedAt,
			ExpiresAt:   b.ExpiresAt,
		})
	}

	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"stats":  h.limiter.GetStats(),
		"blocks": views,
	})
}

// UnblockClient handles POST /admin/ratelimit/unblock. Support uses this
// when a legitimate customer got caught by the behavioral scoring.
func (h *AdminHandler) UnblockClient(w http.ResponseWriter, r *http.Request) {
	var req UnblockClientRequest
	if err := common.ParseJSONBody(r, &req, h.maxBody); err != nil {
		common.RespondError(w, http.StatusBadRequest,
			common.StandardErrorCodes.BadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest,
			common.StandardErrorCodes.ValidationError, err.Error())
		return
	}

	if !h.limiter.Unblock(r.Context(), req.Key) {
		common.RespondError(w, http.StatusNotFound,
			common.StandardErrorCodes.NotFound, "No active block for key")
		return
	}

	h.logger.Info("Client unblocked by operator", zap.String("key", req.Key))
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"unblocked": true,
	})
}
