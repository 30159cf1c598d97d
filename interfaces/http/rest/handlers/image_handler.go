package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"printora-backend/application/services"
	"printora-backend/pkg/common"
)

// ImageHandler serves image metadata lookups
type ImageHandler struct {
	images *services.ImageService
	logger *zap.Logger
}

// NewImageHandler creates a new image handler
func NewImageHandler(images *services.ImageService, logger *zap.Logger) *ImageHandler {
	return &ImageHandler{
		images: images,
		logger: logger,
	}
}

// GetImageMeta handles GET /images/meta?path=... The storage path goes in a
// query parameter because it contains slashes.
func (h *ImageHandler) GetImageMeta(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		common.RespondError(w, http.StatusBadRequest,
			common.StandardErrorCodes.ValidationError, "path query parameter is required")
		return
	}

	meta, err := h.images.GetImageMeta(r.Context(), path)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, meta)
}
