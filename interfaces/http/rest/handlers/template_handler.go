package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"printora-backend/application/ports"
	"printora-backend/application/services"
	"printora-backend/domain/content"
	"printora-backend/pkg/common"
)

// TemplateHandler serves the template catalog
type TemplateHandler struct {
	catalog  *services.CatalogService
	sessions *services.SessionService
	logger   *zap.Logger
}

// NewTemplateHandler creates a new template handler
func NewTemplateHandler(
	catalog *services.CatalogService,
	sessions *services.SessionService,
	logger *zap.Logger,
) *TemplateHandler {
	return &TemplateHandler{
		catalog:  catalog,
		sessions: sessions,
		logger:   logger,
	}
}

// ListTemplates handles GET /templates
func (h *TemplateHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	pagination := common.ExtractPaginationParams(r)
	locale, _ := common.GetLocale(r.Context())

	query := ports.TemplateQuery{
		Category: r.URL.Query().Get("category"),
		Locale:   locale,
		Page:     pagination.Page,
		PageSize: pagination.PageSize,
	}

	page, err := h.catalog.ListTemplates(r.Context(), query)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, page)
}

// ListCategories handles GET /templates/categories
func (h *TemplateHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"categories": content.KnownCategories(),
	})
}

// GetTemplate handles GET /templates/{templateID}
func (h *TemplateHandler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["templateID"]

	template, err := h.catalog.GetTemplate(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	h.rememberView(r, template.ID)
	common.RespondJSON(w, http.StatusOK, template)
}

// GetTemplateBySlug handles GET /templates/slug/{slug}
func (h *TemplateHandler) GetTemplateBySlug(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]
	locale, _ := common.GetLocale(r.Context())

	template, err := h.catalog.GetTemplateBySlug(r.Context(), slug, locale)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	h.rememberView(r, template.ID)
	common.RespondJSON(w, http.StatusOK, template)
}

// rememberView records the viewed template on the visitor session, best
// effort.
func (h *TemplateHandler) rememberView(r *http.Request, templateID string) {
	sessionID, ok := common.GetSessionID(r.Context())
	if !ok {
		return
	}
	h.sessions.RememberTemplate(r.Context(), sessionID, templateID)
}
