package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"printora-backend/application/ports"
	"printora-backend/application/services"
	"printora-backend/pkg/common"
)

// BlogHandler serves blog articles and listings
type BlogHandler struct {
	blog   *services.BlogService
	logger *zap.Logger
}

// NewBlogHandler creates a new blog handler
func NewBlogHandler(blog *services.BlogService, logger *zap.Logger) *BlogHandler {
	return &BlogHandler{
		blog:   blog,
		logger: logger,
	}
}

// ListArticles handles GET /blog
func (h *BlogHandler) ListArticles(w http.ResponseWriter, r *http.Request) {
	pagination := common.ExtractPaginationParams(r)
	locale, _ := common.GetLocale(r.Context())

	query := ports.BlogQuery{
		Tag:      r.URL.Query().Get("tag"),
		Locale:   locale,
		Page:     pagination.Page,
		PageSize: pagination.PageSize,
	}

	page, err := h.blog.ListArticles(r.Context(), query)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, page)
}

// GetArticle handles GET /blog/{articleID}
func (h *BlogHandler) GetArticle(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["articleID"]

	article, err := h.blog.GetArticle(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, article)
}

// GetArticleBySlug handles GET /blog/slug/{slug}
func (h *BlogHandler) GetArticleBySlug(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]
	locale, _ := common.GetLocale(r.Context())

	article, err := h.blog.GetArticleBySlug(r.Context(), slug, locale)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, article)
}
