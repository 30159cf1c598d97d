package services

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"printora-backend/application/ports"
	"printora-backend/domain/content"
	"printora-backend/pkg/cache"
	pkgerrors "printora-backend/pkg/errors"
)

// CatalogService serves the template catalog through the cache. Reads go
// through GetOrSet so concurrent misses for the same template hit the
// backing store once.
type CatalogService struct {
	store  ports.TemplateStore
	caches *cache.Registry
	logger *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(store ports.TemplateStore, caches *cache.Registry, logger *zap.Logger) *CatalogService {
	return &CatalogService{
		store:  store,
		caches: caches,
		logger: logger,
	}
}

// GetTemplate returns one template by ID
func (s *CatalogService) GetTemplate(ctx context.Context, id string) (*content.Template, error) {
	if id == "" {
		return nil, pkgerrors.NewValidationError("template id cannot be empty")
	}

	key := s.caches.Keys().BuildID(cache.EntityTemplate, id)
	var template content.Template
	err := s.caches.For(cache.EntityTemplate).GetOrSet(ctx, key, 0, &template, func(ctx context.Context) (interface{}, error) {
		return s.store.GetTemplate(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return &template, nil
}

// GetTemplateBySlug returns one template by its storefront slug
func (s *CatalogService) GetTemplateBySlug(ctx context.Context, slug, locale string) (*content.Template, error) {
	if slug == "" {
		return nil, pkgerrors.NewValidationError("template slug cannot be empty")
	}

	key := s.caches.Keys().Build(cache.EntityTemplate, map[string]string{
		"slug":   slug,
		"locale": locale,
	})
	var template content.Template
	err := s.caches.For(cache.EntityTemplate).GetOrSet(ctx, key, 0, &template, func(ctx context.Context) (interface{}, error) {
		return s.store.GetTemplateBySlug(ctx, slug, locale)
	})
	if err != nil {
		return nil, err
	}
	return &template, nil
}

// ListTemplates returns one page of the catalog
func (s *CatalogService) ListTemplates(ctx context.Context, query ports.TemplateQuery) (*content.TemplatePage, error) {
	query = normalizeTemplateQuery(query)

	key := s.caches.Keys().Build(cache.EntityTemplate, listParams("category", query.Category, query.Locale, query.Page, query.PageSize))
	var page content.TemplatePage
	err := s.caches.For(cache.EntityTemplate).GetOrSet(ctx, key, 0, &page, func(ctx context.Context) (interface{}, error) {
		return s.store.ListTemplates(ctx, query)
	})
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// InvalidateTemplate drops the cached detail, slug lookups and listing pages
// for a template. It returns the number of removed entries.
func (s *CatalogService) InvalidateTemplate(ctx context.Context, id string) int {
	removed := s.caches.Invalidate(ctx, cache.EntityTemplate, id)

	instance := s.caches.For(cache.EntityTemplate)
	removed += instance.DeleteByPattern("*slug=*")
	removed += instance.DeleteByPattern("*size=*")

	s.logger.Info("Template invalidated",
		zap.String("template_id", id),
		zap.Int("removed", removed))
	return removed
}

func normalizeTemplateQuery(query ports.TemplateQuery) ports.TemplateQuery {
	if query.Page < 1 {
		query.Page = 1
	}
	if query.PageSize < 1 {
		query.PageSize = 20
	}
	if query.PageSize > 100 {
		query.PageSize = 100
	}
	return query
}

// listParams builds the cache key parameters for a listing page. The page
// and size parameters are always present, which is what listing-wide
// invalidation patterns match on.
func listParams(filterName, filterValue, locale string, page, pageSize int) map[string]string {
	params := map[string]string{
		"page": strconv.Itoa(page),
		"size": strconv.Itoa(pageSize),
	}
	if filterValue != "" {
		params[filterName] = filterValue
	}
	if locale != "" {
		params["locale"] = locale
	}
	return params
}
