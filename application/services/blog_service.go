package services

import (
	"context"

	"go.uber.org/zap"

	"printora-backend/application/ports"
	"printora-backend/domain/content"
	"printora-backend/pkg/cache"
	pkgerrors "printora-backend/pkg/errors"
)

// BlogService serves blog articles and listings through the cache. Articles
// and listing pages live in separate cache instances so a busy blog listing
// cannot evict article bodies.
type BlogService struct {
	store  ports.BlogStore
	caches *cache.Registry
	logger *zap.Logger
}

// NewBlogService creates a new blog service
func NewBlogService(store ports.BlogStore, caches *cache.Registry, logger *zap.Logger) *BlogService {
	return &BlogService{
		store:  store,
		caches: caches,
		logger: logger,
	}
}

// GetArticle returns one article by ID
func (s *BlogService) GetArticle(ctx context.Context, id string) (*content.BlogArticle, error) {
	if id == "" {
		return nil, pkgerrors.NewValidationError("article id cannot be empty")
	}

	key := s.caches.Keys().BuildID(cache.EntityBlogArticle, id)
	var article content.BlogArticle
	err := s.caches.For(cache.EntityBlogArticle).GetOrSet(ctx, key, 0, &article, func(ctx context.Context) (interface{}, error) {
		return s.store.GetArticle(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return &article, nil
}

// GetArticleBySlug returns one article by its storefront slug
func (s *BlogService) GetArticleBySlug(ctx context.Context, slug, locale string) (*content.BlogArticle, error) {
	if slug == "" {
		return nil, pkgerrors.NewValidationError("article slug cannot be empty")
	}

	key := s.caches.Keys().Build(cache.EntityBlogArticle, map[string]string{
		"slug":   slug,
		"locale": locale,
	})
	var article content.BlogArticle
	err := s.caches.For(cache.EntityBlogArticle).GetOrSet(ctx, key, 0, &article, func(ctx context.Context) (interface{}, error) {
		return s.store.GetArticleBySlug(ctx, slug, locale)
	})
	if err != nil {
		return nil, err
	}
	return &article, nil
}

// ListArticles returns one page of the blog listing
func (s *BlogService) ListArticles(ctx context.Context, query ports.BlogQuery) (*content.BlogListPage, error) {
	query = normalizeBlogQuery(query)

	key := s.caches.Keys().Build(cache.EntityBlogList, listParams("tag", query.Tag, query.Locale, query.Page, query.PageSize))
	var page content.BlogListPage
	err := s.caches.For(cache.EntityBlogList).GetOrSet(ctx, key, 0, &page, func(ctx context.Context) (interface{}, error) {
		return s.store.ListArticles(ctx, query)
	})
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// InvalidateArticle drops the cached article, its slug lookups and every
// listing page. It returns the number of removed entries.
func (s *BlogService) InvalidateArticle(ctx context.Context, id string) int {
	removed := s.caches.Invalidate(ctx, cache.EntityBlogArticle, id)
	removed += s.caches.For(cache.EntityBlogArticle).DeleteByPattern("*slug=*")
	removed += s.caches.Invalidate(ctx, cache.EntityBlogList, "")

	s.logger.Info("Blog article invalidated",
		zap.String("article_id", id),
		zap.Int("removed", removed))
	return removed
}

func normalizeBlogQuery(query ports.BlogQuery) ports.BlogQuery {
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
