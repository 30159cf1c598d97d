// Package memory provides an in-process implementation of the content
// ports. It backs development environments and tests where no DynamoDB
// table is available.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"printora-backend/application/ports"
	"printora-backend/domain/content"
	pkgerrors "printora-backend/pkg/errors"
)

// ContentStore implements ports.ContentStore backed by in-process maps.
//
// Detail lookups return whatever is stored, published or not; listings
// include published entries only. Everything returned is a copy so callers
// cannot mutate store state.
type ContentStore struct {
	mu           sync.RWMutex
	templates    map[string]*content.Template
	articles     map[string]*content.BlogArticle
	orders       map[string]*content.Order
	orderNumbers map[string]string
	messages     []*content.ContactMessage
	images       map[string]*content.ImageMeta
	logger       *zap.Logger
}

// NewContentStore creates an empty in-memory content store
func NewContentStore(logger *zap.Logger) *ContentStore {
	return &ContentStore{
		templates:    make(map[string]*content.Template),
		articles:     make(map[string]*content.BlogArticle),
		orders:       make(map[string]*content.Order),
		orderNumbers: make(map[string]string),
		images:       make(map[string]*content.ImageMeta),
		logger:       logger,
	}
}

// Ensure the full port is covered
var _ ports.ContentStore = (*ContentStore)(nil)

// PutTemplate stores or replaces a catalog template
func (s *ContentStore) PutTemplate(template *content.Template) {
	if template == nil || template.ID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[template.ID] = cloneTemplate(template)
}

// PutArticle stores or replaces a blog article
func (s *ContentStore) PutArticle(article *content.BlogArticle) {
	if article == nil || article.ID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.articles[article.ID] = cloneArticle(article)
}

// PutImageMeta stores or replaces image metadata keyed by path
func (s *ContentStore) PutImageMeta(meta *content.ImageMeta) {
	if meta == nil || meta.Path == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images[meta.Path] = cloneImageMeta(meta)
}

// GetTemplate retrieves a template by its ID
func (s *ContentStore) GetTemplate(ctx context.Context, id string) (*content.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	template, ok := s.templates[id]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("template")
	}
	return cloneTemplate(template), nil
}

// GetTemplateBySlug retrieves a template by slug and locale. A template
// stored with an empty locale matches any requested locale; an exact
// locale match wins over the neutral one.
func (s *ContentStore) GetTemplateBySlug(ctx context.Context, slug, locale string) (*content.Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var neutral *content.Template
	for _, template := range s.templates {
		if template.Slug != slug {
			continue
		}
		if template.Locale == locale {
			return cloneTemplate(template), nil
		}
		if template.Locale == "" {
			neutral = template
		}
	}
	if neutral != nil {
		return cloneTemplate(neutral), nil
	}
	return nil, pkgerrors.NewNotFoundError("template")
}

// ListTemplates retrieves one page of published catalog templates
func (s *ContentStore) ListTemplates(ctx context.Context, query ports.TemplateQuery) (*content.TemplatePage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*content.Template, 0, len(s.templates))
	for _, template := range s.templates {
		if !template.Published {
			continue
		}
		if query.Category != "" && template.Category != query.Category {
			continue
		}
		if !localeMatches(template.Locale, query.Locale) {
			continue
		}
		matched = append(matched, template)
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Name != matched[j].Name {
			return matched[i].Name < matched[j].Name
		}
		return matched[i].ID < matched[j].ID
	})

	page, pageSize := normalizePage(query.Page, query.PageSize)
	start, end := pageBounds(len(matched), page, pageSize)

	summaries := make([]content.TemplateSummary, 0, end-start)
	for _, template := range matched[start:end] {
		summaries = append(summaries, template.Summary())
	}

	return &content.TemplatePage{
		Templates:  summaries,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: len(matched),
		TotalPages: totalPages(len(matched), pageSize),
	}, nil
}

// GetArticle retrieves a blog article by its ID
func (s *ContentStore) GetArticle(ctx context.Context, id string) (*content.BlogArticle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	article, ok := s.articles[id]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("article")
	}
	return cloneArticle(article), nil
}

// GetArticleBySlug retrieves a blog article by slug and locale
func (s *ContentStore) GetArticleBySlug(ctx context.Context, slug, locale string) (*content.BlogArticle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var neutral *content.BlogArticle
	for _, article := range s.articles {
		if article.Slug != slug {
			continue
		}
		if article.Locale == locale {
			return cloneArticle(article), nil
		}
		if article.Locale == "" {
			neutral = article
		}
	}
	if neutral != nil {
		return cloneArticle(neutral), nil
	}
	return nil, pkgerrors.NewNotFoundError("article")
}

// ListArticles retrieves one page of published articles, newest first
func (s *ContentStore) ListArticles(ctx context.Context, query ports.BlogQuery) (*content.BlogListPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*content.BlogArticle, 0, len(s.articles))
	for _, article := range s.articles {
		if !article.Published || article.PublishedAt == nil {
			continue
		}
		if query.Tag != "" && !hasTag(article.Tags, query.Tag) {
			continue
		}
		if !localeMatches(article.Locale, query.Locale) {
			continue
		}
		matched = append(matched, article)
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].PublishedAt.Equal(*matched[j].PublishedAt) {
			return matched[i].PublishedAt.After(*matched[j].PublishedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	page, pageSize := normalizePage(query.Page, query.PageSize)
	start, end := pageBounds(len(matched), page, pageSize)

	summaries := make([]content.BlogArticleSummary, 0, end-start)
	for _, article := range matched[start:end] {
		summaries = append(summaries, article.Summary())
	}

	return &content.BlogListPage{
		Articles:   summaries,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: len(matched),
		TotalPages: totalPages(len(matched), pageSize),
	}, nil
}

// SaveOrder persists an order, creating or replacing by ID
func (s *ContentStore) SaveOrder(ctx context.Context, order *content.Order) error {
	if order == nil || order.ID == "" {
		return pkgerrors.NewValidationError("order ID cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.orders[order.ID] = cloneOrder(order)
	if order.Number != "" {
		s.orderNumbers[order.Number] = order.ID
	}
	return nil
}

// GetOrder retrieves an order by its ID
func (s *ContentStore) GetOrder(ctx context.Context, id string) (*content.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[id]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("order")
	}
	return cloneOrder(order), nil
}

// GetOrderByNumber retrieves an order by its human-facing number
func (s *ContentStore) GetOrderByNumber(ctx context.Context, number string) (*content.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.orderNumbers[number]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("order")
	}
	order, ok := s.orders[id]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("order")
	}
	return cloneOrder(order), nil
}

// SaveContactMessage persists one contact form submission
func (s *ContentStore) SaveContactMessage(ctx context.Context, message *content.ContactMessage) error {
	if message == nil || message.ID == "" {
		return pkgerrors.NewValidationError("message ID cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *message
	s.messages = append(s.messages, &clone)
	return nil
}

// ContactMessages returns a snapshot of all stored submissions
func (s *ContentStore) ContactMessages() []*content.ContactMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*content.ContactMessage, 0, len(s.messages))
	for _, message := range s.messages {
		clone := *message
		out = append(out, &clone)
	}
	return out
}

// GetImageMeta retrieves metadata for one stored image path
func (s *ContentStore) GetImageMeta(ctx context.Context, path string) (*content.ImageMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	meta, ok := s.images[path]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("image")
	}
	return cloneImageMeta(meta), nil
}

func localeMatches(stored, requested string) bool {
	if requested == "" || stored == "" {
		return true
	}
	return stored == requested
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}

func pageBounds(total, page, pageSize int) (int, int) {
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return start, end
}

func totalPages(total, pageSize int) int {
	if total == 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

func cloneTemplate(t *content.Template) *content.Template {
	clone := *t
	clone.Tags = append([]string(nil), t.Tags...)
	return &clone
}

func cloneArticle(a *content.BlogArticle) *content.BlogArticle {
	clone := *a
	clone.Tags = append([]string(nil), a.Tags...)
	if a.PublishedAt != nil {
		publishedAt := *a.PublishedAt
		clone.PublishedAt = &publishedAt
	}
	return &clone
}

func cloneOrder(o *content.Order) *content.Order {
	clone := *o
	clone.Items = make([]content.OrderItem, len(o.Items))
	for i, item := range o.Items {
		clone.Items[i] = item
		if item.Options != nil {
			options := make(map[string]string, len(item.Options))
			for k, v := range item.Options {
				options[k] = v
			}
			clone.Items[i].Options = options
		}
	}
	return &clone
}

func cloneImageMeta(m *content.ImageMeta) *content.ImageMeta {
	clone := *m
	if m.Variants != nil {
		variants := make(map[string]string, len(m.Variants))
		for k, v := range m.Variants {
			variants[k] = v
		}
		clone.Variants = variants
	}
	return &clone
}
