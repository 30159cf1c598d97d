package ports

import (
	"context"

	"printora-backend/domain/content"
	"printora-backend/domain/events"
	"printora-backend/pkg/cache"
	"printora-backend/pkg/ratelimit"
)

// TemplateQuery filters a catalog listing
type TemplateQuery struct {
	Category string
	Locale   string
	Page     int
	PageSize int
}

// BlogQuery filters a blog listing
type BlogQuery struct {
	Tag      string
	Locale   string
	Page     int
	PageSize int
}

// TemplateStore provides catalog templates from the source of truth.
// This is a port in hexagonal architecture - the services don't know about
// the implementation.
type TemplateStore interface {
	// GetTemplate retrieves a template by its ID
	GetTemplate(ctx context.Context, id string) (*content.Template, error)

	// GetTemplateBySlug retrieves a template by slug and locale
	GetTemplateBySlug(ctx context.Context, slug, locale string) (*content.Template, error)

	// ListTemplates retrieves one page of the catalog
	ListTemplates(ctx context.Context, query TemplateQuery) (*content.TemplatePage, error)
}

// BlogStore provides blog articles from the source of truth
type BlogStore interface {
	// GetArticle retrieves an article by its ID
	GetArticle(ctx context.Context, id string) (*content.BlogArticle, error)

	// GetArticleBySlug retrieves an article by slug and locale
	GetArticleBySlug(ctx context.Context, slug, locale string) (*content.BlogArticle, error)

	// ListArticles retrieves one page of the blog listing
	ListArticles(ctx context.Context, query BlogQuery) (*content.BlogListPage, error)
}

// OrderStore persists customer orders
type OrderStore interface {
	// SaveOrder persists an order (create or update)
	SaveOrder(ctx context.Context, order *content.Order) error

	// GetOrder retrieves an order by its ID
	GetOrder(ctx context.Context, id string) (*content.Order, error)

	// GetOrderByNumber retrieves an order by its human-facing number
	GetOrderByNumber(ctx context.Context, number string) (*content.Order, error)
}

// ContactStore persists contact form submissions
type ContactStore interface {
	// SaveContactMessage persists one submission
	SaveContactMessage(ctx context.Context, message *content.ContactMessage) error
}

// ImageStore provides image metadata
type ImageStore interface {
	// GetImageMeta retrieves metadata for one stored image path
	GetImageMeta(ctx context.Context, path string) (*content.ImageMeta, error)
}

// ContentStore bundles every content port behind one implementation
type ContentStore interface {
	TemplateStore
	BlogStore
	OrderStore
	ContactStore
	ImageStore
}

// EventPublisher forwards domain events to an external broker
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, batch []events.DomainEvent) error
}

// StatsPublisher ships runtime statistics to a metrics backend
type StatsPublisher interface {
	// PublishCacheStats ships a snapshot of the cache registry
	PublishCacheStats(ctx context.Context, stats cache.GlobalStats) error

	// PublishLimiterStats ships a snapshot of the rate limiter
	PublishLimiterStats(ctx context.Context, stats ratelimit.Stats) error
}
