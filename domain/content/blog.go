package content

import (
	"time"
)

// BlogArticle is one published article on the storefront blog
type BlogArticle struct {
	ID          string     `json:"id" validate:"required"`
	Slug        string     `json:"slug" validate:"required,max=200"`
	Title       string     `json:"title" validate:"required,min=1,max=200"`
	Excerpt     string     `json:"excerpt,omitempty" validate:"omitempty,max=500"`
	Body        string     `json:"body" validate:"required"`
	Author      string     `json:"author,omitempty" validate:"omitempty,max=100"`
	Tags        []string   `json:"tags,omitempty" validate:"omitempty,max=20,dive,max=50"`
	Locale      string     `json:"locale,omitempty"`
	Published   bool       `json:"published"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	Version     int        `json:"version"`
}

// BlogArticleSummary is the listing view of an article
type BlogArticleSummary struct {
	ID          string     `json:"id"`
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Excerpt     string     `json:"excerpt,omitempty"`
	Author      string     `json:"author,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
}

// Summary projects the article into its listing view
func (a BlogArticle) Summary() BlogArticleSummary {
	return BlogArticleSummary{
		ID:          a.ID,
		Slug:        a.Slug,
		Title:       a.Title,
		Excerpt:     a.Excerpt,
		Author:      a.Author,
		Tags:        a.Tags,
		PublishedAt: a.PublishedAt,
	}
}

// BlogListPage is one page of blog listing results
type BlogListPage struct {
	Articles   []BlogArticleSummary `json:"articles"`
	Page       int                  `json:"page"`
	PageSize   int                  `json:"pageSize"`
	TotalCount int                  `json:"totalCount"`
	TotalPages int                  `json:"totalPages"`
}
