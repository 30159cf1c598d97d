package content

import (
	"time"
)

// Template categories offered in the catalog
const (
	CategoryBusinessCards = "business-cards"
	CategoryFlyers        = "flyers"
	CategoryPosters       = "posters"
	CategoryStickers      = "stickers"
	CategoryInvitations   = "invitations"
	CategoryStationery    = "stationery"
)

// Template is one printable product template in the catalog
type Template struct {
	ID          string    `json:"id" validate:"required"`
	Slug        string    `json:"slug" validate:"required,max=200"`
	Name        string    `json:"name" validate:"required,min=1,max=200"`
	Description string    `json:"description,omitempty" validate:"omitempty,max=2000"`
	Category    string    `json:"category" validate:"required,oneof=business-cards flyers posters stickers invitations stationery"`
	PriceCents  int64     `json:"priceCents" validate:"gte=0"`
	Currency    string    `json:"currency" validate:"required,len=3"`
	PreviewURL  string    `json:"previewUrl,omitempty" validate:"omitempty,url"`
	Tags        []string  `json:"tags,omitempty" validate:"omitempty,max=20,dive,max=50"`
	Locale      string    `json:"locale,omitempty"`
	Published   bool      `json:"published"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Version     int       `json:"version"`
}

// TemplateSummary is the listing view of a template
type TemplateSummary struct {
	ID         string `json:"id"`
	Slug       string `json:"slug"`
	Name       string `json:"name"`
	Category   string `json:"category"`
	PriceCents int64  `json:"priceCents"`
	Currency   string `json:"currency"`
	PreviewURL string `json:"previewUrl,omitempty"`
}

// Summary projects the template into its listing view
func (t Template) Summary() TemplateSummary {
	return TemplateSummary{
		ID:         t.ID,
		Slug:       t.Slug,
		Name:       t.Name,
		Category:   t.Category,
		PriceCents: t.PriceCents,
		Currency:   t.Currency,
		PreviewURL: t.PreviewURL,
	}
}

// TemplatePage is one page of catalog results
type TemplatePage struct {
	Templates  []TemplateSummary `json:"templates"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
	TotalCount int               `json:"totalCount"`
	TotalPages int               `json:"totalPages"`
}

// KnownCategories returns the catalog categories in display order
func KnownCategories() []string {
	return []string{
		CategoryBusinessCards,
		CategoryFlyers,
		CategoryPosters,
		CategoryStickers,
		CategoryInvitations,
		CategoryStationery,
	}
}
