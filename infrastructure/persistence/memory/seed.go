package memory

import (
	"fmt"
	"time"

	"printora-backend/domain/content"
)

// SeedDemoContent fills the store with a small catalog, a few blog
// articles and image records so a development server has something to
// serve out of the box.
func SeedDemoContent(store *ContentStore) {
	now := time.Now()

	templates := []*content.Template{
		{
			ID:         "tpl-classic-card",
			Slug:       "classic-business-card",
			Name:       "Classic Business Card",
			Category:   content.CategoryBusinessCards,
			PriceCents: 1295,
			Currency:   "EUR",
			PreviewURL: "https://cdn.printora.example/previews/classic-business-card.webp",
			Tags:       []string{"minimal", "classic"},
			Published:  true,
		},
		{
			ID:         "tpl-bold-card",
			Slug:       "bold-business-card",
			Name:       "Bold Business Card",
			Category:   content.CategoryBusinessCards,
			PriceCents: 1495,
			Currency:   "EUR",
			PreviewURL: "https://cdn.printora.example/previews/bold-business-card.webp",
			Tags:       []string{"bold", "color"},
			Published:  true,
		},
		{
			ID:         "tpl-summer-flyer",
			Slug:       "summer-sale-flyer",
			Name:       "Summer Sale Flyer",
			Category:   content.CategoryFlyers,
			PriceCents: 2495,
			Currency:   "EUR",
			PreviewURL: "https://cdn.printora.example/previews/summer-sale-flyer.webp",
			Tags:       []string{"sale", "seasonal"},
			Published:  true,
		},
		{
			ID:         "tpl-event-poster",
			Slug:       "concert-event-poster",
			Name:       "Concert Event Poster",
			Category:   content.CategoryPosters,
			PriceCents: 3995,
			Currency:   "EUR",
			PreviewURL: "https://cdn.printora.example/previews/concert-event-poster.webp",
			Tags:       []string{"music", "event"},
			Published:  true,
		},
		{
			ID:         "tpl-wedding-invite",
			Slug:       "floral-wedding-invitation",
			Name:       "Floral Wedding Invitation",
			Category:   content.CategoryInvitations,
			PriceCents: 1895,
			Currency:   "EUR",
			PreviewURL: "https://cdn.printora.example/previews/floral-wedding-invitation.webp",
			Tags:       []string{"wedding", "floral"},
			Published:  true,
		},
		{
			ID:         "tpl-draft-sticker",
			Slug:       "draft-sticker-sheet",
			Name:       "Draft Sticker Sheet",
			Category:   content.CategoryStickers,
			PriceCents: 895,
			Currency:   "EUR",
			Published:  false,
		},
	}
	for i, template := range templates {
		template.CreatedAt = now.Add(-time.Duration(len(templates)-i) * 24 * time.Hour)
		template.UpdatedAt = template.CreatedAt
		template.Version = 1
		store.PutTemplate(template)
	}

	articles := []*content.BlogArticle{
		{
			ID:      "art-paper-guide",
			Slug:    "choosing-the-right-paper",
			Title:   "Choosing the Right Paper for Your Print Job",
			Excerpt: "Weight, coating and texture decide how your design feels in hand.",
			Body:    "Paper choice shapes the first impression of any printed piece...",
			Author:  "Mara Winkler",
			Tags:    []string{"guides", "paper"},
		},
		{
			ID:      "art-color-profiles",
			Slug:    "cmyk-vs-rgb-explained",
			Title:   "CMYK vs RGB: What Happens to Your Colors in Print",
			Excerpt: "Why on-screen colors shift on paper and how to prepare your files.",
			Body:    "Screens emit light, presses lay down ink. The conversion between...",
			Author:  "Jonas Brecht",
			Tags:    []string{"guides", "color"},
		},
		{
			ID:      "art-sticker-trends",
			Slug:    "sticker-trends-2026",
			Title:   "Sticker Trends We Are Seeing in 2026",
			Excerpt: "Die-cut shapes and holographic finishes dominate this year.",
			Body:    "Stickers have quietly become the most ordered product on...",
			Author:  "Mara Winkler",
			Tags:    []string{"trends", "stickers"},
		},
	}
	for i, article := range articles {
		publishedAt := now.Add(-time.Duration(len(articles)-i) * 72 * time.Hour)
		article.Published = true
		article.PublishedAt = &publishedAt
		article.CreatedAt = publishedAt.Add(-24 * time.Hour)
		article.UpdatedAt = publishedAt
		article.Version = 1
		store.PutArticle(article)
	}

	for i, template := range templates {
		store.PutImageMeta(&content.ImageMeta{
			ID:        fmt.Sprintf("img-%03d", i+1),
			Path:      fmt.Sprintf("previews/%s.webp", template.Slug),
			Format:    "webp",
			Width:     1200,
			Height:    800,
			SizeBytes: 184320,
			ETag:      fmt.Sprintf("\"seed-%03d\"", i+1),
			Variants: map[string]string{
				"thumb": fmt.Sprintf("previews/%s-thumb.webp", template.Slug),
			},
			UpdatedAt: now,
		})
	}
}
