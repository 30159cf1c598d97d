package dynamodb

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"printora-backend/domain/content"
)

func TestKeyLayout(t *testing.T) {
	t.Run("Should build entity keys", func(t *testing.T) {
		assert.Equal(t, "TEMPLATE#tpl-1", templatePK("tpl-1"))
		assert.Equal(t, "TEMPLATESLUG#classic-card", templateSlugKey("classic-card"))
		assert.Equal(t, "ARTICLE#art-1", articlePK("art-1"))
		assert.Equal(t, "ARTICLESLUG#paper-guide", articleSlugKey("paper-guide"))
		assert.Equal(t, "ORDER#ord-1", orderPK("ord-1"))
		assert.Equal(t, "ORDERNUM#PO-20260826-AB12CD34", orderNumberKey("PO-20260826-AB12CD34"))
		assert.Equal(t, "IMAGE#previews/classic-card.webp", imagePK("previews/classic-card.webp"))
		assert.Equal(t, "LOCALE#de", localeSK("de"))
		assert.Equal(t, "LOCALE#", localeSK(""))
	})

	t.Run("Should bucket contact messages by UTC day", func(t *testing.T) {
		receivedAt := time.Date(2026, 8, 26, 23, 30, 0, 0, time.FixedZone("CEST", 2*3600))

		assert.Equal(t, "CONTACT#2026-08-26", contactPK(receivedAt))
		assert.Equal(t,
			"MESSAGE#2026-08-26T21:30:00Z#msg-1",
			contactSK(receivedAt, "msg-1"),
		)
	})

	t.Run("Should sort name keys case-insensitively", func(t *testing.T) {
		keys := []string{
			nameSortKey("Zebra Poster", "tpl-3"),
			nameSortKey("alpha card", "tpl-1"),
			nameSortKey("Beta Flyer", "tpl-2"),
		}
		sort.Strings(keys)

		assert.Equal(t, nameSortKey("alpha card", "tpl-1"), keys[0])
		assert.Equal(t, nameSortKey("Beta Flyer", "tpl-2"), keys[1])
		assert.Equal(t, nameSortKey("Zebra Poster", "tpl-3"), keys[2])
	})

	t.Run("Should sort published keys chronologically", func(t *testing.T) {
		older := publishedSortKey(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), "art-1")
		newer := publishedSortKey(time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC), "art-2")

		assert.Less(t, older, newer)
	})
}

func TestOrderItemConversion(t *testing.T) {
	t.Run("Should round-trip an order through its item shape", func(t *testing.T) {
		order, err := content.NewOrder("kunde@example.com", "EUR", "de", []content.OrderItem{
			{TemplateID: "tpl-1", Quantity: 100, UnitPriceCents: 25, Options: map[string]string{"paper": "matte"}},
			{TemplateID: "tpl-2", Quantity: 2, UnitPriceCents: 1500},
		})
		require.NoError(t, err)
		require.NoError(t, order.TransitionTo(content.OrderStatusPaid))

		item := newOrderItem(order)
		assert.Equal(t, orderPK(order.ID), item.PK)
		assert.Equal(t, metadataSK, item.SK)
		assert.Equal(t, orderNumberKey(order.Number), item.GSI1PK)
		assert.Equal(t, "paid", item.Status)

		restored := item.toDomain()
		assert.Equal(t, order.ID, restored.ID)
		assert.Equal(t, order.Number, restored.Number)
		assert.Equal(t, order.Email, restored.Email)
		assert.Equal(t, content.OrderStatusPaid, restored.Status)
		assert.Equal(t, order.TotalCents, restored.TotalCents)
		assert.Equal(t, 2, restored.Version)
		require.Len(t, restored.Items, 2)
		assert.Equal(t, "matte", restored.Items[0].Options["paper"])
	})
}

func TestCatalogItemConversion(t *testing.T) {
	t.Run("Should map template items to domain", func(t *testing.T) {
		now := time.Now().Truncate(time.Second)
		item := templateItem{
			PK:         templatePK("tpl-1"),
			SK:         metadataSK,
			TemplateID: "tpl-1",
			Slug:       "classic-card",
			Name:       "Classic Card",
			Category:   content.CategoryBusinessCards,
			PriceCents: 1295,
			Currency:   "EUR",
			Tags:       []string{"minimal"},
			Published:  true,
			CreatedAt:  now,
			UpdatedAt:  now,
			Version:    3,
			GSI1PK:     templateSlugKey("classic-card"),
			GSI1SK:     localeSK(""),
			GSI2PK:     templateListPartition,
			GSI2SK:     nameSortKey("Classic Card", "tpl-1"),
		}

		template := item.toDomain()
		assert.Equal(t, "tpl-1", template.ID)
		assert.Equal(t, content.CategoryBusinessCards, template.Category)
		assert.Equal(t, int64(1295), template.PriceCents)
		assert.Equal(t, 3, template.Version)
		assert.True(t, template.Published)
	})

	t.Run("Should map article items to domain", func(t *testing.T) {
		publishedAt := time.Date(2026, 5, 12, 9, 0, 0, 0, time.UTC)
		item := articleItem{
			PK:          articlePK("art-1"),
			SK:          metadataSK,
			ArticleID:   "art-1",
			Slug:        "paper-guide",
			Title:       "Paper Guide",
			Body:        "...",
			Tags:        []string{"guides"},
			Published:   true,
			PublishedAt: &publishedAt,
			GSI1PK:      articleSlugKey("paper-guide"),
			GSI1SK:      localeSK("de"),
			GSI2PK:      articleListPartition,
			GSI2SK:      publishedSortKey(publishedAt, "art-1"),
		}

		article := item.toDomain()
		assert.Equal(t, "art-1", article.ID)
		assert.Equal(t, "Paper Guide", article.Title)
		require.NotNil(t, article.PublishedAt)
		assert.True(t, article.PublishedAt.Equal(publishedAt))
	})
}

func TestPageBounds(t *testing.T) {
	t.Run("Should normalize page arguments", func(t *testing.T) {
		page, pageSize := normalizePage(0, 0)
		assert.Equal(t, 1, page)
		assert.Equal(t, 20, pageSize)

		_, capped := normalizePage(1, 500)
		assert.Equal(t, 100, capped)
	})

	t.Run("Should clamp bounds to the matched set", func(t *testing.T) {
		start, end := pageBounds(5, 2, 2)
		assert.Equal(t, 2, start)
		assert.Equal(t, 4, end)

		start, end = pageBounds(5, 4, 2)
		assert.Equal(t, 5, start)
		assert.Equal(t, 5, end)

		assert.Equal(t, 3, totalPages(5, 2))
		assert.Equal(t, 0, totalPages(0, 2))
	})
}
