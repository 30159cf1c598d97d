package cache

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyBuilder_Build(t *testing.T) {
	builder := NewKeyBuilder("printora")

	t.Run("Should build namespace and entity type without params", func(t *testing.T) {
		key := builder.Build(EntityTemplate, nil)
		assert.Equal(t, "printora:template", key)
	})

	t.Run("Should sort parameters for determinism", func(t *testing.T) {
		a := builder.Build(EntityBlogList, map[string]string{"page": "2", "category": "posters"})
		b := builder.Build(EntityBlogList, map[string]string{"category": "posters", "page": "2"})

		assert.Equal(t, a, b)
		assert.Equal(t, "printora:blog_list:category=posters&page=2", a)
	})

	t.Run("Should percent-encode keys and values", func(t *testing.T) {
		key := builder.Build(EntityTemplate, map[string]string{"q": "summer sale & more"})
		assert.Equal(t, "printora:template:q=summer+sale+%26+more", key)
	})

	t.Run("Should build ID keys", func(t *testing.T) {
		key := builder.BuildID(EntityOrder, "ord-123")
		assert.Equal(t, "printora:order:id=ord-123", key)
	})

	t.Run("Should truncate overlong keys with a disambiguating hash", func(t *testing.T) {
		long := strings.Repeat("x", 600)
		a := builder.Build(EntityPage, map[string]string{"path": long + "a"})
		b := builder.Build(EntityPage, map[string]string{"path": long + "b"})

		assert.LessOrEqual(t, len(a), DefaultMaxKeyLength)
		assert.LessOrEqual(t, len(b), DefaultMaxKeyLength)
		assert.NotEqual(t, a, b, "distinct long keys must not alias")
		assert.Contains(t, a, "#")
	})
}

func TestHasParam(t *testing.T) {
	t.Run("Should match an exact parameter pair", func(t *testing.T) {
		key := "printora:order:id=7&locale=en"
		assert.True(t, hasParam(key, "id", "7"))
		assert.True(t, hasParam(key, "locale", "en"))
	})

	t.Run("Should not match a substring of another parameter", func(t *testing.T) {
		key := "printora:order:guid=7"
		assert.False(t, hasParam(key, "id", "7"))
	})

	t.Run("Should not match a value prefix", func(t *testing.T) {
		key := "printora:order:id=70"
		assert.False(t, hasParam(key, "id", "7"))
	})

	t.Run("Should handle keys without a parameter section", func(t *testing.T) {
		assert.False(t, hasParam("printora:template", "id", "7"))
	})
}

func TestMatchGlob(t *testing.T) {
	cases := []struct {
		name    string
		pattern string
		key     string
		want    bool
	}{
		{"exact match without wildcard", "printora:template", "printora:template", true},
		{"mismatch without wildcard", "printora:template", "printora:order", false},
		{"prefix wildcard", "printora:template:*", "printora:template:id=1", true},
		{"prefix wildcard rejects other prefix", "printora:template:*", "printora:order:id=1", false},
		{"middle wildcard", "printora:*:id=1", "printora:order:id=1", true},
		{"suffix anchored", "*id=1", "printora:order:id=1", true},
		{"suffix anchored rejects trailing data", "*id=1", "printora:order:id=12", false},
		{"multiple wildcards not matching", "printora:*:tag=*", "printora:blog_list:category=news&page=1", false},
		{"multiple wildcards matching", "printora:*category=*", "printora:blog_list:category=news&page=1", true},
		{"lone star matches anything", "*", "anything at all", true},
	}

	for _, tc := range cases {
		t.Run("Should handle "+tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, matchGlob(tc.pattern, tc.key))
		})
	}
}
