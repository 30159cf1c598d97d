package cache

import (
	"fmt"
	"hash/fnv"
	"net/url"
	"sort"
	"strings"
	"unicode/utf8"
)

// DefaultMaxKeyLength caps generated key length in bytes.
const DefaultMaxKeyLength = 512

// KeyBuilder produces deterministic cache keys of the form
// "<namespace>:<entityType>:<k1>=<v1>&<k2>=<v2>". Parameter keys are sorted
// and percent-encoded so the same logical lookup always maps to the same key
// regardless of map iteration order or special characters.
type KeyBuilder struct {
	namespace string
	maxLength int
}

// NewKeyBuilder creates a key builder for a namespace.
func NewKeyBuilder(namespace string) *KeyBuilder {
	return &KeyBuilder{namespace: namespace, maxLength: DefaultMaxKeyLength}
}

// Namespace returns the builder's namespace prefix.
func (b *KeyBuilder) Namespace() string { return b.namespace }

// Build creates the key for an entity type and its lookup parameters.
func (b *KeyBuilder) Build(entityType string, params map[string]string) string {
	var sb strings.Builder
	sb.WriteString(b.namespace)
	sb.WriteByte(':')
	sb.WriteString(entityType)

	if len(params) > 0 {
		names := make([]string, 0, len(params))
		for name := range params {
			names = append(names, name)
		}
		sort.Strings(names)

		sb.WriteByte(':')
		for i, name := range names {
			if i > 0 {
				sb.WriteByte('&')
			}
			sb.WriteString(url.QueryEscape(name))
			sb.WriteByte('=')
			sb.WriteString(url.QueryEscape(params[name]))
		}
	}

	return b.truncate(sb.String())
}

// BuildID creates the key for a single entity looked up by its ID.
func (b *KeyBuilder) BuildID(entityType, id string) string {
	return b.Build(entityType, map[string]string{"id": id})
}

// truncate enforces the length cap. A truncated key carries a short hash of
// the full key so two long keys that share a prefix cannot alias each other.
func (b *KeyBuilder) truncate(key string) string {
	if len(key) <= b.maxLength {
		return key
	}

	suffix := fmt.Sprintf("#%08x", hashKey(key))
	cut := b.maxLength - len(suffix)
	for cut > 0 && !utf8.RuneStart(key[cut]) {
		cut--
	}
	return key[:cut] + suffix
}

func hashKey(key string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(key))
	return h.Sum32()
}

// hasParam reports whether a generated key carries the given parameter pair.
// It parses the parameter section instead of substring matching, so "id=7"
// does not match "guid=7".
func hasParam(key, name, value string) bool {
	idx := strings.Index(key, ":")
	if idx < 0 {
		return false
	}
	rest := key[idx+1:]
	idx = strings.Index(rest, ":")
	if idx < 0 {
		return false
	}
	want := url.QueryEscape(name) + "=" + url.QueryEscape(value)
	for _, pair := range strings.Split(rest[idx+1:], "&") {
		if pair == want {
			return true
		}
	}
	return false
}

// matchGlob matches a key against a pattern where '*' matches any run of
// characters. Only '*' is special.
func matchGlob(pattern, key string) bool {
	parts := strings.Split(pattern, "*")
	if len(parts) == 1 {
		return pattern == key
	}

	if !strings.HasPrefix(key, parts[0]) {
		return false
	}
	key = key[len(parts[0]):]

	last := len(parts) - 1
	for i := 1; i < last; i++ {
		if parts[i] == "" {
			continue
		}
		idx := strings.Index(key, parts[i])
		if idx < 0 {
			return false
		}
		key = key[idx+len(parts[i]):]
	}

	return strings.HasSuffix(key, parts[last])
}
