package content

import (
	"time"
)

// ImageMeta describes one stored storefront image. The binary itself lives
// in object storage; only this metadata is cached.
type ImageMeta struct {
	ID        string            `json:"id" validate:"required"`
	Path      string            `json:"path" validate:"required"`
	Format    string            `json:"format" validate:"required,oneof=png jpeg webp svg"`
	Width     int               `json:"width" validate:"gt=0"`
	Height    int               `json:"height" validate:"gt=0"`
	SizeBytes int64             `json:"sizeBytes" validate:"gte=0"`
	ETag      string            `json:"etag,omitempty"`
	Variants  map[string]string `json:"variants,omitempty"`
	UpdatedAt time.Time         `json:"updatedAt"`
}
