package services

import (
	"context"

	"go.uber.org/zap"

	"printora-backend/application/ports"
	"printora-backend/domain/content"
	"printora-backend/pkg/cache"
	pkgerrors "printora-backend/pkg/errors"
)

// ImageService serves image metadata through the cache. Metadata is small
// and nearly immutable, so it gets a long TTL and a large entry count.
type ImageService struct {
	store  ports.ImageStore
	caches *cache.Registry
	logger *zap.Logger
}

// NewImageService creates a new image service
func NewImageService(store ports.ImageStore, caches *cache.Registry, logger *zap.Logger) *ImageService {
	return &ImageService{
		store:  store,
		caches: caches,
		logger: logger,
	}
}

// GetImageMeta returns the metadata for one stored image path
func (s *ImageService) GetImageMeta(ctx context.Context, path string) (*content.ImageMeta, error) {
	if path == "" {
		return nil, pkgerrors.NewValidationError("image path cannot be empty")
	}

	key := s.caches.Keys().Build(cache.EntityImageMeta, map[string]string{"path": path})
	var meta content.ImageMeta
	err := s.caches.For(cache.EntityImageMeta).GetOrSet(ctx, key, 0, &meta, func(ctx context.Context) (interface{}, error) {
		return s.store.GetImageMeta(ctx, path)
	})
	if err != nil {
		return nil, err
	}
	return &meta, nil
}

// InvalidateImage drops the cached metadata for one path
func (s *ImageService) InvalidateImage(ctx context.Context, path string) bool {
	key := s.caches.Keys().Build(cache.EntityImageMeta, map[string]string{"path": path})
	return s.caches.For(cache.EntityImageMeta).Delete(key)
}
