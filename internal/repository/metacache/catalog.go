// Package metacache is a read-through cache for AI metadata in front of a
// slower catalog.
package metacache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/imgdex/internal/db"
	"github.com/kailas-cloud/imgdex/internal/domain"
	"github.com/kailas-cloud/imgdex/internal/domain/image"
)

// DefaultTTL bounds how long a cached entry may lag behind the catalog.
const DefaultTTL = 10 * time.Minute

var cacheKeyPrefix = domain.KeyPrefix + "meta_cache:"

// store is the consumer interface for the metadata cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// source is the wrapped catalog.
type source interface {
	FindActiveByID(ctx context.Context, id string) (image.Record, error)
	FindByScene(ctx context.Context, scene string) ([]image.Annotated, error)
	FindRecent(ctx context.Context, limit int) ([]image.Record, error)
	FindMetadataByID(ctx context.Context, id string) (*image.Metadata, error)
	SearchMetadataByDescription(ctx context.Context, keyword string) ([]image.Annotated, error)
	SaveMetadata(ctx context.Context, md *image.Metadata) error
}

// CachedCatalog caches FindMetadataByID results and forwards everything else.
type CachedCatalog struct {
	source
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	inner source,
	s store,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedCatalog {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CachedCatalog{
		source:     inner,
		store:      s,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// FindMetadataByID returns cached metadata or reads through to the catalog.
// Absent metadata is not cached so a later describe shows up immediately.
func (c *CachedCatalog) FindMetadataByID(ctx context.Context, id string) (*image.Metadata, error) {
	key := cacheKey(id)

	if md, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return md, nil
	}

	c.incCache("miss")

	md, err := c.source.FindMetadataByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find metadata: %w", err)
	}
	if md != nil {
		c.putToCache(ctx, key, md)
	}
	return md, nil
}

// SaveMetadata writes through to the catalog and refreshes the cached entry.
func (c *CachedCatalog) SaveMetadata(ctx context.Context, md *image.Metadata) error {
	if err := c.source.SaveMetadata(ctx, md); err != nil {
		return err
	}
	c.putToCache(ctx, cacheKey(md.ImageID), md)
	return nil
}

// Invalidate drops a cached entry.
func (c *CachedCatalog) Invalidate(ctx context.Context, id string) error {
	if err := c.store.Del(ctx, cacheKey(id)); err != nil {
		return fmt.Errorf("invalidate %s: %w", id, err)
	}
	return nil
}

func (c *CachedCatalog) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func cacheKey(id string) string {
	return cacheKeyPrefix + id
}

func (c *CachedCatalog) getFromCache(ctx context.Context, key string) (*image.Metadata, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached metadata", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	if len(data) == 0 {
		return nil, false
	}

	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		c.logger.Warn("Failed to parse cached metadata", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return entry.metadata(), true
}

func (c *CachedCatalog) putToCache(ctx context.Context, key string, md *image.Metadata) {
	data, err := json.Marshal(newCacheEntry(md))
	if err != nil {
		c.logger.Warn("Failed to encode metadata", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache metadata", zap.String("key", key), zap.Error(err))
	}
}

// cacheEntry is the JSON form of a cached metadata value.
type cacheEntry struct {
	ImageID       string    `json:"image_id"`
	AIDescription string    `json:"ai_description"`
	AITags        []string  `json:"ai_tags,omitempty"`
	Scene         string    `json:"scene,omitempty"`
	Objects       []string  `json:"objects,omitempty"`
	Palette       string    `json:"palette,omitempty"`
	OCRText       string    `json:"ocr_text,omitempty"`
	Confidence    float64   `json:"confidence"`
	ProcessedAt   time.Time `json:"processed_at"`
}

func newCacheEntry(md *image.Metadata) cacheEntry {
	return cacheEntry{
		ImageID:       md.ImageID,
		AIDescription: md.AIDescription,
		AITags:        md.AITags,
		Scene:         md.Scene,
		Objects:       md.Objects,
		Palette:       md.Palette,
		OCRText:       md.OCRText,
		Confidence:    md.Confidence,
		ProcessedAt:   md.ProcessedAt,
	}
}

func (e *cacheEntry) metadata() *image.Metadata {
	return &image.Metadata{
		ImageID:       e.ImageID,
		AIDescription: e.AIDescription,
		AITags:        e.AITags,
		Scene:         e.Scene,
		Objects:       e.Objects,
		Palette:       e.Palette,
		OCRText:       e.OCRText,
		Confidence:    e.Confidence,
		ProcessedAt:   e.ProcessedAt,
	}
}
