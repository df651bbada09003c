package batch

import (
	"context"

	"github.com/kailas-cloud/imgdex/internal/domain/image"
)

// RecordWriter stores image records in bulk.
type RecordWriter interface {
	SaveImages(ctx context.Context, recs []image.Record) error
}

// MetadataWriter persists AI metadata for a stored record.
type MetadataWriter interface {
	SaveMetadata(ctx context.Context, md *image.Metadata) error
}

// ImageRemover deletes a record and its metadata.
type ImageRemover interface {
	RemoveImage(ctx context.Context, id string) error
}

// CacheInvalidator drops cached metadata for an image.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, id string) error
}
