package describe

import (
	"context"

	"github.com/kailas-cloud/imgdex/internal/domain/image"
)

// Catalog is the read side the describe pipeline needs.
type Catalog interface {
	FindActiveByID(ctx context.Context, id string) (image.Record, error)
	FindMetadataByID(ctx context.Context, id string) (*image.Metadata, error)
	FindRecent(ctx context.Context, limit int) ([]image.Record, error)
}

// Writer persists generated metadata.
type Writer interface {
	SaveMetadata(ctx context.Context, md *image.Metadata) error
}
