package imgdex

import (
	"context"
	"fmt"
	"time"

	dombatch "github.com/kailas-cloud/imgdex/internal/domain/batch"
	"github.com/kailas-cloud/imgdex/internal/domain/image"
)

// ImageService manages catalog contents.
type ImageService struct {
	svc     batchUseCase
	prepare func(ctx context.Context) error
	obs     *observer
}

// Prepare creates the search index (redis) or schema (postgres). Idempotent.
func (s *ImageService) Prepare(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("prepare", start, err) }()

	if err = s.prepare(ctx); err != nil {
		return fmt.Errorf("prepare catalog: %w", err)
	}
	return nil
}

// Import stores images with their optional metadata. Per-item failures are
// reported in the returned slice; err is set when any item failed.
func (s *ImageService) Import(ctx context.Context, images []Image) (results []ItemResult, err error) {
	start := time.Now()
	defer func() { s.obs.observe("import", start, err) }()

	now := time.Now().UTC()
	recs := make([]image.Record, len(images))
	var mds []image.Metadata
	for i := range images {
		recs[i] = imageToRecord(&images[i])
		if recs[i].CreatedAt.IsZero() {
			recs[i].CreatedAt = now
		}
		if images[i].Metadata != nil {
			md := metadataToDomain(images[i].ID, images[i].Metadata)
			if md.ProcessedAt.IsZero() {
				md.ProcessedAt = now
			}
			mds = append(mds, md)
		}
	}

	return itemResults(s.svc.Import(ctx, recs, mds))
}

// Remove deletes images and their metadata.
func (s *ImageService) Remove(ctx context.Context, ids ...string) (results []ItemResult, err error) {
	start := time.Now()
	defer func() { s.obs.observe("remove", start, err) }()

	return itemResults(s.svc.Remove(ctx, ids))
}

func itemResults(rs []dombatch.Result) ([]ItemResult, error) {
	out := make([]ItemResult, len(rs))
	for i, r := range rs {
		out[i] = ItemResult{ID: r.ID(), Err: r.Err()}
	}
	if sum := dombatch.Summarize(rs); sum.Failed > 0 {
		return out, fmt.Errorf("imgdex: %d of %d items failed: %w", sum.Failed, len(rs), dombatch.Failed(rs)[0].Err())
	}
	return out, nil
}
