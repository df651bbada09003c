package batch

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/imgdex/internal/domain"
	dombatch "github.com/kailas-cloud/imgdex/internal/domain/batch"
	"github.com/kailas-cloud/imgdex/internal/domain/image"
	"github.com/kailas-cloud/imgdex/internal/domain/search/hit"
)

// MaxBatchSize is the maximum number of items per batch call.
const MaxBatchSize = 500

// Service imports and removes catalog images with per-item error reporting.
type Service struct {
	records      RecordWriter
	metadata     MetadataWriter
	remover      ImageRemover
	cache        CacheInvalidator
	maxBatchSize int
	logger       *zap.Logger
}

// New creates a batch service.
func New(records RecordWriter, metadata MetadataWriter, remover ImageRemover, logger *zap.Logger) *Service {
	return &Service{
		records:      records,
		metadata:     metadata,
		remover:      remover,
		maxBatchSize: MaxBatchSize,
		logger:       logger,
	}
}

// WithCache invalidates cached metadata for every removed image.
func (s *Service) WithCache(c CacheInvalidator) *Service {
	s.cache = c
	return s
}

// WithMaxBatchSize configures the maximum batch size.
func (s *Service) WithMaxBatchSize(size int) *Service {
	if size > 0 {
		s.maxBatchSize = size
	}
	return s
}

// Import validates every record, writes the valid ones in one bulk call,
// then attaches metadata. Results follow record order; metadata whose image
// is not part of the batch gets its own trailing error result.
func (s *Service) Import(ctx context.Context, recs []image.Record, mds []image.Metadata) []dombatch.Result {
	results := make([]dombatch.Result, len(recs))

	if len(recs) > s.maxBatchSize {
		for i := range recs {
			results[i] = dombatch.NewError(recs[i].ID,
				fmt.Errorf("batch size exceeds %d: %w", s.maxBatchSize, domain.ErrInvalidRecord))
		}
		return results
	}

	valid := make([]image.Record, 0, len(recs))
	validIdx := make(map[string]int, len(recs))
	for i := range recs {
		if err := validateRecord(&recs[i]); err != nil {
			results[i] = dombatch.NewError(recs[i].ID, err)
			continue
		}
		if _, dup := validIdx[recs[i].ID]; dup {
			results[i] = dombatch.NewError(recs[i].ID,
				fmt.Errorf("duplicate id in batch: %w", domain.ErrInvalidRecord))
			continue
		}
		valid = append(valid, recs[i])
		validIdx[recs[i].ID] = i
	}

	if len(valid) > 0 {
		if err := s.records.SaveImages(ctx, valid); err != nil {
			for _, i := range validIdx {
				results[i] = dombatch.NewError(recs[i].ID, fmt.Errorf("save images: %w", err))
			}
			return results
		}
		for _, i := range validIdx {
			results[i] = dombatch.NewOK(recs[i].ID)
		}
	}

	for j := range mds {
		md := mds[j]
		i, ok := validIdx[md.ImageID]
		if !ok {
			if !hasID(recs, md.ImageID) {
				results = append(results, dombatch.NewError(md.ImageID,
					fmt.Errorf("metadata without image in batch: %w", domain.ErrInvalidRecord)))
			}
			continue
		}
		if err := ctx.Err(); err != nil {
			results[i] = dombatch.NewError(md.ImageID, fmt.Errorf("save metadata: %w", err))
			continue
		}
		md.Confidence = hit.Clamp01(md.Confidence)
		if err := s.metadata.SaveMetadata(ctx, &md); err != nil {
			results[i] = dombatch.NewError(md.ImageID, fmt.Errorf("save metadata: %w", err))
		}
	}

	sum := dombatch.Summarize(results)
	s.logger.Info("Images imported",
		zap.Int("ok", sum.OK),
		zap.Int("failed", sum.Failed),
		zap.Int("metadata", len(mds)),
	)
	return results
}

// Remove deletes images by ID in batch.
func (s *Service) Remove(ctx context.Context, ids []string) []dombatch.Result {
	results := make([]dombatch.Result, len(ids))

	if len(ids) > s.maxBatchSize {
		for i, id := range ids {
			results[i] = dombatch.NewError(id,
				fmt.Errorf("batch size exceeds %d: %w", s.maxBatchSize, domain.ErrInvalidRecord))
		}
		return results
	}

	for i, id := range ids {
		if id == "" {
			results[i] = dombatch.NewError(id, fmt.Errorf("empty id: %w", domain.ErrInvalidRecord))
			continue
		}
		if err := s.remover.RemoveImage(ctx, id); err != nil {
			results[i] = dombatch.NewError(id, fmt.Errorf("remove: %w", err))
			continue
		}
		if s.cache != nil {
			if err := s.cache.Invalidate(ctx, id); err != nil {
				s.logger.Warn("Failed to invalidate metadata cache",
					zap.String("image_id", id),
					zap.Error(err),
				)
			}
		}
		results[i] = dombatch.NewOK(id)
	}

	return results
}

func validateRecord(rec *image.Record) error {
	if rec.ID == "" {
		return fmt.Errorf("id is required: %w", domain.ErrInvalidRecord)
	}
	if len(rec.ID) > domain.MaxIDLength {
		return fmt.Errorf("id too long (max %d): %w", domain.MaxIDLength, domain.ErrInvalidRecord)
	}
	if rec.URL == "" {
		return fmt.Errorf("url is required: %w", domain.ErrInvalidRecord)
	}
	if !rec.Status.IsValid() {
		return fmt.Errorf("unknown status %q: %w", rec.Status, domain.ErrInvalidRecord)
	}
	return nil
}

func hasID(recs []image.Record, id string) bool {
	for i := range recs {
		if recs[i].ID == id {
			return true
		}
	}
	return false
}
