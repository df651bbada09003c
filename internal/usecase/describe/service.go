// Package describe generates AI descriptive metadata for catalog records.
package describe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/imgdex/internal/domain"
	"github.com/kailas-cloud/imgdex/internal/domain/image"
	"github.com/kailas-cloud/imgdex/internal/domain/search/hit"
)

// DefaultStaleAfter matches the search scorer's stale-metadata window.
const DefaultStaleAfter = 90 * 24 * time.Hour

// Outcome reports what Describe did.
type Outcome struct {
	Metadata  *image.Metadata
	Generated bool
}

// Service runs the describe pipeline: load record, reuse fresh metadata or
// ask the describer, then persist.
type Service struct {
	catalog    Catalog
	writer     Writer
	describer  domain.Describer
	staleAfter time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

// New creates a describe service. staleAfter <= 0 selects DefaultStaleAfter.
func New(catalog Catalog, writer Writer, describer domain.Describer, staleAfter time.Duration, logger *zap.Logger) *Service {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return &Service{
		catalog:    catalog,
		writer:     writer,
		describer:  describer,
		staleAfter: staleAfter,
		logger:     logger,
		now:        time.Now,
	}
}

// Describe returns metadata for an active record, generating it when absent,
// stale, or when force is set.
func (s *Service) Describe(ctx context.Context, id string, force bool) (Outcome, error) {
	if id == "" || len(id) > domain.MaxIDLength {
		return Outcome{}, fmt.Errorf("image id must be 1..%d characters: %w", domain.MaxIDLength, domain.ErrInvalidQuery)
	}

	rec, err := s.catalog.FindActiveByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrImageNotFound) {
			return Outcome{}, err
		}
		return Outcome{}, fmt.Errorf("find image: %w: %w", domain.ErrAccessorUnavailable, err)
	}

	existing, err := s.catalog.FindMetadataByID(ctx, id)
	if err != nil {
		return Outcome{}, fmt.Errorf("find metadata: %w: %w", domain.ErrAccessorUnavailable, err)
	}
	if existing != nil && !force && !s.stale(existing) {
		return Outcome{Metadata: existing}, nil
	}

	md, err := s.generate(ctx, rec)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Metadata: md, Generated: true}, nil
}

// Backfill describes up to limit of the most recent active records that
// have no metadata. It stops at the first describer or store failure.
func (s *Service) Backfill(ctx context.Context, limit int) (int, error) {
	records, err := s.catalog.FindRecent(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("find recent: %w: %w", domain.ErrAccessorUnavailable, err)
	}

	described := 0
	for i := range records {
		rec := records[i]
		if !rec.IsActive() {
			continue
		}
		existing, err := s.catalog.FindMetadataByID(ctx, rec.ID)
		if err != nil {
			return described, fmt.Errorf("find metadata %s: %w: %w", rec.ID, domain.ErrAccessorUnavailable, err)
		}
		if existing != nil {
			continue
		}
		if _, err := s.generate(ctx, rec); err != nil {
			return described, err
		}
		described++
	}

	s.logger.Info("Backfill finished", zap.Int("scanned", len(records)), zap.Int("described", described))
	return described, nil
}

func (s *Service) generate(ctx context.Context, rec image.Record) (*image.Metadata, error) {
	res, err := s.describer.Describe(ctx, rec)
	if err != nil {
		if errors.Is(err, domain.ErrDescriberQuotaExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrDescriberUnavailable, err)
	}
	domain.UsageFromContext(ctx).AddTokens(res.TotalTokens)

	md := res.Metadata
	md.ImageID = rec.ID
	md.ProcessedAt = s.now().UTC()
	md.Scene = strings.TrimSpace(md.Scene)
	md.Confidence = hit.Clamp01(md.Confidence)

	if err := s.writer.SaveMetadata(ctx, &md); err != nil {
		return nil, fmt.Errorf("save metadata: %w: %w", domain.ErrAccessorUnavailable, err)
	}

	s.logger.Debug("Metadata generated",
		zap.String("image_id", rec.ID),
		zap.String("scene", md.Scene),
		zap.Float64("confidence", md.Confidence),
		zap.Int("total_tokens", res.TotalTokens),
	)
	return &md, nil
}

func (s *Service) stale(md *image.Metadata) bool {
	return md.ProcessedAt.IsZero() || s.now().Sub(md.ProcessedAt) > s.staleAfter
}
