package pgcatalog

import (
	"time"

	"github.com/kailas-cloud/imgdex/internal/domain/image"
)

// scanner is satisfied by both pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// recordRow holds scan targets for recordColumns.
type recordRow struct {
	rec    image.Record
	status string
}

func (r *recordRow) dest() []any {
	return []any{
		&r.rec.ID, &r.rec.URL, &r.rec.ThumbnailURL, &r.rec.OriginalFilename, &r.rec.Description, &r.rec.Tags,
		&r.rec.Format, &r.rec.SizeBytes, &r.rec.Width, &r.rec.Height, &r.rec.Resolution, &r.rec.Orientation, &r.rec.Category,
		&r.rec.DominantColors, &r.rec.HasTransparency, &r.rec.IsAnimated, &r.rec.Brightness, &r.status, &r.rec.Deleted, &r.rec.CreatedAt,
	}
}

func (r *recordRow) record() image.Record {
	rec := r.rec
	rec.Status = image.Status(r.status)
	rec.CreatedAt = rec.CreatedAt.UTC()
	if len(rec.DominantColors) == 0 {
		rec.DominantColors = nil
	}
	return rec
}

// metadataRow holds scan targets for metadataColumns; processed_at is nullable.
type metadataRow struct {
	md          image.Metadata
	processedAt *time.Time
}

func (m *metadataRow) dest() []any {
	return []any{
		&m.md.ImageID, &m.md.AIDescription, &m.md.AITags, &m.md.Scene, &m.md.Objects,
		&m.md.Palette, &m.md.OCRText, &m.md.Confidence, &m.processedAt,
	}
}

func (m *metadataRow) metadata() *image.Metadata {
	md := m.md
	if m.processedAt != nil {
		md.ProcessedAt = m.processedAt.UTC()
	}
	if len(md.AITags) == 0 {
		md.AITags = nil
	}
	if len(md.Objects) == 0 {
		md.Objects = nil
	}
	return &md
}

func scanRecord(s scanner) (image.Record, error) {
	var row recordRow
	if err := s.Scan(row.dest()...); err != nil {
		return image.Record{}, err
	}
	return row.record(), nil
}

func scanMetadata(s scanner) (*image.Metadata, error) {
	var row metadataRow
	if err := s.Scan(row.dest()...); err != nil {
		return nil, err
	}
	return row.metadata(), nil
}

func scanAnnotated(s scanner) (image.Annotated, error) {
	var rr recordRow
	var mr metadataRow
	if err := s.Scan(append(rr.dest(), mr.dest()...)...); err != nil {
		return image.Annotated{}, err
	}
	return image.Annotated{Record: rr.record(), Metadata: mr.metadata()}, nil
}

// processedAtArg maps the zero time to NULL.
func processedAtArg(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// nonNil keeps NOT NULL array columns from receiving NULL.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
