// Package pgcatalog serves the image catalog from PostgreSQL.
package pgcatalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kailas-cloud/imgdex/internal/domain"
	"github.com/kailas-cloud/imgdex/internal/domain/image"
)

// DefaultSearchLimit caps rows returned by scene and description lookups.
const DefaultSearchLimit = 1000

// querier is the subset of *pgxpool.Pool the repository uses.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repo implements usecase/search.Catalog and usecase/describe.Writer.
type Repo struct {
	db          querier
	searchLimit int
}

// New creates a PostgreSQL catalog repository.
func New(q querier) *Repo {
	return &Repo{db: q, searchLimit: DefaultSearchLimit}
}

// WithSearchLimit overrides the row cap for scene and description lookups.
func (r *Repo) WithSearchLimit(limit int) *Repo {
	if limit > 0 {
		r.searchLimit = limit
	}
	return r
}

// EnsureSchema creates tables and indexes when missing.
func (r *Repo) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// FindActiveByID returns domain.ErrImageNotFound for missing, disabled or deleted records.
func (r *Repo) FindActiveByID(ctx context.Context, id string) (image.Record, error) {
	rec, err := scanRecord(r.db.QueryRow(ctx, queryActiveByID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return image.Record{}, domain.ErrImageNotFound
		}
		return image.Record{}, fmt.Errorf("select image %s: %w", id, err)
	}
	return rec, nil
}

// FindMetadataByID returns nil, nil when the record has no metadata yet.
func (r *Repo) FindMetadataByID(ctx context.Context, id string) (*image.Metadata, error) {
	md, err := scanMetadata(r.db.QueryRow(ctx, queryMetadataByID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select metadata %s: %w", id, err)
	}
	return md, nil
}

// FindRecent returns up to limit records, newest first.
func (r *Repo) FindRecent(ctx context.Context, limit int) ([]image.Record, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx, queryRecent, limit)
	if err != nil {
		return nil, fmt.Errorf("select recent: %w", err)
	}
	defer rows.Close()

	var out []image.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recent: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recent: %w", err)
	}
	return out, nil
}

// FindByScene returns annotated records whose scene matches case-insensitively.
func (r *Repo) FindByScene(ctx context.Context, scene string) ([]image.Annotated, error) {
	return r.queryAnnotated(ctx, "select by scene", queryByScene, scene, r.searchLimit)
}

// SearchMetadataByDescription matches the keyword as a substring of AI
// descriptions or tags.
func (r *Repo) SearchMetadataByDescription(ctx context.Context, keyword string) ([]image.Annotated, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, nil
	}
	pattern := "%" + escapeLike(keyword) + "%"
	return r.queryAnnotated(ctx, "select by description", queryByDescription, pattern, r.searchLimit)
}

func (r *Repo) queryAnnotated(ctx context.Context, op, sql string, args ...any) ([]image.Annotated, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []image.Annotated
	for rows.Next() {
		a, err := scanAnnotated(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// SaveImage upserts a record.
func (r *Repo) SaveImage(ctx context.Context, rec *image.Record) error {
	if rec.ID == "" {
		return fmt.Errorf("save image: %w", domain.ErrInvalidQuery)
	}
	_, err := r.db.Exec(ctx, upsertImage,
		rec.ID, rec.URL, rec.ThumbnailURL, rec.OriginalFilename, rec.Description, rec.Tags,
		rec.Format, rec.SizeBytes, rec.Width, rec.Height, rec.Resolution, rec.Orientation, rec.Category,
		nonNil(rec.DominantColors), rec.HasTransparency, rec.IsAnimated, rec.Brightness,
		string(rec.Status), rec.Deleted, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert image %s: %w", rec.ID, err)
	}
	return nil
}

// SaveImages upserts records one by one; the first failure stops the batch.
func (r *Repo) SaveImages(ctx context.Context, recs []image.Record) error {
	for i := range recs {
		if err := r.SaveImage(ctx, &recs[i]); err != nil {
			return err
		}
	}
	return nil
}

// SaveMetadata upserts metadata for an existing record.
func (r *Repo) SaveMetadata(ctx context.Context, md *image.Metadata) error {
	if md.ImageID == "" {
		return fmt.Errorf("save metadata: %w", domain.ErrInvalidQuery)
	}
	_, err := r.db.Exec(ctx, upsertMetadata,
		md.ImageID, md.AIDescription, nonNil(md.AITags), md.Scene, nonNil(md.Objects),
		md.Palette, md.OCRText, md.Confidence, processedAtArg(md.ProcessedAt),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return fmt.Errorf("save metadata %s: %w", md.ImageID, domain.ErrImageNotFound)
		}
		return fmt.Errorf("upsert metadata %s: %w", md.ImageID, err)
	}
	return nil
}

// RemoveImage deletes a record; its metadata cascades.
func (r *Repo) RemoveImage(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, deleteImage, id); err != nil {
		return fmt.Errorf("delete image %s: %w", id, err)
	}
	return nil
}

const foreignKeyViolation = "23503"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
