// Package catalog stores image records and their AI metadata as Redis hashes
// and serves the search engine's catalog reads.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/imgdex/internal/db"
	"github.com/kailas-cloud/imgdex/internal/domain"
	"github.com/kailas-cloud/imgdex/internal/domain/image"
)

// DefaultSearchLimit caps metadata index reads per call.
const DefaultSearchLimit = 1000

// store is the consumer interface for the catalog (ISP).
//
//nolint:interfacebloat // catalog needs hash, sorted set, index and search operations
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, keys ...string) error
	ZAdd(ctx context.Context, key string, score float64, member string) error
	ZRevRange(ctx context.Context, key string, limit int) ([]string, error)
	ZRem(ctx context.Context, key, member string) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	Search(ctx context.Context, q *db.Query) (*db.SearchResult, error)
}

// Repo implements usecase/search.Catalog and usecase/describe.Writer.
type Repo struct {
	store       store
	searchLimit int
}

// New creates a catalog repository.
func New(s store) *Repo {
	return &Repo{store: s, searchLimit: DefaultSearchLimit}
}

// WithSearchLimit overrides the per-call index read cap.
func (r *Repo) WithSearchLimit(limit int) *Repo {
	if limit > 0 {
		r.searchLimit = limit
	}
	return r
}

// EnsureIndex creates the metadata search index unless it already exists.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, indexName())
	if err != nil {
		return fmt.Errorf("check index exists: %w", err)
	}
	if exists {
		return nil
	}

	def, err := buildIndex()
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}
	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

// SaveImage writes the record hash and indexes it by creation time.
func (r *Repo) SaveImage(ctx context.Context, rec *image.Record) error {
	if rec.ID == "" {
		return fmt.Errorf("save image: %w", domain.ErrInvalidQuery)
	}
	if err := r.store.HSet(ctx, imageKey(rec.ID), recordToHash(rec)); err != nil {
		return fmt.Errorf("hset image %s: %w", rec.ID, err)
	}
	if err := r.store.ZAdd(ctx, recentKey(), float64(rec.CreatedAt.UnixMilli()), rec.ID); err != nil {
		return fmt.Errorf("zadd image %s: %w", rec.ID, err)
	}
	return nil
}

// SaveImages writes a batch of record hashes in one round-trip, then indexes each.
func (r *Repo) SaveImages(ctx context.Context, recs []image.Record) error {
	if len(recs) == 0 {
		return nil
	}
	items := make([]db.HashSetItem, len(recs))
	for i := range recs {
		if recs[i].ID == "" {
			return fmt.Errorf("save images: record %d: %w", i, domain.ErrInvalidQuery)
		}
		items[i] = db.HashSetItem{Key: imageKey(recs[i].ID), Fields: recordToHash(&recs[i])}
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("hset images: %w", err)
	}
	for i := range recs {
		if err := r.store.ZAdd(ctx, recentKey(), float64(recs[i].CreatedAt.UnixMilli()), recs[i].ID); err != nil {
			return fmt.Errorf("zadd image %s: %w", recs[i].ID, err)
		}
	}
	return nil
}

// SaveMetadata writes the metadata hash picked up by the search index.
func (r *Repo) SaveMetadata(ctx context.Context, md *image.Metadata) error {
	if md.ImageID == "" {
		return fmt.Errorf("save metadata: %w", domain.ErrInvalidQuery)
	}
	if err := r.store.HSet(ctx, metaKey(md.ImageID), metadataToHash(md)); err != nil {
		return fmt.Errorf("hset metadata %s: %w", md.ImageID, err)
	}
	return nil
}

// RemoveImage deletes the record, its metadata and its recency entry.
func (r *Repo) RemoveImage(ctx context.Context, id string) error {
	if err := r.store.ZRem(ctx, recentKey(), id); err != nil {
		return fmt.Errorf("zrem image %s: %w", id, err)
	}
	if err := r.store.Del(ctx, metaKey(id), imageKey(id)); err != nil {
		return fmt.Errorf("del image %s: %w", id, err)
	}
	return nil
}

// FindActiveByID returns an active record; missing, disabled and deleted
// records are all reported as domain.ErrImageNotFound.
func (r *Repo) FindActiveByID(ctx context.Context, id string) (image.Record, error) {
	m, err := r.store.HGetAll(ctx, imageKey(id))
	if err != nil {
		return image.Record{}, fmt.Errorf("hgetall image %s: %w", id, err)
	}
	if len(m) == 0 {
		return image.Record{}, domain.ErrImageNotFound
	}
	rec, err := recordFromHash(m)
	if err != nil {
		return image.Record{}, fmt.Errorf("parse image %s: %w", id, err)
	}
	if !rec.IsActive() {
		return image.Record{}, domain.ErrImageNotFound
	}
	return rec, nil
}

// FindMetadataByID returns nil, nil when the record has no metadata yet.
func (r *Repo) FindMetadataByID(ctx context.Context, id string) (*image.Metadata, error) {
	m, err := r.store.HGetAll(ctx, metaKey(id))
	if err != nil {
		return nil, fmt.Errorf("hgetall metadata %s: %w", id, err)
	}
	if len(m) == 0 {
		return nil, nil
	}
	md, err := metadataFromHash(m)
	if err != nil {
		return nil, fmt.Errorf("parse metadata %s: %w", id, err)
	}
	return md, nil
}

// FindRecent returns up to limit records, newest first.
func (r *Repo) FindRecent(ctx context.Context, limit int) ([]image.Record, error) {
	ids, err := r.store.ZRevRange(ctx, recentKey(), limit)
	if err != nil {
		return nil, fmt.Errorf("zrange recent: %w", err)
	}
	return r.loadRecords(ctx, ids)
}

// FindByScene returns records whose metadata carries the given scene tag,
// most confident classification first.
func (r *Repo) FindByScene(ctx context.Context, scene string) ([]image.Annotated, error) {
	return r.searchAnnotated(ctx, &db.Query{
		IndexName: indexName(),
		Tags:      []db.TagMatch{{Field: fieldScene, Value: scene}},
		SortBy:    &db.SortOrder{Field: fieldConfidence, Descending: true},
		Limit:     r.searchLimit,
	})
}

// SearchMetadataByDescription full-text matches AI descriptions and tags.
func (r *Repo) SearchMetadataByDescription(ctx context.Context, keyword string) ([]image.Annotated, error) {
	if strings.TrimSpace(keyword) == "" {
		return nil, nil
	}
	return r.searchAnnotated(ctx, &db.Query{
		IndexName:  indexName(),
		Text:       keyword,
		TextFields: []string{fieldAIDescription, fieldAITags},
		Limit:      r.searchLimit,
	})
}

// searchAnnotated runs an index query over metadata hashes and joins the
// matching records. Metadata without a stored record is skipped.
func (r *Repo) searchAnnotated(ctx context.Context, q *db.Query) ([]image.Annotated, error) {
	res, err := r.store.Search(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", q.IndexName, err)
	}
	if len(res.Entries) == 0 {
		return nil, nil
	}

	metas := make([]*image.Metadata, 0, len(res.Entries))
	keys := make([]string, 0, len(res.Entries))
	for _, e := range res.Entries {
		md, err := metadataFromHash(e.Fields)
		if err != nil {
			return nil, fmt.Errorf("parse metadata %s: %w", e.Key, err)
		}
		if md.ImageID == "" {
			md.ImageID = strings.TrimPrefix(e.Key, metaPrefix())
		}
		metas = append(metas, md)
		keys = append(keys, imageKey(md.ImageID))
	}

	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall multi images: %w", err)
	}

	out := make([]image.Annotated, 0, len(hashes))
	for i, m := range hashes {
		if len(m) == 0 {
			continue
		}
		rec, err := recordFromHash(m)
		if err != nil {
			return nil, fmt.Errorf("parse image %s: %w", keys[i], err)
		}
		out = append(out, image.Annotated{Record: rec, Metadata: metas[i]})
	}
	return out, nil
}

func (r *Repo) loadRecords(ctx context.Context, ids []string) ([]image.Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = imageKey(id)
	}

	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall multi images: %w", err)
	}

	out := make([]image.Record, 0, len(hashes))
	for i, m := range hashes {
		if len(m) == 0 {
			continue
		}
		rec, err := recordFromHash(m)
		if err != nil {
			return nil, fmt.Errorf("parse image %s: %w", keys[i], err)
		}
		out = append(out, rec)
	}
	return out, nil
}
