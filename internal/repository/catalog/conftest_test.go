package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/kailas-cloud/imgdex/internal/db"
	"github.com/kailas-cloud/imgdex/internal/domain/image"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	hsetFn         func(ctx context.Context, key string, fields map[string]string) error
	hsetMultiFn    func(ctx context.Context, items []db.HashSetItem) error
	hgetAllFn      func(ctx context.Context, key string) (map[string]string, error)
	hgetAllMultiFn func(ctx context.Context, keys []string) ([]map[string]string, error)
	delFn          func(ctx context.Context, keys ...string) error
	zaddFn         func(ctx context.Context, key string, score float64, member string) error
	zrevRangeFn    func(ctx context.Context, key string, limit int) ([]string, error)
	zremFn         func(ctx context.Context, key, member string) error
	createIndexFn  func(ctx context.Context, def *db.IndexDefinition) error
	indexExistsFn  func(ctx context.Context, name string) (bool, error)
	searchFn       func(ctx context.Context, q *db.Query) (*db.SearchResult, error)
}

func (m *mockStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	if m.hsetFn != nil {
		return m.hsetFn(ctx, key, fields)
	}
	return nil
}

func (m *mockStore) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	if m.hsetMultiFn != nil {
		return m.hsetMultiFn(ctx, items)
	}
	return nil
}

func (m *mockStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if m.hgetAllFn != nil {
		return m.hgetAllFn(ctx, key)
	}
	return map[string]string{}, nil
}

func (m *mockStore) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	if m.hgetAllMultiFn != nil {
		return m.hgetAllMultiFn(ctx, keys)
	}
	return make([]map[string]string, len(keys)), nil
}

func (m *mockStore) Del(ctx context.Context, keys ...string) error {
	if m.delFn != nil {
		return m.delFn(ctx, keys...)
	}
	return nil
}

func (m *mockStore) ZAdd(ctx context.Context, key string, score float64, member string) error {
	if m.zaddFn != nil {
		return m.zaddFn(ctx, key, score, member)
	}
	return nil
}

func (m *mockStore) ZRevRange(ctx context.Context, key string, limit int) ([]string, error) {
	if m.zrevRangeFn != nil {
		return m.zrevRangeFn(ctx, key, limit)
	}
	return nil, nil
}

func (m *mockStore) ZRem(ctx context.Context, key, member string) error {
	if m.zremFn != nil {
		return m.zremFn(ctx, key, member)
	}
	return nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if m.indexExistsFn != nil {
		return m.indexExistsFn(ctx, name)
	}
	return false, nil
}

func (m *mockStore) Search(ctx context.Context, q *db.Query) (*db.SearchResult, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms), ms
}

var testCreatedAt = time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

func testRecord(t *testing.T, id string) image.Record {
	t.Helper()
	return image.Record{
		ID:               id,
		URL:              "https://cdn.example.com/" + id + ".jpg",
		OriginalFilename: id + ".jpg",
		Description:      "sunset over the sea",
		Tags:             "sunset, beach",
		Format:           "jpeg",
		SizeBytes:        204800,
		Width:            1920,
		Height:           1080,
		Resolution:       "1080p",
		Orientation:      "landscape",
		Category:         "nature",
		DominantColors:   []string{"orange", "blue"},
		Brightness:       "bright",
		Status:           image.StatusActive,
		CreatedAt:        testCreatedAt,
	}
}

func testMetadata(t *testing.T, id string) *image.Metadata {
	t.Helper()
	return &image.Metadata{
		ImageID:       id,
		AIDescription: "a vivid sunset over calm water",
		AITags:        []string{"sunset", "ocean"},
		Scene:         "beach",
		Objects:       []string{"sun", "boat"},
		Palette:       "warm",
		Confidence:    0.92,
		ProcessedAt:   testCreatedAt.Add(time.Hour),
	}
}
