package metacache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/imgdex/internal/db"
	"github.com/kailas-cloud/imgdex/internal/domain/image"
)

type mockSource struct {
	meta      *image.Metadata
	err       error
	metaCalls int
	saved     []*image.Metadata
	saveErr   error
	recent    []image.Record
}

func (m *mockSource) FindActiveByID(_ context.Context, id string) (image.Record, error) {
	return image.Record{ID: id, Status: image.StatusActive}, nil
}

func (m *mockSource) FindByScene(_ context.Context, _ string) ([]image.Annotated, error) {
	return nil, nil
}

func (m *mockSource) FindRecent(_ context.Context, _ int) ([]image.Record, error) {
	return m.recent, nil
}

func (m *mockSource) FindMetadataByID(_ context.Context, _ string) (*image.Metadata, error) {
	m.metaCalls++
	return m.meta, m.err
}

func (m *mockSource) SearchMetadataByDescription(_ context.Context, _ string) ([]image.Annotated, error) {
	return nil, nil
}

func (m *mockSource) SaveMetadata(_ context.Context, md *image.Metadata) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, md)
	return nil
}

// memStore is an in-memory KV implementing the consumer interface.
type memStore struct {
	data   map[string][]byte
	ttls   map[string]time.Duration
	getErr error
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *memStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *memStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func newTestCache(t *testing.T, src *mockSource) (*CachedCatalog, *memStore) {
	t.Helper()
	ms := newMemStore()
	return New(src, ms, time.Minute, nil, zap.NewNop()), ms
}
