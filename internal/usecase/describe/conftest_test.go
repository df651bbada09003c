package describe

import (
	"context"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/imgdex/internal/domain"
	"github.com/kailas-cloud/imgdex/internal/domain/image"
	"github.com/kailas-cloud/imgdex/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterDescriberMetrics()
	os.Exit(m.Run())
}

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type mockCatalog struct {
	records map[string]image.Record
	meta    map[string]*image.Metadata
	order   []string
	findErr error
	metaErr error
	saved   []image.Metadata
	saveErr error
}

func newMockCatalog() *mockCatalog {
	return &mockCatalog{records: map[string]image.Record{}, meta: map[string]*image.Metadata{}}
}

func (m *mockCatalog) add(rec image.Record, md *image.Metadata) {
	m.records[rec.ID] = rec
	m.order = append(m.order, rec.ID)
	if md != nil {
		m.meta[rec.ID] = md
	}
}

func (m *mockCatalog) FindActiveByID(_ context.Context, id string) (image.Record, error) {
	if m.findErr != nil {
		return image.Record{}, m.findErr
	}
	rec, ok := m.records[id]
	if !ok || !rec.IsActive() {
		return image.Record{}, domain.ErrImageNotFound
	}
	return rec, nil
}

func (m *mockCatalog) FindMetadataByID(_ context.Context, id string) (*image.Metadata, error) {
	if m.metaErr != nil {
		return nil, m.metaErr
	}
	return m.meta[id], nil
}

func (m *mockCatalog) FindRecent(_ context.Context, limit int) ([]image.Record, error) {
	var out []image.Record
	for _, id := range m.order {
		if len(out) == limit {
			break
		}
		out = append(out, m.records[id])
	}
	return out, nil
}

func (m *mockCatalog) SaveMetadata(_ context.Context, md *image.Metadata) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, *md)
	cp := *md
	m.meta[md.ImageID] = &cp
	return nil
}

type mockDescriber struct {
	result domain.DescribeResult
	err    error
	calls  int
}

func (m *mockDescriber) Describe(_ context.Context, _ image.Record) (domain.DescribeResult, error) {
	m.calls++
	return m.result, m.err
}

func newTestService(t *testing.T, cat *mockCatalog, d domain.Describer) *Service {
	t.Helper()
	s := New(cat, cat, d, 0, zap.NewNop())
	s.now = func() time.Time { return testNow }
	return s
}

func activeRecord(id string) image.Record {
	return image.Record{
		ID:          id,
		URL:         "https://cdn.example.com/" + id + ".jpg",
		Description: "Red car parked on a street",
		Tags:        "Car, Street",
		Category:    "Urban",
		Status:      image.StatusActive,
	}
}
