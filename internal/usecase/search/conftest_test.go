package search

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kailas-cloud/imgdex/internal/domain"
	"github.com/kailas-cloud/imgdex/internal/domain/image"
	"github.com/kailas-cloud/imgdex/internal/domain/search/request"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// mockCatalog is an in-memory catalog. Bulk reads return inactive records
// too so that strategy-level filtering is exercised.
type mockCatalog struct {
	mu      sync.Mutex
	order   []string // most recent first
	records map[string]image.Record
	meta    map[string]*image.Metadata

	vanished map[string]bool  // present in bulk reads, missing on FindActiveByID
	errs     map[string]error // keyed by method name
	calls    map[string]int
}

func newMockCatalog() *mockCatalog {
	return &mockCatalog{
		records:  make(map[string]image.Record),
		meta:     make(map[string]*image.Metadata),
		vanished: make(map[string]bool),
		errs:     make(map[string]error),
		calls:    make(map[string]int),
	}
}

func (m *mockCatalog) add(rec image.Record, meta *image.Metadata) {
	if rec.Status == "" {
		rec.Status = image.StatusActive
	}
	if rec.URL == "" {
		rec.URL = "https://cdn.example.com/i/" + rec.ID + ".jpg"
	}
	m.order = append(m.order, rec.ID)
	m.records[rec.ID] = rec
	if meta != nil {
		meta.ImageID = rec.ID
		m.meta[rec.ID] = meta
	}
}

func (m *mockCatalog) call(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[name]++
	return m.errs[name]
}

func (m *mockCatalog) annotated(id string) image.Annotated {
	a := image.Annotated{Record: m.records[id]}
	if meta, ok := m.meta[id]; ok {
		cp := *meta
		a.Metadata = &cp
	}
	return a
}

func (m *mockCatalog) FindActiveByID(_ context.Context, id string) (image.Record, error) {
	if err := m.call("FindActiveByID"); err != nil {
		return image.Record{}, err
	}
	rec, ok := m.records[id]
	if !ok || m.vanished[id] || !rec.IsActive() {
		return image.Record{}, fmt.Errorf("image %q: %w", id, domain.ErrImageNotFound)
	}
	return rec, nil
}

func (m *mockCatalog) FindByScene(_ context.Context, scene string) ([]image.Annotated, error) {
	if err := m.call("FindByScene"); err != nil {
		return nil, err
	}
	var out []image.Annotated
	for _, id := range m.order {
		if meta, ok := m.meta[id]; ok && meta.Scene == scene {
			out = append(out, m.annotated(id))
		}
	}
	return out, nil
}

// foldingCatalog matches scenes case-insensitively, the way a TAG index does.
type foldingCatalog struct {
	*mockCatalog
}

func (f foldingCatalog) FindByScene(_ context.Context, scene string) ([]image.Annotated, error) {
	if err := f.call("FindByScene"); err != nil {
		return nil, err
	}
	var out []image.Annotated
	for _, id := range f.order {
		if meta, ok := f.meta[id]; ok && strings.EqualFold(meta.Scene, scene) {
			out = append(out, f.annotated(id))
		}
	}
	return out, nil
}

func (m *mockCatalog) FindRecent(_ context.Context, limit int) ([]image.Record, error) {
	if err := m.call("FindRecent"); err != nil {
		return nil, err
	}
	var out []image.Record
	for _, id := range m.order {
		if len(out) == limit {
			break
		}
		out = append(out, m.records[id])
	}
	return out, nil
}

func (m *mockCatalog) FindMetadataByID(_ context.Context, id string) (*image.Metadata, error) {
	if err := m.call("FindMetadataByID"); err != nil {
		return nil, err
	}
	meta, ok := m.meta[id]
	if !ok {
		return nil, nil
	}
	cp := *meta
	return &cp, nil
}

func (m *mockCatalog) SearchMetadataByDescription(_ context.Context, keyword string) ([]image.Annotated, error) {
	if err := m.call("SearchMetadataByDescription"); err != nil {
		return nil, err
	}
	kw := strings.ToLower(keyword)
	var out []image.Annotated
	for _, id := range m.order {
		meta, ok := m.meta[id]
		if !ok {
			continue
		}
		if strings.Contains(strings.ToLower(meta.AIDescription), kw) ||
			strings.Contains(strings.ToLower(strings.Join(meta.AITags, ",")), kw) {
			out = append(out, m.annotated(id))
		}
	}
	return out, nil
}

// fixedSource always returns the same draw.
type fixedSource float64

func (f fixedSource) Float64() float64 { return float64(f) }

func newTestService(cat Catalog, draw float64) *Service {
	svc := New(cat, fixedSource(draw), DefaultConfig(), nil)
	svc.now = func() time.Time { return testNow }
	return svc
}

func mustRequest(t *testing.T, p request.Params) *request.Request {
	t.Helper()
	req, err := request.New(p)
	if err != nil {
		t.Fatalf("request.New: %v", err)
	}
	return &req
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func resultIDs(ids []string) []string {
	out := append([]string(nil), ids...)
	sort.Strings(out)
	return out
}
