package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/imgdex/internal/domain"
	"github.com/kailas-cloud/imgdex/internal/domain/image"
	describeuc "github.com/kailas-cloud/imgdex/internal/usecase/describe"
	healthuc "github.com/kailas-cloud/imgdex/internal/usecase/health"
	searchuc "github.com/kailas-cloud/imgdex/internal/usecase/search"
	usageuc "github.com/kailas-cloud/imgdex/internal/usecase/usage"
)

// fakeCatalog is an in-memory catalog serving both search and describe.
type fakeCatalog struct {
	records map[string]image.Record
	meta    map[string]*image.Metadata
	order   []string
	err     error
	descErr error // SearchMetadataByDescription only
	saved   []image.Metadata
}

func newFakeCatalog() *fakeCatalog {
	c := &fakeCatalog{records: map[string]image.Record{}, meta: map[string]*image.Metadata{}}
	c.add(image.Record{
		ID: "beach-1", URL: "https://cdn.example.com/beach-1.jpg", OriginalFilename: "sunny_beach.jpg",
		Description: "Sunny beach with palm trees", Tags: "beach, blue, summer",
		Format: "jpeg", Resolution: "hd", Orientation: "landscape", Category: "nature",
		CreatedAt: time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
	}, &image.Metadata{
		AIDescription: "a sandy beach with palm trees and blue water", AITags: []string{"beach", "palm"},
		Scene: "beach", Confidence: 0.9, ProcessedAt: time.Now().Add(-24 * time.Hour),
	})
	c.add(image.Record{
		ID: "beach-2", URL: "https://cdn.example.com/beach-2.jpg",
		Description: "Evening beach", Tags: "beach, sunset",
		Format: "png", Orientation: "landscape", Category: "nature",
	}, &image.Metadata{
		AIDescription: "a beach at sunset", AITags: []string{"sunset"},
		Scene: "beach", Confidence: 0.8, ProcessedAt: time.Now().Add(-24 * time.Hour),
	})
	c.add(image.Record{
		ID: "city-1", URL: "https://cdn.example.com/city-1.jpg",
		Description: "Downtown at night", Tags: "city, lights",
	}, nil)
	return c
}

func (c *fakeCatalog) add(rec image.Record, md *image.Metadata) {
	if rec.Status == "" {
		rec.Status = image.StatusActive
	}
	c.records[rec.ID] = rec
	c.order = append(c.order, rec.ID)
	if md != nil {
		md.ImageID = rec.ID
		c.meta[rec.ID] = md
	}
}

func (c *fakeCatalog) annotated(id string) image.Annotated {
	a := image.Annotated{Record: c.records[id]}
	if md, ok := c.meta[id]; ok {
		cp := *md
		a.Metadata = &cp
	}
	return a
}

func (c *fakeCatalog) FindActiveByID(_ context.Context, id string) (image.Record, error) {
	if c.err != nil {
		return image.Record{}, c.err
	}
	rec, ok := c.records[id]
	if !ok || !rec.IsActive() {
		return image.Record{}, fmt.Errorf("image %q: %w", id, domain.ErrImageNotFound)
	}
	return rec, nil
}

func (c *fakeCatalog) FindByScene(_ context.Context, scene string) ([]image.Annotated, error) {
	if c.err != nil {
		return nil, c.err
	}
	var out []image.Annotated
	for _, id := range c.order {
		if md, ok := c.meta[id]; ok && md.Scene == scene {
			out = append(out, c.annotated(id))
		}
	}
	return out, nil
}

func (c *fakeCatalog) FindRecent(_ context.Context, limit int) ([]image.Record, error) {
	if c.err != nil {
		return nil, c.err
	}
	var out []image.Record
	for _, id := range c.order {
		if len(out) == limit {
			break
		}
		out = append(out, c.records[id])
	}
	return out, nil
}

func (c *fakeCatalog) FindMetadataByID(_ context.Context, id string) (*image.Metadata, error) {
	if c.err != nil {
		return nil, c.err
	}
	md, ok := c.meta[id]
	if !ok {
		return nil, nil
	}
	cp := *md
	return &cp, nil
}

func (c *fakeCatalog) SearchMetadataByDescription(_ context.Context, keyword string) ([]image.Annotated, error) {
	if c.err != nil {
		return nil, c.err
	}
	if c.descErr != nil {
		return nil, c.descErr
	}
	var out []image.Annotated
	kw := strings.ToLower(keyword)
	for _, id := range c.order {
		md, ok := c.meta[id]
		if !ok {
			continue
		}
		if strings.Contains(strings.ToLower(md.AIDescription), kw) ||
			strings.Contains(strings.ToLower(strings.Join(md.AITags, ",")), kw) {
			out = append(out, c.annotated(id))
		}
	}
	return out, nil
}

func (c *fakeCatalog) SaveMetadata(_ context.Context, md *image.Metadata) error {
	cp := *md
	c.saved = append(c.saved, cp)
	c.meta[md.ImageID] = &cp
	return nil
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(_ context.Context) error { return p.err }

type failingDescriber struct{ err error }

func (d failingDescriber) Describe(_ context.Context, _ image.Record) (domain.DescribeResult, error) {
	return domain.DescribeResult{}, d.err
}

// tokenDescriber reports a fixed token count per call.
type tokenDescriber struct{ tokens int }

func (d tokenDescriber) Describe(_ context.Context, rec image.Record) (domain.DescribeResult, error) {
	return domain.DescribeResult{
		Metadata:    image.Metadata{AIDescription: "described " + rec.ID, Scene: "city", Confidence: 0.7},
		TotalTokens: d.tokens,
	}, nil
}

type testEnv struct {
	catalog *fakeCatalog
	router  http.Handler
}

type envOption func(*envConfig)

type envConfig struct {
	describer domain.Describer
	pinger    fakePinger
}

func withDescriber(d domain.Describer) envOption {
	return func(c *envConfig) { c.describer = d }
}

func withPingError(err error) envOption {
	return func(c *envConfig) { c.pinger = fakePinger{err: err} }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	cfg := envConfig{describer: describeuc.StubDescriber{}}
	for _, o := range opts {
		o(&cfg)
	}

	catalog := newFakeCatalog()
	logger := zap.NewNop()
	searchSvc := searchuc.New(catalog, searchuc.NewRandomSource(7), searchuc.DefaultConfig(), logger)
	describeSvc := describeuc.New(catalog, catalog, cfg.describer, 0, logger)
	usageSvc := usageuc.New(nil, "stub")
	healthSvc := healthuc.New(cfg.pinger, nil)

	r := chi.NewRouter()
	NewServer(searchSvc, describeSvc, usageSvc, healthSvc, logger).Routes(r)
	return &testEnv{catalog: catalog, router: r}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rr.Body.String())
	}
	return v
}

var errBoom = errors.New("boom")
