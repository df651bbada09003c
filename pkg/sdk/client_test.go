package imgdex

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/imgdex/internal/config"
)

func TestBuildConfig(t *testing.T) {
	tests := []struct {
		name    string
		opts    []Option
		wantErr string
		check   func(t *testing.T, c config.Config)
	}{
		{
			name:    "no catalog",
			wantErr: "catalog required",
		},
		{
			name: "redis",
			opts: []Option{WithRedis("localhost:6379", "secret"), WithSeed(42)},
			check: func(t *testing.T, c config.Config) {
				if c.Catalog.Driver != config.DriverRedis || c.Catalog.Redis.Password != "secret" {
					t.Errorf("catalog = %+v", c.Catalog)
				}
				if c.Search.Seed != 42 || c.Catalog.SearchLimit == 0 {
					t.Errorf("defaults not applied: seed=%d limit=%d", c.Search.Seed, c.Catalog.SearchLimit)
				}
				if c.Cache.Enabled {
					t.Error("cache must stay off for the redis catalog")
				}
			},
		},
		{
			name: "postgres with cache",
			opts: []Option{
				WithRedis("localhost:6379", ""),
				WithPostgres("postgres://localhost/imgdex"),
				WithMetadataCache(2 * time.Minute),
			},
			check: func(t *testing.T, c config.Config) {
				if c.Catalog.Driver != config.DriverPostgres {
					t.Errorf("driver = %q", c.Catalog.Driver)
				}
				if !c.Cache.Enabled || c.Cache.TTLSec != 120 {
					t.Errorf("cache = %+v", c.Cache)
				}
			},
		},
		{
			name: "postgres before redis keeps postgres",
			opts: []Option{WithPostgres("postgres://localhost/imgdex"), WithRedis("localhost:6379", "")},
			check: func(t *testing.T, c config.Config) {
				if c.Catalog.Driver != config.DriverPostgres {
					t.Errorf("driver = %q", c.Catalog.Driver)
				}
			},
		},
		{
			name:    "postgres without dsn",
			opts:    []Option{WithPostgres("")},
			wantErr: "dsn required",
		},
		{
			name:    "cache without redis",
			opts:    []Option{WithPostgres("postgres://localhost/imgdex"), WithMetadataCache(time.Minute)},
			wantErr: "requires WithRedis",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &clientConfig{}
			for _, o := range tt.opts {
				o.apply(cfg)
			}
			c, err := buildConfig(cfg)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.check(t, c)
		})
	}
}

func TestNew_RequiresCatalog(t *testing.T) {
	_, err := New(context.Background())
	if err == nil || !strings.Contains(err.Error(), "catalog required") {
		t.Fatalf("expected catalog error, got %v", err)
	}
}

func TestOptions(t *testing.T) {
	d := &fakeDescriber{}
	reg := prometheus.NewRegistry()
	cfg := &clientConfig{}
	for _, o := range []Option{
		WithDescriber(d), WithStaleAfter(time.Hour), WithMaxBatchSize(7), WithPrometheus(reg),
	} {
		o.apply(cfg)
	}
	if cfg.describer != d || cfg.staleAfter != time.Hour || cfg.maxBatchSize != 7 || cfg.metricsReg != reg {
		t.Errorf("options not applied: %+v", cfg)
	}
}

func TestClose_NilStores(t *testing.T) {
	(&Client{}).Close()
}

// --- observer ---

func TestObserver_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("newObserver: %v", err)
	}

	start := time.Now()
	obs.observe("import", start, nil)
	obs.observe("import", start, errors.New("boom"))
	obs.observeSearch("search", start, &Response{Quality: "GOOD", Results: make([]Result, 3)}, nil)
	obs.observeSearch("similar", start, nil, errors.New("not found"))

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"imgdex_sdk_operations_total",
		"imgdex_sdk_operation_duration_seconds",
		"imgdex_sdk_search_results",
	} {
		if !names[want] {
			t.Errorf("metric %s not gathered", want)
		}
	}
}

func TestObserver_ReusesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := newObserver(nil, reg); err != nil {
		t.Fatalf("first observer: %v", err)
	}
	if _, err := newObserver(nil, reg); err != nil {
		t.Fatalf("second observer on same registry: %v", err)
	}
}

func TestObserver_LogsFailures(t *testing.T) {
	var buf bytes.Buffer
	obs, err := newObserver(slog.New(slog.NewTextHandler(&buf, nil)), nil)
	if err != nil {
		t.Fatalf("newObserver: %v", err)
	}

	obs.observe("import", time.Now(), nil)
	obs.observe("remove", time.Now(), errors.New("boom"))

	out := buf.String()
	if strings.Contains(out, "op=import") {
		t.Errorf("debug entry logged at default level: %s", out)
	}
	if !strings.Contains(out, "op=remove") || !strings.Contains(out, "error=boom") {
		t.Errorf("failure not logged: %s", out)
	}
}

func TestObserver_Nil(t *testing.T) {
	var obs *observer
	obs.observe("search", time.Now(), nil)
	obs.observeSearch("similar", time.Now(), &Response{}, nil)
}

// --- describer adapter ---

type fakeDescriber struct {
	got       Image
	err       error
	healthErr error
}

func (f *fakeDescriber) Describe(_ context.Context, img Image) (Description, error) {
	f.got = img
	if f.err != nil {
		return Description{}, f.err
	}
	return Description{
		Metadata:    Metadata{Description: "a cat on a sofa", Tags: []string{"cat"}, Scene: "indoor", Confidence: 0.8},
		TotalTokens: 120,
	}, nil
}

func (f *fakeDescriber) HealthCheck(context.Context) error { return f.healthErr }

func TestDescriberAdapter(t *testing.T) {
	fd := &fakeDescriber{}
	a := &describerAdapter{inner: fd}

	res, err := a.Describe(context.Background(), imageRecordFixture())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fd.got.ID != "cat-1" || len(fd.got.Tags) != 2 {
		t.Errorf("describer saw %+v", fd.got)
	}
	if res.Metadata.ImageID != "cat-1" || res.Metadata.AIDescription != "a cat on a sofa" || res.TotalTokens != 120 {
		t.Errorf("result = %+v", res)
	}

	fd.healthErr = errors.New("quota")
	if err := a.HealthCheck(context.Background()); err == nil {
		t.Error("expected health error")
	}

	fd.err = errors.New("vision down")
	if _, err := a.Describe(context.Background(), imageRecordFixture()); err == nil {
		t.Error("expected describe error")
	}
}
