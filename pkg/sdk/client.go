package imgdex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/imgdex/internal/bootstrap"
	"github.com/kailas-cloud/imgdex/internal/config"
	"github.com/kailas-cloud/imgdex/internal/domain"
	dombatch "github.com/kailas-cloud/imgdex/internal/domain/batch"
	"github.com/kailas-cloud/imgdex/internal/domain/image"
	"github.com/kailas-cloud/imgdex/internal/domain/search/request"
	"github.com/kailas-cloud/imgdex/internal/domain/search/result"
	batchuc "github.com/kailas-cloud/imgdex/internal/usecase/batch"
	describeuc "github.com/kailas-cloud/imgdex/internal/usecase/describe"
	healthuc "github.com/kailas-cloud/imgdex/internal/usecase/health"
	searchuc "github.com/kailas-cloud/imgdex/internal/usecase/search"
)

const defaultStaleAfter = 90 * 24 * time.Hour

// Internal interfaces, swapped for fakes in tests.
type searchUseCase interface {
	Search(ctx context.Context, req *request.Request) (*result.Response, error)
}

type describeUseCase interface {
	Describe(ctx context.Context, id string, force bool) (describeuc.Outcome, error)
}

type batchUseCase interface {
	Import(ctx context.Context, recs []image.Record, mds []image.Metadata) []dombatch.Result
	Remove(ctx context.Context, ids []string) []dombatch.Result
}

// Client is the imgdex SDK entry point.
type Client struct {
	stores      *bootstrap.Stores
	searchSvc   searchUseCase
	describeSvc describeUseCase // nil without WithDescriber
	batchSvc    batchUseCase
	healthSvc   healthUseCase
	prepare     func(ctx context.Context) error
	obs         *observer
}

// New creates a Client and connects to the catalog.
// The provided context bounds the initial connection checks.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{staleAfter: defaultStaleAfter}
	for _, o := range opts {
		o.apply(cfg)
	}

	appCfg, err := buildConfig(cfg)
	if err != nil {
		return nil, err
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	// SDK logs go through slog via the observer; the internal zap logger stays silent.
	logger := zap.NewNop()

	stores, err := bootstrap.OpenStores(ctx, &appCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("imgdex: open catalog: %w", err)
	}

	client, err := wireClient(stores, &appCfg, cfg, obs, logger)
	if err != nil {
		stores.Close()
		return nil, err
	}
	return client, nil
}

func buildConfig(cfg *clientConfig) (config.Config, error) {
	var c config.Config
	switch cfg.driver {
	case config.DriverRedis:
		if len(cfg.redisAddrs) == 0 {
			return c, errors.New("imgdex: redis address required")
		}
	case config.DriverPostgres:
		if cfg.postgresDSN == "" {
			return c, errors.New("imgdex: postgres dsn required")
		}
		if cfg.cacheTTL > 0 && len(cfg.redisAddrs) == 0 {
			return c, errors.New("imgdex: metadata cache requires WithRedis")
		}
	default:
		return c, errors.New("imgdex: catalog required (use WithRedis or WithPostgres)")
	}

	c.Catalog.Driver = cfg.driver
	c.Catalog.Redis.Addrs = cfg.redisAddrs
	c.Catalog.Redis.Password = cfg.redisPassword
	c.Catalog.Postgres.DSN = cfg.postgresDSN
	if cfg.cacheTTL > 0 && cfg.driver == config.DriverPostgres {
		c.Cache.Enabled = true
		c.Cache.TTLSec = int(cfg.cacheTTL / time.Second)
	}
	c.Search.Seed = cfg.seed
	c.ApplyDefaults()
	return c, nil
}

func wireClient(
	stores *bootstrap.Stores, appCfg *config.Config, cfg *clientConfig, obs *observer, logger *zap.Logger,
) (*Client, error) {
	engine, err := appCfg.Search.Engine()
	if err != nil {
		return nil, fmt.Errorf("imgdex: search config: %w", err)
	}

	searchSvc := searchuc.New(stores.Reader, searchuc.NewRandomSource(appCfg.Search.Seed), engine, logger)

	batchSvc := batchuc.New(stores.Catalog, stores.Writer, stores.Catalog, logger)
	if cfg.maxBatchSize > 0 {
		batchSvc = batchSvc.WithMaxBatchSize(cfg.maxBatchSize)
	}
	if stores.Cache != nil {
		batchSvc = batchSvc.WithCache(stores.Cache)
	}

	// Pass nil interfaces (not typed nil pointers) when no describer is set.
	var describeSvc describeUseCase
	var describerCheck healthuc.DescriberChecker
	if cfg.describer != nil {
		adapter := &describerAdapter{inner: cfg.describer}
		describeSvc = describeuc.New(stores.Reader, stores.Writer, adapter, cfg.staleAfter, logger)
		describerCheck = adapter
	}

	healthSvc := healthuc.New(stores.CatalogPinger, describerCheck)
	if stores.Cache != nil && stores.KV != nil {
		healthSvc = healthSvc.WithCache(stores.KV)
	}

	return &Client{
		stores:      stores,
		searchSvc:   searchSvc,
		describeSvc: describeSvc,
		batchSvc:    batchSvc,
		healthSvc:   healthSvc,
		prepare:     stores.Prepare,
		obs:         obs,
	}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.stores != nil {
		c.stores.Close()
	}
}

// Images returns the catalog management service.
func (c *Client) Images() *ImageService {
	return &ImageService{svc: c.batchSvc, prepare: c.prepare, obs: c.obs}
}

// Describe returns AI metadata for an image, generating it when absent,
// stale, or when force is set. generated reports whether the describer ran.
func (c *Client) Describe(ctx context.Context, id string, force bool) (md *Metadata, generated bool, err error) {
	start := time.Now()
	defer func() { c.obs.observe("describe", start, err) }()

	if c.describeSvc == nil {
		return nil, false, fmt.Errorf("describe: %w", domain.ErrNotImplemented)
	}
	out, err := c.describeSvc.Describe(ctx, id, force)
	if err != nil {
		return nil, false, fmt.Errorf("describe %s: %w", id, err)
	}
	return metadataFromDomain(out.Metadata), out.Generated, nil
}
