// Package bootstrap assembles stores and providers from configuration.
// It is the shared composition root of the imgdex binaries.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/kailas-cloud/imgdex/internal/config"
	"github.com/kailas-cloud/imgdex/internal/db"
	dbRedis "github.com/kailas-cloud/imgdex/internal/db/redis"
	"github.com/kailas-cloud/imgdex/internal/domain"
	"github.com/kailas-cloud/imgdex/internal/domain/image"
	"github.com/kailas-cloud/imgdex/internal/metrics"
	budgetrepo "github.com/kailas-cloud/imgdex/internal/repository/budget"
	catalogrepo "github.com/kailas-cloud/imgdex/internal/repository/catalog"
	"github.com/kailas-cloud/imgdex/internal/repository/metacache"
	"github.com/kailas-cloud/imgdex/internal/repository/pgcatalog"
	openaiDesc "github.com/kailas-cloud/imgdex/internal/transport/openai"
	describeuc "github.com/kailas-cloud/imgdex/internal/usecase/describe"
	searchuc "github.com/kailas-cloud/imgdex/internal/usecase/search"
)

// Catalog is the full read/write surface both catalog drivers provide.
type Catalog interface {
	searchuc.Catalog
	SaveImage(ctx context.Context, rec *image.Record) error
	SaveImages(ctx context.Context, recs []image.Record) error
	SaveMetadata(ctx context.Context, md *image.Metadata) error
	RemoveImage(ctx context.Context, id string) error
}

// Stores holds the opened catalog and its supporting stores.
type Stores struct {
	// Catalog is the raw driver repository.
	Catalog Catalog
	// Reader serves search and describe reads; it is the metadata cache when enabled.
	Reader searchuc.Catalog
	// Writer persists generated metadata, refreshing the cache when enabled.
	Writer describeuc.Writer
	// KV is the Redis store, nil when postgres runs without the cache.
	KV db.Store
	// Cache is set when the metadata cache fronts the catalog.
	Cache *metacache.CachedCatalog
	// CatalogPinger checks the primary catalog store.
	CatalogPinger interface{ Ping(ctx context.Context) error }

	prepare func(ctx context.Context) error
	closers []func()
}

// Prepare creates the search index (redis) or schema (postgres).
func (s *Stores) Prepare(ctx context.Context) error {
	return s.prepare(ctx)
}

// Close releases every connection in reverse open order.
func (s *Stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// OpenStores connects the configured catalog driver and, when needed, Redis.
func OpenStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Stores, error) {
	s := &Stores{}

	needRedis := cfg.Catalog.Driver == config.DriverRedis || cfg.Cache.Enabled ||
		(cfg.Describer.Budget.Enabled() && len(cfg.Catalog.Redis.Addrs) > 0)
	if needRedis {
		kv, err := openRedis(ctx, cfg.Catalog.Redis)
		if err != nil {
			return nil, err
		}
		s.KV = kv
		s.closers = append(s.closers, kv.Close)
		logger.Info("Connected to redis", zap.Strings("addrs", cfg.Catalog.Redis.Addrs))
	}

	switch cfg.Catalog.Driver {
	case config.DriverRedis:
		repo := catalogrepo.New(s.KV).WithSearchLimit(cfg.Catalog.SearchLimit)
		s.Catalog = repo
		s.CatalogPinger = s.KV
		s.prepare = repo.EnsureIndex
	case config.DriverPostgres:
		pool, err := openPostgres(ctx, cfg.Catalog.Postgres)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.closers = append(s.closers, pool.Close)
		logger.Info("Connected to postgres")

		repo := pgcatalog.New(pool).WithSearchLimit(cfg.Catalog.SearchLimit)
		s.Catalog = repo
		s.CatalogPinger = pool
		s.prepare = repo.EnsureSchema
	default:
		s.Close()
		return nil, fmt.Errorf("unknown catalog driver %q", cfg.Catalog.Driver)
	}

	s.Reader = s.Catalog
	s.Writer = s.Catalog
	if cfg.Cache.Enabled && cfg.Catalog.Driver == config.DriverPostgres {
		s.Cache = metacache.New(s.Catalog, s.KV,
			time.Duration(cfg.Cache.TTLSec)*time.Second, metrics.MetadataCacheTotal, logger)
		s.Reader = s.Cache
		s.Writer = s.Cache
	}

	return s, nil
}

func openRedis(ctx context.Context, cfg config.RedisConfig) (*dbRedis.Store, error) {
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Addrs,
		Password: cfg.Password,
		Observer: metrics.ObserveStoreCommand,
	})
	if err != nil {
		return nil, fmt.Errorf("create redis store: %w", err)
	}
	if err := store.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("redis not ready: %w", err)
	}
	return store, nil
}

func openPostgres(ctx context.Context, cfg config.PostgresConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres not ready: %w", err)
	}
	return pool, nil
}

// Describer is the assembled describer chain plus its shared budget.
type Describer struct {
	domain.Describer
	// Budget is nil when no limits are configured.
	Budget *describeuc.TokenBudget
	Model  string
}

// BuildDescriber assembles the decorator chain: provider -> Instrumented (budget + logging).
// It returns nil when no provider is configured. kv may be nil; the budget then lives in memory.
func BuildDescriber(ctx context.Context, cfg config.DescriberConfig, kv db.KVStore, logger *zap.Logger) *Describer {
	var base domain.Describer
	model := cfg.Model
	switch cfg.Provider {
	case config.ProviderOpenAI:
		base = openaiDesc.NewDescriber(&openaiDesc.Config{
			APIKey:    cfg.APIKey,
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			MaxTokens: cfg.MaxTokens,
			Provider:  cfg.Provider,
			Logger:    logger,
		})
	case config.ProviderStub:
		base = describeuc.StubDescriber{}
		model = "stub"
	default:
		return nil
	}

	metrics.RegisterDescriberMetrics()

	var budget *describeuc.TokenBudget
	if cfg.Budget.Enabled() {
		action := describeuc.BudgetActionWarn
		if cfg.Budget.Action == "reject" {
			action = describeuc.BudgetActionReject
		}
		budget = describeuc.NewTokenBudget(
			cfg.Provider, cfg.Budget.DailyTokenLimit, cfg.Budget.MonthlyTokenLimit, action, logger,
		)
		if kv != nil {
			budget.WithStore(ctx, budgetrepo.New(kv, budgetrepo.DefaultDailyTTL, budgetrepo.DefaultMonthlyTTL))
		}
	}

	// Pass nil interface (not typed nil pointer!) if budget is not configured.
	var checker describeuc.BudgetChecker
	if budget != nil {
		checker = budget
	}

	return &Describer{
		Describer: describeuc.NewInstrumentedDescriber(base, cfg.Provider, model, checker, logger),
		Budget:    budget,
		Model:     model,
	}
}

// HealthCheck forwards to the provider when it supports health checks.
func (d *Describer) HealthCheck(ctx context.Context) error {
	if hc, ok := d.Describer.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("describer health check: %w", err)
		}
	}
	return nil
}
