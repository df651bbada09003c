package imgdex

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver        string // "redis" or "postgres"
	redisAddrs    []string
	redisPassword string
	postgresDSN   string

	cacheTTL time.Duration

	describer  Describer
	staleAfter time.Duration

	seed         uint64
	maxBatchSize int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithRedis stores the catalog in Redis (or Valkey) with the search module.
// Combined with WithPostgres the Redis instance only backs the metadata cache.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		if c.driver == "" {
			c.driver = "redis"
		}
		c.redisAddrs = []string{addr}
		c.redisPassword = password
	})
}

// WithPostgres stores the catalog in PostgreSQL.
func WithPostgres(dsn string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "postgres"
		c.postgresDSN = dsn
	})
}

// WithMetadataCache caches metadata lookups in Redis for ttl.
// Only applies to the postgres catalog; requires WithRedis.
func WithMetadataCache(ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheTTL = ttl
	})
}

// WithDescriber enables AI metadata generation.
// Without it Describe returns ErrDescriberNotConfigured.
func WithDescriber(d Describer) Option {
	return optionFunc(func(c *clientConfig) {
		c.describer = d
	})
}

// WithStaleAfter sets the age after which Describe regenerates metadata.
// Default: 90 days.
func WithStaleAfter(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.staleAfter = d
	})
}

// WithSeed fixes the random source used for score jitter. 0 seeds from the clock.
func WithSeed(seed uint64) Option {
	return optionFunc(func(c *clientConfig) {
		c.seed = seed
	})
}

// WithMaxBatchSize sets the maximum number of images per Import or Remove call.
// Default: 500.
func WithMaxBatchSize(size int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxBatchSize = size
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
