package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/imgdex/internal/domain/search/result"
	searchuc "github.com/kailas-cloud/imgdex/internal/usecase/search"
)

// Catalog drivers.
const (
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// Describer providers. An empty provider disables describing.
const (
	ProviderOpenAI = "openai"
	ProviderStub   = "stub"
)

// Config holds the imgdex API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Cache     CacheConfig     `yaml:"cache"`
	Describer DescriberConfig `yaml:"describer"`
	Search    SearchConfig    `yaml:"search"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeoutSec  int      `yaml:"read_timeout_sec"`
	WriteTimeoutSec int      `yaml:"write_timeout_sec"`
	ShutdownSec     int      `yaml:"shutdown_timeout_sec"`
	CORSOrigins     []string `yaml:"cors_origins"`
}

// CatalogConfig selects and connects the catalog store.
type CatalogConfig struct {
	Driver      string         `yaml:"driver"` // redis, postgres (default: redis)
	Redis       RedisConfig    `yaml:"redis"`
	Postgres    PostgresConfig `yaml:"postgres"`
	SearchLimit int            `yaml:"search_limit"`
}

// RedisConfig holds Redis/Valkey connection settings.
type RedisConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"max_conns"`
}

// CacheConfig holds the Redis-backed metadata cache settings (postgres driver only).
type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
	TTLSec  int  `yaml:"ttl_sec"`
}

// DescriberConfig holds the metadata describer settings.
type DescriberConfig struct {
	Provider       string       `yaml:"provider"` // openai, stub, or empty to disable
	APIKey         string       `yaml:"api_key"`
	BaseURL        string       `yaml:"base_url"`
	Model          string       `yaml:"model"`
	MaxTokens      int          `yaml:"max_tokens"`
	StaleAfterDays int          `yaml:"stale_after_days"`
	Budget         BudgetConfig `yaml:"budget"`
}

// BudgetConfig holds token budget settings.
type BudgetConfig struct {
	DailyTokenLimit   int64  `yaml:"daily_token_limit"`   // 0 = unlimited
	MonthlyTokenLimit int64  `yaml:"monthly_token_limit"` // 0 = unlimited
	Action            string `yaml:"action"`              // "reject" | "warn" (default)
}

// Enabled reports whether any limit is set.
func (b BudgetConfig) Enabled() bool {
	return b.DailyTokenLimit > 0 || b.MonthlyTokenLimit > 0
}

// SearchConfig overrides the search engine defaults. Unset fields keep the defaults.
type SearchConfig struct {
	Seed               uint64             `yaml:"seed"` // 0 = random
	Weights            map[string]float64 `yaml:"weights"`
	Thresholds         *result.Thresholds `yaml:"thresholds"`
	SemanticJitter     *float64           `yaml:"semantic_jitter"`
	VisualJitter       *float64           `yaml:"visual_jitter"`
	ColorJitter        *float64           `yaml:"color_jitter"`
	ColorSampleSize    int                `yaml:"color_sample_size"`
	FallbackSampleSize int                `yaml:"fallback_sample_size"`
	StaleAfterDays     int                `yaml:"stale_after_days"`
}

// weightFields maps YAML weight names onto the engine weights.
func weightFields(w *searchuc.Weights) map[string]*float64 {
	return map[string]*float64{
		"description":              &w.Description,
		"tag":                      &w.Tag,
		"filename":                 &w.Filename,
		"metadata":                 &w.Metadata,
		"metadata_step":            &w.MetadataStep,
		"confidence_weight":        &w.ConfidenceWeight,
		"multi_signal_step":        &w.MultiSignalStep,
		"high_confidence_bonus":    &w.HighConfidenceBonus,
		"high_confidence_cutoff":   &w.HighConfidenceCutoff,
		"scene_bonus":              &w.SceneBonus,
		"max_bonus":                &w.MaxBonus,
		"missing_metadata":         &w.MissingMetadata,
		"stale_metadata":           &w.StaleMetadata,
		"low_ai_confidence":        &w.LowAIConfidence,
		"low_ai_confidence_cutoff": &w.LowAIConfidenceCutoff,
	}
}

// Engine builds the search engine configuration from the defaults plus overrides.
func (s SearchConfig) Engine() (searchuc.Config, error) {
	cfg := searchuc.DefaultConfig()

	fields := weightFields(&cfg.Weights)
	for name, v := range s.Weights {
		dst, ok := fields[name]
		if !ok {
			return searchuc.Config{}, fmt.Errorf("search.weights: unknown weight %q", name)
		}
		*dst = v
	}
	if s.Thresholds != nil {
		cfg.Thresholds = *s.Thresholds
	}
	if s.SemanticJitter != nil {
		cfg.SemanticJitter = *s.SemanticJitter
	}
	if s.VisualJitter != nil {
		cfg.VisualJitter = *s.VisualJitter
	}
	if s.ColorJitter != nil {
		cfg.ColorJitter = *s.ColorJitter
	}
	if s.ColorSampleSize > 0 {
		cfg.ColorSampleSize = s.ColorSampleSize
	}
	if s.FallbackSampleSize > 0 {
		cfg.FallbackSampleSize = s.FallbackSampleSize
	}
	if s.StaleAfterDays > 0 {
		cfg.StaleAfter = time.Duration(s.StaleAfterDays) * 24 * time.Hour
	}

	if err := cfg.Validate(); err != nil {
		return searchuc.Config{}, fmt.Errorf("search: %w", err)
	}
	return cfg, nil
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
// A .env file next to the working directory is loaded first when present.
func Load(env string) (Config, error) {
	if err := LoadDotEnv(".env"); err != nil {
		return Config{}, err
	}

	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadDotEnv loads variables from the given files, skipping missing ones.
// Variables already set in the environment win.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Catalog.Driver == "" {
		c.Catalog.Driver = DriverRedis
	}
	if c.Catalog.Redis.ReadinessTimeout <= 0 {
		c.Catalog.Redis.ReadinessTimeout = 10
	}
	if c.Catalog.Postgres.MaxConns <= 0 {
		c.Catalog.Postgres.MaxConns = 10
	}
	if c.Catalog.SearchLimit <= 0 {
		c.Catalog.SearchLimit = 1000
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 600
	}
	if c.Describer.Provider == ProviderOpenAI && c.Describer.Model == "" {
		c.Describer.Model = "gpt-4o-mini"
	}
	if c.Describer.MaxTokens <= 0 {
		c.Describer.MaxTokens = 400
	}
	if c.Describer.StaleAfterDays <= 0 {
		c.Describer.StaleAfterDays = 90
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch c.Catalog.Driver {
	case DriverRedis:
		if len(c.Catalog.Redis.Addrs) == 0 {
			return fmt.Errorf("catalog.redis.addrs is required")
		}
	case DriverPostgres:
		if c.Catalog.Postgres.DSN == "" {
			return fmt.Errorf("catalog.postgres.dsn is required")
		}
		if c.Cache.Enabled && len(c.Catalog.Redis.Addrs) == 0 {
			return fmt.Errorf("cache.enabled requires catalog.redis.addrs")
		}
	default:
		return fmt.Errorf("catalog.driver must be %q or %q, got %q", DriverRedis, DriverPostgres, c.Catalog.Driver)
	}

	switch c.Describer.Provider {
	case "", ProviderStub:
	case ProviderOpenAI:
		if c.Describer.APIKey == "" {
			return fmt.Errorf("describer.api_key is required for provider %q", ProviderOpenAI)
		}
	default:
		return fmt.Errorf("describer.provider must be %q, %q or empty, got %q",
			ProviderOpenAI, ProviderStub, c.Describer.Provider)
	}

	switch c.Describer.Budget.Action {
	case "", "warn", "reject":
		// ok
	default:
		return fmt.Errorf(
			"describer.budget.action must be \"warn\" or \"reject\", got %q",
			c.Describer.Budget.Action,
		)
	}

	if _, err := c.Search.Engine(); err != nil {
		return err
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
