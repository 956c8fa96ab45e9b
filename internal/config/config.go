// Package config loads server configuration from an optional YAML file and the environment.
// Environment variables take precedence over file values.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Store drivers
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	// Server
	Port        int      `koanf:"port"`
	Env         string   `koanf:"env"`
	CORSOrigins []string `koanf:"cors_origins"`

	// Storage
	StoreDriver string `koanf:"store_driver"`
	DatabaseURL string `koanf:"database_url"`
	RedisURL    string `koanf:"redis_url"`

	// Places provider
	GoogleMapsAPIKey  string        `koanf:"google_maps_api_key"`
	ProviderTimeout   time.Duration `koanf:"provider_timeout"`
	ProviderRateLimit int           `koanf:"provider_rate_limit"`

	// Search behaviour
	SearchKeyword        string        `koanf:"search_keyword"`
	SearchCategory       string        `koanf:"search_category"`
	SearchCacheTTL       time.Duration `koanf:"search_cache_ttl"`
	DefaultRadiusMeters  int           `koanf:"default_radius_meters"`
	BackfillConcurrency  int           `koanf:"backfill_concurrency"`
	CacheJanitorInterval time.Duration `koanf:"cache_janitor_interval"`

	// Request rate limiting per client IP
	RateLimitPerMinute int `koanf:"rate_limit_per_minute"`
}

// Configuration validation errors.
var (
	ErrMissingDatabaseURL      = errors.New("DATABASE_URL (or DB_HOST/DB_USER/DB_PASSWORD/DB_NAME/DB_PORT) is required")
	ErrMissingGoogleMapsAPIKey = errors.New("GOOGLE_MAPS_API_KEY is required")
	ErrInvalidStoreDriver      = errors.New("STORE_DRIVER must be postgres or memory")
	ErrInvalidSearchCacheTTL   = errors.New("SEARCH_CACHE_TTL must be positive")
	ErrInvalidRadius           = errors.New("DEFAULT_RADIUS_METERS must be between 1 and 50000")
	ErrInvalidConcurrency      = errors.New("BACKFILL_CONCURRENCY must be positive")
)

const (
	DefaultPort                 = 8080
	DefaultEnv                  = "development"
	DefaultStoreDriver          = StoreDriverPostgres
	DefaultProviderTimeout      = 5 * time.Second
	DefaultProviderRateLimit    = 10
	DefaultSearchKeyword        = "matcha"
	DefaultSearchCategory       = "cafe"
	DefaultSearchCacheTTL       = time.Hour
	DefaultRadiusMeters         = 3000
	DefaultBackfillConcurrency  = 5
	DefaultCacheJanitorInterval = 15 * time.Minute
	DefaultRateLimitPerMinute   = 120
)

// Load reads configuration from a .env file (if present), an optional YAML file and the
// environment. It returns the config together with every validation problem found.
func Load(configFilePath string) (*Config, []error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	k := koanf.New(".")
	if configFilePath != "" {
		if err := k.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
			return nil, []error{fmt.Errorf("failed to load config file %s: %w", configFilePath, err)}
		}
	}

	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	port, err := getEnvInt("PORT", k.Int("port"), DefaultPort)
	collect(err)
	providerRate, err := getEnvInt("PROVIDER_RATE_LIMIT", k.Int("provider_rate_limit"), DefaultProviderRateLimit)
	collect(err)
	radius, err := getEnvInt("DEFAULT_RADIUS_METERS", k.Int("default_radius_meters"), DefaultRadiusMeters)
	collect(err)
	concurrency, err := getEnvInt("BACKFILL_CONCURRENCY", k.Int("backfill_concurrency"), DefaultBackfillConcurrency)
	collect(err)
	rateLimit, err := getEnvInt("RATE_LIMIT_PER_MINUTE", k.Int("rate_limit_per_minute"), DefaultRateLimitPerMinute)
	collect(err)
	providerTimeout, err := getEnvDuration("PROVIDER_TIMEOUT", k.Duration("provider_timeout"), DefaultProviderTimeout)
	collect(err)
	cacheTTL, err := getEnvDuration("SEARCH_CACHE_TTL", k.Duration("search_cache_ttl"), DefaultSearchCacheTTL)
	collect(err)
	janitorInterval, err := getEnvDuration("CACHE_JANITOR_INTERVAL", k.Duration("cache_janitor_interval"), DefaultCacheJanitorInterval)
	collect(err)

	origins := k.Strings("cors_origins")
	if val := os.Getenv("CORS_ORIGINS"); val != "" {
		origins = splitList(val)
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	cfg := &Config{
		Port:                 port,
		Env:                  getEnvOrDefault("ENV", k.String("env"), DefaultEnv),
		CORSOrigins:          origins,
		StoreDriver:          getEnvOrDefault("STORE_DRIVER", k.String("store_driver"), DefaultStoreDriver),
		DatabaseURL:          databaseURL(k.String("database_url")),
		RedisURL:             getEnvOrDefault("REDIS_URL", k.String("redis_url"), ""),
		GoogleMapsAPIKey:     getEnvOrDefault("GOOGLE_MAPS_API_KEY", k.String("google_maps_api_key"), ""),
		ProviderTimeout:      providerTimeout,
		ProviderRateLimit:    providerRate,
		SearchKeyword:        getEnvOrDefault("SEARCH_KEYWORD", k.String("search_keyword"), DefaultSearchKeyword),
		SearchCategory:       getEnvOrDefault("SEARCH_CATEGORY", k.String("search_category"), DefaultSearchCategory),
		SearchCacheTTL:       cacheTTL,
		DefaultRadiusMeters:  radius,
		BackfillConcurrency:  concurrency,
		CacheJanitorInterval: janitorInterval,
		RateLimitPerMinute:   rateLimit,
	}

	errs = append(errs, cfg.Validate()...)
	return cfg, errs
}

// Validate checks the configuration and returns every problem found.
func (c *Config) Validate() []error {
	var errs []error

	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, ErrMissingDatabaseURL)
		}
	case StoreDriverMemory:
	default:
		errs = append(errs, ErrInvalidStoreDriver)
	}

	if c.GoogleMapsAPIKey == "" {
		errs = append(errs, ErrMissingGoogleMapsAPIKey)
	}
	if c.SearchCacheTTL <= 0 {
		errs = append(errs, ErrInvalidSearchCacheTTL)
	}
	if c.DefaultRadiusMeters < 1 || c.DefaultRadiusMeters > 50000 {
		errs = append(errs, ErrInvalidRadius)
	}
	if c.BackfillConcurrency < 1 {
		errs = append(errs, ErrInvalidConcurrency)
	}

	return errs
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// databaseURL returns DATABASE_URL, the file value, or a DSN built from individual DB_* variables.
func databaseURL(fileValue string) string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	if fileValue != "" {
		return fileValue
	}

	host := os.Getenv("DB_HOST")
	user := os.Getenv("DB_USER")
	password := os.Getenv("DB_PASSWORD")
	dbname := os.Getenv("DB_NAME")
	port := os.Getenv("DB_PORT")
	if host == "" || user == "" || dbname == "" || port == "" {
		return ""
	}
	sslMode := os.Getenv("DB_SSL_MODE")
	if sslMode == "" {
		sslMode = "disable" // Default to disable for local development
	}

	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC connect_timeout=10",
		host, user, password, dbname, port, sslMode)
}

func getEnvOrDefault(envKey, koanfVal, defaultVal string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	if koanfVal != "" {
		return koanfVal
	}
	return defaultVal
}

func getEnvInt(envKey string, koanfVal, defaultVal int) (int, error) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return defaultVal, fmt.Errorf("%s must be a valid integer: %w", envKey, err)
		}
		return parsed, nil
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

func getEnvDuration(envKey string, koanfVal, defaultVal time.Duration) (time.Duration, error) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := time.ParseDuration(val)
		if err != nil {
			return defaultVal, fmt.Errorf("%s must be a valid duration: %w", envKey, err)
		}
		return parsed, nil
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
