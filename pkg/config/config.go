// Package config loads engine configuration from environment
// variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/platinummonkey/fedsearch/pkg/search"
)

// Config holds all application configuration.
type Config struct {
	// Server configuration
	Server ServerConfig

	// Redis configuration (search history persistence)
	Redis RedisConfig

	// Search pipeline tuning
	Search SearchConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// RedisConfig holds the key-value store configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// SearchConfig holds the pipeline tuning knobs.
type SearchConfig struct {
	MinQueryLength  int
	SparseThreshold int
	MaxResults      int
	CacheTTL        time.Duration
	CacheMaxEntries int
	ChatScanLimit   int
	PersonScanLimit int
	FetchTimeout    time.Duration

	// ModuleWeights overrides the built-in weight table, as
	// "module=weight" pairs.
	ModuleWeights map[string]float64

	// ModuleEndpoints maps module tags to remote fetch base URLs, as
	// "module=url" pairs. The "global" tag names the cross-module
	// endpoint.
	ModuleEndpoints map[string]string
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: loadServerConfig(),
		Redis:  loadRedisConfig(),
		Search: loadSearchConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadServerConfig loads server configuration from environment.
func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("FEDSEARCH_HOST", "0.0.0.0"),
		Port:            getEnv("FEDSEARCH_PORT", "8080"),
		ReadTimeout:     getEnvDuration("FEDSEARCH_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("FEDSEARCH_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("FEDSEARCH_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("FEDSEARCH_SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

// loadRedisConfig loads the key-value store configuration.
func loadRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:     getEnv("FEDSEARCH_REDIS_ADDR", ""),
		Password: getEnv("FEDSEARCH_REDIS_PASSWORD", ""),
		DB:       getEnvInt("FEDSEARCH_REDIS_DB", 0),
	}
}

// loadSearchConfig loads the pipeline tuning from environment.
func loadSearchConfig() SearchConfig {
	return SearchConfig{
		MinQueryLength:  getEnvInt("FEDSEARCH_MIN_QUERY_LENGTH", 2),
		SparseThreshold: getEnvInt("FEDSEARCH_SPARSE_THRESHOLD", search.DefaultSparseThreshold),
		MaxResults:      getEnvInt("FEDSEARCH_MAX_RESULTS", 0),
		CacheTTL:        getEnvDuration("FEDSEARCH_CACHE_TTL", search.DefaultCacheTTL),
		CacheMaxEntries: getEnvInt("FEDSEARCH_CACHE_MAX_ENTRIES", search.DefaultCacheMaxEntries),
		ChatScanLimit:   getEnvInt("FEDSEARCH_CHAT_SCAN_LIMIT", 500),
		PersonScanLimit: getEnvInt("FEDSEARCH_PERSON_SCAN_LIMIT", 100),
		FetchTimeout:    getEnvDuration("FEDSEARCH_FETCH_TIMEOUT", 10*time.Second),
		ModuleWeights:   getEnvFloatPairs("FEDSEARCH_MODULE_WEIGHTS"),
		ModuleEndpoints: getEnvStringPairs("FEDSEARCH_MODULE_ENDPOINTS"),
	}
}

// CoordinatorConfig converts the search section into the pipeline's
// own configuration, overlaying weight overrides onto the defaults.
func (c *Config) CoordinatorConfig() search.CoordinatorConfig {
	cfg := search.DefaultCoordinatorConfig()
	cfg.MinQueryLength = c.Search.MinQueryLength
	cfg.SparseThreshold = c.Search.SparseThreshold
	cfg.MaxResults = c.Search.MaxResults
	cfg.CacheTTL = c.Search.CacheTTL
	cfg.CacheMaxEntries = c.Search.CacheMaxEntries
	cfg.ChatScanLimit = c.Search.ChatScanLimit
	cfg.PersonScanLimit = c.Search.PersonScanLimit
	for module, weight := range c.Search.ModuleWeights {
		cfg.Weights[search.Module(module)] = weight
	}
	return cfg
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Search.SparseThreshold < 0 {
		return fmt.Errorf("sparse threshold must not be negative")
	}
	if c.Search.CacheTTL <= 0 {
		return fmt.Errorf("cache TTL must be positive")
	}
	if c.Search.CacheMaxEntries <= 0 {
		return fmt.Errorf("cache max entries must be positive")
	}
	for module, weight := range c.Search.ModuleWeights {
		if weight <= 0 {
			return fmt.Errorf("weight for module %q must be positive", module)
		}
	}
	return nil
}

// getEnv returns an environment variable value or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvStringPairs parses "key=value,key=value" environment values.
func getEnvStringPairs(key string) map[string]string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	pairs := make(map[string]string)
	for _, part := range strings.Split(value, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 || kv[0] == "" || kv[1] == "" {
			continue
		}
		pairs[kv[0]] = kv[1]
	}
	return pairs
}

// getEnvFloatPairs parses "key=1.5,key=2" environment values.
func getEnvFloatPairs(key string) map[string]float64 {
	pairs := getEnvStringPairs(key)
	if pairs == nil {
		return nil
	}
	floats := make(map[string]float64, len(pairs))
	for k, v := range pairs {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			floats[k] = f
		}
	}
	return floats
}
