package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/fedsearch/pkg/search"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)

	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, 0, cfg.Redis.DB)

	assert.Equal(t, 2, cfg.Search.MinQueryLength)
	assert.Equal(t, search.DefaultSparseThreshold, cfg.Search.SparseThreshold)
	assert.Equal(t, search.DefaultCacheTTL, cfg.Search.CacheTTL)
	assert.Equal(t, search.DefaultCacheMaxEntries, cfg.Search.CacheMaxEntries)
	assert.Equal(t, 500, cfg.Search.ChatScanLimit)
	assert.Equal(t, 100, cfg.Search.PersonScanLimit)
	assert.Nil(t, cfg.Search.ModuleWeights)
	assert.Nil(t, cfg.Search.ModuleEndpoints)
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	t.Setenv("FEDSEARCH_PORT", "9090")
	t.Setenv("FEDSEARCH_REDIS_ADDR", "localhost:6379")
	t.Setenv("FEDSEARCH_REDIS_DB", "3")
	t.Setenv("FEDSEARCH_MIN_QUERY_LENGTH", "3")
	t.Setenv("FEDSEARCH_SPARSE_THRESHOLD", "25")
	t.Setenv("FEDSEARCH_CACHE_TTL", "5m")
	t.Setenv("FEDSEARCH_MODULE_WEIGHTS", "users=3.0,bots=0.5")
	t.Setenv("FEDSEARCH_MODULE_ENDPOINTS", "messages=http://search/messages,global=http://search/all")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, 3, cfg.Search.MinQueryLength)
	assert.Equal(t, 25, cfg.Search.SparseThreshold)
	assert.Equal(t, 5*time.Minute, cfg.Search.CacheTTL)
	assert.Equal(t, map[string]float64{"users": 3.0, "bots": 0.5}, cfg.Search.ModuleWeights)
	assert.Equal(t, map[string]string{
		"messages": "http://search/messages",
		"global":   "http://search/all",
	}, cfg.Search.ModuleEndpoints)
}

func TestLoadConfig_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("FEDSEARCH_REDIS_DB", "not-a-number")
	t.Setenv("FEDSEARCH_CACHE_TTL", "soon")
	t.Setenv("FEDSEARCH_MODULE_WEIGHTS", "users=heavy,bots=0.5")
	t.Setenv("FEDSEARCH_MODULE_ENDPOINTS", "broken,messages=http://search/messages")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.Redis.DB)
	assert.Equal(t, search.DefaultCacheTTL, cfg.Search.CacheTTL)
	assert.Equal(t, map[string]float64{"bots": 0.5}, cfg.Search.ModuleWeights)
	assert.Equal(t, map[string]string{"messages": "http://search/messages"}, cfg.Search.ModuleEndpoints)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid defaults",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing port",
			mutate:  func(c *Config) { c.Server.Port = "" },
			wantErr: "server port is required",
		},
		{
			name:    "negative sparse threshold",
			mutate:  func(c *Config) { c.Search.SparseThreshold = -1 },
			wantErr: "sparse threshold must not be negative",
		},
		{
			name:    "zero cache TTL",
			mutate:  func(c *Config) { c.Search.CacheTTL = 0 },
			wantErr: "cache TTL must be positive",
		},
		{
			name:    "zero cache capacity",
			mutate:  func(c *Config) { c.Search.CacheMaxEntries = 0 },
			wantErr: "cache max entries must be positive",
		},
		{
			name:    "non-positive weight",
			mutate:  func(c *Config) { c.Search.ModuleWeights = map[string]float64{"users": 0} },
			wantErr: `weight for module "users" must be positive`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Server: loadServerConfig(),
				Redis:  loadRedisConfig(),
				Search: loadSearchConfig(),
			}
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_CoordinatorConfig(t *testing.T) {
	t.Setenv("FEDSEARCH_MAX_RESULTS", "50")
	t.Setenv("FEDSEARCH_MODULE_WEIGHTS", "users=3.0")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	cc := cfg.CoordinatorConfig()
	assert.Equal(t, 50, cc.MaxResults)
	assert.Equal(t, 3.0, cc.Weights[search.ModuleUsers])
	// Non-overridden modules keep their built-in weights.
	assert.Equal(t, search.DefaultWeights()[search.ModuleChannels], cc.Weights[search.ModuleChannels])
}

func TestGetEnvStringPairs_SkipsMalformedParts(t *testing.T) {
	t.Setenv("FEDSEARCH_TEST_PAIRS", " a=1 , =2, b=, c=3")

	pairs := getEnvStringPairs("FEDSEARCH_TEST_PAIRS")
	assert.Equal(t, map[string]string{"a": "1", "c": "3"}, pairs)
}
