package config

import (
	"testing"
	"time"

	"gotest.tools/v3/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	assert.NilError(t, err)

	assert.Equal(t, cfg.LogLevel, "info")
	assert.Equal(t, cfg.RegionAddr, "localhost:4444")
	assert.Equal(t, cfg.CacheTTL, 30*time.Second)
	assert.Equal(t, cfg.MaxRetries, int64(3))
	assert.Assert(t, !cfg.Execution.PropagateIndexMetadata)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("POSTDDL_LOG_LEVEL", "debug")
	t.Setenv("POSTDDL_REGION_ADDR", "10.0.0.5:7000")
	t.Setenv("POSTDDL_REDIS_ADDR", "localhost:6379")
	t.Setenv("POSTDDL_CACHE_TTL", "5s")
	t.Setenv("POSTDDL_MAX_RETRIES", "7")
	t.Setenv("POSTDDL_PROPAGATE_INDEX_METADATA", "true")

	cfg, err := Load()
	assert.NilError(t, err)

	assert.Equal(t, cfg.LogLevel, "debug")
	assert.Equal(t, cfg.RegionAddr, "10.0.0.5:7000")
	assert.Equal(t, cfg.RedisAddr, "localhost:6379")
	assert.Equal(t, cfg.CacheTTL, 5*time.Second)
	assert.Equal(t, cfg.MaxRetries, int64(7))
	assert.Assert(t, cfg.Execution.PropagateIndexMetadata)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		err   string
	}{
		{"unparsable duration", "POSTDDL_CACHE_TTL", "soon", "as duration"},
		{"unparsable bool", "POSTDDL_PROPAGATE_INDEX_METADATA", "maybe", "as boolean"},
		{"unknown log level", "POSTDDL_LOG_LEVEL", "verbose", "invalid configuration"},
		{"too many retries", "POSTDDL_MAX_RETRIES", "99", "invalid configuration"},
		{"bad region address", "POSTDDL_REGION_ADDR", "not an address", "invalid configuration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.ErrorContains(t, err, tt.err)
		})
	}
}
