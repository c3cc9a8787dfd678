package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds the settings shared by the region server and the client
type Config struct {
	LogLevel string `validate:"oneof=debug info warn error"`
	// SeqURL is where structured logs are shipped; empty disables Seq
	SeqURL string `validate:"omitempty,url"`

	RegionAddr    string `validate:"required,hostname_port"`
	DebugHTTPAddr string `validate:"omitempty,hostname_port"`
	CatalogDir    string

	// RedisAddr selects the redis server cache store; empty keeps caches in process
	RedisAddr     string `validate:"omitempty,hostname_port"`
	RedisPassword string

	CacheTTL    time.Duration `validate:"gt=0"`
	DialTimeout time.Duration `validate:"gt=0"`
	MaxRetries  int64         `validate:"gte=0,lte=20"`

	Execution *ExecutionConfig `validate:"required"`
}

// ExecutionConfig holds the parameters of plan execution
type ExecutionConfig struct {
	// PropagateIndexMetadata attaches the table's index maintainers to
	// delete-all scans through a server cache. Off by default: the
	// delete-all path does not ship index metadata.
	PropagateIndexMetadata bool
}

// DefaultExecutionConfig returns default configuration
func DefaultExecutionConfig() *ExecutionConfig {
	return &ExecutionConfig{
		PropagateIndexMetadata: false,
	}
}

// Default returns the configuration used when no environment is set
func Default() *Config {
	return &Config{
		LogLevel:    "info",
		RegionAddr:  "localhost:4444",
		CatalogDir:  "catalog",
		CacheTTL:    30 * time.Second,
		DialTimeout: 3 * time.Second,
		MaxRetries:  3,
		Execution:   DefaultExecutionConfig(),
	}
}

// Load reads the configuration from the environment and validates it
func Load() (*Config, error) {
	cfg := Default()
	var err error

	cfg.LogLevel = GetEnvOrDefault("POSTDDL_LOG_LEVEL", cfg.LogLevel)
	cfg.SeqURL = GetEnvOrDefault("POSTDDL_SEQ_URL", cfg.SeqURL)
	cfg.RegionAddr = GetEnvOrDefault("POSTDDL_REGION_ADDR", cfg.RegionAddr)
	cfg.DebugHTTPAddr = GetEnvOrDefault("POSTDDL_DEBUG_HTTP_ADDR", cfg.DebugHTTPAddr)
	cfg.CatalogDir = GetEnvOrDefault("POSTDDL_CATALOG_DIR", cfg.CatalogDir)
	cfg.RedisAddr = GetEnvOrDefault("POSTDDL_REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = GetEnvOrDefault("POSTDDL_REDIS_PASSWORD", cfg.RedisPassword)

	if cfg.CacheTTL, err = GetEnvOrDefaultDuration("POSTDDL_CACHE_TTL", cfg.CacheTTL); err != nil {
		return nil, err
	}
	if cfg.DialTimeout, err = GetEnvOrDefaultDuration("POSTDDL_DIAL_TIMEOUT", cfg.DialTimeout); err != nil {
		return nil, err
	}
	if cfg.MaxRetries, err = GetEnvOrDefaultInt("POSTDDL_MAX_RETRIES", cfg.MaxRetries); err != nil {
		return nil, err
	}
	if cfg.Execution.PropagateIndexMetadata, err = GetEnvOrDefaultBool("POSTDDL_PROPAGATE_INDEX_METADATA", cfg.Execution.PropagateIndexMetadata); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration against its constraints
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
