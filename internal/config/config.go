// Package config loads and validates the enumerated configuration
// surface (spec §6.5) via viper, rejecting unknown or missing required
// keys at startup rather than duck-typing a generic map through to
// runtime code.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the complete enumerated configuration for any of the four
// services; each binary reads only the sections it needs.
type Config struct {
	Environment string `mapstructure:"environment"`
	ListenAddr  string `mapstructure:"listen_address"`

	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Embed    EmbedConfig    `mapstructure:"embed"`
	Rerank   RerankConfig   `mapstructure:"rerank"`
	ML       MLConfig       `mapstructure:"ml"`
	Search   SearchConfig   `mapstructure:"search"`
	Tenant   TenantConfig   `mapstructure:"tenant"`
	RateLimits RateLimitConfig `mapstructure:"rate_limits"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type DatabaseConfig struct {
	DSN               string `mapstructure:"dsn"`
	Schema            string `mapstructure:"schema"`
	EmbeddingDimensions int  `mapstructure:"embedding_dimensions"`
	EnableAutoMigrate bool   `mapstructure:"enable_auto_migrate"`
	MaxOpenConns      int    `mapstructure:"max_open_conns"`
}

type CacheConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	CompressionThresholdBytes int `mapstructure:"compression_threshold_bytes"`
}

type EmbedConfig struct {
	Provider   string        `mapstructure:"provider"` // primary|secondary|local
	Dimensions int           `mapstructure:"dimensions"`
	Timeout    time.Duration `mapstructure:"timeout"`
	CircuitBreakerFailures int `mapstructure:"circuit_breaker_failures"`
	CircuitBreakerCooldown time.Duration `mapstructure:"circuit_breaker_cooldown"`
}

type RerankConfig struct {
	Enabled              bool          `mapstructure:"enabled"`
	SLAMillis            int           `mapstructure:"sla_ms"`
	TimeoutMillis        int           `mapstructure:"timeout_ms"`
	CircuitFailures      int           `mapstructure:"circuit_failures"`
	CircuitCooldownMillis int          `mapstructure:"circuit_cooldown_ms"`
	CacheTTL             time.Duration `mapstructure:"cache_ttl"`
}

type MLConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	URL           string        `mapstructure:"url"`
	TimeoutMillis int           `mapstructure:"timeout_ms"`
	ShadowMode    bool          `mapstructure:"shadow_mode_enabled"`
}

type SearchConfig struct {
	CachePurge     bool   `mapstructure:"cache_purge"`
	WeightsVersion string `mapstructure:"weights_version"`
	EngineVersion  string `mapstructure:"engine_version"`
	PerMethodLimit int    `mapstructure:"per_method_limit"`
}

type TenantConfig struct {
	BypassIdentity string `mapstructure:"bypass_identity"`
	HeaderTenantID string `mapstructure:"header_tenant_id"`
	HeaderRequestID string `mapstructure:"header_request_id"`
	HeaderTraceID  string `mapstructure:"header_trace_id"`
	HeaderUserID   string `mapstructure:"header_user_id"`
}

type RateLimitConfig struct {
	HybridRPS  int `mapstructure:"hybrid_rps"`
	RerankRPS  int `mapstructure:"rerank_rps"`
	TenantBurst int `mapstructure:"tenant_burst"`
}

type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
	Endpoint    string `mapstructure:"endpoint"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from a base YAML file, an optional
// environment-specific overlay, and environment variables (prefixed
// HEADHUNTER_, "." replaced with "_"), in that precedence order.
func Load(configDir, environment string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("HEADHUNTER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if configDir != "" {
		v.SetConfigName("config.base")
		v.AddConfigPath(configDir)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read base config: %w", err)
			}
		}

		if environment != "" {
			overlay := viper.New()
			overlay.SetConfigType("yaml")
			overlay.SetConfigName(fmt.Sprintf("config.%s", environment))
			overlay.AddConfigPath(configDir)
			if err := overlay.ReadInConfig(); err == nil {
				if err := v.MergeConfigMap(overlay.AllSettings()); err != nil {
					return nil, fmt.Errorf("failed to merge %s overlay: %w", environment, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.UnmarshalExact(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Environment = environment

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen_address", ":8080")
	v.SetDefault("database.schema", "mcp_search")
	v.SetDefault("database.embedding_dimensions", 768)
	v.SetDefault("database.enable_auto_migrate", false)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("cache.compression_threshold_bytes", 1024)
	v.SetDefault("embed.provider", "primary")
	v.SetDefault("embed.dimensions", 768)
	v.SetDefault("embed.timeout", 150*time.Millisecond)
	v.SetDefault("embed.circuit_breaker_failures", 5)
	v.SetDefault("embed.circuit_breaker_cooldown", 30*time.Second)
	v.SetDefault("rerank.enabled", true)
	v.SetDefault("rerank.sla_ms", 350)
	v.SetDefault("rerank.timeout_ms", 350)
	v.SetDefault("rerank.circuit_failures", 5)
	v.SetDefault("rerank.circuit_cooldown_ms", 30000)
	v.SetDefault("rerank.cache_ttl", time.Hour)
	v.SetDefault("ml.enabled", false)
	v.SetDefault("ml.timeout_ms", 100)
	v.SetDefault("ml.shadow_mode_enabled", true)
	v.SetDefault("search.cache_purge", false)
	v.SetDefault("search.weights_version", "wv-1")
	v.SetDefault("search.engine_version", "1.0.0")
	v.SetDefault("search.per_method_limit", 300)
	v.SetDefault("tenant.header_tenant_id", "x-tenant-id")
	v.SetDefault("tenant.header_request_id", "x-request-id")
	v.SetDefault("tenant.header_trace_id", "x-trace-id")
	v.SetDefault("tenant.header_user_id", "x-user-id")
	v.SetDefault("rate_limits.hybrid_rps", 20)
	v.SetDefault("rate_limits.rerank_rps", 10)
	v.SetDefault("rate_limits.tenant_burst", 40)
	v.SetDefault("logging.level", "info")
}

// Validate enforces a fail-fast posture: required fields must be
// present, and provider/environment combinations that are never valid
// in production are rejected here instead of at the first request.
func Validate(cfg *Config) error {
	if cfg.Database.EmbeddingDimensions <= 0 {
		return fmt.Errorf("database.embedding_dimensions must be positive")
	}
	if cfg.Embed.Dimensions != cfg.Database.EmbeddingDimensions {
		return fmt.Errorf("embed.dimensions (%d) must equal database.embedding_dimensions (%d)",
			cfg.Embed.Dimensions, cfg.Database.EmbeddingDimensions)
	}
	switch cfg.Embed.Provider {
	case "primary", "secondary", "local":
	default:
		return fmt.Errorf("embed.provider must be one of primary|secondary|local, got %q", cfg.Embed.Provider)
	}
	if cfg.Embed.Provider == "local" && (cfg.Environment == "production" || cfg.Environment == "staging") {
		return fmt.Errorf("embed.provider=local is forbidden in environment %q", cfg.Environment)
	}
	if cfg.ListenAddr == "" {
		return fmt.Errorf("listen_address is required")
	}
	return nil
}
