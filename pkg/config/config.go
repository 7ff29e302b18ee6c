package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sorobanhub/registry/pkg/observability"
	"github.com/sorobanhub/registry/pkg/storage"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Storage configuration
	Storage storage.Config

	// Analytics configuration
	Analytics AnalyticsConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// AnalyticsConfig holds activity-feed settings
type AnalyticsConfig struct {
	Enabled       bool
	RetentionDays int
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel observability.LogLevel

	// Metrics
	MetricsEnabled bool

	// OpenTelemetry
	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool // Use insecure gRPC connection
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Storage:       loadStorageConfig(),
		Analytics:     loadAnalyticsConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadServerConfig loads server configuration from environment
func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("REGISTRY_HOST", "0.0.0.0"),
		Port:            getEnv("REGISTRY_PORT", "8080"),
		ReadTimeout:     getEnvDuration("REGISTRY_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("REGISTRY_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("REGISTRY_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("REGISTRY_SHUTDOWN_TIMEOUT", 30*time.Second),
		MaxBodyBytes:    getEnvInt64("REGISTRY_MAX_BODY_BYTES", 1<<20),
		HealthPort:      getEnv("REGISTRY_HEALTH_PORT", "9090"),
	}
}

// loadStorageConfig loads storage configuration from environment
func loadStorageConfig() storage.Config {
	cfg := storage.DefaultConfig()

	if storageType := getEnv("REGISTRY_STORAGE_TYPE", ""); storageType != "" {
		cfg.Type = storageType
	}

	if pgURL := getEnv("REGISTRY_POSTGRES_URL", ""); pgURL != "" {
		cfg.PostgresURL = pgURL
	}
	if maxConns := getEnvInt("REGISTRY_POSTGRES_MAX_CONNS", 0); maxConns > 0 {
		cfg.PostgresMaxConns = maxConns
	}
	if minConns := getEnvInt("REGISTRY_POSTGRES_MIN_CONNS", 0); minConns > 0 {
		cfg.PostgresMinConns = minConns
	}
	if timeout := getEnvDuration("REGISTRY_POSTGRES_TIMEOUT", 0); timeout > 0 {
		cfg.PostgresTimeout = timeout
	}

	if redisURL := getEnv("REGISTRY_REDIS_URL", ""); redisURL != "" {
		cfg.RedisURL = redisURL
	}

	if maxEntries := getEnvInt("REGISTRY_CACHE_MAX_ENTRIES", 0); maxEntries > 0 {
		cfg.CacheMaxEntries = maxEntries
	}
	if ttl := getEnvDuration("REGISTRY_CACHE_TTL", 0); ttl > 0 {
		cfg.CacheTTL = ttl
	}

	return cfg
}

// loadAnalyticsConfig loads activity-feed configuration from environment
func loadAnalyticsConfig() AnalyticsConfig {
	return AnalyticsConfig{
		Enabled:       getEnvBool("REGISTRY_ANALYTICS_ENABLED", true),
		RetentionDays: getEnvInt("REGISTRY_ANALYTICS_RETENTION_DAYS", 90),
	}
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:           observability.ParseLogLevel(strings.ToLower(getEnv("REGISTRY_LOG_LEVEL", "info"))),
		MetricsEnabled:     getEnvBool("REGISTRY_METRICS_ENABLED", true),
		OTelEnabled:        getEnvBool("REGISTRY_OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("REGISTRY_OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("REGISTRY_OTEL_SERVICE_NAME", "soroban-registry"),
		OTelServiceVersion: getEnv("REGISTRY_OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("REGISTRY_OTEL_INSECURE", true),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	switch c.Storage.Type {
	case "memory":
		// Nothing else required.
	case "postgres":
		if c.Storage.PostgresURL == "" {
			return fmt.Errorf("postgres URL is required for postgres storage")
		}
	default:
		return fmt.Errorf("invalid storage type: %s (must be memory or postgres)", c.Storage.Type)
	}

	if c.Analytics.Enabled && c.Analytics.RetentionDays <= 0 {
		return fmt.Errorf("analytics retention must be positive")
	}

	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvInt64 returns an int64 environment variable or a default
func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
