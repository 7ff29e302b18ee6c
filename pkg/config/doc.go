// Package config provides application configuration management from environment variables.
//
// # Configuration Structure
//
// Server settings:
//
//	REGISTRY_HOST="0.0.0.0"
//	REGISTRY_PORT="8080"
//	REGISTRY_HEALTH_PORT="9090"
//	REGISTRY_READ_TIMEOUT="15s"
//	REGISTRY_WRITE_TIMEOUT="15s"
//	REGISTRY_MAX_BODY_BYTES="1048576"
//
// Storage settings:
//
//	REGISTRY_STORAGE_TYPE="postgres"  # memory, postgres
//	REGISTRY_POSTGRES_URL="postgres://localhost/registry"
//	REGISTRY_POSTGRES_MAX_CONNS="20"
//
// Cache settings:
//
//	REGISTRY_REDIS_URL="redis://localhost:6379"  # empty selects the in-process LRU
//	REGISTRY_CACHE_MAX_ENTRIES="4096"
//	REGISTRY_CACHE_TTL="1h"
//
// Analytics settings:
//
//	REGISTRY_ANALYTICS_ENABLED="true"
//	REGISTRY_ANALYTICS_RETENTION_DAYS="90"
//
// Observability settings:
//
//	REGISTRY_LOG_LEVEL="info"  # debug, info, warn, error
//	REGISTRY_METRICS_ENABLED="true"
//	REGISTRY_OTEL_ENABLED="true"
//	REGISTRY_OTEL_ENDPOINT="otel-collector:4317"
//
// # Usage Example
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
package config
