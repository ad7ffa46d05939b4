// Package config loads client construction configuration from the
// environment, following the teacher's infrastructure/config loader
// shape (getEnv/getEnvBool/getEnvInt helpers, Validate with production
// tightening).
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gqlcache/domain/operation"
)

// Config holds all client construction configuration.
type Config struct {
	// Transport
	ServerAddress string
	TransportURL  string
	Environment   string

	// Cache
	DefaultRequestPolicy operation.RequestPolicy
	GCInterval           time.Duration
	RerunWorkerPoolSize  int

	// Rate limiting
	TransportMaxTokens  int
	TransportRefillRate time.Duration

	// Authentication (admin/lambda surfaces)
	JWTSecret string
	JWTIssuer string

	// Feature flags
	EnableMetrics bool
	EnableTracing bool
	EnableCORS    bool
}

// Load reads configuration from environment variables, applying the
// same defaults-then-override shape as the teacher's LoadConfig.
func Load() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		TransportURL:  getEnv("TRANSPORT_URL", "http://localhost:8080/graphql"),
		Environment:   getEnv("ENVIRONMENT", "development"),

		DefaultRequestPolicy: operation.RequestPolicy(getEnv("DEFAULT_REQUEST_POLICY", string(operation.CacheFirst))),
		GCInterval:           getEnvDuration("GC_INTERVAL", 30*time.Second),
		RerunWorkerPoolSize:  getEnvInt("RERUN_WORKER_POOL_SIZE", 8),

		TransportMaxTokens:  getEnvInt("TRANSPORT_MAX_TOKENS", 100),
		TransportRefillRate: getEnvDuration("TRANSPORT_REFILL_RATE", time.Second),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTIssuer: getEnv("JWT_ISSUER", "gqlcache"),

		EnableMetrics: getEnvBool("ENABLE_METRICS", false),
		EnableTracing: getEnvBool("ENABLE_TRACING", false),
		EnableCORS:    getEnvBool("ENABLE_CORS", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required configuration, tightening requirements in
// production the way the teacher's config does.
func (c *Config) Validate() error {
	if c.Environment == "production" {
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in production")
		}
		if c.TransportURL == "" {
			return fmt.Errorf("TRANSPORT_URL is required")
		}
	}
	return nil
}

// IsDevelopment reports whether the environment is "development".
func (c *Config) IsDevelopment() bool { return c.Environment == "development" }

// IsProduction reports whether the environment is "production".
func (c *Config) IsProduction() bool { return c.Environment == "production" }

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	return v == "true" || v == "1" || v == "yes"
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}
