// Package config provides configuration management for tierkv.
package config

import (
	"time"

	"github.com/calebmoss/tierkv/internal/types"
)

// SecretString is a string type that redacts its value when marshaled to JSON.
type SecretString = types.SecretString

// NewSecretString creates a new SecretString with the provided value.
func NewSecretString(value string) SecretString {
	return types.NewSecretString(value)
}

// Config contains all configuration for the tierkv cache service.
//
// BackendURL selects the primary backend: when set, the distributed Redis
// backend is used with the in-memory cache as fallback; when empty, the
// file backend is the primary and there is no fallback.
//
//nolint:govet // Configuration struct - logical grouping prioritized over alignment
type Config struct {
	BackendURL     string               `json:"backendURL"`
	Memory         MemoryConfig         `json:"memory"`
	File           FileConfig           `json:"file"`
	Redis          RedisConfig          `json:"redis"`
	CircuitBreaker CircuitBreakerConfig `json:"circuitBreaker"`
	Refresh        RefreshConfig        `json:"refresh"`
	Defaults       DefaultsConfig       `json:"defaults"`
	Metrics        MetricsConfig        `json:"metrics"`
}

// MemoryConfig bounds the in-memory LRU backend.
type MemoryConfig struct {
	MaxItems    int           `json:"maxItems"`
	MaxMemoryMB int           `json:"maxMemoryMB"`
	DefaultTTL  time.Duration `json:"defaultTTL"`
}

// FileConfig configures the file-backed backend.
type FileConfig struct {
	Dir string `json:"dir"`
}

// RedisConfig contains connection pool and timeout settings for the
// distributed backend. The address and credentials come from BackendURL.
//
//nolint:govet // Configuration struct - logical grouping prioritized over alignment
type RedisConfig struct {
	DefaultTTL          time.Duration `json:"defaultTTL"`
	DialTimeout         time.Duration `json:"dialTimeout"`
	ReadTimeout         time.Duration `json:"readTimeout"`
	WriteTimeout        time.Duration `json:"writeTimeout"`
	PoolTimeout         time.Duration `json:"poolTimeout"`
	HealthCheckInterval time.Duration `json:"healthCheckInterval"`
	Password            SecretString  `json:"password"`
	KeyPrefix           string        `json:"keyPrefix"`
	PoolSize            int           `json:"poolSize"`
	MinIdleConns        int           `json:"minIdleConns"`
	MaxRetries          int           `json:"maxRetries"`
}

// CircuitBreakerConfig configures the facade's failure isolation.
type CircuitBreakerConfig struct {
	Enabled          bool          `json:"enabled"`
	FailureThreshold int           `json:"failureThreshold"`
	Cooldown         time.Duration `json:"cooldown"`
}

// RefreshConfig configures stale-while-revalidate behavior.
type RefreshConfig struct {
	// Threshold is the remaining-TTL fraction below which GetWithRefresh
	// schedules a background recompute.
	Threshold float64 `json:"threshold"`
}

// DefaultsConfig contains default values for cache operations.
type DefaultsConfig struct {
	TTL time.Duration `json:"ttl"`
}

// MetricsConfig contains configuration for metrics publishing.
//
//nolint:govet // Small config struct - minimal alignment benefit
type MetricsConfig struct {
	PublishInterval time.Duration `json:"publishInterval"`
	DataDog         DataDogConfig `json:"datadog"`
	Enabled         bool          `json:"enabled"`
}

// DataDogConfig contains configuration for DataDog StatsD publishing.
//
//nolint:govet // Small config struct - minimal alignment benefit
type DataDogConfig struct {
	Tags      []string `json:"tags"`
	AgentHost string   `json:"agentHost"`
	Prefix    string   `json:"prefix"`
	Port      int      `json:"port"`
	Enabled   bool     `json:"enabled"`
}
