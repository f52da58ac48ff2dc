package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Load loads configuration from a JSON file.
// If the file doesn't exist, returns default configuration.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadWithEnv loads configuration from a JSON file and applies environment
// overrides.
func LoadWithEnv(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

//nolint:gocyclo // Environment variable parsing requires many conditional checks
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TIERKV_BACKEND_URL"); v != "" {
		cfg.BackendURL = v
	}

	if v := os.Getenv("TIERKV_MEMORY_MAX_ITEMS"); v != "" {
		cfg.Memory.MaxItems = parseInt(v, cfg.Memory.MaxItems)
	}
	if v := os.Getenv("TIERKV_MEMORY_MAX_MEMORY_MB"); v != "" {
		cfg.Memory.MaxMemoryMB = parseInt(v, cfg.Memory.MaxMemoryMB)
	}
	if v := os.Getenv("TIERKV_MEMORY_DEFAULT_TTL"); v != "" {
		cfg.Memory.DefaultTTL = parseDuration(v, cfg.Memory.DefaultTTL)
	}

	if v := os.Getenv("TIERKV_CACHE_DIR"); v != "" {
		cfg.File.Dir = v
	}

	if v := os.Getenv("TIERKV_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = NewSecretString(v)
	}
	if v := os.Getenv("TIERKV_REDIS_KEY_PREFIX"); v != "" {
		cfg.Redis.KeyPrefix = v
	}
	if v := os.Getenv("TIERKV_REDIS_DEFAULT_TTL"); v != "" {
		cfg.Redis.DefaultTTL = parseDuration(v, cfg.Redis.DefaultTTL)
	}
	if v := os.Getenv("TIERKV_REDIS_POOL_SIZE"); v != "" {
		cfg.Redis.PoolSize = parseInt(v, cfg.Redis.PoolSize)
	}
	if v := os.Getenv("TIERKV_REDIS_HEALTH_CHECK_INTERVAL"); v != "" {
		cfg.Redis.HealthCheckInterval = parseDuration(v, cfg.Redis.HealthCheckInterval)
	}

	if v := os.Getenv("TIERKV_DEFAULTS_TTL"); v != "" {
		cfg.Defaults.TTL = parseDuration(v, cfg.Defaults.TTL)
	}

	if v := os.Getenv("TIERKV_CIRCUIT_BREAKER_ENABLED"); v != "" {
		cfg.CircuitBreaker.Enabled = parseBool(v)
	}
	if v := os.Getenv("TIERKV_CIRCUIT_BREAKER_FAILURE_THRESHOLD"); v != "" {
		cfg.CircuitBreaker.FailureThreshold = parseInt(v, cfg.CircuitBreaker.FailureThreshold)
	}
	if v := os.Getenv("TIERKV_CIRCUIT_BREAKER_COOLDOWN"); v != "" {
		cfg.CircuitBreaker.Cooldown = parseDuration(v, cfg.CircuitBreaker.Cooldown)
	}

	if v := os.Getenv("TIERKV_REFRESH_THRESHOLD"); v != "" {
		cfg.Refresh.Threshold = parseFloat(v, cfg.Refresh.Threshold)
	}

	if v := os.Getenv("TIERKV_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}

	if v := os.Getenv("DD_AGENT_HOST"); v != "" {
		cfg.Metrics.DataDog.AgentHost = v
		cfg.Metrics.DataDog.Enabled = true
	}
	if v := os.Getenv("DD_DOGSTATSD_PORT"); v != "" {
		cfg.Metrics.DataDog.Port = parseInt(v, cfg.Metrics.DataDog.Port)
	}
	if v := os.Getenv("DD_SERVICE"); v != "" {
		cfg.Metrics.DataDog.Prefix = v
	}
	if v := os.Getenv("DD_ENV"); v != "" {
		cfg.Metrics.DataDog.Tags = append(cfg.Metrics.DataDog.Tags, "env:"+v)
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Memory.MaxItems <= 0 {
		return fmt.Errorf("memory.maxItems must be positive")
	}
	if c.Memory.MaxMemoryMB <= 0 {
		return fmt.Errorf("memory.maxMemoryMB must be positive")
	}

	if c.BackendURL != "" {
		if c.Redis.PoolSize <= 0 {
			return fmt.Errorf("redis.poolSize must be positive")
		}
		if c.Redis.DialTimeout <= 0 {
			return fmt.Errorf("redis.dialTimeout must be positive")
		}
	}

	if c.CircuitBreaker.Enabled {
		if c.CircuitBreaker.FailureThreshold <= 0 {
			return fmt.Errorf("circuitBreaker.failureThreshold must be positive")
		}
		if c.CircuitBreaker.Cooldown <= 0 {
			return fmt.Errorf("circuitBreaker.cooldown must be positive")
		}
	}

	if c.Refresh.Threshold < 0 || c.Refresh.Threshold > 1 {
		return fmt.Errorf("refresh.threshold must be within [0, 1]")
	}

	return nil
}

func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

func parseInt(s string, defaultVal int) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return defaultVal
	}
	return v
}

func parseFloat(s string, defaultVal float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return defaultVal
	}
	return v
}

func parseDuration(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)

	if d, err := time.ParseDuration(s); err == nil {
		return d
	}

	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(secs) * time.Second
	}

	return defaultVal
}
