package config

import "time"

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BackendURL: "",
		Memory: MemoryConfig{
			MaxItems:    1000,
			MaxMemoryMB: 50,
			DefaultTTL:  5 * time.Minute,
		},
		File: FileConfig{
			Dir: ".cache",
		},
		Redis: RedisConfig{
			DefaultTTL:          5 * time.Minute,
			DialTimeout:         2 * time.Second,
			ReadTimeout:         2 * time.Second,
			WriteTimeout:        2 * time.Second,
			PoolTimeout:         2 * time.Second,
			HealthCheckInterval: 30 * time.Second,
			KeyPrefix:           "tierkv:",
			PoolSize:            50,
			MinIdleConns:        10,
			MaxRetries:          1,
		},
		CircuitBreaker: CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 3,
			Cooldown:         30 * time.Second,
		},
		Refresh: RefreshConfig{
			Threshold: 0.8,
		},
		Defaults: DefaultsConfig{
			TTL: 5 * time.Minute,
		},
		Metrics: MetricsConfig{
			Enabled:         true,
			PublishInterval: 10 * time.Second,
			DataDog: DataDogConfig{
				Enabled:   false,
				AgentHost: "127.0.0.1",
				Port:      8125,
				Prefix:    "tierkv",
				Tags:      []string{},
			},
		},
	}
}

// ForTesting returns a minimal configuration suitable for unit tests.
func ForTesting() *Config {
	return &Config{
		BackendURL: "",
		Memory: MemoryConfig{
			MaxItems:    100,
			MaxMemoryMB: 4,
			DefaultTTL:  1 * time.Minute,
		},
		File: FileConfig{
			Dir: "",
		},
		Redis: RedisConfig{
			DefaultTTL:          1 * time.Minute,
			DialTimeout:         1 * time.Second,
			ReadTimeout:         1 * time.Second,
			WriteTimeout:        1 * time.Second,
			PoolTimeout:         1 * time.Second,
			HealthCheckInterval: 0,
			KeyPrefix:           "test:",
			PoolSize:            10,
			MinIdleConns:        1,
			MaxRetries:          0,
		},
		CircuitBreaker: CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 3,
			Cooldown:         50 * time.Millisecond,
		},
		Refresh: RefreshConfig{
			Threshold: 0.8,
		},
		Defaults: DefaultsConfig{
			TTL: 1 * time.Minute,
		},
		Metrics: MetricsConfig{
			Enabled:         false,
			PublishInterval: 1 * time.Second,
		},
	}
}
