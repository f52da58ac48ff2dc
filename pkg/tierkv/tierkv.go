package tierkv

import (
	"sync"

	"github.com/calebmoss/tierkv/internal/cache"
	"github.com/calebmoss/tierkv/internal/config"
)

// New creates a new cache service with default configuration.
func New(opts ...ServiceOption) (Cache, error) {
	cfg := config.DefaultConfig()
	return NewFromConfig(cfg, opts...)
}

// NewFromConfig creates a new cache service from configuration.
func NewFromConfig(cfg *config.Config, opts ...ServiceOption) (Cache, error) {
	serviceOpts := &ServiceOptions{}
	for _, opt := range opts {
		opt(serviceOpts)
	}
	return cache.NewService(cfg, serviceOpts)
}

// NewFromFile creates a new cache service from a JSON config file with
// environment overrides applied.
func NewFromFile(path string, opts ...ServiceOption) (Cache, error) {
	cfg, err := config.LoadWithEnv(path)
	if err != nil {
		return nil, err
	}
	return NewFromConfig(cfg, opts...)
}

// NewFileOnly creates a cache service backed only by the local file cache.
func NewFileOnly(dir string, opts ...ServiceOption) (Cache, error) {
	cfg := config.DefaultConfig()
	cfg.BackendURL = ""
	if dir != "" {
		cfg.File.Dir = dir
	}
	return NewFromConfig(cfg, opts...)
}

// Config returns a default configuration that can be modified before creating a service.
func Config() *config.Config {
	return config.DefaultConfig()
}

// TestConfig returns a configuration suitable for unit tests.
func TestConfig() *config.Config {
	return config.ForTesting()
}

var (
	sharedMu  sync.Mutex
	shared    Cache
	sharedErr error
)

// Shared returns the process-wide cache service, created on first call from
// default configuration plus environment overrides. A construction error is
// remembered and returned on every call until ResetShared.
func Shared() (Cache, error) {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	if shared == nil && sharedErr == nil {
		cfg, err := config.LoadWithEnv("")
		if err != nil {
			sharedErr = err
			return nil, err
		}
		shared, sharedErr = NewFromConfig(cfg)
	}
	return shared, sharedErr
}

// ResetShared closes and discards the shared service so the next Shared call
// constructs a fresh one. Intended for tests that need isolation between
// cases.
func ResetShared() {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	if shared != nil {
		_ = shared.Close()
	}
	shared = nil
	sharedErr = nil
}
