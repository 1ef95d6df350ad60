package testsupport

import (
	"path/filepath"
	"testing"

	"phototriage/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Cache.Dir = filepath.Join(base, "cache")
	cfg.Logging.Dir = filepath.Join(base, "logs")

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return &cfg
}

// WithoutCache disables the fingerprint cache on the test config.
func WithoutCache() ConfigOption {
	return func(cfg *config.Config) {
		cfg.Cache.Enabled = false
	}
}
