package testsupport

import (
	"path/filepath"
	"testing"

	"lectern/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Generation.APIKey = "test"
	cfg.Repair.InactivityTimeout = 5
	cfg.Repair.ArchivedRunLimit = 10

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithArchivedRunLimit overrides the per-plan archive retention limit.
func WithArchivedRunLimit(limit int) ConfigOption {
	return func(c *config.Config) {
		c.Repair.ArchivedRunLimit = limit
	}
}

// WithInactivityTimeout overrides the run watchdog timeout in seconds.
func WithInactivityTimeout(seconds int) ConfigOption {
	return func(c *config.Config) {
		c.Repair.InactivityTimeout = seconds
	}
}
