package testsupport

import (
	"path/filepath"
	"testing"

	"storyreel/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.WorkspaceDir = filepath.Join(base, "workspace")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.LLM.APIKey = "test"
	cfg.Transcription.APIKey = "test"

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithImagesEnabled switches reference image generation on for the test.
func WithImagesEnabled() ConfigOption {
	return func(c *config.Config) {
		c.Images.Enabled = true
		c.Images.APIKey = "test"
	}
}

// WithLintDisabled switches the post-synthesis lint pass off.
func WithLintDisabled() ConfigOption {
	return func(c *config.Config) {
		c.Lint.Enabled = false
	}
}
