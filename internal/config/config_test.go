package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 130, cfg.Processing.DPI)
	assert.Equal(t, 10, cfg.Processing.BatchSize)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, "index.md", cfg.Output.MarkdownName)
}

func TestLoadAppliesYAMLOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
processing:
  dpi: 200
  batch_size: 5
extraction:
  min_area_percentage: 0.1
logging:
  level: debug
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 200, cfg.Processing.DPI)
	assert.Equal(t, 5, cfg.Processing.BatchSize)
	assert.Equal(t, 0.1, cfg.Extraction.MinAreaPercentage)
	assert.Equal(t, "debug", cfg.Logging.Level)

	// Unset keys keep their defaults.
	assert.Equal(t, 250, cfg.Processing.WhiteThreshold)
	assert.Equal(t, 0.85, cfg.Extraction.MaxAreaPercentage)
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv("PAGEMILL_API_KEY", "secret")
	t.Setenv("PAGEMILL_MODEL", "other-model")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "secret", cfg.API.Key)
	assert.Equal(t, "other-model", cfg.API.Model)
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]func(*Config){
		"zero batch size":   func(c *Config) { c.Processing.BatchSize = 0 },
		"zero start page":   func(c *Config) { c.Processing.StartPage = 0 },
		"zero dpi":          func(c *Config) { c.Processing.DPI = 0 },
		"zero attempts":     func(c *Config) { c.Retry.MaxAttempts = 0 },
		"zero backoff base": func(c *Config) { c.Retry.BackoffBase = 0 },
		"inverted areas": func(c *Config) {
			c.Extraction.MinAreaPercentage = 0.9
			c.Extraction.MaxAreaPercentage = 0.1
		},
	}
	for name, mutate := range cases {
		cfg := DefaultConfig()
		mutate(cfg)
		assert.Error(t, cfg.Validate(), name)
	}
}
