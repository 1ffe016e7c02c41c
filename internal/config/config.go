// Package config provides configuration loading for pagemill.
// Supports YAML files, environment variable overrides, and programmatic
// construction. The loaded Config is a plain value passed by reference
// into the runner, orchestrator, and model client; there is no ambient
// global configuration state.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all settings consumed by the conversion pipeline.
type Config struct {
	API        APIConfig        `yaml:"api"`
	Processing ProcessingConfig `yaml:"processing"`
	Retry      RetryConfig      `yaml:"retry"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Output     OutputConfig     `yaml:"output"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// APIConfig holds model endpoint settings.
type APIConfig struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	// Key is read from the PAGEMILL_API_KEY environment variable and is
	// never written back to disk.
	Key string `yaml:"-"`
	// TokenizerModel selects the tiktoken encoding used for live
	// output-token estimates.
	TokenizerModel string `yaml:"tokenizer_model"`
}

// ProcessingConfig holds page rendering and batching settings.
type ProcessingConfig struct {
	DPI            int           `yaml:"dpi"`
	DownscaleDPI   int           `yaml:"downscale_dpi"`
	WhiteThreshold int           `yaml:"white_threshold"`
	BatchSize      int           `yaml:"batch_size"`
	StartPage      int           `yaml:"start_page"`
	MaxTokens      int           `yaml:"max_tokens"`
	Temperature    float64       `yaml:"temperature"`
	BatchTimeout   time.Duration `yaml:"batch_timeout"`
}

// RetryConfig bounds the per-call retry policy.
type RetryConfig struct {
	MaxAttempts int `yaml:"max_attempts"`
	BackoffBase int `yaml:"backoff_base"`
}

// ExtractionConfig holds visual-element validation thresholds, expressed
// as fractions of the page area.
type ExtractionConfig struct {
	MinAreaPercentage float64 `yaml:"min_area_percentage"`
	MaxAreaPercentage float64 `yaml:"max_area_percentage"`
}

// OutputConfig names the artifacts written next to the source PDF.
type OutputConfig struct {
	MarkdownName  string `yaml:"markdown_name"`
	ImagesDirName string `yaml:"images_dir_name"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
}

// Load reads configuration from a YAML file (path may be empty) and
// applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// DefaultConfig returns the settings used when nothing is overridden.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:        "https://api.synthetic.new/v1",
			Model:          "hf:Qwen/Qwen3-VL-235B-A22B-Instruct",
			TokenizerModel: "gpt-4",
		},
		Processing: ProcessingConfig{
			DPI:            130,
			DownscaleDPI:   100,
			WhiteThreshold: 250,
			BatchSize:      10,
			StartPage:      1,
			MaxTokens:      64000,
			Temperature:    0.1,
			BatchTimeout:   15 * time.Minute,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BackoffBase: 2,
		},
		Extraction: ExtractionConfig{
			MinAreaPercentage: 0.05,
			MaxAreaPercentage: 0.85,
		},
		Output: OutputConfig{
			MarkdownName:  "index.md",
			ImagesDirName: "images",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PAGEMILL_API_KEY"); v != "" {
		cfg.API.Key = v
	}
	if v := os.Getenv("PAGEMILL_API_BASE_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("PAGEMILL_MODEL"); v != "" {
		cfg.API.Model = v
	}
	if v := os.Getenv("PAGEMILL_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks invariants the pipeline relies on.
func (c *Config) Validate() error {
	if c.Processing.BatchSize < 1 {
		return fmt.Errorf("processing.batch_size must be >= 1, got %d", c.Processing.BatchSize)
	}
	if c.Processing.StartPage < 1 {
		return fmt.Errorf("processing.start_page must be >= 1, got %d", c.Processing.StartPage)
	}
	if c.Processing.DPI < 1 {
		return fmt.Errorf("processing.dpi must be positive, got %d", c.Processing.DPI)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be >= 1, got %d", c.Retry.MaxAttempts)
	}
	if c.Retry.BackoffBase < 1 {
		return fmt.Errorf("retry.backoff_base must be >= 1, got %d", c.Retry.BackoffBase)
	}
	if c.Extraction.MinAreaPercentage < 0 || c.Extraction.MaxAreaPercentage > 1 ||
		c.Extraction.MinAreaPercentage >= c.Extraction.MaxAreaPercentage {
		return fmt.Errorf("extraction area thresholds out of order: min %.3f max %.3f",
			c.Extraction.MinAreaPercentage, c.Extraction.MaxAreaPercentage)
	}
	return nil
}
