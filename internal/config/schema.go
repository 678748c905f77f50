package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Harsidak/papermd/internal/extract"
	"github.com/Harsidak/papermd/internal/providers"
	"github.com/Harsidak/papermd/internal/render"
)

// Config holds papermd configuration.
// Stored at: {home}/config.yaml
type Config struct {
	OutputDir string      `mapstructure:"output_dir" yaml:"output_dir" json:"output_dir"` // empty means {home}/outputs
	LogLevel  string      `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Workers   int         `mapstructure:"workers" yaml:"workers" json:"workers"` // documents converted concurrently
	Layout    LayoutCfg   `mapstructure:"layout" yaml:"layout" json:"layout"`
	Render    RenderCfg   `mapstructure:"render" yaml:"render" json:"render"`
	Fallback  FallbackCfg `mapstructure:"fallback" yaml:"fallback" json:"fallback"`
}

// LayoutCfg configures the external layout runtime.
type LayoutCfg struct {
	Enabled        bool   `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Provider       string `mapstructure:"provider" yaml:"provider" json:"provider"` // "mineru"
	URL            string `mapstructure:"url" yaml:"url" json:"url"`
	APIKey         string `mapstructure:"api_key" yaml:"api_key" json:"api_key"` // supports ${ENV_VAR} syntax
	Model          string `mapstructure:"model" yaml:"model" json:"model"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds" json:"timeout_seconds"`
	HealthRetries  int    `mapstructure:"health_retries" yaml:"health_retries" json:"health_retries"`
	OCR            bool   `mapstructure:"ocr" yaml:"ocr" json:"ocr"`
}

// RenderCfg tunes the block renderer.
type RenderCfg struct {
	TitleHeadingMaxLen int `mapstructure:"title_heading_max_len" yaml:"title_heading_max_len" json:"title_heading_max_len"`
}

// FallbackCfg tunes direct extraction.
type FallbackCfg struct {
	HeadingMaxLen int `mapstructure:"heading_max_len" yaml:"heading_max_len" json:"heading_max_len"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		OutputDir: "",
		LogLevel:  "info",
		Workers:   2,
		Layout: LayoutCfg{
			Enabled:        true,
			Provider:       providers.MinerUName,
			URL:            providers.MinerUDefaultURL,
			APIKey:         "${MINERU_API_KEY}",
			Model:          providers.MinerUDefaultModel,
			TimeoutSeconds: 600,
			HealthRetries:  3,
		},
		Render: RenderCfg{
			TitleHeadingMaxLen: render.DefaultTitleHeadingMaxLen,
		},
		Fallback: FallbackCfg{
			HeadingMaxLen: extract.DefaultHeadingMaxLen,
		},
	}
}

// Validate rejects values no component can work with.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.Render.TitleHeadingMaxLen < 1 {
		return fmt.Errorf("render.title_heading_max_len must be positive, got %d", c.Render.TitleHeadingMaxLen)
	}
	if c.Fallback.HeadingMaxLen < 1 {
		return fmt.Errorf("fallback.heading_max_len must be positive, got %d", c.Fallback.HeadingMaxLen)
	}
	if c.Layout.Enabled {
		if c.Layout.TimeoutSeconds < 1 {
			return fmt.Errorf("layout.timeout_seconds must be positive, got %d", c.Layout.TimeoutSeconds)
		}
		if c.Layout.HealthRetries < 1 {
			return fmt.Errorf("layout.health_retries must be at least 1, got %d", c.Layout.HealthRetries)
		}
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLogLevel maps a config log level ("debug", "info", "warn", "error") to a
// slog.Level. Empty means info.
func ParseLogLevel(s string) (slog.Level, error) {
	if s == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("invalid log_level %q: %w", s, err)
	}
	return level, nil
}

// ToProviderRegistryConfig converts the config to a format suitable for providers.Registry.
// It resolves ${ENV_VAR} references in the API key.
func (c *Config) ToProviderRegistryConfig() providers.RegistryConfig {
	l := c.Layout
	return providers.RegistryConfig{
		LayoutProviders: map[string]providers.LayoutProviderConfig{
			c.LayoutProviderName(): {
				Type:          l.Provider,
				URL:           l.URL,
				APIKey:        ResolveEnvVars(l.APIKey),
				Model:         l.Model,
				Timeout:       time.Duration(l.TimeoutSeconds) * time.Second,
				HealthRetries: uint(max(l.HealthRetries, 0)),
				Enabled:       l.Enabled,
			},
		},
	}
}

// LayoutProviderName is the registry name of the configured layout provider.
func (c *Config) LayoutProviderName() string {
	if c.Layout.Provider == "" {
		return providers.MinerUName
	}
	return c.Layout.Provider
}

// RenderOptions returns the renderer settings.
func (c *Config) RenderOptions() render.Options {
	return render.Options{TitleHeadingMaxLen: c.Render.TitleHeadingMaxLen}
}
