package config

import (
	"errors"
	"fmt"
	"unicode"
)

// ErrInvalidKey is returned when a config key contains invalid characters.
var ErrInvalidKey = errors.New("invalid config key")

// ErrNoDefault is returned when no default value exists for a config key.
var ErrNoDefault = errors.New("no default exists")

// Entry is a single documented configuration key.
type Entry struct {
	Key         string `json:"key" yaml:"key"`
	Value       any    `json:"value" yaml:"value"`
	Description string `json:"description" yaml:"description"`
}

// DefaultEntries returns every configuration key with its default value.
// These are registered with viper so each key can be overridden from the
// environment (PAPERMD_LAYOUT_URL for layout.url).
func DefaultEntries() []Entry {
	d := DefaultConfig()
	return []Entry{
		{
			Key:         "output_dir",
			Value:       d.OutputDir,
			Description: "Root directory for converted documents (empty uses {home}/outputs)",
		},
		{
			Key:         "log_level",
			Value:       d.LogLevel,
			Description: "Log level: debug, info, warn or error",
		},
		{
			Key:         "workers",
			Value:       d.Workers,
			Description: "Number of documents converted concurrently",
		},

		// ===================
		// Layout runtime
		// ===================
		{
			Key:         "layout.enabled",
			Value:       d.Layout.Enabled,
			Description: "Use the layout runtime before falling back to direct extraction",
		},
		{
			Key:         "layout.provider",
			Value:       d.Layout.Provider,
			Description: "Layout provider type",
		},
		{
			Key:         "layout.url",
			Value:       d.Layout.URL,
			Description: "Base URL of the layout runtime",
		},
		{
			Key:         "layout.api_key",
			Value:       d.Layout.APIKey,
			Description: "Layout runtime API key (uses environment variable)",
		},
		{
			Key:         "layout.model",
			Value:       d.Layout.Model,
			Description: "Layout model backend requested from the runtime",
		},
		{
			Key:         "layout.timeout_seconds",
			Value:       d.Layout.TimeoutSeconds,
			Description: "HTTP timeout in seconds for one layout analysis",
		},
		{
			Key:         "layout.health_retries",
			Value:       d.Layout.HealthRetries,
			Description: "Health check attempts before the runtime is treated as unavailable",
		},
		{
			Key:         "layout.ocr",
			Value:       d.Layout.OCR,
			Description: "Force OCR even for pages with an embedded text layer",
		},

		// ===================
		// Heuristics
		// ===================
		{
			Key:         "render.title_heading_max_len",
			Value:       d.Render.TitleHeadingMaxLen,
			Description: "Titles shorter than this many characters become headings, longer ones are bolded",
		},
		{
			Key:         "fallback.heading_max_len",
			Value:       d.Fallback.HeadingMaxLen,
			Description: "First page lines shorter than this many characters (and not ending in a period) become headings",
		},
	}
}

// GetDefault returns the default entry for a config key.
// Returns ErrNoDefault if the key is unknown.
func GetDefault(key string) (*Entry, error) {
	for _, entry := range DefaultEntries() {
		if entry.Key == key {
			return &entry, nil
		}
	}
	return nil, fmt.Errorf("%w for key %q", ErrNoDefault, key)
}

// ValidateKey checks if a config key contains only allowed characters.
// Valid keys contain: letters, digits, dots, underscores, and hyphens.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: key cannot be empty", ErrInvalidKey)
	}
	for i, r := range key {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '.' && r != '_' && r != '-' {
			return fmt.Errorf("%w: invalid character %q at position %d", ErrInvalidKey, r, i)
		}
	}
	// Don't allow keys starting or ending with dots
	if key[0] == '.' || key[len(key)-1] == '.' {
		return fmt.Errorf("%w: key cannot start or end with a dot", ErrInvalidKey)
	}
	return nil
}
