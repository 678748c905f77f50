package providers

import (
	"os"
)

// TestConfig holds provider configurations loaded from environment variables.
// This allows tests to use the same configuration pattern as production.
type TestConfig struct {
	MinerUURL    string
	MinerUAPIKey string
}

// LoadTestConfig loads layout runtime settings from environment variables.
func LoadTestConfig() TestConfig {
	return TestConfig{
		MinerUURL:    os.Getenv("MINERU_URL"),
		MinerUAPIKey: os.Getenv("MINERU_API_KEY"),
	}
}

// HasMinerU returns true if a MinerU server is configured.
func (c TestConfig) HasMinerU() bool {
	return c.MinerUURL != ""
}

// NewMinerUClient creates a MinerU client from test config.
// Returns nil if not configured.
func (c TestConfig) NewMinerUClient() *MinerUClient {
	if !c.HasMinerU() {
		return nil
	}
	return NewMinerUClient(MinerUConfig{
		BaseURL: c.MinerUURL,
		APIKey:  c.MinerUAPIKey,
	})
}
