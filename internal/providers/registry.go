package providers

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Registry holds named layout providers.
// It supports config-driven instantiation, hot-reload, and provides thread-safe access.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]LayoutProvider
	configs   map[string]LayoutProviderConfig
	logger    *slog.Logger
}

// NewRegistry creates a new empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]LayoutProvider),
		configs:   make(map[string]LayoutProviderConfig),
		logger:    slog.Default(),
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// Register registers a layout provider by name.
func (r *Registry) Register(name string, provider LayoutProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = provider
	if r.logger != nil {
		r.logger.Info("registered layout provider", "name", name)
	}
}

// Unregister removes a layout provider by name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.providers, name)
	delete(r.configs, name)
	if r.logger != nil {
		r.logger.Info("unregistered layout provider", "name", name)
	}
}

// Get returns a layout provider by name.
func (r *Registry) Get(name string) (LayoutProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	provider, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("layout provider not found: %s", name)
	}
	return provider, nil
}

// Has checks if a layout provider is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.providers[name]
	return ok
}

// List returns all registered provider names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Named returns a LayoutProvider that looks name up on every call, so a
// Reload takes effect for the next document. A name that is not registered
// reports ErrUnavailable.
func (r *Registry) Named(name string) LayoutProvider {
	return &namedProvider{registry: r, name: name}
}

type namedProvider struct {
	registry *Registry
	name     string
}

func (p *namedProvider) Name() string {
	return p.name
}

func (p *namedProvider) Ping(ctx context.Context) error {
	provider, err := p.registry.Get(p.name)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return provider.Ping(ctx)
}

func (p *namedProvider) Analyze(ctx context.Context, req *LayoutRequest) (*LayoutResult, error) {
	provider, err := p.registry.Get(p.name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return provider.Analyze(ctx, req)
}

// RegistryConfig defines the providers to instantiate from config.
// This mirrors the config.Config structure for provider setup.
type RegistryConfig struct {
	LayoutProviders map[string]LayoutProviderConfig
}

// LayoutProviderConfig matches config.LayoutProviderCfg with resolved API key.
type LayoutProviderConfig struct {
	Type          string // "mineru"
	URL           string
	APIKey        string // Resolved API key
	Model         string
	Timeout       time.Duration
	HealthRetries uint
	Enabled       bool
}

// NewRegistryFromConfig creates a registry with providers based on configuration.
// Only enabled providers with a known type and a URL are registered.
func NewRegistryFromConfig(cfg RegistryConfig) *Registry {
	r := NewRegistry()
	r.Reload(cfg)
	return r
}

// Reload updates the registry based on new configuration.
// Providers that are no longer configured will be unregistered.
// Providers with changed settings will be re-registered.
func (r *Registry) Reload(cfg RegistryConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	want := make(map[string]bool)
	for name, provCfg := range cfg.LayoutProviders {
		if !provCfg.Enabled || provCfg.URL == "" {
			continue
		}
		provider := createLayoutProvider(provCfg)
		if provider == nil {
			if r.logger != nil {
				r.logger.Warn("unknown layout provider type", "name", name, "type", provCfg.Type)
			}
			continue
		}
		want[name] = true

		existing, hasExisting := r.configs[name]
		if hasExisting && existing == provCfg {
			continue
		}
		r.providers[name] = provider
		r.configs[name] = provCfg
		if r.logger != nil {
			if hasExisting {
				r.logger.Info("updated layout provider", "name", name, "type", provCfg.Type)
			} else {
				r.logger.Info("registered layout provider", "name", name, "type", provCfg.Type)
			}
		}
	}

	// Remove config-created providers that are no longer configured.
	// Providers added with Register (no config entry) are left alone.
	for name := range r.configs {
		if !want[name] {
			delete(r.providers, name)
			delete(r.configs, name)
			if r.logger != nil {
				r.logger.Info("unregistered layout provider", "name", name)
			}
		}
	}
}

func createLayoutProvider(cfg LayoutProviderConfig) LayoutProvider {
	switch cfg.Type {
	case MinerUName, "":
		return NewMinerUClient(MinerUConfig{
			BaseURL:       cfg.URL,
			APIKey:        cfg.APIKey,
			Model:         cfg.Model,
			Timeout:       cfg.Timeout,
			HealthRetries: cfg.HealthRetries,
		})
	default:
		return nil
	}
}
