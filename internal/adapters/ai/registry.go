package ai

import (
	"fmt"
	"sync"
)

// ProviderRegistry stores all available AI providers.
type ProviderRegistry struct {
	providers map[ProviderName]ChatProvider
	mu        sync.RWMutex
}

// NewProviderRegistry creates an empty registry.
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		providers: make(map[ProviderName]ChatProvider),
	}
}

// Register adds a provider to the registry.
func (r *ProviderRegistry) Register(provider ChatProvider) error {
	if provider == nil {
		return fmt.Errorf("provider is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	name := provider.Name()
	if _, exists := r.providers[name]; exists {
		return fmt.Errorf("provider %s already registered", name)
	}

	r.providers[name] = provider
	return nil
}

// Get returns the provider by name.
func (r *ProviderRegistry) Get(name ProviderName) (ChatProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("provider %s not found", name)
	}

	return provider, nil
}

// List returns all registered providers.
func (r *ProviderRegistry) List() []ChatProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	providers := make([]ChatProvider, 0, len(r.providers))
	for _, p := range r.providers {
		providers = append(providers, p)
	}

	return providers
}
