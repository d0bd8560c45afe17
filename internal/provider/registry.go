package provider

import (
	"fmt"
	"sync"
)

// Registry maps provider names to providers. Bare model ids resolve to the
// default provider so builder-authored workflows don't need a prefix.
type Registry struct {
	mu          sync.RWMutex
	providers   map[string]Provider
	defaultName string
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds a provider. The first registered provider becomes the
// default for bare model ids.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.providers) == 0 {
		r.defaultName = p.Name()
	}
	r.providers[p.Name()] = p
}

func (r *Registry) Get(name string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	return p, ok
}

// Resolve returns the provider and bare model name for a model id, which is
// either "provider/model" or a bare model id for the default provider.
func (r *Registry) Resolve(modelID string) (Provider, string, error) {
	providerName, modelName := ParseModelID(modelID)

	r.mu.RLock()
	defer r.mu.RUnlock()
	if providerName == "" {
		providerName = r.defaultName
	}
	p, ok := r.providers[providerName]
	if !ok {
		return nil, "", fmt.Errorf("unknown provider %q for model %q", providerName, modelID)
	}
	return p, modelName, nil
}
