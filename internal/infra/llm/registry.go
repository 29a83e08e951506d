package llm

import "fmt"

// Registry holds the closed set of text providers keyed by name.
// Adding a provider means registering one more implementation; the
// orchestrator never switches on provider names itself.
type Registry struct {
	providers   map[string]Provider
	defaultName string
}

// NewRegistry creates a Registry from the given providers. defaultName
// must match one of them; it is the always-attempted fallback provider.
func NewRegistry(defaultName string, providers ...Provider) (*Registry, error) {
	ps := make(map[string]Provider, len(providers))
	for _, p := range providers {
		ps[p.Name()] = p
	}
	if _, ok := ps[defaultName]; !ok {
		return nil, fmt.Errorf("llm registry: default provider %q not registered", defaultName)
	}
	return &Registry{providers: ps, defaultName: defaultName}, nil
}

// Resolve returns the provider for name. Unknown names resolve to the
// default provider, mirroring the lenient model selection of the chat API.
func (r *Registry) Resolve(name string) Provider {
	if p, ok := r.providers[name]; ok {
		return p
	}
	return r.providers[r.defaultName]
}

// Default returns the fallback provider.
func (r *Registry) Default() Provider {
	return r.providers[r.defaultName]
}

// DefaultName returns the name of the fallback provider.
func (r *Registry) DefaultName() string {
	return r.defaultName
}
