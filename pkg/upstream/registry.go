package upstream

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Registry holds the configured provider adapters keyed by name. The relay
// only ever speaks to the registry, so swapping providers is a config change.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register adds an adapter, replacing any previous one with the same name.
func (r *Registry) Register(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[a.Name()] = a
}

// Get looks an adapter up by provider name.
func (r *Registry) Get(name string) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return a, nil
}

// Open resolves cfg.Provider and opens a live session against it.
func (r *Registry) Open(ctx context.Context, cfg Config) (Session, error) {
	a, err := r.Get(cfg.Provider)
	if err != nil {
		return nil, err
	}
	return a.Open(ctx, cfg)
}

// Providers lists the registered adapter names in stable order.
func (r *Registry) Providers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
