package remote

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/randalmurphal/ckptsync/pkg/ckptsync/config"
	ckerr "github.com/randalmurphal/ckptsync/pkg/ckptsync/errors"
)

// Factory builds a backend from its configuration section.
type Factory func(ctx context.Context, cfg config.Config, opts Options) (Backend, error)

// Registry maps backend names to factories. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds or replaces the factory for name.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// Get returns the factory for name and whether it exists.
func (r *Registry) Get(name string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[name]
	return f, ok
}

// Has returns true if a factory is registered for name.
func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open builds the backend registered under name.
// An unknown name is a misuse error.
func (r *Registry) Open(ctx context.Context, name string, cfg config.Config, opts Options) (Backend, error) {
	f, ok := r.Get(name)
	if !ok {
		return nil, ckerr.Misuse("backend", fmt.Sprintf("unknown backend %q (registered: %v)", name, r.Names()))
	}
	return f(ctx, cfg, opts)
}
