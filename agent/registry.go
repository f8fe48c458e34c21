package agent

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Registry manages named agent-backend adapters. Every backend is a cheap
// stateless struct, so adapters are built eagerly at NewRegistry time;
// Register exists for tests and for installing a credentialed APIAdapter.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

// NewRegistry returns a Registry pre-populated with every built-in backend.
func NewRegistry() *Registry {
	r := &Registry{adapters: make(map[string]Adapter)}
	for _, a := range []Adapter{
		ClaudeAdapter{}, CodexAdapter{}, GeminiAdapter{}, OpencodeAdapter{}, APIAdapter{},
	} {
		r.adapters[a.Name()] = a
	}
	return r
}

// Register adds or replaces a named adapter. Used by tests and to install a
// credentialed APIAdapter variant in place of the env-only default.
func (r *Registry) Register(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[a.Name()] = a
}

// Unregister removes a named backend from the registry.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.adapters[name]; !exists {
		return fmt.Errorf("%w: %s", ErrUnknownBackend, name)
	}
	delete(r.adapters, name)
	return nil
}

// Get returns the adapter registered under name.
func (r *Registry) Get(name string) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.adapters[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, name)
	}
	return a, nil
}

// List returns every registered backend name, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AnyAvailable reports whether at least one registered backend is available
// on the current host, satisfying the orchestrator loop's precondition.
func (r *Registry) AnyAvailable(ctx context.Context) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.adapters {
		if a.IsAvailable(ctx) {
			return true
		}
	}
	return false
}
