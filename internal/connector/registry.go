package connector

import (
	"fmt"
	"sort"
	"sync"
)

// Factory builds a connector from opaque credentials.
type Factory func(creds Credentials) (Connector, error)

// Registry resolves a platform name and credentials to a connector.
type Registry struct {
	mu        sync.RWMutex
	factories map[Platform]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[Platform]Factory)}
}

// Register installs the factory for platform. Platforms outside the
// supported set are a programming error and panic.
func (r *Registry) Register(platform Platform, factory Factory) {
	if !platform.Valid() {
		panic(fmt.Sprintf("connector: register of unsupported platform %q", platform))
	}
	if factory == nil {
		panic(fmt.Sprintf("connector: nil factory for %q", platform))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[platform] = factory
}

// Get builds the connector registered for name.
func (r *Registry) Get(name string, creds Credentials) (Connector, error) {
	platform, ok := ParsePlatform(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlatform, name)
	}

	r.mu.RLock()
	factory, ok := r.factories[platform]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q not registered", ErrUnknownPlatform, name)
	}

	c, err := factory(creds)
	if err != nil {
		return nil, fmt.Errorf("build %s connector: %w", platform, err)
	}
	return c, nil
}

// Platforms lists registered platforms in name order.
func (r *Registry) Platforms() []Platform {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Platform, 0, len(r.factories))
	for p := range r.factories {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Missing returns supported platforms with no registered factory.
func (r *Registry) Missing() []Platform {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Platform
	for _, p := range allPlatforms {
		if _, ok := r.factories[p]; !ok {
			out = append(out, p)
		}
	}
	return out
}
