package postprocessors

import (
	"fmt"

	"github.com/custodia-labs/shelfsearch/internal/core/domain"
	"github.com/custodia-labs/shelfsearch/internal/core/ports/driven"
)

// BuilderFunc creates a hook from generic config.
// Config is a map of hook-specific settings parsed from user config.
type BuilderFunc func(cfg map[string]any) (driven.PostProcessor, error)

// Registry maps hook names to their builders.
// It allows the chain to be assembled from configuration.
type Registry struct {
	builders map[string]BuilderFunc
}

// NewRegistry creates a new hook registry.
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[string]BuilderFunc),
	}
}

// Register adds a hook builder to the registry.
// Name should be unique and match the hook's Name() return value.
func (r *Registry) Register(name string, builder BuilderFunc) {
	r.builders[name] = builder
}

// Build creates a hook by name with the given config.
func (r *Registry) Build(name string, cfg map[string]any) (driven.PostProcessor, error) {
	builder, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("unknown hook %s: %w", name, domain.ErrUnsupportedType)
	}
	return builder(cfg)
}

// Has returns true if a hook with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.builders[name]
	return ok
}

// Names returns all registered hook names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	return names
}

// BuildChain builds the named hooks in order and returns a sealed chain.
// configs holds optional per-hook settings keyed by hook name.
func (r *Registry) BuildChain(names []string, configs map[string]map[string]any) (*Chain, error) {
	chain := NewChain()
	for _, name := range names {
		hook, err := r.Build(name, configs[name])
		if err != nil {
			return nil, err
		}
		if err := chain.Register(hook); err != nil {
			return nil, err
		}
	}
	chain.Seal()
	return chain, nil
}
