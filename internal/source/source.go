package source

import (
	"fmt"

	"github.com/advanceai-medora/Medora-AI-sub000/internal/ports"
)

// Registry keeps a mapping from source names to their adapter implementations.
type Registry struct {
	order   []string
	sources map[string]ports.ReferenceSource
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{sources: map[string]ports.ReferenceSource{}}
}

// Register adds or replaces an adapter. Registration order is preserved for
// fan-out so ingestion runs are reproducible.
func (r *Registry) Register(src ports.ReferenceSource) {
	if r.sources == nil {
		r.sources = map[string]ports.ReferenceSource{}
	}
	if _, exists := r.sources[src.Name()]; !exists {
		r.order = append(r.order, src.Name())
	}
	r.sources[src.Name()] = src
}

// Resolve returns an adapter by name or an error if it is absent.
func (r *Registry) Resolve(name string) (ports.ReferenceSource, error) {
	if src, ok := r.sources[name]; ok {
		return src, nil
	}
	return nil, fmt.Errorf("source %s is not registered", name)
}

// All returns every registered adapter in registration order.
func (r *Registry) All() []ports.ReferenceSource {
	out := make([]ports.ReferenceSource, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.sources[name])
	}
	return out
}
