package importers

import (
	"fmt"

	"github.com/avolkov/keepsake/internal/entities"
)

// Registry maps source types to their adapters. It is constructed once
// at startup and passed to whatever needs it; there are no package-level
// instances.
type Registry struct {
	adapters map[entities.SourceType]Adapter
}

// NewRegistry builds the registry with every supported adapter.
func NewRegistry() *Registry {
	r := &Registry{adapters: make(map[entities.SourceType]Adapter)}
	r.register(blueskyAdapter{})
	r.register(mastodonAdapter{})
	r.register(twitterAdapter{})
	r.register(twitterCSVAdapter{})
	return r
}

func (r *Registry) register(a Adapter) {
	r.adapters[a.Type()] = a
}

// Get resolves the adapter for a source type.
func (r *Registry) Get(source entities.SourceType) (Adapter, error) {
	adapter, ok := r.adapters[source]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSource, source)
	}
	return adapter, nil
}

// Types lists the registered source types in the canonical order.
func (r *Registry) Types() []entities.SourceType {
	types := make([]entities.SourceType, 0, len(r.adapters))
	for _, st := range entities.SupportedSources {
		if _, ok := r.adapters[st]; ok {
			types = append(types, st)
		}
	}
	return types
}
