package cache

import (
	"context"
	"errors"

	"github.com/vnykmshr/lineagekit/pkg/metrics"
)

// Instrumented counts hits and misses of an underlying Cache.
type Instrumented struct {
	Cache
	name     string
	registry *metrics.Registry
}

// NewInstrumented wraps c. A nil registry uses metrics.DefaultRegistry.
func NewInstrumented(c Cache, name string, registry *metrics.Registry) *Instrumented {
	if registry == nil {
		registry = metrics.DefaultRegistry
	}
	return &Instrumented{Cache: c, name: name, registry: registry}
}

// Get implements Cache. Errors other than ErrMiss are not counted.
func (i *Instrumented) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := i.Cache.Get(ctx, key)
	switch {
	case err == nil:
		i.registry.CacheHits.WithLabelValues(i.name).Inc()
	case errors.Is(err, ErrMiss):
		i.registry.CacheMisses.WithLabelValues(i.name).Inc()
	}
	return data, err
}

var _ Cache = (*Instrumented)(nil)
