package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "lineagekit"

// Config selects where a component records its metrics.
type Config struct {
	Enabled bool

	// Registry receives the collectors. Nil means DefaultRegistry, which is
	// already registered on prometheus.DefaultRegisterer.
	Registry prometheus.Registerer

	// Namespace applies to a fresh Registry only. Defaults to DefaultNamespace.
	Namespace string
}

// DefaultConfig records into DefaultRegistry.
func DefaultConfig() Config {
	return Config{Enabled: true, Namespace: DefaultNamespace}
}

// FromConfig returns the registry described by cfg: DefaultRegistry when no
// Registerer is set, otherwise a fresh Registry on cfg.Registry. Each
// Registerer can back one Registry only; a second one panics on duplicate
// registration.
func FromConfig(cfg Config) *Registry {
	if cfg.Registry == nil {
		return DefaultRegistry
	}
	ns := cfg.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}
	return NewRegistryWithNamespace(cfg.Registry, ns)
}

// Instrumentable is implemented by components whose metrics can be switched
// on and off at runtime.
type Instrumentable interface {
	EnableMetrics(config Config) error
	DisableMetrics()
	MetricsEnabled() bool
}
