package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// Example_basicUsage demonstrates creating an isolated registry.
func Example_basicUsage() {
	registry := NewRegistry(prometheus.NewRegistry())

	registry.CoalesceScheduled.WithLabelValues("select_app").Add(3)
	registry.CoalesceExecuted.WithLabelValues("select_app").Add(2)
	registry.CoalesceCoalesced.WithLabelValues("select_app").Inc()

	fmt.Println(testutil.ToFloat64(registry.CoalesceScheduled.WithLabelValues("select_app")))
	fmt.Println(testutil.ToFloat64(registry.CoalesceCoalesced.WithLabelValues("select_app")))

	// Output:
	// 3
	// 1
}

// Example_fromConfig demonstrates resolving a registry from configuration.
func Example_fromConfig() {
	cfg := Config{
		Enabled:   true,
		Registry:  prometheus.NewRegistry(),
		Namespace: "site",
	}
	registry := FromConfig(cfg)
	registry.CacheHits.WithLabelValues("builds").Inc()

	fmt.Println(FromConfig(Config{}) == DefaultRegistry)
	fmt.Println(testutil.ToFloat64(registry.CacheHits.WithLabelValues("builds")))

	// Output:
	// true
	// 1
}

// Example_configuration demonstrates the default configuration.
func Example_configuration() {
	defaultConfig := DefaultConfig()
	fmt.Printf("Default enabled: %v\n", defaultConfig.Enabled)
	fmt.Printf("Default namespace: %s\n", defaultConfig.Namespace)
	fmt.Printf("Uses DefaultRegistry: %v\n", FromConfig(defaultConfig) == DefaultRegistry)

	// Output:
	// Default enabled: true
	// Default namespace: lineagekit
	// Uses DefaultRegistry: true
}
