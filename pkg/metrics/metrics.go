// Package metrics provides Prometheus instrumentation for lineagekit components.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metric instances for lineagekit components.
type Registry struct {
	// Coalescing scheduler
	CoalesceScheduled *prometheus.CounterVec
	CoalesceExecuted  *prometheus.CounterVec
	CoalesceCoalesced *prometheus.CounterVec
	CoalesceFailed    *prometheus.CounterVec
	CoalesceDuration  *prometheus.HistogramVec
	CoalesceRunning   *prometheus.GaugeVec

	// Command dispatch
	CommandsDispatched *prometheus.CounterVec

	// Remote documents and APIs
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Cache
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec

	// Periodic refresh
	RefreshRuns     *prometheus.CounterVec
	RefreshDuration *prometheus.HistogramVec
}

// DefaultRegistry is the registry used by components that are not given one.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a metrics registry on reg using the default namespace.
func NewRegistry(reg prometheus.Registerer) *Registry {
	return NewRegistryWithNamespace(reg, DefaultNamespace)
}

// NewRegistryWithNamespace creates a metrics registry on reg under namespace.
func NewRegistryWithNamespace(reg prometheus.Registerer, namespace string) *Registry {
	factory := promauto.With(reg)

	return &Registry{
		CoalesceScheduled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "coalesce",
				Name:      "scheduled_total",
				Help:      "Total number of Schedule calls",
			},
			[]string{"scheduler_name"},
		),

		CoalesceExecuted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "coalesce",
				Name:      "executed_total",
				Help:      "Total number of operation invocations",
			},
			[]string{"scheduler_name"},
		),

		CoalesceCoalesced: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "coalesce",
				Name:      "coalesced_total",
				Help:      "Total number of scheduled calls superseded before they ran",
			},
			[]string{"scheduler_name"},
		),

		CoalesceFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "coalesce",
				Name:      "failed_total",
				Help:      "Total number of invocations that returned an error or panicked",
			},
			[]string{"scheduler_name"},
		),

		CoalesceDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "coalesce",
				Name:      "execution_duration_seconds",
				Help:      "Time spent in each operation invocation",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"scheduler_name"},
		),

		CoalesceRunning: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "coalesce",
				Name:      "running",
				Help:      "1 while the run loop is active, 0 when idle",
			},
			[]string{"scheduler_name"},
		),

		CommandsDispatched: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "dispatch",
				Name:      "commands_total",
				Help:      "Total number of commands dispatched",
			},
			[]string{"kind"},
		),

		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of outgoing HTTP requests",
			},
			[]string{"client", "endpoint", "status"},
		),

		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of outgoing HTTP requests",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"client", "endpoint"},
		),

		CacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "hits_total",
				Help:      "Total number of cache hits",
			},
			[]string{"cache_name"},
		),

		CacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "misses_total",
				Help:      "Total number of cache misses",
			},
			[]string{"cache_name"},
		),

		RefreshRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "refresh",
				Name:      "runs_total",
				Help:      "Total number of refresh job runs by result",
			},
			[]string{"job", "result"},
		),

		RefreshDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "refresh",
				Name:      "duration_seconds",
				Help:      "Duration of refresh job runs",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"job"},
		),
	}
}
