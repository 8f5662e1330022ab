package coalesce

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vnykmshr/lineagekit/pkg/metrics"
)

// MetricsScheduler wraps a Scheduler with Prometheus metrics collection.
type MetricsScheduler[T any] struct {
	inner    Scheduler[T]
	name     string
	enabled  atomic.Bool
	mu       sync.RWMutex
	registry *metrics.Registry

	lastCoalesced atomic.Uint64
}

// NewWithMetrics creates a scheduler for op that records metrics on a
// private Prometheus registry under name.
func NewWithMetrics[T any](op Operation[T], name string) *MetricsScheduler[T] {
	// Use a separate registry for each metrics-enabled component to avoid conflicts
	return NewWithConfigAndMetrics(op, Config{Name: name}, metrics.Config{
		Enabled:  true,
		Registry: prometheus.NewRegistry(),
	})
}

// NewWithConfigAndMetrics creates a scheduler for op with custom config and
// metrics. The scheduler name labels every metric.
func NewWithConfigAndMetrics[T any](op Operation[T], cfg Config, metricsConfig metrics.Config) *MetricsScheduler[T] {
	return newMetricsScheduler(op, cfg, metrics.FromConfig(metricsConfig), metricsConfig.Enabled)
}

// NewWithRegistry creates a scheduler for op that records into an existing
// registry, so several schedulers can share one set of collectors. A nil
// registry uses metrics.DefaultRegistry.
func NewWithRegistry[T any](op Operation[T], cfg Config, registry *metrics.Registry) *MetricsScheduler[T] {
	if registry == nil {
		registry = metrics.DefaultRegistry
	}
	return newMetricsScheduler(op, cfg, registry, true)
}

func newMetricsScheduler[T any](op Operation[T], cfg Config, registry *metrics.Registry, enabled bool) *MetricsScheduler[T] {
	if op == nil {
		panic("invalid coalescing scheduler: operation cannot be nil")
	}

	ms := &MetricsScheduler[T]{
		name:     cfg.Name,
		registry: registry,
	}
	if ms.name == "" {
		ms.name = "default"
		cfg.Name = ms.name
	}
	ms.enabled.Store(enabled)

	onIdle := cfg.OnIdle
	cfg.OnIdle = func() {
		ms.setRunning(false)
		if onIdle != nil {
			onIdle()
		}
	}
	ms.inner = NewWithConfig(ms.instrument(op), cfg)
	ms.setRunning(false)
	return ms
}

// instrument wraps op so every invocation updates the execution metrics.
func (ms *MetricsScheduler[T]) instrument(op Operation[T]) Operation[T] {
	return func(ctx context.Context, args T) (err error) {
		ms.setRunning(true)
		ms.syncCoalesced()

		start := time.Now()
		defer func() {
			r := recover()
			if ms.enabled.Load() {
				reg := ms.reg()
				reg.CoalesceDuration.WithLabelValues(ms.name).Observe(time.Since(start).Seconds())
				reg.CoalesceExecuted.WithLabelValues(ms.name).Inc()
				if err != nil || r != nil {
					reg.CoalesceFailed.WithLabelValues(ms.name).Inc()
				}
			}
			if r != nil {
				panic(r)
			}
		}()

		return op(ctx, args)
	}
}

// syncCoalesced adds the coalesced calls counted since the last sync.
func (ms *MetricsScheduler[T]) syncCoalesced() {
	current := ms.inner.Stats().Coalesced
	previous := ms.lastCoalesced.Swap(current)
	if current > previous && ms.enabled.Load() {
		ms.reg().CoalesceCoalesced.WithLabelValues(ms.name).Add(float64(current - previous))
	}
}

func (ms *MetricsScheduler[T]) setRunning(running bool) {
	if !ms.enabled.Load() {
		return
	}
	v := 0.0
	if running {
		v = 1
	}
	ms.reg().CoalesceRunning.WithLabelValues(ms.name).Set(v)
}

func (ms *MetricsScheduler[T]) reg() *metrics.Registry {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return ms.registry
}

// Schedule records args and counts the call.
func (ms *MetricsScheduler[T]) Schedule(args T) {
	if ms.enabled.Load() {
		ms.reg().CoalesceScheduled.WithLabelValues(ms.name).Inc()
	}
	ms.inner.Schedule(args)
}

// Running reports whether a run loop is active and refreshes the running gauge.
func (ms *MetricsScheduler[T]) Running() bool {
	running := ms.inner.Running()
	ms.setRunning(running)
	return running
}

// Wait blocks until the run loop is idle.
func (ms *MetricsScheduler[T]) Wait(ctx context.Context) error {
	if err := ms.inner.Wait(ctx); err != nil {
		return err
	}
	ms.syncCoalesced()
	ms.setRunning(ms.inner.Running())
	return nil
}

// Stats returns the wrapped scheduler's counters.
func (ms *MetricsScheduler[T]) Stats() Stats {
	return ms.inner.Stats()
}

// EnableMetrics enables metrics collection.
func (ms *MetricsScheduler[T]) EnableMetrics(config metrics.Config) error {
	if config.Registry != nil {
		ms.mu.Lock()
		ms.registry = metrics.FromConfig(config)
		ms.mu.Unlock()
	}
	ms.enabled.Store(config.Enabled)
	return nil
}

// DisableMetrics disables metrics collection.
func (ms *MetricsScheduler[T]) DisableMetrics() {
	ms.enabled.Store(false)
}

// MetricsEnabled returns true if metrics are currently enabled.
func (ms *MetricsScheduler[T]) MetricsEnabled() bool {
	return ms.enabled.Load()
}

// Registry returns the registry metrics are recorded into.
func (ms *MetricsScheduler[T]) Registry() *metrics.Registry {
	return ms.reg()
}

var (
	_ Scheduler[int]         = (*MetricsScheduler[int])(nil)
	_ metrics.Instrumentable = (*MetricsScheduler[int])(nil)
)
