// Package metrics provides Prometheus instrumentation for lineagekit components.
//
// Components that accept a metrics.Config record into a Registry built with
// promauto on the configured Registerer. Pass a fresh prometheus.NewRegistry()
// to isolate a component, or leave Registry nil to use DefaultRegistry, which
// is registered on prometheus.DefaultRegisterer.
//
// # Available Metrics
//
// Coalescing scheduler (label scheduler_name):
//
//   - lineagekit_coalesce_scheduled_total
//   - lineagekit_coalesce_executed_total
//   - lineagekit_coalesce_coalesced_total
//   - lineagekit_coalesce_failed_total
//   - lineagekit_coalesce_execution_duration_seconds
//   - lineagekit_coalesce_running
//
// Dispatch (label kind):
//
//   - lineagekit_dispatch_commands_total
//
// HTTP clients (labels client, endpoint, status):
//
//   - lineagekit_http_requests_total
//   - lineagekit_http_request_duration_seconds
//
// Cache (label cache_name):
//
//   - lineagekit_cache_hits_total
//   - lineagekit_cache_misses_total
//
// Refresh jobs (labels job, result):
//
//   - lineagekit_refresh_runs_total
//   - lineagekit_refresh_duration_seconds
//
// Expose them with promhttp:
//
//	http.Handle("/metrics", promhttp.Handler())
package metrics
