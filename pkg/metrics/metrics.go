// Package metrics provides Prometheus instrumentation for courseflow components.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DefaultNamespace is the metric namespace used when Config.Namespace is empty.
const DefaultNamespace = "courseflow"

// Registry holds all metric instances for courseflow components.
type Registry struct {
	// Executor Metrics
	ExecutorQueued   *prometheus.GaugeVec
	ExecutorExecuted *prometheus.CounterVec
	ExecutorPanics   *prometheus.CounterVec

	// Backed Stream Metrics
	StreamBackingSwitches *prometheus.CounterVec
	StreamResults         *prometheus.CounterVec
	StreamStaleResults    *prometheus.CounterVec

	// Pagination Metrics
	PaginatorPages     *prometheus.CounterVec
	PaginatorItems     *prometheus.CounterVec
	PaginatorExhausted *prometheus.CounterVec
	PaginatorLoading   *prometheus.GaugeVec

	// Network Metrics
	NetworkRequests *prometheus.CounterVec
	NetworkDuration *prometheus.HistogramVec
	NetworkCache    *prometheus.CounterVec

	// Worker Pool Metrics
	WorkerPoolSize   *prometheus.GaugeVec
	WorkerPoolActive *prometheus.GaugeVec
	WorkerPoolQueued *prometheus.GaugeVec
	TasksCompleted   *prometheus.CounterVec
	TasksFailed      *prometheus.CounterVec

	// Refresh Metrics
	RefreshRuns *prometheus.CounterVec
}

// DefaultRegistry is the default metrics registry used by courseflow components.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	return NewRegistryWithConfig(Config{Registry: reg})
}

// NewRegistryWithConfig creates a registry honouring the namespace and
// constant labels in config.
func NewRegistryWithConfig(config Config) *Registry {
	reg := config.Registry
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	ns := config.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}
	factory := promauto.With(reg)
	labels := config.Labels

	counter := func(subsystem, name, help string, labelNames ...string) *prometheus.CounterVec {
		return factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   ns,
			Subsystem:   subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		}, labelNames)
	}
	gauge := func(subsystem, name, help string, labelNames ...string) *prometheus.GaugeVec {
		return factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   ns,
			Subsystem:   subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		}, labelNames)
	}

	return &Registry{
		ExecutorQueued:   gauge("executor", "queued_tasks", "Tasks waiting on a serial executor", "executor_name"),
		ExecutorExecuted: counter("executor", "tasks_executed_total", "Tasks run by a serial executor", "executor_name"),
		ExecutorPanics:   counter("executor", "panics_total", "Tasks that panicked on a serial executor", "executor_name"),

		StreamBackingSwitches: counter("stream", "backing_switches_total", "Times a backed stream was rebound", "stream_name"),
		StreamResults:         counter("stream", "results_total", "Results forwarded by a backed stream", "stream_name", "outcome"),
		StreamStaleResults:    counter("stream", "stale_results_total", "Results from superseded backings that were dropped", "stream_name"),

		PaginatorPages:     counter("paginator", "pages_total", "Pages requested by a paginator", "paginator_name", "outcome"),
		PaginatorItems:     counter("paginator", "items_total", "Items delivered by a paginator", "paginator_name"),
		PaginatorExhausted: counter("paginator", "exhausted_total", "Times a paginator ran out of results", "paginator_name", "reason"),
		PaginatorLoading:   gauge("paginator", "loading", "1 while a paginator has a page in flight", "paginator_name"),

		NetworkRequests: counter("network", "requests_total", "HTTP requests issued", "method", "outcome"),
		NetworkDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   ns,
			Subsystem:   "network",
			Name:        "request_duration_seconds",
			Help:        "Time spent on HTTP requests",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: labels,
		}, []string{"method"}),
		NetworkCache: counter("network", "cache_lookups_total", "Response cache lookups", "result"),

		WorkerPoolSize:   gauge("workerpool", "size", "Current worker pool size", "pool_name"),
		WorkerPoolActive: gauge("workerpool", "active_workers", "Number of active workers", "pool_name"),
		WorkerPoolQueued: gauge("workerpool", "queued_tasks", "Number of queued tasks", "pool_name"),
		TasksCompleted:   counter("workerpool", "tasks_completed_total", "Tasks completed successfully", "pool_name"),
		TasksFailed:      counter("workerpool", "tasks_failed_total", "Tasks that failed", "pool_name"),

		RefreshRuns: counter("refresh", "runs_total", "Scheduled refresh jobs dispatched", "job_id"),
	}
}
