// Package metrics provides Prometheus instrumentation for courseflow components.
//
// # Overview
//
// Instrumented components take a *Registry through an option (usually
// WithMetrics). A nil registry disables collection for that component.
//
//	reg := metrics.NewRegistry(prometheus.NewRegistry())
//	exec := executor.NewSerial(executor.WithMetrics(reg, "main"))
//	outline := stream.NewBacked[course.BlockGroup](exec, stream.WithMetrics(reg))
//
// Expose metrics via HTTP:
//
//	http.Handle("/metrics", promhttp.Handler())
//
// # Available Metrics
//
//   - courseflow_executor_queued_tasks, courseflow_executor_tasks_executed_total,
//     courseflow_executor_panics_total
//   - courseflow_stream_backing_switches_total, courseflow_stream_results_total,
//     courseflow_stream_stale_results_total
//   - courseflow_paginator_pages_total, courseflow_paginator_items_total,
//     courseflow_paginator_exhausted_total, courseflow_paginator_loading
//   - courseflow_network_requests_total, courseflow_network_request_duration_seconds,
//     courseflow_network_cache_lookups_total
//   - courseflow_workerpool_size, courseflow_workerpool_active_workers,
//     courseflow_workerpool_queued_tasks, courseflow_workerpool_tasks_completed_total,
//     courseflow_workerpool_tasks_failed_total
//   - courseflow_refresh_runs_total
//
// Use a dedicated prometheus.Registry per test to avoid duplicate
// registration panics.
package metrics
