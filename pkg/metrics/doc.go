// Package metrics provides Prometheus instrumentation for threadpool components.
//
// # Quick Start
//
// Enable metrics by using the metrics-enabled constructors:
//
//	pool := workerpool.NewWithMetrics("ingest", 4)
//	pool.Start()
//	defer pool.Stop()
//
// Then expose metrics via HTTP:
//
//	http.Handle("/metrics", promhttp.Handler())
//	log.Fatal(http.ListenAndServe(":8080", nil))
//
// # Custom Registry
//
// Use a custom Prometheus registry for isolation:
//
//	registry := prometheus.NewRegistry()
//	pool := workerpool.NewWithConfigAndMetrics(
//		workerpool.Config{Name: "ingest", WorkerCount: 4},
//		metrics.Config{Enabled: true, Registry: registry},
//	)
//
// # Available Metrics
//
// ## Worker Pool Metrics
//
//   - threadpool_workerpool_tasks_submitted_total
//   - threadpool_workerpool_tasks_executed_total
//   - threadpool_workerpool_tasks_completed_total
//   - threadpool_workerpool_tasks_failed_total
//   - threadpool_workerpool_tasks_shed_total
//   - threadpool_workerpool_worker_panics_total
//   - threadpool_workerpool_task_duration_seconds
//   - threadpool_workerpool_task_queue_wait_seconds
//   - threadpool_workerpool_size
//   - threadpool_workerpool_live_workers
//   - threadpool_workerpool_queued_tasks
//
// ## Scheduler Metrics
//
//   - threadpool_scheduler_tasks_scheduled_total
//   - threadpool_scheduler_tasks_dispatched_total
//   - threadpool_scheduler_dispatch_errors_total
//
// Pool metrics carry a pool_name label, scheduler metrics a scheduler_name label.
package metrics
