// Package metrics provides Prometheus instrumentation for matdet components.
//
// The Registry groups every collector the module exposes:
//   - matdet_workerpool_*: pool size, active workers, queued tasks, submitted,
//     rejected, executed, faulted and dropped task counters, queue wait and
//     execution time histograms (label pool_name)
//   - matdet_batch_*: runs, succeeded and failed jobs, run duration
//     (label runner_name, plus stage on failures)
//   - matdet_report_*: records, errors and bytes written (label sink_name)
//
// Collectors are created through promauto against the configured
// prometheus.Registerer. DefaultRegistry is bound to
// prometheus.DefaultRegisterer, so it is what promhttp.Handler() serves:
//
//	pool := workerpool.NewWithMetrics(4, "determinants")
//	http.Handle("/metrics", promhttp.Handler())
//
// Use a private registry in tests to keep collectors isolated:
//
//	reg := prometheus.NewRegistry()
//	m := metrics.NewRegistry(reg)
package metrics
