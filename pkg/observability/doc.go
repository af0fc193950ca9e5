/*
Package observability turns engine lifecycle events into Prometheus metrics
and structured log records.

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	hooks := observability.Hooks(metrics, logger)
	engine, _ := polya.New("", polya.WithLifecycleHooks(hooks))

Combine merges several hook sets, e.g. metrics plus an SSE broadcaster.
*/
package observability
