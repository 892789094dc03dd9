/*
Package observability turns router lifecycle hooks into Prometheus metrics and
structured log lines.

	metrics, err := observability.NewMetrics(prometheus.DefaultRegisterer)
	hooks := observability.Combine(metrics.Hooks(), observability.LogHooks(logger))
	eng, err := switchboard.New(ctx, dir, switchboard.WithLifecycleHooks(hooks), ...)
*/
package observability
