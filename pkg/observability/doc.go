/*
Package observability turns engine lifecycle hooks into Prometheus metrics and structured logs.

Both Metrics.Hooks and LogHooks return domain.LifecycleHooks, which compose with Merge:

	hooks := metrics.Hooks().Merge(observability.LogHooks(logger))
	eng := lendflow.New(lendflow.WithLifecycleHooks(hooks))
*/
package observability
