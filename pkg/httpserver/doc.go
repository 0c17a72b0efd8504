// Package httpserver runs the worker's operational HTTP endpoint: health probes and the
// small run-management API.
//
// Server binds its listener eagerly, exposes Ready and Addr so callers and tests can wait
// for it, and shuts down gracefully when the Run context is canceled. WithTracing wraps the
// handler in otelhttp so every request produces a span.
//
//	srv := httpserver.NewFromConfig(cfg.HTTP,
//		httpserver.WithLogger(log),
//		httpserver.WithTracing("ops"),
//	)
//	g.Go(func() error { return srv.Run(ctx, router) })
//
// LivenessHandler and ReadinessHandler answer JSON; readiness runs named checks (postgres,
// redis) with a per-check timeout and answers 503 when any fails.
package httpserver
