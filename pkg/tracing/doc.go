// Package tracing wires OpenTelemetry for the worker.
//
// Init installs a global tracer provider (with the stdout exporter when enabled) and
// returns its shutdown func. Start and End are thin helpers used around pipeline steps:
//
//	ctx, span := tracing.Start(ctx, "pipeline", "locate", tracing.Client("gmail"))
//	err := locate(ctx)
//	tracing.End(span, err)
//
// Without Init the global provider is a no-op, so packages can call Start unconditionally.
package tracing
