// Package logger builds *slog.Logger values for the worker and the CLI.
//
// New takes functional options (format, level, output, static attributes,
// environment defaults) and wraps the handler in one that
// adds attributes carried by the context. Pipeline code stores job-scoped
// attributes once with WithAttrs and every component logging with that
// context picks them up:
//
//	ctx = logger.WithAttrs(ctx, logger.RunID(job.RunID.String()), logger.Client("gmail"))
//	log.InfoContext(ctx, "logged in") // includes run_id and client
//
// The attribute helpers (Error, Duration, RunID, JobID, Client, Engine, Step,
// Attempt...) keep key names consistent across packages.
package logger
