// Package pipeline runs screenshot jobs.
//
// A Job names one run, one provider and one browser engine. Handle runs the job
// chain in order: connect to a remote browser, ensure the mailbox is signed in,
// locate the test email, reveal its images where the provider hides them, then
// capture light and dark screenshots. Each step runs in its own
// tracing span.
//
// Errors retrying cannot fix (missing configuration, a login that needs an operator,
// an unknown provider) are marked queue.Unrecoverable so the worker dead-letters the
// task immediately. The worker hooks OnCompleted and OnFailed keep the run status in
// step with its jobs.
//
// EnqueueRun creates a run and one job per provider and engine. API exposes it over
// HTTP next to a status endpoint.
package pipeline
