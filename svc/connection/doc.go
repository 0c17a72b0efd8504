// Package connection yields browser pages on remote sessions.
//
// Every (client, engine) pair owns one durable remote context; sessions started on it
// share cookies and storage across runs. The context is created lazily on first use.
// Concurrent first use is deduplicated with singleflight inside a process, with a
// Redis lock across processes and, as a last line, by the store's unique constraint.
//
// Sessions share their context by default. WithExclusive serializes connections per
// combination instead.
package connection
