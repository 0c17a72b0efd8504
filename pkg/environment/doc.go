// Package environment models the deployment environments (dev, preview,
// prod). The environment selects the namespace of cached browser sessions
// and travels in the context so log records can carry it.
package environment
