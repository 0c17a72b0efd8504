package httpserver

import (
	"log/slog"
	"time"
)

// Option configures the HTTP server.
type Option func(*config)

// WithAddr sets the listen address. Use "127.0.0.1:0" for an ephemeral port.
func WithAddr(addr string) Option {
	if addr == "" {
		panic("httpserver: empty listen address")
	}
	return func(c *config) { c.addr = addr }
}

// WithTimeouts sets the request read, response write and keep-alive idle limits.
// Zero leaves the current value.
func WithTimeouts(read, write, idle time.Duration) Option {
	return func(c *config) {
		for dst, v := range map[*time.Duration]time.Duration{
			&c.readTimeout:  read,
			&c.writeTimeout: write,
			&c.idleTimeout:  idle,
		} {
			if v > 0 {
				*dst = v
			}
		}
	}
}

// WithShutdownTimeout bounds graceful shutdown once the run context ends.
func WithShutdownTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("httpserver: shutdown timeout must be positive")
	}
	return func(c *config) { c.shutdownTimeout = d }
}

// WithLogger sets the server logger. A nil logger discards output.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithTracing wraps the handler with otelhttp spans named after operation.
func WithTracing(operation string) Option {
	return func(c *config) { c.traceOperation = operation }
}
