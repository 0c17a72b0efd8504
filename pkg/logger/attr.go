package logger

import "log/slog"

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Duration records a duration under the key "duration".
func Duration(d any) slog.Attr {
	return slog.Any("duration", d)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// RunID records the run under the key "run_id".
func RunID(id string) slog.Attr {
	return slog.String("run_id", id)
}

// JobID records the job, which is its queue task ID, under the key "job_id".
func JobID(id string) slog.Attr {
	return slog.String("job_id", id)
}

// Client records the mailbox provider under the key "client".
func Client(name string) slog.Attr {
	return slog.String("client", name)
}

// Engine records the browser engine under the key "engine".
func Engine(name string) slog.Attr {
	return slog.String("engine", name)
}

// Step records the pipeline step under the key "step".
func Step(name string) slog.Attr {
	return slog.String("step", name)
}

// Attempt records the 1-based attempt number under the key "attempt".
func Attempt(n int) slog.Attr {
	return slog.Int("attempt", n)
}

// SessionID records the remote browser session under the key "session_id".
func SessionID(id string) slog.Attr {
	return slog.String("session_id", id)
}
