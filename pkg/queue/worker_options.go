package queue

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/inboxshot/pkg/retry"
)

// WorkerOption is a functional option for configuring a worker
type WorkerOption func(*workerOptions)

type workerOptions struct {
	queues             []string
	pullInterval       time.Duration
	lockTimeout        time.Duration
	stallInterval      time.Duration
	maxStalls          int
	taskTimeout        time.Duration
	maxConcurrentTasks int
	backoff            retry.Policy
	onCompleted        CompletedHook
	onFailed           FailedHook
	logger             *slog.Logger
}

// WithQueues sets which queues the worker should pull from
func WithQueues(queues ...string) WorkerOption {
	return func(o *workerOptions) {
		if len(queues) > 0 {
			o.queues = queues
		}
	}
}

// WithPullInterval sets how often the worker checks for new tasks
func WithPullInterval(d time.Duration) WorkerOption {
	return func(o *workerOptions) {
		if d > 0 {
			o.pullInterval = d
		}
	}
}

// WithLockTimeout sets the lock duration; a task whose lock is not extended
// within it counts as stalled
func WithLockTimeout(d time.Duration) WorkerOption {
	return func(o *workerOptions) {
		if d > 0 {
			o.lockTimeout = d
		}
	}
}

// WithStallCheck sets how often expired locks are reclaimed and how many
// reclaims a task gets before it fails
func WithStallCheck(interval time.Duration, maxStalls int) WorkerOption {
	return func(o *workerOptions) {
		if interval > 0 {
			o.stallInterval = interval
		}
		if maxStalls >= 0 {
			o.maxStalls = maxStalls
		}
	}
}

// WithTaskTimeout bounds a single handler run
func WithTaskTimeout(d time.Duration) WorkerOption {
	return func(o *workerOptions) {
		if d > 0 {
			o.taskTimeout = d
		}
	}
}

// WithMaxConcurrentTasks sets the maximum number of concurrent tasks
func WithMaxConcurrentTasks(n int) WorkerOption {
	return func(o *workerOptions) {
		if n > 0 {
			o.maxConcurrentTasks = n
		}
	}
}

// WithBackoff sets the delay policy between attempts. The attempt budget
// itself comes from each task's MaxAttempts.
func WithBackoff(p retry.Policy) WorkerOption {
	return func(o *workerOptions) {
		if p.Backoff != nil {
			o.backoff = p
		}
	}
}

// WithOnCompleted registers a hook called after each successful task
func WithOnCompleted(fn CompletedHook) WorkerOption {
	return func(o *workerOptions) {
		o.onCompleted = fn
	}
}

// WithOnFailed registers a hook called after each failed attempt
func WithOnFailed(fn FailedHook) WorkerOption {
	return func(o *workerOptions) {
		o.onFailed = fn
	}
}

// WithWorkerLogger sets the logger for the worker
func WithWorkerLogger(logger *slog.Logger) WorkerOption {
	return func(o *workerOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}
