package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MaxAttemptsLimit caps the attempt budget of a single task.
const MaxAttemptsLimit = 10

// EnqueuerRepository stores new tasks.
type EnqueuerRepository interface {
	CreateTask(ctx context.Context, task *Task) error
}

// Enqueuer turns payloads into pending tasks. The pipeline enqueues one task per
// (client, engine) of a run.
type Enqueuer struct {
	repo     EnqueuerRepository
	defaults enqueueOptions
}

// EnqueuerOption configures an Enqueuer.
type EnqueuerOption func(*enqueueOptions)

// EnqueueOption configures a single Enqueue call.
type EnqueueOption func(*enqueueOptions)

type enqueueOptions struct {
	queue       string
	taskName    string
	maxAttempts int
	delay       time.Duration
}

func (o *enqueueOptions) setQueue(q string) {
	if q != "" {
		o.queue = q
	}
}

func (o *enqueueOptions) setMaxAttempts(n int) {
	if n >= 1 && n <= MaxAttemptsLimit {
		o.maxAttempts = n
	}
}

// WithDefaultQueue sets the queue of tasks enqueued without WithQueue.
func WithDefaultQueue(queue string) EnqueuerOption {
	return func(o *enqueueOptions) { o.setQueue(queue) }
}

// WithDefaultMaxAttempts sets the budget of tasks enqueued without WithMaxAttempts.
// Values outside 1..MaxAttemptsLimit are ignored.
func WithDefaultMaxAttempts(n int) EnqueuerOption {
	return func(o *enqueueOptions) { o.setMaxAttempts(n) }
}

func WithQueue(queue string) EnqueueOption {
	return func(o *enqueueOptions) { o.setQueue(queue) }
}

// WithMaxAttempts sets how many times the task may run, the first run included.
func WithMaxAttempts(n int) EnqueueOption {
	return func(o *enqueueOptions) { o.setMaxAttempts(n) }
}

// WithDelay postpones the first claim.
func WithDelay(delay time.Duration) EnqueueOption {
	return func(o *enqueueOptions) {
		if delay > 0 {
			o.delay = delay
		}
	}
}

// WithTaskName overrides the task name, which defaults to the payload's package-qualified type.
func WithTaskName(name string) EnqueueOption {
	return func(o *enqueueOptions) {
		if name != "" {
			o.taskName = name
		}
	}
}

func NewEnqueuer(repo EnqueuerRepository, opts ...EnqueuerOption) (*Enqueuer, error) {
	if repo == nil {
		return nil, ErrRepositoryNil
	}
	e := &Enqueuer{repo: repo, defaults: enqueueOptions{queue: DefaultQueueName, maxAttempts: DefaultMaxAttempts}}
	for _, opt := range opts {
		opt(&e.defaults)
	}
	return e, nil
}

// Enqueue stores payload as JSON in a new pending task and returns the task id.
func (e *Enqueuer) Enqueue(ctx context.Context, payload any, opts ...EnqueueOption) (uuid.UUID, error) {
	if payload == nil {
		return uuid.Nil, ErrPayloadNil
	}
	o := e.defaults
	for _, opt := range opts {
		opt(&o)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return uuid.Nil, fmt.Errorf("queue: encode %T: %w", payload, err)
	}
	if o.taskName == "" {
		o.taskName = qualifiedStructName(payload)
	}

	now := time.Now()
	task := &Task{
		ID:          uuid.New(),
		Queue:       o.queue,
		TaskName:    o.taskName,
		Payload:     data,
		Status:      TaskStatusPending,
		MaxAttempts: o.maxAttempts,
		ScheduledAt: now.Add(o.delay),
		CreatedAt:   now,
	}
	if err := e.repo.CreateTask(ctx, task); err != nil {
		return uuid.Nil, fmt.Errorf("queue: create %s task in %q: %w", task.TaskName, task.Queue, err)
	}
	return task.ID, nil
}
