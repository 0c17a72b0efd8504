package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/inboxshot/pkg/logger"
	"github.com/dmitrymomot/inboxshot/pkg/retry"
)

// WorkerRepository is the storage a Worker claims and settles tasks through.
type WorkerRepository interface {
	// ClaimTask atomically claims the next due task and increments its attempt counter
	ClaimTask(ctx context.Context, workerID uuid.UUID, queues []string, lockDuration time.Duration) (*Task, error)

	// CompleteTask removes a successfully processed task
	CompleteTask(ctx context.Context, taskID uuid.UUID) error

	// RetryTask records the error and makes the task claimable again at retryAt
	RetryTask(ctx context.Context, taskID uuid.UUID, errorMsg string, retryAt time.Time) error

	// MoveToDLQ moves a terminally failed task to the dead letter queue
	MoveToDLQ(ctx context.Context, taskID uuid.UUID, errorMsg string) error

	// ExtendLock pushes the lock of a running task forward; it is the progress signal
	ExtendLock(ctx context.Context, taskID uuid.UUID, duration time.Duration) error

	// ReclaimStalled returns processing tasks with expired locks to pending.
	// Tasks that already stalled maxStalls times are moved to the dead letter
	// queue instead and returned with TaskStatusFailed.
	ReclaimStalled(ctx context.Context, maxStalls int) ([]*Task, error)
}

type (
	// CompletedHook runs after a task was processed successfully.
	CompletedHook func(ctx context.Context, task *Task)

	// FailedHook runs after every failed attempt. exhausted is true when the
	// task will not be retried.
	FailedHook func(ctx context.Context, task *Task, err error, exhausted bool)
)

// Worker pulls due tasks and runs them through registered handlers on a bounded pool.
type Worker struct {
	repo     WorkerRepository
	handlers map[string]Handler
	queues   []string
	workerID uuid.UUID
	sem      chan struct{}
	wg       sync.WaitGroup
	mu       sync.RWMutex
	stopMu   sync.Mutex // Protects stopping state and WaitGroup operations

	pullInterval  time.Duration
	lockTimeout   time.Duration
	stallInterval time.Duration
	maxStalls     int
	taskTimeout   time.Duration
	backoff       retry.Policy
	onCompleted   CompletedHook
	onFailed      FailedHook
	logger        *slog.Logger

	ctx      context.Context
	cancel   context.CancelFunc
	stopping atomic.Bool
}

func NewWorker(repo WorkerRepository, opts ...WorkerOption) (*Worker, error) {
	if repo == nil {
		return nil, ErrRepositoryNil
	}

	options := &workerOptions{
		queues:             []string{DefaultQueueName},
		pullInterval:       time.Second,
		lockTimeout:        time.Minute,
		stallInterval:      30 * time.Second,
		maxStalls:          1,
		taskTimeout:        10 * time.Minute,
		maxConcurrentTasks: 15,
		backoff:            retry.Exponential(DefaultMaxAttempts, 30*time.Second),
		logger:             slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	id := uuid.New()
	return &Worker{
		repo:          repo,
		handlers:      make(map[string]Handler),
		queues:        options.queues,
		workerID:      id,
		sem:           make(chan struct{}, options.maxConcurrentTasks),
		pullInterval:  options.pullInterval,
		lockTimeout:   options.lockTimeout,
		stallInterval: options.stallInterval,
		maxStalls:     options.maxStalls,
		taskTimeout:   options.taskTimeout,
		backoff:       options.backoff,
		onCompleted:   options.onCompleted,
		onFailed:      options.onFailed,
		logger:        options.logger.With(slog.String("worker_id", id.String())),
	}, nil
}

// RegisterHandler routes tasks named handler.Name() to handler.
func (w *Worker) RegisterHandler(handler Handler) error {
	if handler == nil {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.handlers[handler.Name()] = handler
	return nil
}

// Start launches the pull loop and the stall watcher.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.cancel != nil {
		w.mu.Unlock()
		return ErrWorkerAlreadyStarted
	}

	if len(w.handlers) == 0 {
		w.mu.Unlock()
		return ErrNoHandlers
	}

	w.ctx, w.cancel = context.WithCancel(ctx)
	w.mu.Unlock()

	w.stopping.Store(false)

	w.wg.Add(2)
	go w.run()
	go w.watchStalled()

	w.logger.Info("worker started", slog.Any("queues", w.queues), slog.Int("max_concurrent", cap(w.sem)))

	return nil
}

// Stop cancels claiming and waits for running handlers to settle.
func (w *Worker) Stop() error {
	w.mu.Lock()
	if w.cancel == nil {
		w.mu.Unlock()
		return ErrWorkerNotStarted
	}

	w.stopMu.Lock()
	w.stopping.Store(true)
	w.stopMu.Unlock()

	cancel := w.cancel
	w.cancel = nil
	w.mu.Unlock()

	cancel()

	w.logger.Info("worker draining active tasks")
	w.wg.Wait()
	w.logger.Info("worker stopped")

	return nil
}

// Run returns a func for errgroup.Go that runs the worker until ctx ends.
func (w *Worker) Run(ctx context.Context) func() error {
	return func() error {
		if err := w.Start(ctx); err != nil {
			return err
		}

		<-ctx.Done()

		return w.Stop()
	}
}

// run is the main processing loop. Every tick fills all free slots.
func (w *Worker) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.pullInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.fillSlots()
		}
	}
}

func (w *Worker) fillSlots() {
	for {
		select {
		case w.sem <- struct{}{}:
		default:
			return
		}

		task, err := w.claim()
		if err != nil || task == nil {
			<-w.sem
			if err != nil {
				w.logger.Error("failed to claim task", logger.Error(err))
			}
			return
		}

		w.stopMu.Lock()
		if w.stopping.Load() {
			w.stopMu.Unlock()
			<-w.sem
			// the claimed lock expires and the stall watcher hands it back
			return
		}
		w.wg.Add(1)
		w.stopMu.Unlock()

		go func() {
			defer w.wg.Done()
			defer func() { <-w.sem }()

			if err := w.processTask(task); err != nil && !errors.Is(err, ErrHandlerNotFound) {
				w.taskLog(task).Error("failed to settle task", logger.Error(err))
			}
		}()
	}
}

func (w *Worker) claim() (*Task, error) {
	task, err := w.repo.ClaimTask(w.ctx, w.workerID, w.queues, w.lockTimeout)
	if err != nil {
		if errors.Is(err, ErrNoTaskToClaim) || errors.Is(err, context.Canceled) {
			return nil, nil
		}
		return nil, err
	}
	if task != nil {
		w.taskLog(task).Debug("claimed task")
	}
	return task, nil
}

// taskLog returns the worker logger with the task's id, name and attempt.
func (w *Worker) taskLog(task *Task) *slog.Logger {
	return w.logger.With(logger.JobID(task.ID.String()), slog.String("task_name", task.TaskName), logger.Attempt(task.Attempts))
}

func (w *Worker) processTask(task *Task) error {
	start := time.Now()

	w.mu.RLock()
	handler, ok := w.handlers[task.TaskName]
	w.mu.RUnlock()

	if !ok {
		return w.handleMissingHandler(task)
	}

	// Not tied to the worker lifecycle so a graceful shutdown lets tasks finish.
	ctx, cancel := context.WithTimeout(context.Background(), w.taskTimeout)
	defer cancel()
	ctx = withTaskInfo(ctx, task)

	stopHeartbeat := w.heartbeat(ctx, task.ID)
	err := w.invoke(ctx, handler, task)
	stopHeartbeat()

	duration := time.Since(start)
	if err != nil {
		return w.handleTaskFailure(task, err, duration)
	}
	return w.handleTaskSuccess(task, duration)
}

func (w *Worker) invoke(ctx context.Context, handler Handler, task *Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("queue: handler panic: %v", r)
			w.taskLog(task).Error("handler panicked", slog.Any("panic", r))
		}
	}()
	return handler.Handle(ctx, task.Payload)
}

// heartbeat extends the task lock at half the lock timeout until the returned stop func is called.
func (w *Worker) heartbeat(ctx context.Context, taskID uuid.UUID) func() {
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()
		ticker := time.NewTicker(w.lockTimeout / 2)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := w.repo.ExtendLock(ctx, taskID, w.lockTimeout); err != nil {
					w.logger.Warn("failed to extend task lock", logger.JobID(taskID.String()), logger.Error(err))
				}
			}
		}
	}()

	return func() {
		close(done)
		wg.Wait()
	}
}

// handleMissingHandler dead-letters tasks nobody can process
func (w *Worker) handleMissingHandler(task *Task) error {
	w.taskLog(task).Error("no handler registered for task")
	if err := w.repo.MoveToDLQ(w.ctx, task.ID, ErrHandlerNotFound.Error()+": "+task.TaskName); err != nil {
		return errors.Join(ErrFailedToMoveToDLQ, err)
	}
	w.fireFailed(task, ErrHandlerNotFound, true)

	return ErrHandlerNotFound
}

// handleTaskFailure reschedules the task with backoff, or dead-letters it when
// its attempts are used up or the error is unrecoverable.
func (w *Worker) handleTaskFailure(task *Task, execErr error, duration time.Duration) error {
	exhausted := IsUnrecoverable(execErr) || task.Attempts >= task.MaxAttempts

	log := w.taskLog(task)
	log.Error("task failed",
		slog.Int("max_attempts", task.MaxAttempts),
		slog.Bool("exhausted", exhausted),
		logger.Duration(duration),
		logger.Error(execErr))

	ctx := context.WithoutCancel(w.ctx)
	if exhausted {
		if err := w.repo.MoveToDLQ(ctx, task.ID, execErr.Error()); err != nil {
			return errors.Join(ErrFailedToMoveToDLQ, err)
		}
		log.Warn("task dead-lettered")
	} else {
		retryAt := time.Now().Add(w.backoff.Delay(task.Attempts))
		if err := w.repo.RetryTask(ctx, task.ID, execErr.Error(), retryAt); err != nil {
			return errors.Join(ErrFailedToUpdateTaskStatus, err)
		}
	}

	w.fireFailed(task, execErr, exhausted)
	return nil
}

func (w *Worker) handleTaskSuccess(task *Task, duration time.Duration) error {
	if err := w.repo.CompleteTask(context.WithoutCancel(w.ctx), task.ID); err != nil {
		return errors.Join(ErrFailedToUpdateTaskStatus, err)
	}

	w.taskLog(task).Info("task completed", logger.Duration(duration))

	if w.onCompleted != nil {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(w.ctx), 30*time.Second)
		defer cancel()
		w.onCompleted(ctx, task)
	}
	return nil
}

func (w *Worker) fireFailed(task *Task, err error, exhausted bool) {
	if w.onFailed == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(w.ctx), 30*time.Second)
	defer cancel()
	w.onFailed(ctx, task, err, exhausted)
}

func (w *Worker) watchStalled() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.stallInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.reclaimStalled()
		}
	}
}

func (w *Worker) reclaimStalled() {
	tasks, err := w.repo.ReclaimStalled(w.ctx, w.maxStalls)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			w.logger.Error("failed to reclaim stalled tasks", logger.Error(err))
		}
		return
	}

	for _, task := range tasks {
		log := w.taskLog(task).With(slog.Int("stall_count", task.StallCount))
		if task.Status == TaskStatusFailed {
			log.Warn("stalled task failed")
			w.fireFailed(task, ErrStalled, true)
			continue
		}
		log.Warn("stalled task reclaimed")
	}
}

// WorkerInfo identifies the worker process in startup logs.
func (w *Worker) WorkerInfo() (id string, hostname string, pid int) {
	hostname, _ = os.Hostname()
	return w.workerID.String(), hostname, os.Getpid()
}
