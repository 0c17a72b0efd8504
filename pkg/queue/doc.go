// Package queue is a repository-agnostic job queue with bounded concurrency,
// per-task attempt budgets, exponential backoff and stall recovery.
//
// The package is organised around two components:
//
//   - Enqueuer adds tasks to the queue
//   - Worker   claims due tasks and dispatches them to a registered Handler
//
// Persistence goes through the EnqueuerRepository and WorkerRepository
// interfaces. MemoryStorage backs tests and local runs; PostgresStorage backs
// production with FOR UPDATE SKIP LOCKED claims.
//
// # Lifecycle
//
// Claiming a task increments its attempt counter and locks it for the lock
// timeout. While the handler runs the worker keeps extending the lock. When the
// handler succeeds the task is deleted. When it fails the task is rescheduled
// with the backoff policy delay, unless its attempts are used up or the error
// was wrapped with Unrecoverable, in which case it moves to the dead letter
// queue and stays there.
//
// A separate watcher reclaims tasks whose lock expired without being extended.
// A task may be reclaimed maxStalls times (one by default); the next stall
// dead-letters it with ErrStalled.
//
// Hooks registered with WithOnCompleted and WithOnFailed observe the outcome
// of every attempt.
//
// # Usage
//
//	storage := queue.NewMemoryStorage()
//	enq, _ := queue.NewEnqueuer(storage)
//	_, _ = enq.Enqueue(ctx, CapturePayload{RunID: id}, queue.WithMaxAttempts(3))
//
//	w, _ := queue.NewWorker(storage,
//		queue.WithMaxConcurrentTasks(15),
//		queue.WithBackoff(retry.Exponential(3, 30*time.Second)),
//	)
//	_ = w.RegisterHandler(queue.NewTaskHandler(func(ctx context.Context, p CapturePayload) error {
//		return nil
//	}))
//	g.Go(w.Run(ctx))
package queue
