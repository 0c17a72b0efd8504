package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dmitrymomot/inboxshot/pkg/queue"
	"github.com/dmitrymomot/inboxshot/svc/mailbox"
	"github.com/dmitrymomot/inboxshot/svc/store"
)

// RunRequest asks for screenshots of one sent email. Empty Clients or Engines mean all.
type RunRequest struct {
	Clients      []mailbox.Client
	Engines      []mailbox.Engine
	SubjectToken string
}

// RunStore creates runs. store.Store satisfies it.
type RunStore interface {
	CreateRun(ctx context.Context, run *store.Run) error
	SetRunStatus(ctx context.Context, id uuid.UUID, status store.RunStatus) (bool, error)
}

// Enqueuer adds tasks to the queue. queue.Enqueuer satisfies it.
type Enqueuer interface {
	Enqueue(ctx context.Context, payload any, opts ...queue.EnqueueOption) (uuid.UUID, error)
}

// Jobs expands a request into one job per provider and engine.
func Jobs(runID uuid.UUID, req RunRequest) ([]Job, error) {
	for _, c := range req.Clients {
		if _, err := mailbox.ParseClient(string(c)); err != nil {
			return nil, err
		}
	}
	for _, e := range req.Engines {
		if _, err := mailbox.ParseEngine(string(e)); err != nil {
			return nil, err
		}
	}
	combos := mailbox.Combinations(req.Clients, req.Engines)
	if len(combos) == 0 {
		return nil, ErrNoTargets
	}

	jobs := make([]Job, 0, len(combos))
	for _, c := range combos {
		job := Job{
			RunID:        runID,
			Client:       c.Client,
			Engine:       c.Engine,
			SubjectToken: req.SubjectToken,
		}
		if err := job.Validate(); err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// EnqueueRun creates a pending run expecting every job's screenshots and enqueues the
// jobs. When enqueueing fails midway the run is marked error, since it can never
// reach its expected count.
func EnqueueRun(ctx context.Context, runs RunStore, enqueuer Enqueuer, req RunRequest, opts ...queue.EnqueueOption) (*store.Run, error) {
	runID := uuid.New()
	jobs, err := Jobs(runID, req)
	if err != nil {
		return nil, err
	}

	expected := 0
	for _, j := range jobs {
		expected += j.Shots()
	}
	run := &store.Run{
		ID:            runID,
		Status:        store.RunPending,
		ExpectedShots: expected,
	}
	if err := runs.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	enqueueOpts := append([]queue.EnqueueOption{queue.WithMaxAttempts(queue.DefaultMaxAttempts)}, opts...)
	for _, job := range jobs {
		if _, err := enqueuer.Enqueue(ctx, job, enqueueOpts...); err != nil {
			if _, markErr := runs.SetRunStatus(context.WithoutCancel(ctx), runID, store.RunError); markErr != nil {
				err = errors.Join(err, markErr)
			} else {
				run.Status = store.RunError
			}
			return run, errors.Join(ErrEnqueue, fmt.Errorf("%s-%s: %w", job.Client, job.Engine, err))
		}
	}
	return run, nil
}
