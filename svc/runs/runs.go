package runs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmitrymomot/inboxshot/pkg/logger"
	"github.com/dmitrymomot/inboxshot/svc/store"
)

// Repository is the slice of store.Store the aggregator needs.
type Repository interface {
	GetRun(ctx context.Context, id uuid.UUID) (*store.Run, error)
	SetRunStatus(ctx context.Context, id uuid.UUID, status store.RunStatus) (bool, error)
	CountScreenshots(ctx context.Context, runID uuid.UUID) (int, error)
}

// Aggregator finalizes runs as their jobs complete or fail.
type Aggregator struct {
	repo Repository
	log  *slog.Logger
}

type Option func(*Aggregator)

func WithLogger(l *slog.Logger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.log = l
		}
	}
}

func New(repo Repository, opts ...Option) *Aggregator {
	a := &Aggregator{repo: repo, log: slog.Default()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// MarkRunning moves a pending run to running. Later calls are no-ops.
func (a *Aggregator) MarkRunning(ctx context.Context, runID uuid.UUID) error {
	if _, err := a.repo.SetRunStatus(ctx, runID, store.RunRunning); err != nil {
		return fmt.Errorf("failed to mark run running: %w", err)
	}
	return nil
}

// OnJobCompleted marks the run done once its persisted screenshots reach the expected count.
// It reports the status the run is in afterwards.
func (a *Aggregator) OnJobCompleted(ctx context.Context, runID uuid.UUID) (store.RunStatus, error) {
	run, err := a.repo.GetRun(ctx, runID)
	if err != nil {
		return "", fmt.Errorf("failed to load run: %w", err)
	}
	if run.Status.Terminal() {
		return run.Status, nil
	}

	count, err := a.repo.CountScreenshots(ctx, runID)
	if err != nil {
		return "", fmt.Errorf("failed to count screenshots: %w", err)
	}
	if count < run.ExpectedShots {
		return run.Status, nil
	}

	changed, err := a.repo.SetRunStatus(ctx, runID, store.RunDone)
	if err != nil {
		return "", fmt.Errorf("failed to finalize run: %w", err)
	}
	if changed {
		a.log.InfoContext(ctx, "run done",
			logger.RunID(runID.String()),
			slog.Int("screenshots", count),
			slog.Int("expected", run.ExpectedShots),
		)
		return store.RunDone, nil
	}
	return a.current(ctx, runID)
}

// OnJobFailed marks the run as error, but only once the job has no attempts left.
func (a *Aggregator) OnJobFailed(ctx context.Context, runID uuid.UUID, exhausted bool) (store.RunStatus, error) {
	if !exhausted {
		return a.current(ctx, runID)
	}
	changed, err := a.repo.SetRunStatus(ctx, runID, store.RunError)
	if err != nil {
		return "", fmt.Errorf("failed to mark run error: %w", err)
	}
	if changed {
		a.log.WarnContext(ctx, "run failed", logger.RunID(runID.String()))
		return store.RunError, nil
	}
	return a.current(ctx, runID)
}

// Summary is a run with its screenshot progress.
type Summary struct {
	Run         store.Run
	Screenshots int
}

// Status returns the run with its current screenshot count.
func (a *Aggregator) Status(ctx context.Context, runID uuid.UUID) (Summary, error) {
	run, err := a.repo.GetRun(ctx, runID)
	if err != nil {
		return Summary{}, err
	}
	count, err := a.repo.CountScreenshots(ctx, runID)
	if err != nil {
		return Summary{}, err
	}
	return Summary{Run: *run, Screenshots: count}, nil
}

func (a *Aggregator) current(ctx context.Context, runID uuid.UUID) (store.RunStatus, error) {
	run, err := a.repo.GetRun(ctx, runID)
	if err != nil {
		return "", fmt.Errorf("failed to load run: %w", err)
	}
	return run.Status, nil
}
