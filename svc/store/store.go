package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/dmitrymomot/inboxshot/svc/mailbox"
)

// Store is the persistence surface of the pipeline.
type Store interface {
	CreateRun(ctx context.Context, run *Run) error
	// GetRun returns ErrNotFound for unknown ids.
	GetRun(ctx context.Context, id uuid.UUID) (*Run, error)
	// SetRunStatus moves a run to status only from a status it may legally come from.
	// It reports false without error when the run was already past that point.
	SetRunStatus(ctx context.Context, id uuid.UUID, status RunStatus) (bool, error)

	InsertScreenshot(ctx context.Context, s *Screenshot) error
	CountScreenshots(ctx context.Context, runID uuid.UUID) (int, error)
	ListScreenshots(ctx context.Context, runID uuid.UUID) ([]Screenshot, error)

	// GetBrowserContext returns ErrNotFound when the combination has no context yet.
	GetBrowserContext(ctx context.Context, client mailbox.Client, engine mailbox.Engine) (*BrowserContext, error)
	// InsertBrowserContext stores bc unless the combination already has a context,
	// in which case the existing record is returned.
	InsertBrowserContext(ctx context.Context, bc *BrowserContext) (*BrowserContext, error)
}
