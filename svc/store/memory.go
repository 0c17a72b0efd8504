package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/inboxshot/svc/mailbox"
)

// MemoryStore keeps everything in process memory. Used by tests and local runs.
type MemoryStore struct {
	mu          sync.Mutex
	runs        map[uuid.UUID]Run
	screenshots map[uuid.UUID][]Screenshot
	contexts    map[mailbox.Combination]BrowserContext
	now         func() time.Time
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		runs:        make(map[uuid.UUID]Run),
		screenshots: make(map[uuid.UUID][]Screenshot),
		contexts:    make(map[mailbox.Combination]BrowserContext),
		now:         time.Now,
	}
}

func (m *MemoryStore) CreateRun(ctx context.Context, run *Run) error {
	if err := validateRun(run); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if run.CreatedAt.IsZero() {
		run.CreatedAt = now
	}
	run.UpdatedAt = now
	m.runs[run.ID] = *run
	return nil
}

func (m *MemoryStore) GetRun(ctx context.Context, id uuid.UUID) (*Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.runs[id]
	if !ok {
		return nil, fmt.Errorf("%w: run %s", ErrNotFound, id)
	}
	return &r, nil
}

func (m *MemoryStore) SetRunStatus(ctx context.Context, id uuid.UUID, status RunStatus) (bool, error) {
	if !status.Valid() {
		return false, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.runs[id]
	if !ok {
		return false, fmt.Errorf("%w: run %s", ErrNotFound, id)
	}
	if !CanTransition(r.Status, status) {
		return false, nil
	}
	r.Status = status
	r.UpdatedAt = m.now()
	m.runs[id] = r
	return true, nil
}

func (m *MemoryStore) InsertScreenshot(ctx context.Context, s *Screenshot) error {
	if s == nil || s.RunID == uuid.Nil {
		return fmt.Errorf("%w: screenshot without run", ErrInvalidRun)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = m.now()
	}
	shots := m.screenshots[s.RunID]
	if s.JobID != "" {
		for i, prev := range shots {
			if prev.JobID == s.JobID && prev.DarkMode == s.DarkMode {
				s.ID, s.CreatedAt = prev.ID, prev.CreatedAt
				shots[i] = *s
				return nil
			}
		}
	}
	m.screenshots[s.RunID] = append(shots, *s)
	return nil
}

func (m *MemoryStore) CountScreenshots(ctx context.Context, runID uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.screenshots[runID]), nil
}

func (m *MemoryStore) ListScreenshots(ctx context.Context, runID uuid.UUID) ([]Screenshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.screenshots[runID]), nil
}

func (m *MemoryStore) GetBrowserContext(ctx context.Context, client mailbox.Client, engine mailbox.Engine) (*BrowserContext, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bc, ok := m.contexts[mailbox.Combination{Client: client, Engine: engine}]
	if !ok {
		return nil, fmt.Errorf("%w: browser context %s-%s", ErrNotFound, client, engine)
	}
	return &bc, nil
}

func (m *MemoryStore) InsertBrowserContext(ctx context.Context, bc *BrowserContext) (*BrowserContext, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := mailbox.Combination{Client: bc.Client, Engine: bc.Engine}
	if existing, ok := m.contexts[key]; ok {
		return &existing, nil
	}
	if bc.CreatedAt.IsZero() {
		bc.CreatedAt = m.now()
	}
	m.contexts[key] = *bc
	out := *bc
	return &out, nil
}

func validateRun(run *Run) error {
	if run == nil || run.ID == uuid.Nil {
		return fmt.Errorf("%w: missing id", ErrInvalidRun)
	}
	if run.ExpectedShots < 0 {
		return fmt.Errorf("%w: negative expected shots", ErrInvalidRun)
	}
	if run.Status == "" {
		run.Status = RunPending
	}
	if !run.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, run.Status)
	}
	return nil
}
