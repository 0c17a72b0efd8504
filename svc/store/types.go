package store

import (
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/inboxshot/svc/mailbox"
)

// RunStatus is the externally observable outcome of a run.
type RunStatus string

const (
	RunPending RunStatus = "pending"
	RunRunning RunStatus = "running"
	RunDone    RunStatus = "done"
	RunError   RunStatus = "error"
)

// Terminal reports whether no further transition is allowed.
func (s RunStatus) Terminal() bool {
	return s == RunDone || s == RunError
}

// Valid reports whether s is a known status.
func (s RunStatus) Valid() bool {
	switch s {
	case RunPending, RunRunning, RunDone, RunError:
		return true
	}
	return false
}

// sources returns the statuses a run may move to s from.
func (s RunStatus) sources() []RunStatus {
	switch s {
	case RunRunning:
		return []RunStatus{RunPending}
	case RunDone, RunError:
		return []RunStatus{RunPending, RunRunning}
	}
	return nil
}

// CanTransition reports whether a run in from may move to to.
func CanTransition(from, to RunStatus) bool {
	return slices.Contains(to.sources(), from)
}

// Run is a batch of capture jobs for one email version.
type Run struct {
	ID            uuid.UUID
	Status        RunStatus
	ExpectedShots int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Screenshot is one published capture. A job has at most one per color scheme.
type Screenshot struct {
	ID        uuid.UUID
	RunID     uuid.UUID
	JobID     string
	Client    mailbox.Client
	Engine    mailbox.Engine
	DarkMode  bool
	URL       string
	CreatedAt time.Time
}

// BrowserContext is the durable remote context shared by every session of a combination.
type BrowserContext struct {
	ID        string
	Client    mailbox.Client
	Engine    mailbox.Engine
	CreatedAt time.Time
}
