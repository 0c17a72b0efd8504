package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/inboxshot/pkg/pg"
	"github.com/dmitrymomot/inboxshot/svc/mailbox"
)

// PostgresStore implements Store on the runs, screenshots and browser_contexts tables.
type PostgresStore struct {
	db pg.DB
}

var _ Store = (*PostgresStore)(nil)

func NewPostgresStore(db pg.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateRun(ctx context.Context, run *Run) error {
	if err := validateRun(run); err != nil {
		return err
	}
	return s.db.QueryRow(ctx, `
		INSERT INTO runs (id, status, expected_shots)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at`,
		run.ID, string(run.Status), run.ExpectedShots,
	).Scan(&run.CreatedAt, &run.UpdatedAt)
}

func (s *PostgresStore) GetRun(ctx context.Context, id uuid.UUID) (*Run, error) {
	var (
		r      Run
		status string
	)
	err := s.db.QueryRow(ctx, `
		SELECT id, status, expected_shots, created_at, updated_at FROM runs WHERE id = $1`, id,
	).Scan(&r.ID, &status, &r.ExpectedShots, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, fmt.Errorf("%w: run %s", ErrNotFound, id)
		}
		return nil, err
	}
	r.Status = RunStatus(status)
	return &r, nil
}

// SetRunStatus is a single conditional update, so concurrent callers cannot move a run backwards.
func (s *PostgresStore) SetRunStatus(ctx context.Context, id uuid.UUID, status RunStatus) (bool, error) {
	if !status.Valid() {
		return false, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	from := make([]string, 0, 2)
	for _, src := range status.sources() {
		from = append(from, string(src))
	}

	tag, err := s.db.Exec(ctx, `
		UPDATE runs SET status = $2, updated_at = now()
		WHERE id = $1 AND status = ANY($3)`,
		id, string(status), from)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}
	if _, err := s.GetRun(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

func (s *PostgresStore) InsertScreenshot(ctx context.Context, sc *Screenshot) error {
	if sc == nil || sc.RunID == uuid.Nil {
		return fmt.Errorf("%w: screenshot without run", ErrInvalidRun)
	}
	if sc.ID == uuid.Nil {
		sc.ID = uuid.New()
	}
	if sc.JobID == "" {
		sc.JobID = sc.ID.String()
	}
	return s.db.QueryRow(ctx, `
		INSERT INTO screenshots (id, run_id, job_id, client, engine, dark_mode, url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (job_id, dark_mode) DO UPDATE SET url = EXCLUDED.url
		RETURNING id, created_at`,
		sc.ID, sc.RunID, sc.JobID, string(sc.Client), string(sc.Engine), sc.DarkMode, sc.URL,
	).Scan(&sc.ID, &sc.CreatedAt)
}

func (s *PostgresStore) CountScreenshots(ctx context.Context, runID uuid.UUID) (int, error) {
	var n int
	err := s.db.QueryRow(ctx, `SELECT count(*) FROM screenshots WHERE run_id = $1`, runID).Scan(&n)
	return n, err
}

func (s *PostgresStore) ListScreenshots(ctx context.Context, runID uuid.UUID) ([]Screenshot, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, run_id, job_id, client, engine, dark_mode, url, created_at
		FROM screenshots WHERE run_id = $1 ORDER BY created_at, id`, runID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(r pgx.CollectableRow) (Screenshot, error) {
		var (
			sc             Screenshot
			client, engine string
		)
		if err := r.Scan(&sc.ID, &sc.RunID, &sc.JobID, &client, &engine, &sc.DarkMode, &sc.URL, &sc.CreatedAt); err != nil {
			return Screenshot{}, err
		}
		sc.Client = mailbox.Client(client)
		sc.Engine = mailbox.Engine(engine)
		return sc, nil
	})
}

func (s *PostgresStore) GetBrowserContext(ctx context.Context, client mailbox.Client, engine mailbox.Engine) (*BrowserContext, error) {
	var bc BrowserContext
	err := s.db.QueryRow(ctx, `
		SELECT id, created_at FROM browser_contexts WHERE client = $1 AND engine = $2`,
		string(client), string(engine),
	).Scan(&bc.ID, &bc.CreatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, fmt.Errorf("%w: browser context %s-%s", ErrNotFound, client, engine)
		}
		return nil, err
	}
	bc.Client = client
	bc.Engine = engine
	return &bc, nil
}

// InsertBrowserContext relies on UNIQUE (client, engine): a losing insert is a no-op
// and the winner's row is read back.
func (s *PostgresStore) InsertBrowserContext(ctx context.Context, bc *BrowserContext) (*BrowserContext, error) {
	if _, err := s.db.Exec(ctx, `
		INSERT INTO browser_contexts (id, client, engine)
		VALUES ($1, $2, $3)
		ON CONFLICT (client, engine) DO NOTHING`,
		bc.ID, string(bc.Client), string(bc.Engine)); err != nil {
		return nil, err
	}
	return s.GetBrowserContext(ctx, bc.Client, bc.Engine)
}
