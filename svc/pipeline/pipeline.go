package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmitrymomot/inboxshot/pkg/browser"
	"github.com/dmitrymomot/inboxshot/pkg/logger"
	"github.com/dmitrymomot/inboxshot/pkg/queue"
	"github.com/dmitrymomot/inboxshot/pkg/tracing"
	"github.com/dmitrymomot/inboxshot/svc/capture"
	"github.com/dmitrymomot/inboxshot/svc/connection"
	"github.com/dmitrymomot/inboxshot/svc/login"
	"github.com/dmitrymomot/inboxshot/svc/mailbox"
	"github.com/dmitrymomot/inboxshot/svc/store"
)

const tracerName = "github.com/dmitrymomot/inboxshot/svc/pipeline"

type (
	// Connector yields a page on a remote browser. connection.Manager satisfies it.
	Connector interface {
		Connect(ctx context.Context, client mailbox.Client, engine mailbox.Engine) (*connection.Connection, error)
	}

	// Authenticator signs a page in. login.Orchestrator satisfies it.
	Authenticator interface {
		EnsureLoggedIn(ctx context.Context, page browser.Page, client mailbox.Client, engine mailbox.Engine) (login.State, error)
	}

	// Locator opens the test email. locator.Locator satisfies it.
	Locator interface {
		WaitForEmail(ctx context.Context, page browser.Page, client mailbox.Client, token string) error
		RevealImages(ctx context.Context, page browser.Page, client mailbox.Client) error
	}

	// Capturer publishes screenshots. capture.Capturer satisfies it.
	Capturer interface {
		CaptureAll(ctx context.Context, page browser.Page, target capture.Target, jobID string) ([]store.Screenshot, error)
	}

	// Aggregator keeps run status in step with jobs. runs.Aggregator satisfies it.
	Aggregator interface {
		MarkRunning(ctx context.Context, runID uuid.UUID) error
		OnJobCompleted(ctx context.Context, runID uuid.UUID) (store.RunStatus, error)
		OnJobFailed(ctx context.Context, runID uuid.UUID, exhausted bool) (store.RunStatus, error)
	}
)

// Pipeline executes screenshot jobs.
type Pipeline struct {
	conn    Connector
	auth    Authenticator
	locator Locator
	capture Capturer
	runs    Aggregator
	log     *slog.Logger
}

type Option func(*Pipeline)

func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.log = l
		}
	}
}

func New(conn Connector, auth Authenticator, locator Locator, capturer Capturer, runs Aggregator, opts ...Option) *Pipeline {
	p := &Pipeline{
		conn:    conn,
		auth:    auth,
		locator: locator,
		capture: capturer,
		runs:    runs,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Handler returns the queue handler of Job payloads.
func (p *Pipeline) Handler() queue.Handler {
	return queue.NewTaskHandler(p.Handle)
}

// Handle runs one job. Screenshots are only taken after the email was opened.
func (p *Pipeline) Handle(ctx context.Context, job Job) (err error) {
	if err := job.Validate(); err != nil {
		return queue.Unrecoverable(err)
	}

	jobID := uuid.NewString()
	attrs := []any{
		logger.RunID(job.RunID.String()),
		logger.Client(string(job.Client)),
		logger.Engine(string(job.Engine)),
	}
	if task, ok := queue.TaskFromContext(ctx); ok {
		jobID = task.ID.String()
		attrs = append(attrs, logger.Attempt(task.Attempt))
	}
	attrs = append(attrs, logger.JobID(jobID))
	log := p.log.With(attrs...)

	ctx, span := tracing.Start(ctx, tracerName, "pipeline.job",
		tracing.RunID(job.RunID.String()),
		tracing.JobID(jobID),
		tracing.Client(string(job.Client)),
		tracing.Engine(string(job.Engine)),
	)
	defer func() { tracing.End(span, err) }()

	if err := p.runs.MarkRunning(ctx, job.RunID); err != nil {
		log.WarnContext(ctx, "failed to mark run as running", logger.Error(err))
	}

	var conn *connection.Connection
	if err := p.step(ctx, "connect", func(ctx context.Context) error {
		var err error
		conn, err = p.conn.Connect(ctx, job.Client, job.Engine)
		return err
	}); err != nil {
		return classify(err)
	}
	defer conn.Close()
	page := conn.Page

	if err := p.step(ctx, "login", func(ctx context.Context) error {
		state, err := p.auth.EnsureLoggedIn(ctx, page, job.Client, job.Engine)
		if err == nil {
			log.InfoContext(ctx, "mailbox ready", slog.String("login_state", string(state)))
		}
		return err
	}); err != nil {
		return classify(err)
	}

	if err := p.step(ctx, "locate", func(ctx context.Context) error {
		return p.locator.WaitForEmail(ctx, page, job.Client, job.SubjectToken)
	}); err != nil {
		return classify(err)
	}

	if err := p.step(ctx, "reveal", func(ctx context.Context) error {
		return p.locator.RevealImages(ctx, page, job.Client)
	}); err != nil {
		log.WarnContext(ctx, "failed to reveal images, capturing as is", logger.Error(err))
	}

	var shots []store.Screenshot
	if err := p.step(ctx, "capture", func(ctx context.Context) error {
		var err error
		shots, err = p.capture.CaptureAll(ctx, page, capture.Target{
			RunID:  job.RunID,
			Client: job.Client,
			Engine: job.Engine,
		}, jobID)
		return err
	}); err != nil {
		return classify(err)
	}

	log.InfoContext(ctx, "job finished", slog.Int("screenshots", len(shots)))
	return nil
}

func (p *Pipeline) step(ctx context.Context, name string, fn func(context.Context) error) (err error) {
	ctx, span := tracing.Start(ctx, tracerName, "pipeline."+name)
	defer func() { tracing.End(span, err) }()
	return fn(ctx)
}

// classify marks errors that no retry can fix.
func classify(err error) error {
	switch {
	case errors.Is(err, mailbox.ErrManualIntervention),
		errors.Is(err, mailbox.ErrConfiguration),
		errors.Is(err, mailbox.ErrUnknownClient),
		errors.Is(err, mailbox.ErrUnknownEngine):
		return queue.Unrecoverable(err)
	}
	return err
}

// OnCompleted is the worker hook run after a job succeeded.
func (p *Pipeline) OnCompleted(ctx context.Context, task *queue.Task) {
	job, ok := p.decode(ctx, task)
	if !ok {
		return
	}
	status, err := p.runs.OnJobCompleted(ctx, job.RunID)
	if err != nil {
		p.log.ErrorContext(ctx, "failed to update run after job completion",
			logger.RunID(job.RunID.String()), logger.JobID(task.ID.String()), logger.Error(err))
		return
	}
	p.log.DebugContext(ctx, "run updated", logger.RunID(job.RunID.String()), slog.String("status", string(status)))
}

// OnFailed is the worker hook run after every failed attempt.
func (p *Pipeline) OnFailed(ctx context.Context, task *queue.Task, jobErr error, exhausted bool) {
	job, ok := p.decode(ctx, task)
	if !ok {
		return
	}
	if errors.Is(jobErr, mailbox.ErrManualIntervention) {
		p.log.ErrorContext(ctx, "job needs an operator",
			logger.RunID(job.RunID.String()),
			logger.Client(string(job.Client)),
			logger.Engine(string(job.Engine)),
			logger.Error(jobErr))
	}
	if _, err := p.runs.OnJobFailed(ctx, job.RunID, exhausted); err != nil {
		p.log.ErrorContext(ctx, "failed to update run after job failure",
			logger.RunID(job.RunID.String()), logger.JobID(task.ID.String()), logger.Error(err))
	}
}

func (p *Pipeline) decode(ctx context.Context, task *queue.Task) (Job, bool) {
	var job Job
	if err := json.Unmarshal(task.Payload, &job); err != nil || job.RunID == uuid.Nil {
		p.log.ErrorContext(ctx, "task payload is not a job", logger.JobID(task.ID.String()), logger.Error(err))
		return Job{}, false
	}
	return job, true
}
