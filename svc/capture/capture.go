package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/inboxshot/pkg/browser"
	"github.com/dmitrymomot/inboxshot/pkg/file"
	"github.com/dmitrymomot/inboxshot/pkg/logger"
	"github.com/dmitrymomot/inboxshot/pkg/tracing"
	"github.com/dmitrymomot/inboxshot/svc/mailbox"
	"github.com/dmitrymomot/inboxshot/svc/store"
)

// ShotsPerJob is how many screenshots every job publishes: light and dark.
const ShotsPerJob = 2

const tracerName = "github.com/dmitrymomot/inboxshot/svc/capture"

// Recorder persists screenshot rows. store.Store satisfies it.
type Recorder interface {
	InsertScreenshot(ctx context.Context, s *store.Screenshot) error
}

// Target identifies what is being captured.
type Target struct {
	RunID  uuid.UUID
	Client mailbox.Client
	Engine mailbox.Engine
}

// Capturer takes and publishes screenshots.
type Capturer struct {
	files       file.Storage
	recorder    Recorder
	bodyTimeout time.Duration
	now         func() time.Time
	log         *slog.Logger
}

type Option func(*Capturer)

// WithBodyTimeout sets how long to wait for the message body. Default is 15s.
func WithBodyTimeout(d time.Duration) Option {
	return func(c *Capturer) {
		if d > 0 {
			c.bodyTimeout = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Capturer) {
		if l != nil {
			c.log = l
		}
	}
}

func New(files file.Storage, recorder Recorder, opts ...Option) *Capturer {
	c := &Capturer{
		files:       files,
		recorder:    recorder,
		bodyTimeout: 15 * time.Second,
		now:         time.Now,
		log:         slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Path returns the object key of a job's screenshot.
func Path(jobID string, dark bool) string {
	return fmt.Sprintf("screenshots/%s-%s.png", jobID, mode(dark))
}

// Capture screenshots the open message in one color scheme. Every failure wraps
// mailbox.ErrCapture. A retried job overwrites its earlier object and row.
func (c *Capturer) Capture(ctx context.Context, page browser.Page, target Target, jobID string, dark bool) (shot *store.Screenshot, err error) {
	ctx, span := tracing.Start(ctx, tracerName, "capture.shot",
		tracing.JobID(jobID),
		tracing.DarkMode(dark),
	)
	defer func() { tracing.End(span, err) }()

	profile, err := mailbox.ProfileFor(target.Client)
	if err != nil {
		return nil, errors.Join(mailbox.ErrCapture, err)
	}
	body := profile.Selectors.MessageBody

	if err := page.SetColorScheme(ctx, dark); err != nil {
		return nil, errors.Join(mailbox.ErrCapture, fmt.Errorf("color scheme: %w", err))
	}
	if err := page.WaitVisible(ctx, body, c.bodyTimeout); err != nil {
		return nil, errors.Join(mailbox.ErrCapture, fmt.Errorf("message body: %w", err))
	}
	png, err := page.Screenshot(ctx, body, c.bodyTimeout)
	if err != nil {
		return nil, errors.Join(mailbox.ErrCapture, fmt.Errorf("screenshot: %w", err))
	}

	url, err := c.files.Put(ctx, Path(jobID, dark), png, file.ContentTypePNG, file.Public())
	if err != nil {
		return nil, errors.Join(mailbox.ErrCapture, fmt.Errorf("upload: %w", err))
	}

	shot = &store.Screenshot{
		ID:        uuid.New(),
		RunID:     target.RunID,
		JobID:     jobID,
		Client:    target.Client,
		Engine:    target.Engine,
		DarkMode:  dark,
		URL:       url,
		CreatedAt: c.now().UTC(),
	}
	if err := c.recorder.InsertScreenshot(ctx, shot); err != nil {
		return nil, errors.Join(mailbox.ErrCapture, fmt.Errorf("record: %w", err))
	}

	c.log.InfoContext(ctx, "screenshot published",
		logger.RunID(target.RunID.String()),
		logger.Client(string(target.Client)),
		logger.Engine(string(target.Engine)),
		slog.String("mode", mode(dark)),
		slog.String("url", url),
	)
	return shot, nil
}

// CaptureAll captures light, then dark. It stops at the first failure and returns
// what was captured before it.
func (c *Capturer) CaptureAll(ctx context.Context, page browser.Page, target Target, jobID string) ([]store.Screenshot, error) {
	shots := make([]store.Screenshot, 0, ShotsPerJob)
	for _, d := range []bool{false, true} {
		shot, err := c.Capture(ctx, page, target, jobID, d)
		if err != nil {
			return shots, err
		}
		shots = append(shots, *shot)
	}
	return shots, nil
}

func mode(dark bool) string {
	if dark {
		return "dark"
	}
	return "light"
}
