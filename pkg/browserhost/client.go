package browserhost

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/dmitrymomot/inboxshot/pkg/clock"
	"github.com/dmitrymomot/inboxshot/pkg/logger"
	"github.com/dmitrymomot/inboxshot/pkg/retry"
)

const apiKeyHeader = "X-BB-API-Key"

// Session is a started remote browser session.
type Session struct {
	ID         string `json:"id"`
	ConnectURL string `json:"connectUrl"`
	ContextID  string `json:"contextId,omitempty"`
	Status     string `json:"status,omitempty"`
}

// Client talks to the browser hosting REST API. It is safe for concurrent use.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	policy  retry.Policy
	clock   clock.Clock
	log     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the instrumented default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithRetry sets the retry policy and clock for retryable API failures.
func WithRetry(p retry.Policy, c clock.Clock) Option {
	return func(cl *Client) {
		cl.policy = p
		if c != nil {
			cl.clock = c
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) {
		if l != nil {
			cl.log = l
		}
	}
}

// New validates cfg and builds a client.
func New(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.RequestsPerSec <= 0 {
		cfg.RequestsPerSec = 2
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	c := &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout:   cfg.RequestTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), cfg.Burst),
		policy:  retry.Exponential(3, 500*time.Millisecond),
		clock:   clock.Real(),
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// CreateContext creates a persistent browser context and returns its id.
func (c *Client) CreateContext(ctx context.Context) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	body := map[string]any{"projectId": c.cfg.ProjectID}
	if err := c.do(ctx, http.MethodPost, "/v1/contexts", body, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", fmt.Errorf("%w: empty context id", ErrInvalidResponse)
	}
	return out.ID, nil
}

// CreateSession starts a session bound to contextID. With persist set, cookies and storage
// written during the session are saved back into the context when it ends.
func (c *Client) CreateSession(ctx context.Context, contextID string, persist bool) (*Session, error) {
	body := map[string]any{
		"projectId": c.cfg.ProjectID,
		"browserSettings": map[string]any{
			"context": map[string]any{
				"id":      contextID,
				"persist": persist,
			},
		},
	}
	if c.cfg.SessionTimeout > 0 {
		body["timeout"] = int(c.cfg.SessionTimeout.Seconds())
	}

	var out Session
	if err := c.do(ctx, http.MethodPost, "/v1/sessions", body, &out); err != nil {
		return nil, err
	}
	if out.ID == "" || out.ConnectURL == "" {
		return nil, fmt.Errorf("%w: session without id or connect url", ErrInvalidResponse)
	}
	if out.ContextID == "" {
		out.ContextID = contextID
	}
	return &out, nil
}

// ReleaseSession asks the host to end a session early so the context is persisted.
func (c *Client) ReleaseSession(ctx context.Context, sessionID string) error {
	body := map[string]any{
		"projectId": c.cfg.ProjectID,
		"status":    "REQUEST_RELEASE",
	}
	return c.do(ctx, http.MethodPost, "/v1/sessions/"+sessionID, body, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}
	url := strings.TrimSuffix(c.cfg.BaseURL, "/") + path

	return retry.Do(ctx, c.clock, c.policy, func(ctx context.Context, attempt int) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return retry.Stop(err)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
		if err != nil {
			return retry.Stop(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(apiKeyHeader, c.cfg.APIKey)

		resp, err := c.http.Do(req)
		if err != nil {
			c.log.WarnContext(ctx, "browser host request failed",
				slog.String("path", path),
				logger.Attempt(attempt),
				logger.Error(err),
			)
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return err
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			apiErr := &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
			if !apiErr.Retryable() {
				return retry.Stop(apiErr)
			}
			c.log.WarnContext(ctx, "browser host returned retryable status",
				slog.String("path", path),
				slog.Int("status", resp.StatusCode),
				logger.Attempt(attempt),
			)
			return apiErr
		}

		if out == nil || len(data) == 0 {
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return retry.Stop(errors.Join(ErrInvalidResponse, err))
		}
		return nil
	})
}
