package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dmitrymomot/inboxshot/pkg/agent"
	"github.com/dmitrymomot/inboxshot/pkg/config"
	"github.com/dmitrymomot/inboxshot/pkg/environment"
	"github.com/dmitrymomot/inboxshot/pkg/file"
	"github.com/dmitrymomot/inboxshot/pkg/logger"
	"github.com/dmitrymomot/inboxshot/pkg/requestid"
	"github.com/dmitrymomot/inboxshot/pkg/sms"
	"github.com/dmitrymomot/inboxshot/svc/mailbox"
)

// Config holds process settings that belong to no single component.
type Config struct {
	Env       string `env:"APP_ENV" envDefault:"dev"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT"`
	// Exclusive gives each job sole use of its (client, engine) browser context.
	Exclusive bool `env:"BROWSER_EXCLUSIVE_SESSIONS" envDefault:"false"`
	// InstallBrowsers downloads the Playwright driver and browsers on start.
	InstallBrowsers bool `env:"PLAYWRIGHT_INSTALL" envDefault:"false"`
}

func (c Config) Validate() error {
	var errs []error
	if _, err := environment.Parse(c.Env); err != nil {
		errs = append(errs, err)
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		errs = append(errs, fmt.Errorf("log level: %w", err))
	}
	switch logger.Format(c.LogFormat) {
	case "", logger.FormatJSON, logger.FormatText:
	default:
		errs = append(errs, fmt.Errorf("log format %q: must be json or text", c.LogFormat))
	}
	return errors.Join(errs...)
}

// Environment returns the parsed deployment environment.
func (c Config) Environment() environment.Environment {
	env, _ := environment.Parse(c.Env)
	return env
}

// Load parses one config struct. Any failure wraps mailbox.ErrConfiguration.
func Load[T any]() (T, error) {
	var v T
	if err := config.Load(&v); err != nil {
		return v, errors.Join(mailbox.ErrConfiguration, err)
	}
	return v, nil
}

// NewLogger returns the structured logger of a service. debug forces the debug level.
func NewLogger(cfg Config, service string, debug bool) *slog.Logger {
	var level slog.Level
	_ = level.UnmarshalText([]byte(cfg.LogLevel))
	if debug {
		level = slog.LevelDebug
	}
	opts := []logger.Option{
		logger.WithEnvironment(cfg.Environment(), service),
		logger.WithLevel(level),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	}
	if f := strings.TrimSpace(cfg.LogFormat); f != "" {
		opts = append(opts, logger.WithFormat(logger.Format(f)))
	}
	return logger.New(opts...)
}

// Files opens the object storage holding screenshots and cached sessions.
func Files(ctx context.Context) (file.Storage, error) {
	cfg, err := Load[file.S3Config]()
	if err != nil {
		return nil, err
	}
	files, err := file.New(ctx, cfg)
	if err != nil {
		return nil, errors.Join(mailbox.ErrConfiguration, err)
	}
	return files, nil
}

// Agent returns the fallback agent, or nil when no API key is configured.
func Agent(log *slog.Logger) (agent.InstructionFollowingAgent, error) {
	cfg, err := Load[agent.Config]()
	if err != nil {
		return nil, err
	}
	if cfg.APIKey == "" {
		log.Warn("OPENAI_API_KEY is not set, agent fallback disabled")
		return nil, nil
	}
	completer, err := agent.NewOpenAICompleter(cfg)
	if err != nil {
		return nil, errors.Join(mailbox.ErrConfiguration, err)
	}
	return agent.New(completer, cfg, agent.WithLogger(log.With(logger.Component("agent")))), nil
}

// SMS returns the inbound message lister and its polling config. The lister is nil
// when Twilio is not configured; providers that need SMS codes then fail at startup.
func SMS() (sms.Lister, sms.Config, error) {
	cfg, err := Load[sms.Config]()
	if err != nil {
		return nil, cfg, err
	}
	if cfg.AccountSID == "" && cfg.AuthToken == "" {
		return nil, cfg, nil
	}
	tw, err := sms.NewTwilio(cfg)
	if err != nil {
		return nil, cfg, errors.Join(mailbox.ErrConfiguration, err)
	}
	return tw, cfg, nil
}
