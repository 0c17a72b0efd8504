// Command sessions maintains the cached mailbox sessions: it refreshes, clones and
// verifies them.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrymomot/inboxshot/internal/app"
	"github.com/dmitrymomot/inboxshot/internal/cli"
	"github.com/dmitrymomot/inboxshot/pkg/browser"
	"github.com/dmitrymomot/inboxshot/pkg/environment"
	"github.com/dmitrymomot/inboxshot/pkg/logger"
	"github.com/dmitrymomot/inboxshot/svc/action"
	"github.com/dmitrymomot/inboxshot/svc/login"
	"github.com/dmitrymomot/inboxshot/svc/sessioncache"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := cli.Run(ctx, os.Args[1:], os.Stdout, build)
	stop()
	if err != nil {
		var failed *cli.FailedError
		if !errors.As(err, &failed) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

// build wires a session cache over the configured storage and a local browser.
func build(ctx context.Context, opts cli.Options) (cli.Maintainer, func(), error) {
	appCfg, err := app.Load[app.Config]()
	if err != nil {
		return nil, nil, err
	}
	log := app.NewLogger(appCfg, "sessions", opts.Debug)
	env := appCfg.Environment()
	ctx = environment.WithContext(ctx, env)

	files, err := app.Files(ctx)
	if err != nil {
		return nil, nil, err
	}

	driverOpts := []browser.DriverOption{browser.WithDriverLogger(log.With(logger.Component("browser")))}
	if appCfg.InstallBrowsers {
		driverOpts = append(driverOpts, browser.WithInstall())
	}
	driver, err := browser.NewDriver(driverOpts...)
	if err != nil {
		return nil, nil, err
	}
	release := func() {
		if err := driver.Stop(); err != nil {
			log.Warn("failed to stop browser driver", logger.Error(err))
		}
	}

	cacheOpts := []sessioncache.Option{
		sessioncache.WithLauncher(driver),
		sessioncache.WithHeadless(!opts.Debug),
		sessioncache.WithLogger(log.With(logger.Component("sessioncache"))),
	}

	if opts.Login {
		auth, err := authenticator(log)
		if err != nil {
			release()
			return nil, nil, err
		}
		cacheOpts = append(cacheOpts, sessioncache.WithAuthenticator(auth))
	}

	return sessioncache.New(files, env, cacheOpts...), release, nil
}

// authenticator builds a login orchestrator for refreshing sessions. It does not read
// the cache it refreshes.
func authenticator(log *slog.Logger) (*login.Orchestrator, error) {
	ag, err := app.Agent(log)
	if err != nil {
		return nil, err
	}
	smsLister, smsCfg, err := app.SMS()
	if err != nil {
		return nil, err
	}
	loginCfg, err := app.Load[login.Config]()
	if err != nil {
		return nil, err
	}
	registry, err := login.NewDefaultRegistry(loginCfg, login.Deps{
		SMS:       smsLister,
		SMSConfig: smsCfg,
		Log:       log.With(logger.Component("login")),
	})
	if err != nil {
		return nil, err
	}

	opts := []login.Option{login.WithLogger(log.With(logger.Component("login")))}
	if ag != nil {
		opts = append(opts, login.WithAgent(ag))
	}
	exec := action.New(action.WithLogger(log.With(logger.Component("action"))))
	return login.NewOrchestrator(registry, exec, loginCfg, opts...), nil
}
