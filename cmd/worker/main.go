// Command worker consumes screenshot jobs and serves the run API with health checks.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/inboxshot/internal/app"
	"github.com/dmitrymomot/inboxshot/pkg/browser"
	"github.com/dmitrymomot/inboxshot/pkg/browserhost"
	"github.com/dmitrymomot/inboxshot/pkg/environment"
	"github.com/dmitrymomot/inboxshot/pkg/httpserver"
	"github.com/dmitrymomot/inboxshot/pkg/logger"
	"github.com/dmitrymomot/inboxshot/pkg/pg"
	"github.com/dmitrymomot/inboxshot/pkg/queue"
	"github.com/dmitrymomot/inboxshot/pkg/redis"
	"github.com/dmitrymomot/inboxshot/pkg/requestid"
	"github.com/dmitrymomot/inboxshot/pkg/retry"
	"github.com/dmitrymomot/inboxshot/pkg/tracing"
	"github.com/dmitrymomot/inboxshot/svc/action"
	"github.com/dmitrymomot/inboxshot/svc/capture"
	"github.com/dmitrymomot/inboxshot/svc/connection"
	"github.com/dmitrymomot/inboxshot/svc/locator"
	"github.com/dmitrymomot/inboxshot/svc/login"
	"github.com/dmitrymomot/inboxshot/svc/pipeline"
	"github.com/dmitrymomot/inboxshot/svc/runs"
	"github.com/dmitrymomot/inboxshot/svc/sessioncache"
	"github.com/dmitrymomot/inboxshot/svc/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("worker stopped with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	appCfg, err := app.Load[app.Config]()
	if err != nil {
		return err
	}
	log := app.NewLogger(appCfg, "worker", false)
	env := appCfg.Environment()
	ctx = environment.WithContext(ctx, env)

	traceCfg, err := app.Load[tracing.Config]()
	if err != nil {
		return err
	}
	shutdownTracing, err := tracing.Init(ctx, traceCfg)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn("failed to flush traces", logger.Error(err))
		}
	}()

	pgCfg, err := app.Load[pg.Config]()
	if err != nil {
		return err
	}
	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := pg.Migrate(ctx, pool, store.Migrations(), pgCfg, log); err != nil {
		return err
	}

	redisCfg, err := app.Load[redis.Config]()
	if err != nil {
		return err
	}
	rdb, err := redis.Connect(ctx, redisCfg)
	if err != nil {
		return err
	}
	defer rdb.Close()

	files, err := app.Files(ctx)
	if err != nil {
		return err
	}

	driverOpts := []browser.DriverOption{browser.WithDriverLogger(log.With(logger.Component("browser")))}
	if appCfg.InstallBrowsers {
		driverOpts = append(driverOpts, browser.WithInstall())
	}
	driver, err := browser.NewDriver(driverOpts...)
	if err != nil {
		return err
	}
	defer func() {
		if err := driver.Stop(); err != nil {
			log.Warn("failed to stop browser driver", logger.Error(err))
		}
	}()

	hostCfg, err := app.Load[browserhost.Config]()
	if err != nil {
		return err
	}
	host, err := browserhost.New(hostCfg, browserhost.WithLogger(log.With(logger.Component("browserhost"))))
	if err != nil {
		return err
	}

	ag, err := app.Agent(log)
	if err != nil {
		return err
	}
	smsLister, smsCfg, err := app.SMS()
	if err != nil {
		return err
	}
	loginCfg, err := app.Load[login.Config]()
	if err != nil {
		return err
	}
	registry, err := login.NewDefaultRegistry(loginCfg, login.Deps{
		SMS:       smsLister,
		SMSConfig: smsCfg,
		Log:       log.With(logger.Component("login")),
	})
	if err != nil {
		return err
	}

	st := store.NewPostgresStore(pool)
	exec := action.New(action.WithLogger(log.With(logger.Component("action"))))
	sessions := sessioncache.New(files, env, sessioncache.WithLogger(log.With(logger.Component("sessioncache"))))

	orchOpts := []login.Option{
		login.WithSessions(sessions),
		login.WithLogger(log.With(logger.Component("login"))),
	}
	locOpts := []locator.Option{locator.WithLogger(log.With(logger.Component("locator")))}
	if ag != nil {
		orchOpts = append(orchOpts, login.WithAgent(ag))
		locOpts = append(locOpts, locator.WithAgent(ag))
	}

	aggregator := runs.New(st, runs.WithLogger(log.With(logger.Component("runs"))))
	p := pipeline.New(
		connection.New(host, st, driver,
			connection.WithLocker(redis.NewLocker(rdb, redisCfg.LockPrefix)),
			connection.WithExclusive(appCfg.Exclusive),
			connection.WithLogger(log.With(logger.Component("connection"))),
		),
		login.NewOrchestrator(registry, exec, loginCfg, orchOpts...),
		locator.New(exec, locOpts...),
		capture.New(files, st, capture.WithLogger(log.With(logger.Component("capture")))),
		aggregator,
		pipeline.WithLogger(log.With(logger.Component("pipeline"))),
	)

	queueCfg, err := app.Load[queue.Config]()
	if err != nil {
		return err
	}
	tasks := queue.NewPostgresStorage(pool)
	enqueuer, err := queue.NewEnqueuer(tasks, queue.WithDefaultMaxAttempts(queueCfg.MaxAttempts))
	if err != nil {
		return err
	}
	worker, err := queue.NewWorker(tasks,
		queue.WithPullInterval(queueCfg.PollInterval),
		queue.WithLockTimeout(queueCfg.LockTimeout),
		queue.WithStallCheck(queueCfg.StallInterval, queueCfg.MaxStalls),
		queue.WithTaskTimeout(queueCfg.TaskTimeout),
		queue.WithMaxConcurrentTasks(queueCfg.MaxConcurrentTasks),
		queue.WithBackoff(retry.Exponential(queueCfg.MaxAttempts, queueCfg.BackoffBase)),
		queue.WithOnCompleted(p.OnCompleted),
		queue.WithOnFailed(p.OnFailed),
		queue.WithWorkerLogger(log.With(logger.Component("queue"))),
	)
	if err != nil {
		return err
	}
	if err := worker.RegisterHandler(p.Handler()); err != nil {
		return err
	}

	httpCfg, err := app.Load[httpserver.Config]()
	if err != nil {
		return err
	}
	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Get("/health/live", httpserver.LivenessHandler())
	r.Get("/health/ready", httpserver.ReadinessHandler(log, 5*time.Second,
		httpserver.Check{Name: "postgres", Fn: pg.Healthcheck(pool)},
		httpserver.Check{Name: "redis", Fn: redis.Healthcheck(rdb)},
	))
	pipeline.NewAPI(st, aggregator, enqueuer, log.With(logger.Component("api"))).Routes(r)

	srv := httpserver.NewFromConfig(httpCfg,
		httpserver.WithLogger(log.With(logger.Component("http"))),
		httpserver.WithTracing("inboxshot.http"),
	)

	workerID, host, pid := worker.WorkerInfo()
	log.InfoContext(ctx, "worker starting",
		slog.String("worker_id", workerID),
		slog.String("host", host),
		slog.Int("pid", pid),
		slog.Bool("exclusive_sessions", appCfg.Exclusive),
		slog.Bool("agent_fallback", ag != nil),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(worker.Run(gctx))
	g.Go(func() error { return srv.Run(gctx, r) })
	return g.Wait()
}
