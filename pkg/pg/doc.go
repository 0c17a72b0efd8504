// Package pg bootstraps PostgreSQL access on top of pgx/v5.
//
// Connect opens a *pgxpool.Pool with retries, Migrate applies goose
// migrations from an fs.FS (usually an embed.FS owned by the store package)
// and Healthcheck adapts the pool to readiness probes. DB is the small query
// interface stores depend on, satisfied by both the pool and transactions.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, store.Migrations, cfg, log); err != nil {
//		return err
//	}
package pg
