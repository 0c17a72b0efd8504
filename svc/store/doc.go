// Package store persists runs, screenshots and browser context records.
//
// Run status only moves forward: pending to running, and pending or running to
// done or error. SetRunStatus enforces this atomically in both implementations,
// so concurrent job completions cannot regress a finished run.
//
// PostgresStore expects the schema from Migrations, applied with pg.Migrate:
//
//	if err := pg.Migrate(ctx, pool, store.Migrations(), cfg, log); err != nil {
//		return err
//	}
package store
