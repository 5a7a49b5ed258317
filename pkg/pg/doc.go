// Package pg bootstraps PostgreSQL for the SQL session store using the
// pgx/v5 driver.
//
//   - Connect opens a *pgxpool.Pool from Config, retrying with linear
//     back-off until the database answers a ping.
//   - Migrate applies the embedded goose migration that creates the
//     sessions table and its expiry index.
//   - OpenDB bridges the pool to database/sql for sqlstore.
//   - Healthcheck returns a readiness probe.
//   - IsTimeoutError classifies lock and statement timeouts.
//
// Config fields are populated from environment variables via
// github.com/caarlos0/env.
//
// # Usage
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, slog.Default()); err != nil {
//	    return err
//	}
//
//	store, err := sqlstore.New(ctx, pg.OpenDB(pool))
package pg
