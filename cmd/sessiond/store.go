package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/caarlos0/env/v11"
	_ "modernc.org/sqlite"

	"github.com/dmitrymomot/sessionkit/pkg/logger"
	"github.com/dmitrymomot/sessionkit/pkg/pg"
	"github.com/dmitrymomot/sessionkit/pkg/redis"
	"github.com/dmitrymomot/sessionkit/pkg/session"
	"github.com/dmitrymomot/sessionkit/pkg/session/redisstore"
	"github.com/dmitrymomot/sessionkit/pkg/session/sqlstore"
)

// backend is an opened session store together with its readiness probes and
// the resources to release on shutdown.
type backend struct {
	store   session.Store
	checks  []func(context.Context) error
	closers []io.Closer
}

func (b *backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		errs = append(errs, b.closers[i].Close())
	}
	return errors.Join(errs...)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func openBackend(ctx context.Context, cfg config, log *slog.Logger, metrics *session.Metrics) (*backend, error) {
	cleanupErrors := func(err *session.CleanupError) {
		log.WarnContext(ctx, "session sweep failed, next run is scheduled",
			logger.Store(err.Store),
			logger.Error(err.Err),
		)
	}

	switch cfg.Backend {
	case backendMemory:
		store := session.NewMemoryStore(session.WithMemoryCleanup(cfg.Session.CleanupInterval,
			session.WithSchedulerLogger(log),
			session.WithSchedulerMetrics(metrics),
			session.WithCleanupErrorHandler(cleanupErrors),
		))
		return &backend{store: store, closers: []io.Closer{store}}, nil

	case backendSQLite:
		db, err := sql.Open("sqlite", cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		db.SetMaxOpenConns(1)

		store, err := sqlstore.New(ctx, db,
			sqlstore.WithCreateTable(),
			sqlstore.WithCleanupInterval(cfg.Session.CleanupInterval),
			sqlstore.WithCleanupErrorHandler(cleanupErrors),
			sqlstore.WithLogger(log),
			sqlstore.WithMetrics(metrics),
		)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		return &backend{
			store:   store,
			checks:  []func(context.Context) error{db.PingContext},
			closers: []io.Closer{db, store},
		}, nil

	case backendPostgres:
		var pgCfg pg.Config
		if err := env.Parse(&pgCfg); err != nil {
			return nil, fmt.Errorf("parse postgres config: %w", err)
		}

		pool, err := pg.Connect(ctx, pgCfg)
		if err != nil {
			return nil, err
		}
		if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
			pool.Close()
			return nil, err
		}

		db := pg.OpenDB(pool)
		store, err := sqlstore.New(ctx, db,
			sqlstore.WithDialect(sqlstore.Postgres{}),
			sqlstore.WithCleanupInterval(cfg.Session.CleanupInterval),
			sqlstore.WithCleanupErrorHandler(cleanupErrors),
			sqlstore.WithLogger(log),
			sqlstore.WithMetrics(metrics),
		)
		if err != nil {
			_ = db.Close()
			pool.Close()
			return nil, err
		}
		return &backend{
			store:  store,
			checks: []func(context.Context) error{pg.Healthcheck(pool)},
			closers: []io.Closer{
				closerFunc(func() error { pool.Close(); return nil }),
				db,
				store,
			},
		}, nil

	case backendRedis:
		var redisCfg redis.Config
		if err := env.Parse(&redisCfg); err != nil {
			return nil, fmt.Errorf("parse redis config: %w", err)
		}

		client, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			return nil, err
		}
		store, err := redisstore.New(client, redisstore.WithKeyPrefix(redisCfg.KeyPrefix))
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		return &backend{
			store:   store,
			checks:  []func(context.Context) error{redis.Healthcheck(client)},
			closers: []io.Closer{client},
		}, nil
	}

	return nil, fmt.Errorf("%w: %q", errUnknownBackend, cfg.Backend)
}
