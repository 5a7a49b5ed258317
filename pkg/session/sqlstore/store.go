package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/dmitrymomot/sessionkit/pkg/logger"
	"github.com/dmitrymomot/sessionkit/pkg/session"
)

// DefaultTableName is used when WithTableName is not given.
const DefaultTableName = "sessions"

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Store keeps sessions in a SQL table with columns sid, data and expired.
// Reads filter expired rows themselves; the background sweep only reclaims
// space.
type Store struct {
	db      *sql.DB
	dialect Dialect
	table   string
	codec   session.Codec
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *session.Metrics

	createTable     bool
	cleanupInterval time.Duration
	onCleanupError  session.CleanupErrorHandler
	scheduler       *session.CleanupScheduler

	q queries
}

type queries struct {
	get           string
	upsert        string
	touch         string
	destroy       string
	deleteExpired string
	lock          string
	insert        string
	update        string
	probe         string
}

// New prepares a store on db. The dialect is detected from the driver unless
// WithDialect is given. Without WithCreateTable the table must already exist.
// The cleanup sweep starts immediately and runs until Close.
func New(ctx context.Context, db *sql.DB, opts ...Option) (*Store, error) {
	if db == nil {
		return nil, errors.Join(session.ErrConfig, ErrNilDB)
	}

	s := &Store{
		db:              db,
		table:           DefaultTableName,
		codec:           session.JSONCodec{},
		clock:           clockwork.NewRealClock(),
		logger:          slog.Default(),
		cleanupInterval: session.DefaultCleanupInterval,
	}
	for _, opt := range opts {
		opt(s)
	}

	if !tableNamePattern.MatchString(s.table) {
		return nil, errors.Join(session.ErrConfig, fmt.Errorf("%w: %q", ErrInvalidTable, s.table))
	}
	if s.dialect == nil {
		s.dialect = DetectDialect(db)
	}
	s.q = buildQueries(s.dialect, s.table)

	if s.createTable {
		if err := s.CreateTable(ctx); err != nil {
			return nil, err
		}
	} else if _, err := db.ExecContext(ctx, s.q.probe); err != nil {
		return nil, errors.Join(session.ErrConfig, fmt.Errorf("%w: %s: %w", ErrTableMissing, s.table, err))
	}

	if s.cleanupInterval > 0 {
		s.scheduler = session.NewCleanupScheduler(s, s.cleanupInterval,
			session.WithSchedulerName("sql:"+s.dialect.Name()),
			session.WithSchedulerClock(s.clock),
			session.WithSchedulerLogger(s.logger),
			session.WithSchedulerMetrics(s.metrics),
			session.WithCleanupErrorHandler(s.onCleanupError),
		)
		s.scheduler.Start(context.WithoutCancel(ctx))
	}

	s.logger.DebugContext(ctx, "sql session store ready",
		logger.Component("sqlstore"),
		logger.Dialect(s.dialect.Name()),
		slog.String("table", s.table),
	)

	return s, nil
}

func buildQueries(d Dialect, table string) queries {
	return queries{
		get: "SELECT data FROM " + table + " WHERE sid = " + d.Placeholder(1) +
			" AND " + d.ExpiryPredicate(2),
		upsert: d.UpsertStatement(table),
		touch: "UPDATE " + table + " SET expired = " + d.Placeholder(1) +
			" WHERE sid = " + d.Placeholder(2) + " AND " + d.ExpiryPredicate(3),
		destroy:       "DELETE FROM " + table + " WHERE sid = " + d.Placeholder(1),
		deleteExpired: "DELETE FROM " + table + " WHERE expired <= " + d.Placeholder(1),
		lock:          d.LockingSelect(table),
		insert: "INSERT INTO " + table + " (sid, data, expired) VALUES (" +
			placeholders(d, 1, 3, ", ") + ")",
		update: "UPDATE " + table + " SET data = " + d.Placeholder(1) +
			", expired = " + d.Placeholder(2) + " WHERE sid = " + d.Placeholder(3),
		probe: "SELECT sid FROM " + table + " WHERE 1 = 0",
	}
}

// Dialect returns the dialect in use.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// CreateTable runs the dialect's schema statements.
func (s *Store) CreateTable(ctx context.Context) error {
	for _, stmt := range s.dialect.CreateTable(s.table) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errors.Join(ErrCreateTable, err)
		}
	}
	return nil
}

// Get returns the payload of a live record, or nil.
func (s *Store) Get(ctx context.Context, id string) (session.Values, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, s.q.get, id, s.dialect.TimeValue(s.clock.Now())).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, s.wrap("get", err)
	}

	data, err := s.codec.Unmarshal(payload)
	if err != nil {
		return nil, session.SerializationError("get", err)
	}
	return data, nil
}

// Set upserts the record.
func (s *Store) Set(ctx context.Context, id string, data session.Values, expiresAt time.Time) error {
	payload, err := s.codec.Marshal(data)
	if err != nil {
		return session.SerializationError("set", err)
	}

	if s.dialect.SupportsNativeUpsert() {
		if s.q.upsert == "" {
			return s.wrap("set", ErrNoUpsertQuery)
		}
		_, err := s.db.ExecContext(ctx, s.q.upsert, id, string(payload), s.dialect.TimeValue(expiresAt))
		return s.wrap("set", err)
	}

	return s.wrap("set", s.lockedUpsert(ctx, id, string(payload), s.dialect.TimeValue(expiresAt)))
}

// lockedUpsert locks the sid (or its gap) before choosing between insert and
// update. Without the lock two writers can both miss the row and both insert.
func (s *Store) lockedUpsert(ctx context.Context, id, payload string, expired any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var existing string
	err = tx.QueryRowContext(ctx, s.q.lock, id).Scan(&existing)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx, s.q.insert, id, payload, expired)
	case err == nil:
		_, err = tx.ExecContext(ctx, s.q.update, payload, expired, id)
	}
	if err != nil {
		return err
	}

	return tx.Commit()
}

// Touch moves the expiry of a live record. Missing and expired records are
// left alone.
func (s *Store) Touch(ctx context.Context, id string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, s.q.touch,
		s.dialect.TimeValue(expiresAt), id, s.dialect.TimeValue(s.clock.Now()))
	return s.wrap("touch", err)
}

// Destroy deletes the record.
func (s *Store) Destroy(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, s.q.destroy, id)
	return s.wrap("destroy", err)
}

// DeleteExpired removes every row whose expiry has passed.
func (s *Store) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.q.deleteExpired, s.dialect.TimeValue(s.clock.Now()))
	if err != nil {
		return 0, s.wrap("delete_expired", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		// The delete went through; only the count is unknown.
		s.logger.WarnContext(ctx, "expired sessions removed, count unavailable",
			logger.Component("sqlstore"),
			logger.Dialect(s.dialect.Name()),
			logger.Error(err),
		)
		return 0, nil
	}
	return n, nil
}

// Close stops the cleanup sweep. The database handle is left open.
func (s *Store) Close() error {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
	return nil
}

func (s *Store) wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if s.dialect.IsTimeout(err) {
		return &session.StoreError{Op: op, Kind: session.KindTimeout, Err: err}
	}
	return session.WrapStoreError(op, err)
}
