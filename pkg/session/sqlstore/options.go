package sqlstore

import (
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/dmitrymomot/sessionkit/pkg/session"
)

// Option configures a Store.
type Option func(*Store)

// WithTableName overrides the default "sessions" table.
func WithTableName(name string) Option {
	return func(s *Store) {
		s.table = name
	}
}

// WithCreateTable creates the table and its expiry index if missing.
func WithCreateTable() Option {
	return func(s *Store) {
		s.createTable = true
	}
}

// WithDialect skips driver detection.
func WithDialect(d Dialect) Option {
	return func(s *Store) {
		if d != nil {
			s.dialect = d
		}
	}
}

func WithCodec(c session.Codec) Option {
	return func(s *Store) {
		if c != nil {
			s.codec = c
		}
	}
}

func WithClock(clock clockwork.Clock) Option {
	return func(s *Store) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCleanupInterval sets how often expired rows are swept.
func WithCleanupInterval(d time.Duration) Option {
	return func(s *Store) {
		s.cleanupInterval = d
	}
}

// WithoutCleanup disables the background sweep. DeleteExpired can still be
// called directly.
func WithoutCleanup() Option {
	return func(s *Store) {
		s.cleanupInterval = 0
	}
}

// WithCleanupErrorHandler receives failed sweeps.
func WithCleanupErrorHandler(h session.CleanupErrorHandler) Option {
	return func(s *Store) {
		s.onCleanupError = h
	}
}

// WithMetrics records sweep results.
func WithMetrics(m *session.Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}
