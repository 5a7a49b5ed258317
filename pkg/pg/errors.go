package pg

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrFailedToOpenDBConnection = errors.New("failed to open db connection")
	ErrEmptyConnectionString    = errors.New("empty postgres connection string, use PG_CONN_URL env var")
	ErrHealthcheckFailed        = errors.New("healthcheck failed, connection is not available")
	ErrFailedToParseDBConfig    = errors.New("failed to parse db config")
	ErrFailedToApplyMigrations  = errors.New("failed to apply migrations")
)

// SQLSTATE codes reported when a statement gives up waiting.
const (
	codeQueryCanceled     = "57014" // statement_timeout
	codeLockNotAvailable  = "55P03" // lock_timeout, NOWAIT
	codeDeadlockDetected  = "40P01"
	codeSerializationFail = "40001"
)

// IsTimeoutError detects statements aborted by statement_timeout or
// lock_timeout, and transactions rolled back by deadlock or serialization
// conflicts. Such failures are transient and can be retried.
func IsTimeoutError(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}

	switch pgErr.Code {
	case codeQueryCanceled, codeLockNotAvailable, codeDeadlockDetected, codeSerializationFail:
		return true
	}
	return false
}
