package sqlstore

import (
	"errors"
	"fmt"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/dmitrymomot/sessionkit/pkg/pg"
)

// Dialect holds everything that differs between SQL backends. A store picks
// one dialect at construction and builds all of its queries from it.
//
// Every statement takes its arguments in the order documented on the method.
// Placeholders are numbered from 1.
type Dialect interface {
	// Name identifies the dialect in logs and errors.
	Name() string

	// Placeholder returns the bind marker for the n-th argument.
	Placeholder(n int) string

	// SupportsNativeUpsert reports whether UpsertStatement can be used. When
	// false the store falls back to a transaction built on LockingSelect.
	SupportsNativeUpsert() bool

	// UpsertStatement inserts or replaces a record. Args: sid, data, expired.
	UpsertStatement(table string) string

	// ExpiryPredicate returns a condition matching live rows, comparing the
	// expired column with the n-th argument.
	ExpiryPredicate(n int) string

	// LockingSelect reads the sid of a record and locks it (or the gap where
	// it would be) until the transaction ends. Args: sid.
	LockingSelect(table string) string

	// CreateTable returns the statements that bootstrap the schema.
	CreateTable(table string) []string

	// TimeValue converts t into the value bound for the expired column.
	TimeValue(t time.Time) any

	// IsTimeout reports whether err is a lock or statement timeout.
	IsTimeout(err error) bool
}

// Postgres targets PostgreSQL through pgx or lib/pq.
type Postgres struct{}

func (Postgres) Name() string { return "postgres" }
func (Postgres) Placeholder(n int) string { return fmt.Sprintf("$%d", n) }
func (Postgres) SupportsNativeUpsert() bool { return true }
func (Postgres) TimeValue(t time.Time) any { return t.UTC() }
func (Postgres) IsTimeout(err error) bool { return pg.IsTimeoutError(err) }
func (p Postgres) ExpiryPredicate(n int) string { return "expired > " + p.Placeholder(n) }

func (Postgres) UpsertStatement(table string) string {
	return "INSERT INTO " + table + " (sid, data, expired) VALUES ($1, $2, $3) " +
		"ON CONFLICT (sid) DO UPDATE SET data = EXCLUDED.data, expired = EXCLUDED.expired"
}

func (Postgres) LockingSelect(table string) string {
	return "SELECT sid FROM " + table + " WHERE sid = $1 FOR UPDATE"
}

func (Postgres) CreateTable(table string) []string {
	return []string{
		"CREATE TABLE IF NOT EXISTS " + table + " (sid TEXT PRIMARY KEY, data JSONB NOT NULL, expired TIMESTAMPTZ NOT NULL)",
		"CREATE INDEX IF NOT EXISTS " + table + "_expired_idx ON " + table + " (expired)",
	}
}

// SQLite stores expiry as Unix milliseconds.
type SQLite struct{}

func (SQLite) Name() string { return "sqlite" }
func (SQLite) Placeholder(int) string { return "?" }
func (SQLite) SupportsNativeUpsert() bool { return true }
func (SQLite) TimeValue(t time.Time) any { return t.UTC().UnixMilli() }
func (SQLite) ExpiryPredicate(int) string { return "expired > ?" }

func (SQLite) UpsertStatement(table string) string {
	return "INSERT INTO " + table + " (sid, data, expired) VALUES (?, ?, ?) " +
		"ON CONFLICT (sid) DO UPDATE SET data = excluded.data, expired = excluded.expired"
}

// LockingSelect has no row lock in SQLite; the write transaction holds the
// database lock instead.
func (SQLite) LockingSelect(table string) string {
	return "SELECT sid FROM " + table + " WHERE sid = ?"
}

func (SQLite) CreateTable(table string) []string {
	return []string{
		"CREATE TABLE IF NOT EXISTS " + table + " (sid TEXT PRIMARY KEY, data TEXT NOT NULL, expired INTEGER NOT NULL)",
		"CREATE INDEX IF NOT EXISTS " + table + "_expired_idx ON " + table + " (expired)",
	}
}

func (SQLite) IsTimeout(err error) bool {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code() & 0xff {
	case sqlite3lib.SQLITE_BUSY, sqlite3lib.SQLITE_LOCKED:
		return true
	}
	return false
}

// MySQL targets MySQL and MariaDB.
type MySQL struct{}

func (MySQL) Name() string { return "mysql" }
func (MySQL) Placeholder(int) string { return "?" }
func (MySQL) SupportsNativeUpsert() bool { return true }
func (MySQL) TimeValue(t time.Time) any { return t.UTC() }
func (MySQL) ExpiryPredicate(int) string { return "expired > ?" }
func (MySQL) IsTimeout(error) bool { return false }

func (MySQL) UpsertStatement(table string) string {
	return "INSERT INTO " + table + " (sid, data, expired) VALUES (?, ?, ?) " +
		"ON DUPLICATE KEY UPDATE data = VALUES(data), expired = VALUES(expired)"
}

func (MySQL) LockingSelect(table string) string {
	return "SELECT sid FROM " + table + " WHERE sid = ? FOR UPDATE"
}

func (MySQL) CreateTable(table string) []string {
	return []string{
		"CREATE TABLE IF NOT EXISTS " + table + " (sid VARCHAR(128) NOT NULL PRIMARY KEY, data JSON NOT NULL, " +
			"expired DATETIME(3) NOT NULL, INDEX " + table + "_expired_idx (expired))",
	}
}

// MSSQL targets SQL Server.
type MSSQL struct{}

func (MSSQL) Name() string { return "mssql" }
func (MSSQL) Placeholder(n int) string { return fmt.Sprintf("@p%d", n) }
func (MSSQL) SupportsNativeUpsert() bool { return true }
func (MSSQL) TimeValue(t time.Time) any { return t.UTC() }
func (MSSQL) IsTimeout(error) bool { return false }
func (m MSSQL) ExpiryPredicate(n int) string { return "expired > " + m.Placeholder(n) }

// UpsertStatement uses MERGE under HOLDLOCK so concurrent merges for the same
// sid serialize instead of racing on the insert branch.
func (MSSQL) UpsertStatement(table string) string {
	return "MERGE INTO " + table + " WITH (HOLDLOCK) AS target " +
		"USING (SELECT @p1 AS sid, @p2 AS data, @p3 AS expired) AS source ON target.sid = source.sid " +
		"WHEN MATCHED THEN UPDATE SET data = source.data, expired = source.expired " +
		"WHEN NOT MATCHED THEN INSERT (sid, data, expired) VALUES (source.sid, source.data, source.expired);"
}

func (MSSQL) LockingSelect(table string) string {
	return "SELECT sid FROM " + table + " WITH (UPDLOCK, HOLDLOCK) WHERE sid = @p1"
}

func (MSSQL) CreateTable(table string) []string {
	return []string{
		"IF OBJECT_ID(N'" + table + "', N'U') IS NULL CREATE TABLE " + table +
			" (sid NVARCHAR(128) NOT NULL PRIMARY KEY, data NVARCHAR(MAX) NOT NULL, expired DATETIME2 NOT NULL)",
		"IF NOT EXISTS (SELECT 1 FROM sys.indexes WHERE name = N'" + table + "_expired_idx') " +
			"CREATE INDEX " + table + "_expired_idx ON " + table + " (expired)",
	}
}

// Generic is the fallback for unrecognized drivers. It has no native upsert
// and relies on SELECT ... FOR UPDATE inside a transaction.
type Generic struct{}

func (Generic) Name() string { return "generic" }
func (Generic) Placeholder(int) string { return "?" }
func (Generic) SupportsNativeUpsert() bool { return false }
func (Generic) TimeValue(t time.Time) any { return t.UTC() }
func (Generic) ExpiryPredicate(int) string { return "expired > ?" }
func (Generic) IsTimeout(error) bool { return false }

func (Generic) UpsertStatement(string) string { return "" }

func (Generic) LockingSelect(table string) string {
	return "SELECT sid FROM " + table + " WHERE sid = ? FOR UPDATE"
}

func (Generic) CreateTable(table string) []string {
	return []string{
		"CREATE TABLE " + table + " (sid VARCHAR(128) NOT NULL PRIMARY KEY, data TEXT NOT NULL, expired TIMESTAMP NOT NULL)",
		"CREATE INDEX " + table + "_expired_idx ON " + table + " (expired)",
	}
}

// placeholders returns n bind markers of d, numbered from from, joined by sep.
func placeholders(d Dialect, from, n int, sep string) string {
	parts := make([]string, n)
	for i := range n {
		parts[i] = d.Placeholder(from + i)
	}
	return strings.Join(parts, sep)
}
