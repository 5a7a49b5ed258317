// Package sqlstore is a session.Store backed by a database/sql table.
//
// The table has three columns: sid (primary key), data (the encoded payload,
// JSON where the backend has a JSON type) and expired (indexed). All SQL is
// produced by a Dialect chosen once per store, either detected from the
// driver or set with WithDialect. Postgres, SQLite, MySQL and SQL Server
// upsert natively; any other driver gets Generic, which upserts inside a
// transaction that locks the row with SELECT ... FOR UPDATE first.
//
// Get never returns an expired row, whether or not the sweep has removed it
// yet. The sweep runs every 60 seconds by default and can be tuned with
// WithCleanupInterval or turned off with WithoutCleanup.
//
//	db, _ := sql.Open("sqlite", "sessions.db")
//	store, err := sqlstore.New(ctx, db, sqlstore.WithCreateTable())
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
package sqlstore
