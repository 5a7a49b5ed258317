package sqlstore

import "errors"

var (
	ErrNilDB         = errors.New("sqlstore.nil_db")
	ErrInvalidTable  = errors.New("sqlstore.invalid_table_name")
	ErrTableMissing  = errors.New("sqlstore.table_missing")
	ErrCreateTable   = errors.New("sqlstore.create_table_failed")
	ErrNoUpsertQuery = errors.New("sqlstore.dialect_without_upsert")
)
