package sqlstore

import (
	"database/sql"
	"reflect"
	"strings"
)

// DetectDialect picks a dialect from the package path of the database/sql
// driver behind db. Unknown drivers get Generic.
func DetectDialect(db *sql.DB) Dialect {
	return dialectForPackage(driverPackage(db))
}

func driverPackage(db *sql.DB) string {
	if db == nil {
		return ""
	}
	t := reflect.TypeOf(db.Driver())
	if t == nil {
		return ""
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.PkgPath()
}

func dialectForPackage(pkg string) Dialect {
	pkg = strings.ToLower(pkg)
	switch {
	case strings.Contains(pkg, "pgx"), strings.Contains(pkg, "lib/pq"):
		return Postgres{}
	case strings.Contains(pkg, "sqlite"):
		return SQLite{}
	case strings.Contains(pkg, "mysql"):
		return MySQL{}
	case strings.Contains(pkg, "mssql"), strings.Contains(pkg, "sqlserver"):
		return MSSQL{}
	default:
		return Generic{}
	}
}
