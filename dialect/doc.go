// Package dialect names the SQL dialects dbmap can export schemas for and
// verify mappings against.
//
// # Supported Dialects
//
//   - Postgres: PostgreSQL (github.com/lib/pq)
//   - MySQL: MySQL/MariaDB (github.com/go-sql-driver/mysql)
//   - SQLite: SQLite (modernc.org/sqlite)
//
// # Driver Interface
//
// The package defines the Driver interface used by dialect/sql:
//
//	type Driver interface {
//	    ExecQuerier
//	    Close() error
//	    Dialect() string
//	}
//
// # Sub-packages
//
//   - dialect/sql: database/sql driver wrapper and mapping verification
//   - dialect/sqlschema: atlas schema export and DDL planning
package dialect
