package dialect

import (
	"context"
	"fmt"
	"strings"
)

// Dialect names.
const (
	MySQL    = "mysql"
	SQLite   = "sqlite"
	Postgres = "postgres"
)

// ExecQuerier wraps the two database operations.
type ExecQuerier interface {
	// Exec executes a query that does not return records. For example, in SQL, INSERT or UPDATE.
	// It scans the result into the pointer v. For SQL drivers, it is dialect/sql.Result.
	Exec(ctx context.Context, query string, args, v any) error
	// Query executes a query that returns rows, typically a SELECT in SQL.
	// It scans the result into the pointer v. For SQL drivers, it is *dialect/sql.Rows.
	Query(ctx context.Context, query string, args, v any) error
}

// Driver is the interface that wraps all necessary operations for
// verifying mappings against a live database.
type Driver interface {
	ExecQuerier
	// Close closes the underlying connection.
	Close() error
	// Dialect returns the dialect name of the driver.
	Dialect() string
}

// Normalize returns the dialect name of a driver or provider name, e.g.
// "pgx" or "postgresql" yield Postgres and "sqlite3" yields SQLite.
func Normalize(name string) (string, error) {
	switch n := strings.ToLower(strings.TrimSpace(name)); {
	case strings.HasPrefix(n, "postgres"), n == "pgx", n == "pq":
		return Postgres, nil
	case strings.HasPrefix(n, "mysql"), n == "mariadb":
		return MySQL, nil
	case strings.HasPrefix(n, "sqlite"):
		return SQLite, nil
	default:
		return "", fmt.Errorf("dialect: unsupported dialect %q", name)
	}
}

// Quote quotes an identifier for the dialect. Dotted names are quoted per
// part and bracketed parts such as [Order Details] are unbracketed first.
func Quote(dialect, ident string) string {
	q := `"`
	if dialect == MySQL {
		q = "`"
	}
	parts := strings.Split(ident, ".")
	for i, p := range parts {
		p = strings.TrimSuffix(strings.TrimPrefix(p, "["), "]")
		parts[i] = q + strings.ReplaceAll(p, q, q+q) + q
	}
	return strings.Join(parts, ".")
}
