package sql

import (
	"cmp"
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/syssam/dbmap"
	"github.com/syssam/dbmap/dialect"
	"github.com/syssam/dbmap/mapping"
	"github.com/syssam/dbmap/meta"
)

// MismatchError reports a mapped table that does not match the database.
type MismatchError struct {
	Table string
	// Missing holds the mapped column names the table lacks.
	Missing []string
	// Err is set when the table cannot be queried at all.
	Err error
}

// Error returns the error string.
func (e *MismatchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("dialect/sql: table %s: %v", e.Table, e.Err)
	}
	return fmt.Sprintf("dialect/sql: table %s: missing columns %s", e.Table, strings.Join(e.Missing, ", "))
}

// Unwrap returns the query error, if any.
func (e *MismatchError) Unwrap() error { return e.Err }

// VerifyOption configures Verify.
type VerifyOption func(*verifyConfig)

type verifyConfig struct {
	log    *zap.Logger
	tables map[string]bool
}

// WithVerifyLogger sets the logger receiving per-table results.
func WithVerifyLogger(l *zap.Logger) VerifyOption {
	return func(c *verifyConfig) {
		if l != nil {
			c.log = l
		}
	}
}

// WithTables restricts verification to the named tables.
func WithTables(names ...string) VerifyOption {
	return func(c *verifyConfig) {
		if c.tables == nil {
			c.tables = make(map[string]bool, len(names))
		}
		for _, n := range names {
			c.tables[n] = true
		}
	}
}

// Verify checks that every table of m exists in the database behind drv
// with all of its persistent columns. Tables registered lazily are only
// verified once they have been looked up. The returned error joins one
// *MismatchError per failing table.
func Verify(ctx context.Context, drv dialect.Driver, m *meta.Model, opts ...VerifyOption) error {
	tables := make([]mappedTable, 0, len(m.Tables()))
	for _, tbl := range m.Tables() {
		mt := mappedTable{name: tbl.Name}
		for _, mm := range tbl.RowType.PersistentDataMembers {
			mt.columns = append(mt.columns, mm.MappedName)
		}
		tables = append(tables, mt)
	}
	return verify(ctx, drv, tables, opts)
}

// VerifyDatabase is like Verify for the tables of a mapping document,
// when the Go types it describes are not at hand.
func VerifyDatabase(ctx context.Context, drv dialect.Driver, db *mapping.Database, opts ...VerifyOption) error {
	tables := make([]mappedTable, 0, len(db.Tables))
	for _, tbl := range db.Tables {
		mt := mappedTable{name: cmp.Or(tbl.Name, tbl.Member)}
		if tbl.Type != nil {
			for _, c := range tbl.Type.Columns {
				mt.columns = append(mt.columns, cmp.Or(c.Name, c.Member))
			}
		}
		tables = append(tables, mt)
	}
	return verify(ctx, drv, tables, opts)
}

type mappedTable struct {
	name    string
	columns []string
}

func verify(ctx context.Context, drv dialect.Driver, tables []mappedTable, opts []VerifyOption) error {
	cfg := verifyConfig{log: zap.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	var errs []error
	for _, tbl := range tables {
		if cfg.tables != nil && !cfg.tables[tbl.name] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := verifyTable(ctx, drv, tbl); err != nil {
			cfg.log.Warn("table does not match mapping", zap.String("table", tbl.name), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		cfg.log.Debug("table verified", zap.String("table", tbl.name))
	}
	return dbmap.NewAggregateError(errs...)
}

func verifyTable(ctx context.Context, drv dialect.Driver, tbl mappedTable) error {
	query := fmt.Sprintf("SELECT * FROM %s WHERE 1 = 0", dialect.Quote(drv.Dialect(), tbl.name))
	var rows Rows
	if err := drv.Query(ctx, query, []any{}, &rows); err != nil {
		return &MismatchError{Table: tbl.name, Err: err}
	}
	defer rows.Close()
	columns, err := rows.Columns()
	if err != nil {
		return &MismatchError{Table: tbl.name, Err: err}
	}
	have := make(map[string]bool, len(columns))
	for _, c := range columns {
		have[strings.ToLower(c)] = true
	}
	var missing []string
	for _, c := range tbl.columns {
		name := strings.Trim(c, "[]")
		if !have[strings.ToLower(name)] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &MismatchError{Table: tbl.name, Missing: missing}
	}
	return nil
}
