// Package sql wraps database/sql for the dialects dbmap supports and checks
// resolved mappings against live databases.
//
// Verify reports every mapped table or column the database lacks:
//
//	drv, err := sql.Open(dialect.Postgres, dsn)
//	if err != nil {
//		return err
//	}
//	defer drv.Close()
//	if err := sql.Verify(ctx, drv, model); err != nil {
//		// err joins one *MismatchError per table.
//	}
//
// Drivers are not registered by this package; import the driver of the
// dialect (lib/pq, go-sql-driver/mysql or modernc.org/sqlite) in main.
package sql
