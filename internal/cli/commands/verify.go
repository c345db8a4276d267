package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/syssam/dbmap/dialect/sql"
)

func newVerifyCommand(a *app) *cobra.Command {
	var dsn string
	cmd := &cobra.Command{
		Use:   "verify [document]",
		Short: "Check a database against a mapping document",
		Long: `Connect to a database and check that every table of a mapping
document exists with all of its columns. The connection string comes from
--dsn, DBMAP_DATABASE_DSN or database.dsn in dbmap.yaml.

Examples:
  dbmap verify northwind.xml --dialect postgres --dsn postgres://localhost/northwind
  DBMAP_DATABASE_DSN=file:shop.db dbmap verify shop.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.document(args)
			db, err := readDocument(path)
			if err != nil {
				return err
			}
			stats, err := a.open(dsn)
			if err != nil {
				return err
			}
			defer stats.Close()
			opts := []sql.VerifyOption{sql.WithVerifyLogger(a.log)}
			if len(a.cfg.Database.Tables) > 0 {
				opts = append(opts, sql.WithTables(a.cfg.Database.Tables...))
			}
			err = sql.VerifyDatabase(cmd.Context(), stats, db, opts...)
			a.log.Debug("verify finished", zap.Stringer("stats", stats.QueryStats().Stats()))
			if err != nil {
				status(cmd.OutOrStdout(), errColor, "✗", "%v", err)
				return fmt.Errorf("%s does not match the database", path)
			}
			status(cmd.OutOrStdout(), okColor, "✓", "%s matches the database", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&dsn, "dsn", "", "database connection string")
	return cmd
}

// open connects to the database named by dsn, or by the configured
// connection string when dsn is empty. Queries are timed and slow ones
// logged.
func (a *app) open(dsn string) (*sql.StatsDriver, error) {
	if dsn == "" {
		dsn = a.cfg.Database.DSN
	}
	if dsn == "" {
		return nil, fmt.Errorf("no database connection string, set --dsn or database.dsn")
	}
	drv, err := sql.Open(a.cfg.Dialect, dsn)
	if err != nil {
		return nil, err
	}
	return sql.NewStatsDriver(drv,
		sql.WithSlowThreshold(a.cfg.Database.SlowThreshold),
		sql.WithSlowQueryLog(a.log),
	), nil
}
