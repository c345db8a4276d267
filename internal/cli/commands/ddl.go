package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/syssam/dbmap/dialect/sqlschema"
)

func newDDLCommand(a *app) *cobra.Command {
	var (
		current string
		apply   bool
		dsn     string
		opts    struct{ dropColumn, dropTable, nullToNotNull bool }
	)
	cmd := &cobra.Command{
		Use:   "ddl [document]",
		Short: "Print the CREATE TABLE statements of a mapping document",
		Long: `Print the statements creating the tables of a mapping document in the
configured dialect. Referenced tables come first.

With --apply, the statements are executed against the database given
by --dsn or database.dsn instead of being printed.

With --diff, the document is compared with an older version of itself
instead and the changes are checked for breaking ones.

Examples:
  dbmap ddl northwind.xml --dialect mysql
  dbmap ddl northwind.xml --apply --dsn file:northwind.db
  dbmap ddl northwind.xml --diff northwind.old.xml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.document(args)
			db, err := readDocument(path)
			if err != nil {
				return err
			}
			desired, err := sqlschema.FromDatabase(db, a.cfg.Dialect)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if current == "" {
				stmts, err := sqlschema.Plan(cmd.Context(), desired, a.cfg.Dialect)
				if err != nil {
					return err
				}
				if apply {
					return a.apply(cmd, dsn, stmts)
				}
				for _, s := range stmts {
					fmt.Fprintf(out, "%s;\n", s)
				}
				return nil
			}
			old, err := readDocument(current)
			if err != nil {
				return err
			}
			cur, err := sqlschema.FromDatabase(old, a.cfg.Dialect)
			if err != nil {
				return err
			}
			var vopts []sqlschema.ValidateOption
			if opts.dropColumn {
				vopts = append(vopts, sqlschema.AllowDropColumn())
			}
			if opts.dropTable {
				vopts = append(vopts, sqlschema.AllowDropTable())
			}
			if opts.nullToNotNull {
				vopts = append(vopts, sqlschema.AllowNullToNotNull())
			}
			res := sqlschema.ValidateDiff(cur, desired, vopts...)
			for _, e := range res.Errors {
				status(out, errColor, "✗", "%s", e)
			}
			for _, w := range res.Warnings {
				status(out, warnColor, "!", "%s", w)
			}
			if res.HasErrors() {
				return fmt.Errorf("%s: %d breaking changes from %s", path, len(res.Errors), current)
			}
			status(out, okColor, "✓", "%s: compatible with %s", path, current)
			return nil
		},
	}
	cmd.Flags().StringVar(&current, "diff", "", "older document to compare with")
	cmd.Flags().BoolVar(&apply, "apply", false, "execute the statements")
	cmd.Flags().StringVar(&dsn, "dsn", "", "database connection string for --apply")
	cmd.MarkFlagsMutuallyExclusive("apply", "diff")
	cmd.Flags().BoolVar(&opts.dropColumn, "allow-drop-column", false, "accept dropped columns")
	cmd.Flags().BoolVar(&opts.dropTable, "allow-drop-table", false, "accept dropped tables")
	cmd.Flags().BoolVar(&opts.nullToNotNull, "allow-null-to-not-null", false, "accept columns becoming NOT NULL")
	return cmd
}

// apply executes stmts in order, stopping at the first failure.
func (a *app) apply(cmd *cobra.Command, dsn string, stmts []string) error {
	drv, err := a.open(dsn)
	if err != nil {
		return err
	}
	defer drv.Close()
	for _, s := range stmts {
		if err := drv.Exec(cmd.Context(), s, []any{}, nil); err != nil {
			return err
		}
	}
	status(cmd.OutOrStdout(), okColor, "✓", "%d statements applied", len(stmts))
	a.log.Debug("ddl applied", zap.Stringer("stats", drv.QueryStats().Stats()))
	return nil
}
