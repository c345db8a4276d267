package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/syssam/dbmap/dialect/sqlschema"
	"github.com/syssam/dbmap/mapping"
)

func newLintCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "lint [document]",
		Short: "Validate a mapping document and the schema it describes",
		Long: `Parse a mapping document, build the schema it describes for the
configured dialect and check it: every table needs a non-nullable primary
key, column names must be unique and foreign keys must match the key they
reference.

Examples:
  dbmap lint northwind.xml
  dbmap lint --dialect postgres northwind.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.document(args)
			db, err := readDocument(path)
			if err != nil {
				return err
			}
			return lint(cmd.OutOrStdout(), path, db, a.cfg.Dialect)
		},
	}
}

// lint prints the findings of the schema db describes and fails if any
// of them is an error.
func lint(out io.Writer, path string, db *mapping.Database, d string) error {
	s, err := sqlschema.FromDatabase(db, d)
	if err != nil {
		return err
	}
	res := sqlschema.ValidateSchema(s)
	for _, e := range res.Errors {
		status(out, errColor, "✗", "%s", e)
	}
	for _, w := range res.Warnings {
		status(out, warnColor, "!", "%s", w)
	}
	if res.HasErrors() {
		return fmt.Errorf("%s: %d schema errors", path, len(res.Errors))
	}
	status(out, okColor, "✓", "%s: %d tables, %d functions", path, len(db.Tables), len(db.Functions))
	return nil
}
