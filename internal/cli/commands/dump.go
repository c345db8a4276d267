package commands

import (
	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"
)

func newDumpCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dump [document]",
		Short: "Print the parsed descriptors of a mapping document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := readDocument(a.document(args))
			if err != nil {
				return err
			}
			cs := spew.ConfigState{
				Indent:                  "  ",
				DisablePointerAddresses: true,
				DisableCapacities:       true,
				SortKeys:                true,
			}
			cs.Fdump(cmd.OutOrStdout(), db)
			return nil
		},
	}
}
