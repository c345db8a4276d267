package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/syssam/dbmap/mapping"
	"github.com/syssam/dbmap/mapping/yamlmap"
)

func newConvertCommand(a *app) *cobra.Command {
	var (
		to     string
		output string
	)
	cmd := &cobra.Command{
		Use:   "convert [document]",
		Short: "Convert a mapping document to YAML or a msgpack snapshot",
		Long: `Convert a mapping document to YAML or to a msgpack snapshot. The
input format is chosen by file extension.

Examples:
  dbmap convert northwind.xml --to yaml -o northwind.yaml
  dbmap convert northwind.xml --to msgpack -o northwind.snapshot`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.document(args)
			db, err := readDocument(path)
			if err != nil {
				return err
			}
			var data []byte
			switch strings.ToLower(to) {
			case "yaml", "yml":
				data, err = yamlmap.Marshal(db)
			case "msgpack", "snapshot":
				data, err = mapping.MarshalSnapshot(db)
			default:
				return fmt.Errorf("unknown output format %q, use yaml or msgpack", to)
			}
			if err != nil {
				return err
			}
			if output == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return err
			}
			a.log.Info("document converted")
			status(cmd.ErrOrStderr(), okColor, "✓", "%s → %s (%d bytes)", path, output, len(data))
			return nil
		},
	}
	cmd.Flags().StringVar(&to, "to", "yaml", "output format: yaml or msgpack")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}
