// Package commands implements the dbmap command line tool.
package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/syssam/dbmap/internal/cli/config"
	"github.com/syssam/dbmap/mapping"
	"github.com/syssam/dbmap/mapping/xmlmap"
	"github.com/syssam/dbmap/mapping/yamlmap"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
)

// app is the state shared by the subcommands of one invocation.
type app struct {
	configPath string
	dialect    string
	noColor    bool
	logLevel   string

	cfg *config.Config
	log *zap.Logger
}

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   "dbmap",
		Short: "Inspect, convert and check dbmap mapping documents",
		Long: color.CyanString(`dbmap - mapping document tooling

dbmap reads XML and YAML mapping documents, validates the schema they
describe, converts between formats, prints DDL and checks a live
database against a document.`),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default ./dbmap.yaml)")
	flags.StringVar(&a.dialect, "dialect", "", "SQL dialect: sqlite, mysql or postgres")
	flags.BoolVar(&a.noColor, "no-color", false, "disable colored output")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")

	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(newLintCommand(a))
	rootCmd.AddCommand(newConvertCommand(a))
	rootCmd.AddCommand(newDumpCommand(a))
	rootCmd.AddCommand(newWatchCommand(a))
	rootCmd.AddCommand(newDDLCommand(a))
	rootCmd.AddCommand(newVerifyCommand(a))

	return rootCmd
}

// load reads the configuration, applying the persistent flags set on
// the command line.
func (a *app) load(cmd *cobra.Command) error {
	overrides := make(map[string]any)
	flags := cmd.Flags()
	if flags.Changed("dialect") {
		overrides["dialect"] = a.dialect
	}
	if flags.Changed("no-color") {
		overrides["no_color"] = a.noColor
	}
	if flags.Changed("log-level") {
		overrides["log.level"] = a.logLevel
	}
	cfg, err := config.Load(a.configPath, overrides)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = cfg.Logger()
	if cfg.NoColor {
		color.NoColor = true
	}
	return nil
}

// document returns the path of the document to work on: the first
// argument, or the configured default.
func (a *app) document(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return a.cfg.Mapping
}

// readDocument parses a mapping document, choosing the format by file
// extension.
func readDocument(path string) (*mapping.Database, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yamlmap.ParseFile(path)
	case ".msgpack", ".snapshot":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return mapping.UnmarshalSnapshot(data)
	default:
		return xmlmap.ParseFile(path)
	}
}

// NewVersionCommand creates the version command.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			title := color.New(color.FgCyan, color.Bold)
			out := cmd.OutOrStdout()
			title.Fprint(out, "dbmap version: ")
			fmt.Fprintln(out, Version)
			title.Fprint(out, "Git commit: ")
			fmt.Fprintln(out, GitCommit)
			title.Fprint(out, "Go version: ")
			fmt.Fprintln(out, runtime.Version())
		},
	}
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		errorColor := color.New(color.FgRed, color.Bold)
		errorColor.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return err
	}
	return nil
}

// status prints a colored marker followed by a message.
func status(w io.Writer, c *color.Color, marker, format string, args ...any) {
	c.Fprint(w, marker+" ")
	fmt.Fprintf(w, format+"\n", args...)
}

var (
	okColor   = color.New(color.FgGreen)
	warnColor = color.New(color.FgYellow)
	errColor  = color.New(color.FgRed, color.Bold)
)
