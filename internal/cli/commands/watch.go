package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/syssam/dbmap"
	"github.com/syssam/dbmap/mapping"
	"github.com/syssam/dbmap/mapping/xmlmap"
)

func newWatchCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [document]",
		Short: "Lint an XML mapping document whenever it changes",
		Long: `Watch an XML mapping document and lint it again on every change.
Unchanged content is served from an in-memory snapshot cache.

Press Ctrl+C to stop.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.watch(ctx, cmd, a.document(args))
		},
	}
}

func (a *app) watch(ctx context.Context, cmd *cobra.Command, path string) error {
	src, err := xmlmap.Open(ctx, path, xmlmap.WithLogger(a.log), xmlmap.WithCache(dbmap.NewMemoryCache()))
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	report := func(db *mapping.Database, err error) {
		if err == nil {
			err = lint(out, path, db, a.cfg.Dialect)
		}
		if err != nil {
			status(out, errColor, "✗", "%v", err)
		}
	}
	db, _ := src.Database(nil)
	report(db, nil)
	status(out, warnColor, "⌨", "watching %s, press Ctrl+C to stop", path)
	return src.Watch(ctx, report)
}
