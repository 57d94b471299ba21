package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"nerdbook/internal/notebook"
	"nerdbook/internal/watch"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// watchCmd mirrors a directory of cell files
var watchCmd = &cobra.Command{
	Use:   "watch [DIR]",
	Short: "Mirror a directory of cell files and re-run on change",
	Long: `Treats every *.cell file in DIR (default: the workspace) as a cell,
ordered by file name. A leading underscore marks a cell inactive, so renaming
b.cell to _b.cell toggles it. After each change settles the last cell runs
with context and its panes are printed.

Press Ctrl+C to stop.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := workspace
	if len(args) == 1 {
		dir = args[0]
	}

	_, panes, err := newPaneRenderer(cfg)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	nb := newNotebook(cfg)
	var cd *watch.CellDir
	cd, err = watch.NewCellDir(dir, nb,
		watch.WithPattern(cfg.Watch.Pattern),
		watch.WithDebounce(cfg.GetWatchDebounce()),
		watch.WithOnRun(func(c notebook.Cell) {
			file, _ := cd.FileFor(c.ID)
			fmt.Fprintf(out, "── %s (%d cells)\n", file, nb.Len())
			if rendered := panes.Render(c.Result, c.Log); rendered != "" {
				fmt.Fprintln(out, rendered)
			}
		}),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := cd.Start(gctx); err != nil {
			return err
		}
		logger.Info("Watching cells", zap.String("dir", dir), zap.String("pattern", cfg.Watch.Pattern))
		<-gctx.Done()
		cd.Stop()
		return nil
	})
	g.Go(func() error {
		// The event loop can end on its own when fsnotify closes.
		select {
		case <-gctx.Done():
		case <-cd.Done():
			stop()
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	stats := cd.GetStats()
	logger.Info("Stopped watching",
		zap.Int("events", stats.Events),
		zap.Int("runs", stats.Runs),
		zap.Int("errors", stats.Errors))
	return nil
}
