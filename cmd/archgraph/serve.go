package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/archgraph/internal/builder"
	"github.com/dusk-indust/archgraph/internal/server"
	"github.com/dusk-indust/archgraph/internal/workspace"
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	var (
		addr     string
		debounce time.Duration
		noWatch  bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the live graph to the viewer and rebuild on file changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx, flags, nil)
			if err != nil {
				return err
			}
			defer a.Close()
			if addr == "" {
				addr = a.cfg.Addr
			}
			if debounce <= 0 {
				debounce = a.cfg.Debounce
			}

			metrics := server.NewMetrics()
			graphs, idx, err := a.service(builder.WithObserver(metrics))
			if err != nil {
				return err
			}
			defer idx.Close()

			opener, err := a.opener()
			if err != nil {
				return err
			}
			srv, err := server.New(server.Options{
				Graphs:  graphs,
				Opener:  opener,
				Metrics: metrics,
				Logger:  a.logger,
				Root:    a.disc.Root(),
			})
			if err != nil {
				return err
			}

			if _, _, err := graphs.Refresh(ctx); err != nil {
				return err
			}

			if !noWatch {
				w, err := workspace.NewWatcher(a.disc, debounce, func(paths []string) {
					a.logger.Debug("workspace changed", "paths", len(paths))
					if _, _, err := graphs.Refresh(ctx); err != nil && ctx.Err() == nil {
						a.logger.Warn("rebuild after change failed", "error", err)
					}
				}, a.logger)
				if err != nil {
					return err
				}
				if err := w.Start(ctx); err != nil {
					return err
				}
				defer w.Stop()
			}

			return srv.Run(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to the config addr)")
	cmd.Flags().DurationVar(&debounce, "debounce", 0, "quiet period before a rebuild (defaults to the config debounce)")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "do not rebuild on file changes")
	return cmd
}
