package main

import (
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/archgraph/internal/builder"
	"github.com/dusk-indust/archgraph/internal/export"
)

func newBuildCmd(flags *rootFlags) *cobra.Command {
	var (
		pretty   bool
		document bool
		progress bool
	)
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the graph once and print the snapshot as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				reporter *builder.ProgressReporter
				wg       sync.WaitGroup
			)
			if progress {
				reporter = builder.NewProgressReporter()
				wg.Add(1)
				go func() {
					defer wg.Done()
					for ev := range reporter.Subscribe() {
						fmt.Fprintln(cmd.ErrOrStderr(), builder.FormatProgress(ev))
					}
				}()
			}

			finish := func() {
				if reporter != nil {
					reporter.Close()
					wg.Wait()
				}
			}

			a, err := openApp(cmd.Context(), flags, reporter)
			if err != nil {
				finish()
				return err
			}
			defer a.Close()

			snap, err := a.builder.Build(cmd.Context())
			finish()
			if err != nil {
				return err
			}

			if document {
				return export.WriteDocument(cmd.OutOrStdout(), export.NewDocument(a.disc.Root(), snap), pretty)
			}
			return export.WriteJSON(cmd.OutOrStdout(), snap, pretty)
		},
	}
	cmd.Flags().BoolVar(&pretty, "pretty", false, "indent the JSON output")
	cmd.Flags().BoolVar(&document, "document", false, "wrap the snapshot with stats and clusters")
	cmd.Flags().BoolVar(&progress, "progress", false, "report build progress on stderr")
	return cmd
}
