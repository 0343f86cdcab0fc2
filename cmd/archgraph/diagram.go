package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/archgraph/internal/export"
	"github.com/dusk-indust/archgraph/internal/graph"
)

func newDiagramCmd(flags *rootFlags) *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "diagram",
		Short: "Print the graph as a Mermaid diagram",
		Long:  "Print the graph as a Mermaid diagram. With --input the snapshot is read from a file written by\n'archgraph build' instead of building the workspace.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var snap *graph.Snapshot
			if input != "" {
				f, err := os.Open(input)
				if err != nil {
					return fmt.Errorf("no snapshot at %s: %w", input, err)
				}
				defer f.Close()
				if snap, err = export.ReadJSON(f); err != nil {
					return err
				}
			} else {
				a, err := openApp(cmd.Context(), flags, nil)
				if err != nil {
					return err
				}
				defer a.Close()
				if snap, err = a.builder.Build(cmd.Context()); err != nil {
					return err
				}
			}

			_, err := fmt.Fprint(cmd.OutOrStdout(), export.GenerateMermaid(snap))
			return err
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "snapshot JSON to render instead of building")
	return cmd
}
