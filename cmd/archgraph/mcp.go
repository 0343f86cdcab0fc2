package main

import (
	"github.com/spf13/cobra"

	"github.com/dusk-indust/archgraph/internal/mcptools"
)

func newMCPCmd(flags *rootFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the graph tools over the Model Context Protocol",
		Long:  "Serve the graph tools over the Model Context Protocol on stdio, or over streamable HTTP with --http.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context(), flags, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			graphs, idx, err := a.service()
			if err != nil {
				return err
			}
			defer idx.Close()

			opener, err := a.opener()
			if err != nil {
				return err
			}
			svc := mcptools.NewGraphService(graphs, opener)

			if addr != "" {
				a.logger.Info("MCP server listening", "addr", addr)
				return mcptools.RunMCPServer(cmd.Context(), svc, addr)
			}
			return mcptools.RunMCPServerStdio(cmd.Context(), svc)
		},
	}
	cmd.Flags().StringVar(&addr, "http", "", "serve streamable HTTP on this address instead of stdio")
	return cmd
}
