// Command archgraph builds and serves the file dependency graph of a
// workspace.
//
//	archgraph build --pretty        print one snapshot as JSON
//	archgraph diagram               print a Mermaid diagram
//	archgraph serve                 viewer API, rebuilt on every file change
//	archgraph mcp [--http addr]     graph tools for MCP clients
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// version is set by goreleaser at build time.
var version = "dev"

// rootFlags are shared by every subcommand.
type rootFlags struct {
	Root        string
	Config      string
	LogLevel    string
	LogFormat   string
	Concurrency int
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "archgraph",
		Short:         "Live dependency graph of a workspace",
		Long:          "archgraph discovers the source files of a workspace, extracts their exported symbols and imports,\nclassifies them against git, and serves the resulting file graph.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.Root, "root", ".", "workspace root")
	pf.StringVar(&flags.Config, "config", "", "config directory (defaults to the workspace root)")
	pf.StringVar(&flags.LogLevel, "log-level", "", "debug, info, warn or error")
	pf.StringVar(&flags.LogFormat, "log-format", "", "text or json")
	pf.IntVar(&flags.Concurrency, "concurrency", 0, "files analyzed in parallel")

	root.AddCommand(
		newBuildCmd(flags),
		newDiagramCmd(flags),
		newServeCmd(flags),
		newMCPCmd(flags),
	)
	return root
}
