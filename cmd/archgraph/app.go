package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dusk-indust/archgraph/internal/builder"
	"github.com/dusk-indust/archgraph/internal/changes"
	"github.com/dusk-indust/archgraph/internal/config"
	"github.com/dusk-indust/archgraph/internal/graph"
	"github.com/dusk-indust/archgraph/internal/logging"
	"github.com/dusk-indust/archgraph/internal/navigate"
	"github.com/dusk-indust/archgraph/internal/symbols"
	"github.com/dusk-indust/archgraph/internal/workspace"
)

// app holds the collaborators shared by the subcommands.
type app struct {
	cfg     *config.ProjectConfig
	logger  *slog.Logger
	disc    *workspace.Discoverer
	symbols *symbols.TreeSitterSource
	builder *builder.Builder
}

// openApp loads the config, then wires discovery, change detection and
// symbol extraction into a builder. progress may be nil.
func openApp(ctx context.Context, flags *rootFlags, progress *builder.ProgressReporter) (*app, error) {
	dir := flags.Config
	if dir == "" {
		dir = flags.Root
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}
	if flags.Concurrency > 0 {
		cfg.Concurrency = flags.Concurrency
	}
	if flags.LogLevel != "" {
		cfg.LogLevel = flags.LogLevel
	}
	if flags.LogFormat != "" {
		cfg.LogFormat = flags.LogFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: os.Stderr})
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	if cfg.Path != "" {
		logger.Debug("config loaded", "path", cfg.Path)
	}

	disc, err := workspace.NewDiscoverer(flags.Root, workspace.DiscoverOptions{
		ExcludeDirs: cfg.ExcludeDirs,
		Patterns:    cfg.Ignore,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}
	git, err := changes.NewGitSource(disc.Root(), 0, logger)
	if err != nil {
		return nil, err
	}
	if _, err := git.Toplevel(ctx); errors.Is(err, changes.ErrNotRepository) {
		logger.Info("workspace is not a git repository, every file is unchanged", "root", disc.Root())
	}

	src := symbols.NewTreeSitterSource()
	b, err := builder.New(builder.Options{
		Files:       disc,
		FS:          os.DirFS(disc.Root()),
		Symbols:     src,
		Changes:     git,
		Concurrency: cfg.Concurrency,
		CacheSize:   cfg.CacheSize,
		Logger:      logger,
		Progress:    progress,
	})
	if err != nil {
		src.Close()
		return nil, err
	}

	return &app{cfg: cfg, logger: logger, disc: disc, symbols: src, builder: b}, nil
}

// service wraps the builder in a live graph service backed by the query
// index for this build.
func (a *app) service(opts ...builder.ServiceOption) (*builder.Service, graph.Index, error) {
	idx, err := newIndex()
	if err != nil {
		return nil, nil, err
	}
	opts = append([]builder.ServiceOption{builder.WithIndex(idx), builder.WithLogger(a.logger)}, opts...)
	return builder.NewService(a.builder, opts...), idx, nil
}

func (a *app) opener() (*navigate.Opener, error) {
	return navigate.NewOpener(a.disc.Root(), a.cfg.Editor, a.symbols, navigate.WithLogger(a.logger))
}

func (a *app) Close() error {
	return a.symbols.Close()
}
