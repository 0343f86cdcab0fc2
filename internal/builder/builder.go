// Package builder drives full rebuilds of the workspace dependency graph.
package builder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/dusk-indust/archgraph/internal/changes"
	"github.com/dusk-indust/archgraph/internal/graph"
	"github.com/dusk-indust/archgraph/internal/imports"
	"github.com/dusk-indust/archgraph/internal/logging"
	"github.com/dusk-indust/archgraph/internal/workspace"
)

// DefaultConcurrency is the file fan-out limit when Options leaves it unset.
const DefaultConcurrency = 8

// FileLister returns the in-scope workspace files as sorted, slash-separated
// relative paths.
type FileLister interface {
	Files(ctx context.Context) ([]string, error)
}

// SymbolSource returns the exported declarations of one file.
type SymbolSource interface {
	Symbols(ctx context.Context, path string, source []byte) ([]graph.Symbol, error)
}

// ChangeSource returns the version-control change sets of the workspace.
type ChangeSource interface {
	ChangeSets(ctx context.Context) (changes.Sets, error)
}

// Options configures a Builder. Files and FS are required.
type Options struct {
	Files   FileLister
	FS      fs.FS // workspace root; paths from Files are read relative to it
	Symbols SymbolSource
	Changes ChangeSource

	Concurrency int
	CacheSize   int // analysis cache entries; 0 disables the cache
	Icon        graph.IconFunc
	Logger      *slog.Logger
	Progress    *ProgressReporter
}

// Builder populates a graph.ProjectGraph from the workspace. One Builder may
// run several passes; each pass starts from an empty model.
type Builder struct {
	files    FileLister
	fsys     fs.FS
	symbols  SymbolSource
	changes  ChangeSource
	limit    int
	cache    *lru.Cache[string, fileFacts]
	icon     graph.IconFunc
	logger   *slog.Logger
	progress *ProgressReporter
}

// fileFacts are the content-derived results of one file. Imports are not
// cached: their resolution depends on which other files exist.
type fileFacts struct {
	symbols []graph.Symbol
	loc     int
}

// analysis is everything one pass learned about one file.
type analysis struct {
	path    string
	facts   fileFacts
	imports []imports.Import
}

// New validates opts and returns a Builder.
func New(opts Options) (*Builder, error) {
	if opts.Files == nil {
		return nil, errors.New("builder: file lister is required")
	}
	if opts.FS == nil {
		return nil, errors.New("builder: workspace fs is required")
	}
	b := &Builder{
		files:    opts.Files,
		fsys:     opts.FS,
		symbols:  opts.Symbols,
		changes:  opts.Changes,
		limit:    opts.Concurrency,
		icon:     opts.Icon,
		logger:   logging.OrDefault(opts.Logger),
		progress: opts.Progress,
	}
	if b.limit <= 0 {
		b.limit = DefaultConcurrency
	}
	if b.icon == nil {
		b.icon = workspace.IconFor
	}
	if opts.CacheSize > 0 {
		cache, err := lru.New[string, fileFacts](opts.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("create analysis cache: %w", err)
		}
		b.cache = cache
	}
	return b, nil
}

// Build runs one pass into a fresh model and returns its snapshot. The model
// itself is discarded.
func (b *Builder) Build(ctx context.Context) (*graph.Snapshot, error) {
	g := graph.NewProjectGraph(b.icon)
	if err := b.Populate(ctx, g); err != nil {
		return nil, err
	}
	return g.Materialize(), nil
}

// Populate clears g and fills it from the current workspace state.
//
// Only discovery failure and context cancellation are returned as errors.
// Every per-file failure is logged and replaced by an empty default so the
// pass always completes with partial data.
func (b *Builder) Populate(ctx context.Context, g *graph.ProjectGraph) error {
	g.Clear()

	files, err := b.files.Files(ctx)
	if err != nil {
		return fmt.Errorf("discover files: %w", err)
	}
	if files == nil {
		files = []string{}
	}
	b.progress.Emit(ProgressEvent{Phase: PhaseDiscover, Total: len(files)})

	sets := b.changeSets(ctx)
	// Imports resolve only to files in this listing.
	extractor := imports.NewExtractor(files)

	results := make([]analysis, len(files))
	var done atomic.Int64
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(b.limit)
	for i, p := range files {
		eg.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = b.analyze(gctx, extractor, p)
			b.progress.Emit(ProgressEvent{Phase: PhaseAnalyze, Path: p, Done: int(done.Add(1)), Total: len(files)})
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return fmt.Errorf("analyze files: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("analyze files: %w", err)
	}

	b.progress.Emit(ProgressEvent{Phase: PhaseLink, Total: len(files)})

	// Every listed file becomes a node before any edge is added.
	for _, a := range results {
		g.AddNode(a.path, a.facts.symbols, a.facts.loc, changes.Classify(a.path, sets))
	}
	for _, a := range results {
		status := EdgeStatus(g.Node(a.path).ChangeStatus)
		for _, imp := range a.imports {
			g.AddEdge(a.path, imp.Path, imp.Symbols, status)
		}
	}

	// Deleted files are gone from the listing but still need a node.
	for _, p := range sets.RemovedPaths() {
		if g.Node(p) != nil {
			continue
		}
		if _, ok := workspace.KindOf(p); !ok {
			continue
		}
		g.AddNode(p, nil, 0, graph.StatusRemoved)
	}

	nodes, edges := g.Len()
	b.logger.Debug("graph populated", "files", len(files), "nodes", nodes, "edges", edges, "changes", sets.Len())
	b.progress.Emit(ProgressEvent{Phase: PhaseDone, Done: nodes, Total: nodes})
	return nil
}

// EdgeStatus derives an import edge's status from its source file's status.
// Only a new file's imports are new relationships; a modified file's imports
// are reported unchanged because the previous import list is not diffed.
func EdgeStatus(source graph.ChangeStatus) graph.ChangeStatus {
	if source == graph.StatusAdded {
		return graph.StatusAdded
	}
	return graph.StatusUnchanged
}

func (b *Builder) changeSets(ctx context.Context) changes.Sets {
	if b.changes == nil {
		return changes.NewSets()
	}
	sets, err := b.changes.ChangeSets(ctx)
	if err != nil {
		b.logger.Warn("change sets unavailable", "error", err)
		return changes.NewSets()
	}
	if sets.Added == nil || sets.Removed == nil || sets.Modified == nil {
		fixed := changes.NewSets()
		for p := range sets.Added {
			fixed.Added[p] = true
		}
		for p := range sets.Removed {
			fixed.Removed[p] = true
		}
		for p := range sets.Modified {
			fixed.Modified[p] = true
		}
		sets = fixed
	}
	return sets
}

// analyze gathers symbols, imports and LOC for one file. The three reads are
// independent and run concurrently; none of them can fail the file.
func (b *Builder) analyze(ctx context.Context, extractor *imports.Extractor, p string) analysis {
	a := analysis{path: p, facts: fileFacts{symbols: []graph.Symbol{}}}

	content, err := fs.ReadFile(b.fsys, p)
	if err != nil {
		b.logger.Warn("read file", "path", p, "error", err)
		return a
	}

	key := cacheKey(p, content)
	if b.cache != nil {
		if facts, ok := b.cache.Get(key); ok {
			a.facts = facts
			a.imports = b.extractImports(extractor, p, content)
			return a
		}
	}

	symbolsOK := true
	var eg errgroup.Group
	eg.Go(func() error {
		a.facts.symbols, symbolsOK = b.fileSymbols(ctx, p, content)
		return nil
	})
	eg.Go(func() error {
		a.imports = b.extractImports(extractor, p, content)
		return nil
	})
	eg.Go(func() error {
		a.facts.loc = b.countLOC(p, content)
		return nil
	})
	_ = eg.Wait()

	// A failed symbol lookup is retried on the next pass.
	if b.cache != nil && symbolsOK && ctx.Err() == nil {
		b.cache.Add(key, a.facts)
	}
	return a
}

func (b *Builder) fileSymbols(ctx context.Context, p string, content []byte) (syms []graph.Symbol, ok bool) {
	if b.symbols == nil {
		return []graph.Symbol{}, true
	}
	defer func() {
		if r := recover(); r != nil {
			b.logger.Warn("symbol source failed", "path", p, "error", fmt.Errorf("panic: %v", r))
			syms, ok = []graph.Symbol{}, false
		}
	}()
	syms, err := b.symbols.Symbols(ctx, p, content)
	if err != nil {
		b.logger.Warn("symbol source failed", "path", p, "error", err)
		return []graph.Symbol{}, false
	}
	if syms == nil {
		return []graph.Symbol{}, true
	}
	return syms, true
}

func (b *Builder) extractImports(extractor *imports.Extractor, p string, content []byte) []imports.Import {
	found, err := extractor.Extract(workspace.CategoryOf(p), string(content), p)
	if err != nil {
		b.logger.Warn("import extraction failed", "path", p, "error", err)
		return nil
	}
	return found
}

func (b *Builder) countLOC(p string, content []byte) (loc int) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Warn("count lines failed", "path", p, "error", fmt.Errorf("%v", r))
			loc = 0
		}
	}()
	return graph.CountLOC(p, content)
}

func cacheKey(p string, content []byte) string {
	sum := sha256.Sum256(content)
	return p + "\x00" + hex.EncodeToString(sum[:])
}
