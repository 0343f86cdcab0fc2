// Package navigate opens workspace files in the host editor.
package navigate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/dusk-indust/archgraph/internal/graph"
	"github.com/dusk-indust/archgraph/internal/logging"
)

var (
	// ErrFileNotFound means the target file no longer exists.
	ErrFileNotFound = errors.New("file not found")
	// ErrSymbolNotFound means the file exists but the symbol could not be
	// located. Open still succeeds and opens line 1.
	ErrSymbolNotFound = errors.New("symbol not found")
)

// SymbolSource locates declarations in a file.
type SymbolSource interface {
	Symbols(ctx context.Context, path string, source []byte) ([]graph.Symbol, error)
}

// fullSymbolSource lists every declaration of a file, not just the ones the
// graph displays.
type fullSymbolSource interface {
	AllSymbols(ctx context.Context, path string, source []byte) ([]graph.Symbol, error)
}

// Runner starts the editor command.
type Runner func(ctx context.Context, name string, args ...string) error

// Result describes what was opened.
type Result struct {
	Path    string   `json:"path"`
	Line    int      `json:"line"`
	Command []string `json:"command"`
	Warning string   `json:"warning,omitempty"`
}

// Opener resolves a (file, symbol) target to a line and launches the editor
// template with {file} and {line} substituted.
type Opener struct {
	root    string
	editor  []string
	symbols SymbolSource
	run     Runner
	logger  *slog.Logger
}

// Option customizes an Opener.
type Option func(*Opener)

// WithRunner replaces the process launcher.
func WithRunner(r Runner) Option {
	return func(o *Opener) { o.run = r }
}

// WithLogger sets the logger used for navigation warnings.
func WithLogger(l *slog.Logger) Option {
	return func(o *Opener) { o.logger = l }
}

// NewOpener returns an Opener for files under root. editor must contain a
// {file} placeholder; symbols may be nil, in which case symbol targets are
// found by scanning for a declaration line only.
func NewOpener(root string, editor []string, symbols SymbolSource, opts ...Option) (*Opener, error) {
	if len(editor) == 0 {
		return nil, errors.New("editor command is empty")
	}
	hasFile := false
	for _, arg := range editor {
		if strings.Contains(arg, "{file}") {
			hasFile = true
		}
	}
	if !hasFile {
		return nil, fmt.Errorf("editor command %q has no {file} placeholder", strings.Join(editor, " "))
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace root: %w", err)
	}
	o := &Opener{
		root:    abs,
		editor:  append([]string(nil), editor...),
		symbols: symbols,
		run:     startProcess,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = logging.OrDefault(o.logger)
	return o, nil
}

// Open focuses rel in the editor, at symbol's line when symbol is non-empty.
// A missing file is an error wrapping ErrFileNotFound. A missing symbol is
// not: the file opens at line 1 and Result.Warning says why.
func (o *Opener) Open(ctx context.Context, rel, symbol string) (*Result, error) {
	clean := path.Clean(strings.TrimPrefix(filepath.ToSlash(rel), "/"))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return nil, fmt.Errorf("open %s: %w", rel, ErrFileNotFound)
	}
	abs := filepath.Join(o.root, filepath.FromSlash(clean))

	info, err := os.Stat(abs)
	if err != nil || info.IsDir() {
		o.logger.Warn("navigation target missing", "path", clean, "error", err)
		return nil, fmt.Errorf("open %s: %w", clean, ErrFileNotFound)
	}

	res := &Result{Path: clean, Line: 1}
	if symbol != "" {
		line, err := o.lineOf(ctx, clean, abs, symbol)
		if err != nil {
			res.Warning = fmt.Sprintf("%s; opened %s at line 1", err, clean)
			o.logger.Warn("navigation fell back to file", "path", clean, "symbol", symbol, "error", err)
		} else {
			res.Line = line
		}
	}

	res.Command = o.command(abs, res.Line)
	if err := o.run(ctx, res.Command[0], res.Command[1:]...); err != nil {
		o.logger.Warn("editor launch failed", "path", clean, "error", err)
		return nil, fmt.Errorf("launch editor for %s: %w", clean, err)
	}
	return res, nil
}

// lineOf finds symbol through the symbol source, preferring its uncapped
// listing, then by scanning the text for a declaration of that name.
func (o *Opener) lineOf(ctx context.Context, rel, abs, symbol string) (int, error) {
	content, err := os.ReadFile(abs)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", rel, err)
	}

	var srcErr error
	if o.symbols != nil {
		var syms []graph.Symbol
		if full, ok := o.symbols.(fullSymbolSource); ok {
			syms, srcErr = full.AllSymbols(ctx, rel, content)
		} else {
			syms, srcErr = o.symbols.Symbols(ctx, rel, content)
		}
		for _, s := range syms {
			if s.Name == symbol && s.Line > 0 {
				return s.Line, nil
			}
		}
	}
	if line := declarationLine(content, symbol); line > 0 {
		return line, nil
	}
	if srcErr != nil {
		return 0, fmt.Errorf("%w: %s in %s: %v", ErrSymbolNotFound, symbol, rel, srcErr)
	}
	return 0, fmt.Errorf("%w: %s in %s", ErrSymbolNotFound, symbol, rel)
}

const declarationPrefix = `(?m)^[ \t]*(?:export[ \t]+)?(?:default[ \t]+)?(?:pub(?:\([^)]*\))?[ \t]+)?(?:async[ \t]+)?` +
	`(?:func|function\*?|class|interface|type|enum|struct|trait|const|let|var|def|fn|mod)[ \t]+(?:\([^)]*\)[ \t]*)?`

// declarationLine returns the 1-based line of the first line declaring name,
// or 0.
func declarationLine(content []byte, name string) int {
	re, err := regexp.Compile(declarationPrefix + regexp.QuoteMeta(name) + `(?:[^\w$]|$)`)
	if err != nil {
		return 0
	}
	loc := re.FindIndex(content)
	if loc == nil {
		return 0
	}
	return 1 + strings.Count(string(content[:loc[0]]), "\n")
}

// command substitutes the placeholders in every editor argument.
func (o *Opener) command(abs string, line int) []string {
	r := strings.NewReplacer("{file}", abs, "{line}", strconv.Itoa(line))
	out := make([]string, len(o.editor))
	for i, arg := range o.editor {
		out[i] = r.Replace(arg)
	}
	return out
}

// startProcess launches the editor without waiting for it to exit. The
// editor outlives the request that opened it.
func startProcess(_ context.Context, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
