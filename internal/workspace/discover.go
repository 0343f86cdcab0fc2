// Package workspace lists the in-scope files of a workspace and watches it
// for changes.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/dusk-indust/archgraph/internal/logging"
)

// defaultIgnoredDirs are skipped by name at any depth.
var defaultIgnoredDirs = []string{
	".git", ".hg", ".svn",
	"node_modules", "bower_components", "vendor",
	"dist", "build", "out", "target", "coverage",
	".next", ".nuxt", ".svelte-kit", ".turbo", ".cache",
	"__pycache__", ".venv", "venv", ".tox",
	".idea", ".vscode",
}

// DiscoverOptions configures a Discoverer.
type DiscoverOptions struct {
	// ExcludeDirs are directory names skipped in addition to the defaults.
	ExcludeDirs []string
	// Patterns are gitignore-style patterns applied on top of the root
	// .gitignore.
	Patterns []string
	Logger   *slog.Logger
}

// Discoverer lists allow-listed files under a workspace root.
type Discoverer struct {
	root    string
	skipDir map[string]bool
	matcher *ignore.GitIgnore
	logger  *slog.Logger
}

// NewDiscoverer prepares a Discoverer for root. The root .gitignore is read
// once here; a missing .gitignore is not an error.
func NewDiscoverer(root string, opts DiscoverOptions) (*Discoverer, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat workspace root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("workspace root %s is not a directory", abs)
	}

	skip := make(map[string]bool, len(defaultIgnoredDirs)+len(opts.ExcludeDirs))
	for _, d := range defaultIgnoredDirs {
		skip[d] = true
	}
	for _, d := range opts.ExcludeDirs {
		skip[strings.Trim(d, "/")] = true
	}

	var matcher *ignore.GitIgnore
	gitignore := filepath.Join(abs, ".gitignore")
	if _, err := os.Stat(gitignore); err == nil {
		matcher, err = ignore.CompileIgnoreFileAndLines(gitignore, opts.Patterns...)
		if err != nil {
			return nil, fmt.Errorf("compile .gitignore: %w", err)
		}
	} else {
		matcher = ignore.CompileIgnoreLines(opts.Patterns...)
	}

	return &Discoverer{
		root:    abs,
		skipDir: skip,
		matcher: matcher,
		logger:  logging.OrDefault(opts.Logger),
	}, nil
}

// Root returns the absolute workspace root.
func (d *Discoverer) Root() string { return d.root }

// Abs converts a workspace-relative slash path to an absolute OS path.
func (d *Discoverer) Abs(rel string) string {
	return filepath.Join(d.root, filepath.FromSlash(rel))
}

// Rel converts an absolute OS path to a workspace-relative slash path. ok is
// false for paths outside the root.
func (d *Discoverer) Rel(abs string) (rel string, ok bool) {
	r, err := filepath.Rel(d.root, abs)
	if err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(r), true
}

// Ignored reports whether the workspace-relative path rel is excluded.
func (d *Discoverer) Ignored(rel string, isDir bool) bool {
	if rel == "" || rel == "." {
		return false
	}
	dirs := strings.Split(rel, "/")
	if !isDir {
		dirs = dirs[:len(dirs)-1]
	}
	for _, seg := range dirs {
		if d.skipDir[seg] {
			return true
		}
	}
	if isDir {
		return d.matcher.MatchesPath(rel + "/")
	}
	return d.matcher.MatchesPath(rel)
}

// Files returns the sorted workspace-relative paths of every allow-listed,
// non-ignored file under the root.
func (d *Discoverer) Files(ctx context.Context) ([]string, error) {
	var files []string
	err := filepath.WalkDir(d.root, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			if p == d.root {
				return err
			}
			d.logger.Warn("skipping unreadable path", "path", p, "error", err)
			if entry != nil && entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		rel, ok := d.Rel(p)
		if !ok || rel == "." {
			return nil
		}
		if entry.IsDir() {
			if d.Ignored(rel, true) {
				return filepath.SkipDir
			}
			return nil
		}
		if !entry.Type().IsRegular() {
			return nil
		}
		if _, known := KindOf(rel); !known || d.Ignored(rel, false) {
			return nil
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("walk %s: %w", d.root, err)
	}

	sort.Strings(files)
	return files, nil
}
