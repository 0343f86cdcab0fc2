// Package imports extracts intra-workspace import relationships from source
// text with per-category pattern rules and resolves their specifiers to
// workspace-relative paths.
package imports

import (
	"path"
	"strings"

	"github.com/dusk-indust/archgraph/internal/workspace"
)

// Probe lists, tried in order.
var (
	ScriptExtensions = []string{
		".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs", ".mts", ".cts", ".vue", ".svelte",
	}
	StyleExtensions = []string{".css", ".scss", ".sass", ".less", ".styl"}

	// GeneralExtensions is used where a reference may point at any kind of
	// asset, e.g. markup src/href attributes.
	GeneralExtensions = concat(
		ScriptExtensions,
		StyleExtensions,
		[]string{".html", ".htm", ".json", ".sql", ".yaml", ".yml", ".toml", ".md"},
	)
)

func concat(lists ...[]string) []string {
	var out []string
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

// IsRelative reports whether specifier is lexically relative. Only these are
// ever resolved.
func IsRelative(specifier string) bool {
	return strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../")
}

// Resolver rewrites relative import specifiers into workspace-relative file
// paths. With a known-file set it probes candidates against the set; without
// one it is a pure path transformation.
type Resolver struct {
	extensions []string
	fileSet    map[string]bool // nil disables the existence check
}

// NewResolver returns a resolver probing extensions in order. knownFiles may
// be nil.
func NewResolver(extensions []string, knownFiles []string) *Resolver {
	r := &Resolver{extensions: extensions}
	if knownFiles != nil {
		r.fileSet = make(map[string]bool, len(knownFiles))
		for _, f := range knownFiles {
			r.fileSet[f] = true
		}
	}
	return r
}

// Resolve maps specifier, written in the file at current, to a
// workspace-relative path. ok is false for non-relative specifiers, for
// paths escaping the workspace and, with a known-file set, when no candidate
// exists.
func (r *Resolver) Resolve(current, specifier string) (string, bool) {
	if !IsRelative(specifier) {
		return "", false
	}
	specifier = stripQuery(specifier)

	base := path.Join(path.Dir(current), specifier)
	if base == ".." || strings.HasPrefix(base, "../") {
		return "", false
	}
	if base == "." {
		return r.rootIndex()
	}

	if r.fileSet == nil {
		if _, known := workspace.KindOf(base); known || len(r.extensions) == 0 {
			return base, true
		}
		return base + r.extensions[0], true
	}
	return r.probeFile(base)
}

// probeFile tries base+ext, then base/index+ext, then base itself. No
// filesystem I/O.
func (r *Resolver) probeFile(base string) (string, bool) {
	for _, ext := range r.extensions {
		if c := base + ext; r.fileSet[c] {
			return c, true
		}
	}
	for _, ext := range r.extensions {
		if c := base + "/index" + ext; r.fileSet[c] {
			return c, true
		}
	}
	if r.fileSet[base] {
		return base, true
	}
	return "", false
}

// rootIndex resolves a specifier naming the workspace root itself, which
// only an index file at the root can satisfy.
func (r *Resolver) rootIndex() (string, bool) {
	if r.fileSet == nil {
		if len(r.extensions) == 0 {
			return "", false
		}
		return "index" + r.extensions[0], true
	}
	for _, ext := range r.extensions {
		if c := "index" + ext; r.fileSet[c] {
			return c, true
		}
	}
	return "", false
}

// stripQuery drops bundler query and fragment suffixes such as "?raw".
func stripQuery(specifier string) string {
	if i := strings.IndexAny(specifier, "?#"); i >= 0 {
		return specifier[:i]
	}
	return specifier
}
