package imports

import (
	"regexp"
	"strings"

	"github.com/dusk-indust/archgraph/internal/graph"
	"github.com/dusk-indust/archgraph/internal/workspace"
)

// Match is one (specifier, symbols) tuple found by a rule. Symbols is never
// empty; the whole-module sentinel stands in when no name was bound.
type Match struct {
	Specifier string
	Symbols   []string
}

// Rule is a pure extraction pass over file content. Rules run independently;
// overlapping matches from different rules are all kept.
type Rule func(content string) []Match

// quoted captures a single- or double-quoted specifier.
const quoted = `["']([^"'\n]+)["']`

const ident = `[A-Za-z_$][\w$]*`

// --- Script rules ---

var (
	reSideEffectImport = regexp.MustCompile(`(?m)(?:^|;)[ \t]*import[ \t]*` + quoted)
	reNamedImport      = regexp.MustCompile(`import\s+(?:type\s+)?\{([^}]*)\}\s*from\s*` + quoted)
	reDefaultImport    = regexp.MustCompile(`import\s+(?:type\s+)?(` + ident + `)\s+from\s*` + quoted)
	reNamespaceImport  = regexp.MustCompile(`import\s+(?:type\s+)?\*\s*as\s+(` + ident + `)\s+from\s*` + quoted)
	reMixedImport      = regexp.MustCompile(`import\s+(?:type\s+)?(` + ident + `)\s*,\s*\{([^}]*)\}\s*from\s*` + quoted)
	reMixedNamespace   = regexp.MustCompile(`import\s+(` + ident + `)\s*,\s*\*\s*as\s+(` + ident + `)\s+from\s*` + quoted)
	reDynamicImport    = regexp.MustCompile(`\bimport\s*\(\s*` + quoted + `\s*\)`)
	reNamedReexport    = regexp.MustCompile(`export\s+(?:type\s+)?\{([^}]*)\}\s*from\s*` + quoted)
	reStarReexport     = regexp.MustCompile(`export\s+\*\s*(?:as\s+` + ident + `\s+)?from\s*` + quoted)
	reBareRequire      = regexp.MustCompile(`\brequire\s*\(\s*` + quoted + `\s*\)`)
	reDestructRequire  = regexp.MustCompile(`(?:const|let|var)\s*\{([^}]*)\}\s*=\s*require\s*\(\s*` + quoted + `\s*\)`)
	reSimpleRequire    = regexp.MustCompile(`(?:const|let|var)\s+(` + ident + `)\s*=\s*require\s*\(\s*` + quoted + `\s*\)`)
)

// NamespaceSymbol tags a namespace alias so it stays distinct from named
// bindings.
func NamespaceSymbol(alias string) string { return "* as " + alias }

func sideEffectImport(content string) []Match {
	return wholeModule(reSideEffectImport, content)
}

func namedImport(content string) []Match {
	var out []Match
	for _, m := range reNamedImport.FindAllStringSubmatch(content, -1) {
		out = append(out, Match{Specifier: m[2], Symbols: orSentinel(splitNames(m[1], " as "))})
	}
	return out
}

func defaultImport(content string) []Match {
	var out []Match
	for _, m := range reDefaultImport.FindAllStringSubmatch(content, -1) {
		out = append(out, Match{Specifier: m[2], Symbols: []string{m[1]}})
	}
	return out
}

func namespaceImport(content string) []Match {
	var out []Match
	for _, m := range reNamespaceImport.FindAllStringSubmatch(content, -1) {
		out = append(out, Match{Specifier: m[2], Symbols: []string{NamespaceSymbol(m[1])}})
	}
	return out
}

func mixedImport(content string) []Match {
	var out []Match
	for _, m := range reMixedImport.FindAllStringSubmatch(content, -1) {
		syms := append([]string{m[1]}, splitNames(m[2], " as ")...)
		out = append(out, Match{Specifier: m[3], Symbols: syms})
	}
	for _, m := range reMixedNamespace.FindAllStringSubmatch(content, -1) {
		out = append(out, Match{Specifier: m[3], Symbols: []string{m[1], NamespaceSymbol(m[2])}})
	}
	return out
}

func dynamicImport(content string) []Match {
	return wholeModule(reDynamicImport, content)
}

func reexport(content string) []Match {
	var out []Match
	for _, m := range reNamedReexport.FindAllStringSubmatch(content, -1) {
		out = append(out, Match{Specifier: m[2], Symbols: orSentinel(splitNames(m[1], " as "))})
	}
	return append(out, wholeModule(reStarReexport, content)...)
}

// bareRequire matches require calls anywhere in an expression. Calls that
// end a simple or destructured binding are left to those rules.
func bareRequire(content string) []Match {
	bound := make(map[int]bool)
	for _, re := range []*regexp.Regexp{reSimpleRequire, reDestructRequire} {
		for _, loc := range re.FindAllStringIndex(content, -1) {
			bound[loc[1]] = true
		}
	}
	var out []Match
	for _, m := range reBareRequire.FindAllStringSubmatchIndex(content, -1) {
		if bound[m[1]] {
			continue
		}
		out = append(out, Match{Specifier: content[m[2]:m[3]], Symbols: []string{graph.WholeModule}})
	}
	return out
}

func destructuredRequire(content string) []Match {
	var out []Match
	for _, m := range reDestructRequire.FindAllStringSubmatch(content, -1) {
		out = append(out, Match{Specifier: m[2], Symbols: orSentinel(splitNames(m[1], ":"))})
	}
	return out
}

func simpleRequire(content string) []Match {
	var out []Match
	for _, m := range reSimpleRequire.FindAllStringSubmatch(content, -1) {
		out = append(out, Match{Specifier: m[2], Symbols: []string{m[1]}})
	}
	return out
}

// --- Stylesheet rules ---

var (
	reCSSImport    = regexp.MustCompile(`@import\s+(?:url\(\s*)?` + quoted)
	reCSSImportURL = regexp.MustCompile(`@import\s+url\(\s*([^"'()\s]+)\s*\)`)
	reSassModule   = regexp.MustCompile(`@(?:use|forward)\s+` + quoted)
)

func cssImport(content string) []Match {
	return append(wholeModule(reCSSImport, content), wholeModule(reCSSImportURL, content)...)
}

func sassModule(content string) []Match {
	return wholeModule(reSassModule, content)
}

// --- Markup rules ---

// attrValue captures a quoted attribute value in group 1 or an unquoted one
// in group 2.
const attrValue = `(?:` + quoted + "|([^\\s\"'=<>`]+))"

var (
	reScriptSrc = regexp.MustCompile(`(?i)<script\b[^>]*?\bsrc\s*=\s*` + attrValue)
	reLinkHref  = regexp.MustCompile(`(?i)<link\b[^>]*?\bhref\s*=\s*` + attrValue)
)

func scriptSrc(content string) []Match { return attribute(reScriptSrc, content) }

func linkHref(content string) []Match { return attribute(reLinkHref, content) }

func attribute(re *regexp.Regexp, content string) []Match {
	var out []Match
	for _, m := range re.FindAllStringSubmatch(content, -1) {
		value := m[1]
		if value == "" {
			value = m[2]
		}
		out = append(out, Match{Specifier: value, Symbols: []string{graph.WholeModule}})
	}
	return out
}

// DefaultRules returns the strategy table: per category, an ordered list of
// independent rules. Categories without an entry have no import extraction.
func DefaultRules() map[workspace.Category][]Rule {
	return map[workspace.Category][]Rule{
		workspace.CategoryScript: {
			namedImport,
			defaultImport,
			namespaceImport,
			mixedImport,
			sideEffectImport,
			dynamicImport,
			reexport,
			bareRequire,
			destructuredRequire,
			simpleRequire,
		},
		workspace.CategoryStylesheet: {cssImport, sassModule},
		workspace.CategoryMarkup:     {scriptSrc, linkHref},
	}
}

// --- Helpers ---

// wholeModule returns one sentinel match per occurrence of re, whose first
// group is the specifier.
func wholeModule(re *regexp.Regexp, content string) []Match {
	var out []Match
	for _, m := range re.FindAllStringSubmatch(content, -1) {
		out = append(out, Match{Specifier: m[1], Symbols: []string{graph.WholeModule}})
	}
	return out
}

var reListComment = regexp.MustCompile(`//[^\n]*|/\*[\s\S]*?\*/`)

// splitNames splits a binding list such as "A, type B, C as D" into the
// imported names, cutting each entry at sep. Comments are dropped first.
func splitNames(list, sep string) []string {
	list = reListComment.ReplaceAllString(list, " ")
	var out []string
	for _, part := range strings.Split(list, ",") {
		name := strings.TrimSpace(part)
		name = strings.TrimPrefix(name, "type ")
		if i := strings.Index(name, sep); i >= 0 {
			name = name[:i]
		}
		name = strings.TrimSpace(name)
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}

func orSentinel(symbols []string) []string {
	if len(symbols) == 0 {
		return []string{graph.WholeModule}
	}
	return symbols
}
