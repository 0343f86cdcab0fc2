package workspace

import (
	"path"
	"sort"
	"strings"
)

// Category groups file kinds by how their imports are extracted.
type Category string

const (
	CategoryScript     Category = "script"
	CategoryStylesheet Category = "stylesheet"
	CategoryMarkup     Category = "markup"
	// CategoryOther files are shown with symbols and LOC but have no
	// import extraction.
	CategoryOther Category = "other"
)

// Kind describes one allow-listed file extension.
type Kind struct {
	Ext      string   // lower-case, with the leading dot
	Category Category
	Icon     string // icon key rendered by the viewer
}

// DefaultIcon is used for paths outside the allow-list.
const DefaultIcon = "file"

var kinds = map[string]Kind{}

func register(cat Category, icon string, exts ...string) {
	for _, ext := range exts {
		kinds[ext] = Kind{Ext: ext, Category: cat, Icon: icon}
	}
}

func init() {
	register(CategoryScript, "typescript", ".ts", ".mts", ".cts")
	register(CategoryScript, "react-ts", ".tsx")
	register(CategoryScript, "javascript", ".js", ".mjs", ".cjs")
	register(CategoryScript, "react", ".jsx")
	register(CategoryScript, "vue", ".vue")
	register(CategoryScript, "svelte", ".svelte")

	register(CategoryStylesheet, "css", ".css")
	register(CategoryStylesheet, "sass", ".scss", ".sass")
	register(CategoryStylesheet, "less", ".less")
	register(CategoryStylesheet, "stylus", ".styl")

	register(CategoryMarkup, "html", ".html", ".htm", ".xhtml")

	register(CategoryOther, "go", ".go")
	register(CategoryOther, "python", ".py")
	register(CategoryOther, "rust", ".rs")
	register(CategoryOther, "java", ".java")
	register(CategoryOther, "kotlin", ".kt", ".kts")
	register(CategoryOther, "swift", ".swift")
	register(CategoryOther, "c", ".c", ".h")
	register(CategoryOther, "cpp", ".cpp", ".cc", ".hpp")
	register(CategoryOther, "csharp", ".cs")
	register(CategoryOther, "ruby", ".rb")
	register(CategoryOther, "php", ".php")
	register(CategoryOther, "lua", ".lua")
	register(CategoryOther, "dart", ".dart")
	register(CategoryOther, "scala", ".scala")
	register(CategoryOther, "elixir", ".ex", ".exs")
	register(CategoryOther, "haskell", ".hs")
	register(CategoryOther, "zig", ".zig")
	register(CategoryOther, "shell", ".sh", ".bash", ".zsh")
	register(CategoryOther, "powershell", ".ps1")
	register(CategoryOther, "sql", ".sql")
	register(CategoryOther, "json", ".json")
	register(CategoryOther, "yaml", ".yaml", ".yml")
	register(CategoryOther, "toml", ".toml")
	register(CategoryOther, "xml", ".xml")
	register(CategoryOther, "markdown", ".md", ".mdx")
	register(CategoryOther, "graphql", ".graphql", ".gql")
	register(CategoryOther, "proto", ".proto")
}

// KindOf returns the kind for p's extension.
func KindOf(p string) (Kind, bool) {
	k, ok := kinds[strings.ToLower(path.Ext(p))]
	return k, ok
}

// CategoryOf returns p's category, or CategoryOther for unknown extensions.
func CategoryOf(p string) Category {
	if k, ok := KindOf(p); ok {
		return k.Category
	}
	return CategoryOther
}

// IconFor returns the icon key for p. It satisfies graph.IconFunc.
func IconFor(p string) string {
	if k, ok := KindOf(p); ok {
		return k.Icon
	}
	return DefaultIcon
}

// Extensions returns every allow-listed extension, sorted.
func Extensions() []string {
	out := make([]string, 0, len(kinds))
	for ext := range kinds {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}
