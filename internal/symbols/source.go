// Package symbols lists the exported declarations of a source file using
// tree-sitter grammars.
package symbols

import (
	"context"
	"fmt"
	"path"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/dusk-indust/archgraph/internal/graph"
)

// Language identifies a grammar.
type Language string

const (
	LangGo         Language = "go"
	LangTypeScript Language = "typescript"
	LangTSX        Language = "tsx"
	LangJavaScript Language = "javascript"
	LangPython     Language = "python"
	LangRust       Language = "rust"
)

var extLanguages = map[string]Language{
	".go":  LangGo,
	".ts":  LangTypeScript,
	".mts": LangTypeScript,
	".cts": LangTypeScript,
	".tsx": LangTSX,
	".js":  LangJavaScript,
	".jsx": LangJavaScript,
	".mjs": LangJavaScript,
	".cjs": LangJavaScript,
	".py":  LangPython,
	".rs":  LangRust,
}

// LanguageFor returns the grammar for p, or "" when none is registered.
func LanguageFor(p string) Language {
	return extLanguages[strings.ToLower(path.Ext(p))]
}

// extractor lists the exported declarations of a parsed file in source
// order.
type extractor interface {
	Extract(root *tree_sitter.Node, source []byte) []graph.Symbol
}

// TreeSitterSource implements the builder's symbol source. A new
// tree-sitter parser is created per call, so Symbols is safe for concurrent
// use.
type TreeSitterSource struct {
	languages  map[Language]*tree_sitter.Language
	extractors map[Language]extractor
}

// NewTreeSitterSource registers the Go, TypeScript, TSX, JavaScript, Python
// and Rust grammars.
func NewTreeSitterSource() *TreeSitterSource {
	ecma := &ecmaExtractor{}
	return &TreeSitterSource{
		languages: map[Language]*tree_sitter.Language{
			LangGo:         tree_sitter.NewLanguage(tree_sitter_go.Language()),
			LangTypeScript: tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()),
			LangTSX:        tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTSX()),
			LangJavaScript: tree_sitter.NewLanguage(tree_sitter_javascript.Language()),
			LangPython:     tree_sitter.NewLanguage(tree_sitter_python.Language()),
			LangRust:       tree_sitter.NewLanguage(tree_sitter_rust.Language()),
		},
		extractors: map[Language]extractor{
			LangGo:         &goExtractor{},
			LangTypeScript: ecma,
			LangTSX:        ecma,
			LangJavaScript: ecma,
			LangPython:     &pyExtractor{},
			LangRust:       &rsExtractor{},
		},
	}
}

// Supports reports whether p has a registered grammar.
func (s *TreeSitterSource) Supports(p string) bool {
	_, ok := s.languages[LanguageFor(p)]
	return ok
}

// Symbols returns at most graph.MaxSymbols exported declarations of the file
// at p. Files without a grammar yield an empty list and no error.
func (s *TreeSitterSource) Symbols(ctx context.Context, p string, source []byte) ([]graph.Symbol, error) {
	syms, err := s.AllSymbols(ctx, p, source)
	if err != nil {
		return nil, err
	}
	if len(syms) > graph.MaxSymbols {
		syms = syms[:graph.MaxSymbols]
	}
	return syms, nil
}

// AllSymbols is Symbols without the per-file cap. Navigation uses it to
// reach declarations the graph does not display.
func (s *TreeSitterSource) AllSymbols(ctx context.Context, p string, source []byte) ([]graph.Symbol, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lang := LanguageFor(p)
	tsLang, ok := s.languages[lang]
	if !ok {
		return []graph.Symbol{}, nil
	}

	parser := tree_sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(tsLang); err != nil {
		return nil, fmt.Errorf("set language %s: %w", lang, err)
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("tree-sitter returned nil tree for %s", p)
	}
	defer tree.Close()

	syms := s.extractors[lang].Extract(tree.RootNode(), source)
	if syms == nil {
		syms = []graph.Symbol{}
	}
	return syms, nil
}

// Close is a no-op because parsers are created per call.
func (s *TreeSitterSource) Close() error {
	return nil
}

// --- Shared helpers ---

// symbolAt builds a symbol positioned at node's first line.
func symbolAt(node *tree_sitter.Node, name string, kind graph.SymbolKind) graph.Symbol {
	return graph.Symbol{Name: name, Kind: kind, Line: int(node.StartPosition().Row) + 1}
}

// named returns the symbol for node's "name" field, or false when it has
// none.
func named(node *tree_sitter.Node, source []byte, kind graph.SymbolKind) (graph.Symbol, bool) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return graph.Symbol{}, false
	}
	name := nameNode.Utf8Text(source)
	if name == "" {
		return graph.Symbol{}, false
	}
	return symbolAt(node, name, kind), true
}

// children returns node's direct children.
func children(node *tree_sitter.Node) []*tree_sitter.Node {
	out := make([]*tree_sitter.Node, 0, node.ChildCount())
	for i := uint(0); i < node.ChildCount(); i++ {
		if c := node.Child(i); c != nil {
			out = append(out, c)
		}
	}
	return out
}
