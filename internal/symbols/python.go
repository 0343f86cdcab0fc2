package symbols

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/dusk-indust/archgraph/internal/graph"
)

// pyExtractor lists every top-level declaration of a Python module. Python
// has no export keyword, so nothing is filtered out.
type pyExtractor struct{}

func (e *pyExtractor) Extract(root *tree_sitter.Node, source []byte) []graph.Symbol {
	var out []graph.Symbol
	for _, node := range children(root) {
		out = append(out, e.extractTopLevel(node, source)...)
	}
	return out
}

func (e *pyExtractor) extractTopLevel(node *tree_sitter.Node, source []byte) []graph.Symbol {
	switch node.Kind() {
	case "function_definition":
		if sym, ok := named(node, source, graph.SymbolKindFunction); ok {
			return []graph.Symbol{sym}
		}
	case "class_definition":
		if sym, ok := named(node, source, graph.SymbolKindClass); ok {
			return []graph.Symbol{sym}
		}
	case "decorated_definition":
		// The function_definition or class_definition sits in the
		// "definition" field.
		if def := node.ChildByFieldName("definition"); def != nil {
			return e.extractTopLevel(def, source)
		}
	case "expression_statement":
		for _, child := range children(node) {
			if child.Kind() != "assignment" {
				continue
			}
			left := child.ChildByFieldName("left")
			if left == nil || left.Kind() != "identifier" {
				continue
			}
			name := left.Utf8Text(source)
			kind := graph.SymbolKindVariable
			if isPyConstant(name) {
				kind = graph.SymbolKindConstant
			}
			return []graph.Symbol{symbolAt(node, name, kind)}
		}
	}
	return nil
}

// isPyConstant follows the UPPER_CASE naming convention.
func isPyConstant(name string) bool {
	return strings.ToUpper(name) == name && strings.ContainsAny(name, "ABCDEFGHIJKLMNOPQRSTUVWXYZ")
}
