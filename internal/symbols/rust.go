package symbols

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/dusk-indust/archgraph/internal/graph"
)

// rsExtractor lists the pub items of a Rust file, including pub methods of
// top-level impl blocks.
type rsExtractor struct{}

var rsItemKinds = map[string]graph.SymbolKind{
	"function_item": graph.SymbolKindFunction,
	"struct_item":   graph.SymbolKindClass,
	"union_item":    graph.SymbolKindClass,
	"enum_item":     graph.SymbolKindEnum,
	"trait_item":    graph.SymbolKindInterface,
	"type_item":     graph.SymbolKindTypeParameter,
	"const_item":    graph.SymbolKindConstant,
	"static_item":   graph.SymbolKindVariable,
	"mod_item":      graph.SymbolKindModule,
}

func (e *rsExtractor) Extract(root *tree_sitter.Node, source []byte) []graph.Symbol {
	var out []graph.Symbol
	for _, node := range children(root) {
		if node.Kind() == "impl_item" {
			out = append(out, e.extractImpl(node, source)...)
			continue
		}
		kind, ok := rsItemKinds[node.Kind()]
		if !ok || !isRustPub(node) {
			continue
		}
		if sym, ok := named(node, source, kind); ok {
			out = append(out, sym)
		}
	}
	return out
}

// extractImpl returns the pub methods inside an impl body.
func (e *rsExtractor) extractImpl(node *tree_sitter.Node, source []byte) []graph.Symbol {
	body := node.ChildByFieldName("body")
	if body == nil {
		return nil
	}
	var out []graph.Symbol
	for _, child := range children(body) {
		if child.Kind() != "function_item" || !isRustPub(child) {
			continue
		}
		if sym, ok := named(child, source, graph.SymbolKindMethod); ok {
			out = append(out, sym)
		}
	}
	return out
}

// isRustPub checks if a node has a leading visibility_modifier child.
func isRustPub(node *tree_sitter.Node) bool {
	if node.ChildCount() == 0 {
		return false
	}
	first := node.Child(0)
	if first == nil {
		return false
	}
	return first.Kind() == "visibility_modifier"
}
