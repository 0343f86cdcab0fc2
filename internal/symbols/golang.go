package symbols

import (
	"unicode"
	"unicode/utf8"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/dusk-indust/archgraph/internal/graph"
)

// goExtractor lists capitalised top-level declarations of Go files.
type goExtractor struct{}

func (e *goExtractor) Extract(root *tree_sitter.Node, source []byte) []graph.Symbol {
	var out []graph.Symbol
	for _, node := range children(root) {
		switch node.Kind() {
		case "function_declaration":
			if sym, ok := named(node, source, graph.SymbolKindFunction); ok {
				out = append(out, sym)
			}
		case "method_declaration":
			if sym, ok := named(node, source, graph.SymbolKindMethod); ok {
				out = append(out, sym)
			}
		case "type_declaration":
			out = append(out, e.extractTypes(node, source)...)
		case "const_declaration":
			out = append(out, e.extractSpecs(node, source, "const_spec", graph.SymbolKindConstant)...)
		case "var_declaration":
			out = append(out, e.extractSpecs(node, source, "var_spec", graph.SymbolKindVariable)...)
		}
	}

	exported := out[:0]
	for _, sym := range out {
		if isGoExported(sym.Name) {
			exported = append(exported, sym)
		}
	}
	return exported
}

// extractTypes handles every type_spec and type_alias of a declaration.
func (e *goExtractor) extractTypes(node *tree_sitter.Node, source []byte) []graph.Symbol {
	var out []graph.Symbol
	for _, spec := range children(node) {
		if spec.Kind() != "type_spec" && spec.Kind() != "type_alias" {
			continue
		}
		kind := graph.SymbolKindTypeParameter
		if typeNode := spec.ChildByFieldName("type"); typeNode != nil {
			switch typeNode.Kind() {
			case "interface_type":
				kind = graph.SymbolKindInterface
			case "struct_type":
				kind = graph.SymbolKindClass
			}
		}
		if sym, ok := named(spec, source, kind); ok {
			out = append(out, sym)
		}
	}
	return out
}

// extractSpecs collects the names of const or var specs, which may sit
// directly under the declaration or inside a parenthesised list.
func (e *goExtractor) extractSpecs(node *tree_sitter.Node, source []byte, specKind string, kind graph.SymbolKind) []graph.Symbol {
	var out []graph.Symbol
	var visit func(n *tree_sitter.Node, depth int)
	visit = func(n *tree_sitter.Node, depth int) {
		for _, child := range children(n) {
			switch {
			case child.Kind() == specKind:
				for _, id := range children(child) {
					if id.Kind() == "identifier" {
						out = append(out, symbolAt(child, id.Utf8Text(source), kind))
					}
				}
			case depth == 0 && child.Kind() == specKind+"_list":
				visit(child, depth+1)
			}
		}
	}
	visit(node, 0)
	return out
}

// isGoExported returns true if the first rune of name is an uppercase letter.
func isGoExported(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}
