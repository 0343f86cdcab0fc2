package symbols

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/dusk-indust/archgraph/internal/graph"
)

// ecmaExtractor lists the exports of TypeScript, TSX and JavaScript files.
// The three grammars share node names for everything it inspects.
type ecmaExtractor struct{}

func (e *ecmaExtractor) Extract(root *tree_sitter.Node, source []byte) []graph.Symbol {
	var out []graph.Symbol
	for _, node := range children(root) {
		if node.Kind() != "export_statement" {
			continue
		}
		out = append(out, e.extractExport(node, source)...)
	}
	return out
}

func (e *ecmaExtractor) extractExport(node *tree_sitter.Node, source []byte) []graph.Symbol {
	if decl := node.ChildByFieldName("declaration"); decl != nil {
		return e.extractDeclaration(decl, source)
	}

	var out []graph.Symbol
	for _, child := range children(node) {
		switch child.Kind() {
		case "export_clause":
			for _, spec := range children(child) {
				if spec.Kind() != "export_specifier" {
					continue
				}
				nameNode := spec.ChildByFieldName("alias")
				if nameNode == nil {
					nameNode = spec.ChildByFieldName("name")
				}
				if nameNode != nil {
					out = append(out, symbolAt(spec, nameNode.Utf8Text(source), graph.SymbolKindSymbol))
				}
			}
		case "function_declaration", "function_expression", "function", "generator_function_declaration",
			"class_declaration", "class", "abstract_class_declaration":
			// export default function f() {} / export default class C {}
			out = append(out, e.extractDeclaration(child, source)...)
		}
	}
	return out
}

func (e *ecmaExtractor) extractDeclaration(decl *tree_sitter.Node, source []byte) []graph.Symbol {
	var kind graph.SymbolKind
	switch decl.Kind() {
	case "function_declaration", "function_expression", "function", "generator_function_declaration", "function_signature":
		kind = graph.SymbolKindFunction
	case "class_declaration", "class", "abstract_class_declaration":
		kind = graph.SymbolKindClass
	case "interface_declaration":
		kind = graph.SymbolKindInterface
	case "type_alias_declaration":
		kind = graph.SymbolKindTypeParameter
	case "enum_declaration":
		kind = graph.SymbolKindEnum
	case "internal_module", "module":
		kind = graph.SymbolKindNamespace
	case "lexical_declaration", "variable_declaration":
		return e.extractVariables(decl, source)
	default:
		return nil
	}
	if sym, ok := named(decl, source, kind); ok {
		return []graph.Symbol{sym}
	}
	return nil
}

// extractVariables handles "export const a = ..., b = ...". Arrow functions
// and function expressions count as functions; other const bindings are
// constants.
func (e *ecmaExtractor) extractVariables(decl *tree_sitter.Node, source []byte) []graph.Symbol {
	isConst := false
	if first := decl.Child(0); first != nil && first.Kind() == "const" {
		isConst = true
	}

	var out []graph.Symbol
	for _, child := range children(decl) {
		if child.Kind() != "variable_declarator" {
			continue
		}
		nameNode := child.ChildByFieldName("name")
		if nameNode == nil || nameNode.Kind() != "identifier" {
			continue
		}
		kind := graph.SymbolKindVariable
		if isConst {
			kind = graph.SymbolKindConstant
		}
		if value := child.ChildByFieldName("value"); value != nil {
			switch value.Kind() {
			case "arrow_function", "function_expression", "function":
				kind = graph.SymbolKindFunction
			}
		}
		out = append(out, symbolAt(child, nameNode.Utf8Text(source), kind))
	}
	return out
}
