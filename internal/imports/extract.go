package imports

import (
	"fmt"

	"github.com/dusk-indust/archgraph/internal/workspace"
)

// Import is one resolved relationship from the scanned file to Path.
type Import struct {
	Path    string   `json:"path"`
	Symbols []string `json:"symbols"`
}

// Extractor runs the rule table for a file's category and resolves every
// relative specifier. Unresolvable specifiers are dropped silently.
type Extractor struct {
	rules     map[workspace.Category][]Rule
	resolvers map[workspace.Category]*Resolver
}

// NewExtractor builds an extractor with the default rules. knownFiles enables
// the resolver's existence check; pass nil for pure path resolution.
func NewExtractor(knownFiles []string) *Extractor {
	return &Extractor{
		rules: DefaultRules(),
		resolvers: map[workspace.Category]*Resolver{
			workspace.CategoryScript:     NewResolver(ScriptExtensions, knownFiles),
			workspace.CategoryStylesheet: NewResolver(StyleExtensions, knownFiles),
			workspace.CategoryMarkup:     NewResolver(GeneralExtensions, knownFiles),
		},
	}
}

// SetRules replaces the rule list for one category.
func (e *Extractor) SetRules(cat workspace.Category, rules []Rule) {
	e.rules[cat] = rules
}

// Extract returns the resolved imports of content, in rule order then match
// order. Duplicates are kept; edges merge them later. A panicking rule fails
// the whole file with an error and no imports.
func (e *Extractor) Extract(cat workspace.Category, content, current string) (imports []Import, err error) {
	rules := e.rules[cat]
	if len(rules) == 0 {
		return nil, nil
	}
	resolver := e.resolvers[cat]
	if resolver == nil {
		resolver = NewResolver(GeneralExtensions, nil)
	}

	defer func() {
		if r := recover(); r != nil {
			imports = nil
			err = fmt.Errorf("extract imports from %s: %v", current, r)
		}
	}()

	for _, rule := range rules {
		for _, m := range rule(content) {
			if !IsRelative(m.Specifier) {
				continue
			}
			target, ok := resolver.Resolve(current, m.Specifier)
			if !ok {
				continue
			}
			imports = append(imports, Import{Path: target, Symbols: orSentinel(m.Symbols)})
		}
	}
	return imports, nil
}
