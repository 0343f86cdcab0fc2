package graph

import (
	"maps"
	"slices"
)

// adjacency holds import edges keyed both ways, neighbors sorted by path.
type adjacency struct {
	imports   map[string][]string // source -> targets
	importers map[string][]string // target -> sources
}

func newAdjacency() *adjacency {
	return &adjacency{
		imports:   make(map[string][]string),
		importers: make(map[string][]string),
	}
}

// add records source -> target. Call seal once every edge is added.
func (a *adjacency) add(source, target string) {
	a.imports[source] = append(a.imports[source], target)
	a.importers[target] = append(a.importers[target], source)
}

func (a *adjacency) seal() {
	for _, m := range []map[string][]string{a.imports, a.importers} {
		for k, v := range m {
			slices.Sort(v)
			m[k] = slices.Compact(v)
		}
	}
}

func (a *adjacency) next(id string, dir Direction) []string {
	if dir == DirectionUpstream {
		return a.imports[id]
	}
	return a.importers[id]
}

// walk returns one chain per node reachable from start within maxDepth hops,
// in breadth-first order. Each node appears once, on its shortest path.
func (a *adjacency) walk(start string, dir Direction, maxDepth int) []DependencyChain {
	if maxDepth <= 0 {
		return nil
	}
	seen := map[string]bool{start: true}
	level := [][]string{{start}}
	var chains []DependencyChain
	for depth := 1; depth <= maxDepth && len(level) > 0; depth++ {
		var nextLevel [][]string
		for _, p := range level {
			for _, nb := range a.next(p[len(p)-1], dir) {
				if seen[nb] {
					continue
				}
				seen[nb] = true
				chain := append(append(make([]string, 0, len(p)+1), p...), nb)
				chains = append(chains, DependencyChain{Nodes: chain, Depth: depth})
				nextLevel = append(nextLevel, chain)
			}
		}
		level = nextLevel
	}
	return chains
}

// blastRadius follows importers out from the changed files. Changed files
// are never reported as affected; total scales the risk score.
func (a *adjacency) blastRadius(changed []string, total int) *ImpactResult {
	isChanged := make(map[string]bool, len(changed))
	for _, f := range changed {
		isChanged[f] = true
	}

	direct := make(map[string]bool)
	affected := make(map[string]bool)
	frontier := make([]string, 0, len(changed))
	for _, f := range changed {
		for _, imp := range a.importers[f] {
			if isChanged[imp] {
				continue
			}
			direct[imp] = true
			if !affected[imp] {
				affected[imp] = true
				frontier = append(frontier, imp)
			}
		}
	}
	for len(frontier) > 0 {
		f := frontier[len(frontier)-1]
		frontier = frontier[:len(frontier)-1]
		for _, imp := range a.importers[f] {
			if isChanged[imp] || affected[imp] {
				continue
			}
			affected[imp] = true
			frontier = append(frontier, imp)
		}
	}

	var risk float64
	if total > 0 {
		risk = min(1.0, float64(len(affected))/float64(total))
	}
	return &ImpactResult{
		DirectlyAffected:     slices.Sorted(maps.Keys(direct)),
		TransitivelyAffected: slices.Sorted(maps.Keys(affected)),
		RiskScore:            risk,
	}
}
