package graph

import (
	"path"
	"sort"
	"strings"
)

// IconFunc maps a file path to the icon key the viewer renders for it.
type IconFunc func(path string) string

// ProjectGraph is the mutable node/edge model populated by one build pass.
// It is owned by a single builder for the duration of that pass and is not
// safe for concurrent use.
type ProjectGraph struct {
	nodes   map[string]*FileNode
	edges   []*Edge
	edgeIdx map[edgeKey]int // (source, target) -> index into edges
	icon    IconFunc
}

type edgeKey struct {
	source, target string
}

// NewProjectGraph returns an empty graph. A nil icon func falls back to the
// file extension without its dot.
func NewProjectGraph(icon IconFunc) *ProjectGraph {
	if icon == nil {
		icon = extensionIcon
	}
	return &ProjectGraph{
		nodes:   make(map[string]*FileNode),
		edgeIdx: make(map[edgeKey]int),
		icon:    icon,
	}
}

// AddNode inserts the node for p or overwrites the existing one wholesale.
// Within a pass the last observation wins.
func (g *ProjectGraph) AddNode(p string, symbols []Symbol, linesOfCode int, status ChangeStatus) *FileNode {
	if len(symbols) > MaxSymbols {
		symbols = symbols[:MaxSymbols]
	}
	w, h := DisplaySize(p)
	n, ok := g.nodes[p]
	if !ok {
		n = &FileNode{Path: p}
		g.nodes[p] = n
	}
	n.Symbols = append([]Symbol(nil), symbols...)
	n.LinesOfCode = linesOfCode
	n.ChangeStatus = status
	n.DisplayWidth = w
	n.DisplayHeight = h
	return n
}

// Node returns the node for p, or nil.
func (g *ProjectGraph) Node(p string) *FileNode {
	return g.nodes[p]
}

// AddEdge inserts the (source, target) edge or merges into the existing one:
// symbols are unioned in first-appearance order, and the status is only
// overwritten by a non-unchanged value.
func (g *ProjectGraph) AddEdge(source, target string, symbols []string, status ChangeStatus) *Edge {
	key := edgeKey{source, target}
	if i, ok := g.edgeIdx[key]; ok {
		e := g.edges[i]
		e.Symbols = unionSymbols(e.Symbols, symbols)
		if status != StatusUnchanged && status != "" {
			e.ChangeStatus = status
		}
		return e
	}
	if status == "" {
		status = StatusUnchanged
	}
	e := &Edge{
		Source:       source,
		Target:       target,
		Symbols:      unionSymbols(nil, symbols),
		ChangeStatus: status,
	}
	g.edgeIdx[key] = len(g.edges)
	g.edges = append(g.edges, e)
	return e
}

// Edge returns the edge for (source, target), or nil.
func (g *ProjectGraph) Edge(source, target string) *Edge {
	if i, ok := g.edgeIdx[edgeKey{source, target}]; ok {
		return g.edges[i]
	}
	return nil
}

// RemoveNode deletes the node and every edge touching it. It reports whether
// the node existed.
func (g *ProjectGraph) RemoveNode(p string) bool {
	_, existed := g.nodes[p]
	delete(g.nodes, p)

	kept := g.edges[:0]
	for _, e := range g.edges {
		if e.Source == p || e.Target == p {
			continue
		}
		kept = append(kept, e)
	}
	for i := len(kept); i < len(g.edges); i++ {
		g.edges[i] = nil
	}
	g.edges = kept
	g.reindex()
	return existed
}

// Clear empties the graph. Called at the start of every rebuild.
func (g *ProjectGraph) Clear() {
	g.nodes = make(map[string]*FileNode)
	g.edges = nil
	g.edgeIdx = make(map[edgeKey]int)
}

// GetDependencies returns the direct targets of p's outgoing edges. O(E).
func (g *ProjectGraph) GetDependencies(p string) []string {
	var out []string
	for _, e := range g.edges {
		if e.Source == p {
			out = append(out, e.Target)
		}
	}
	return out
}

// GetDependents returns the direct sources of p's incoming edges. O(E).
func (g *ProjectGraph) GetDependents(p string) []string {
	var out []string
	for _, e := range g.edges {
		if e.Target == p {
			out = append(out, e.Source)
		}
	}
	return out
}

// Len returns the number of nodes and edges.
func (g *ProjectGraph) Len() (nodes, edges int) {
	return len(g.nodes), len(g.edges)
}

// CumulativeLOC is p's own LOC plus the LOC of each direct dependency. It is
// one hop only and counts a dependency once per edge, so shared dependencies
// are counted again by every importer.
func (g *ProjectGraph) CumulativeLOC(p string) int {
	n, ok := g.nodes[p]
	if !ok {
		return 0
	}
	total := n.LinesOfCode
	for _, e := range g.edges {
		if e.Source != p {
			continue
		}
		if dep, ok := g.nodes[e.Target]; ok {
			total += dep.LinesOfCode
		}
	}
	return total
}

// Materialize produces the snapshot handed to the rendering layer. Nodes are
// sorted by path; edges keep insertion order. Dangling edges are kept for the
// consumer to filter.
func (g *ProjectGraph) Materialize() *Snapshot {
	ownLOC := make(map[string]int, len(g.nodes))
	for p, n := range g.nodes {
		ownLOC[p] = n.LinesOfCode
	}
	cumulative := make(map[string]int, len(g.nodes))
	for p, loc := range ownLOC {
		cumulative[p] = loc
	}
	for _, e := range g.edges {
		if _, ok := cumulative[e.Source]; !ok {
			continue
		}
		cumulative[e.Source] += ownLOC[e.Target]
	}

	paths := make([]string, 0, len(g.nodes))
	for p := range g.nodes {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	snap := &Snapshot{
		Nodes: make([]SnapshotNode, 0, len(paths)),
		Edges: make([]SnapshotEdge, 0, len(g.edges)),
	}
	for _, p := range paths {
		n := g.nodes[p]
		snap.Nodes = append(snap.Nodes, SnapshotNode{
			ID:            p,
			Path:          p,
			Filename:      path.Base(p),
			Icon:          g.icon(p),
			LinesOfCode:   n.LinesOfCode,
			CumulativeLOC: cumulative[p],
			Width:         n.DisplayWidth,
			Height:        n.DisplayHeight,
			ChangeStatus:  n.ChangeStatus,
			Symbols:       append([]Symbol{}, n.Symbols...),
		})
	}
	for _, e := range g.edges {
		snap.Edges = append(snap.Edges, SnapshotEdge{
			Source:       e.Source,
			Target:       e.Target,
			Symbols:      append([]string{}, e.Symbols...),
			ChangeStatus: e.ChangeStatus,
		})
	}
	return snap
}

func (g *ProjectGraph) reindex() {
	g.edgeIdx = make(map[edgeKey]int, len(g.edges))
	for i, e := range g.edges {
		g.edgeIdx[edgeKey{e.Source, e.Target}] = i
	}
}

// unionSymbols appends the names in add that are not already in base.
func unionSymbols(base, add []string) []string {
	seen := make(map[string]bool, len(base)+len(add))
	out := make([]string, 0, len(base)+len(add))
	for _, s := range base {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, s := range add {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func extensionIcon(p string) string {
	return strings.TrimPrefix(strings.ToLower(path.Ext(p)), ".")
}
