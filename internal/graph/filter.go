package graph

import "strings"

// SnapshotFilter selects part of a snapshot. Zero fields match everything.
type SnapshotFilter struct {
	Status     ChangeStatus
	PathPrefix string
}

func (f SnapshotFilter) match(n SnapshotNode) bool {
	if f.Status != "" && n.ChangeStatus != f.Status {
		return false
	}
	if f.PathPrefix != "" {
		prefix := strings.TrimSuffix(f.PathPrefix, "/") + "/"
		if !strings.HasPrefix(n.Path, prefix) {
			return false
		}
	}
	return true
}

// Filter returns a new snapshot with the matching nodes and the edges whose
// source matches. The receiver is not modified.
func (s *Snapshot) Filter(f SnapshotFilter) *Snapshot {
	out := &Snapshot{Nodes: []SnapshotNode{}, Edges: []SnapshotEdge{}}
	kept := make(map[string]bool)
	for _, n := range s.Nodes {
		if f.match(n) {
			kept[n.ID] = true
			n.Symbols = append([]Symbol{}, n.Symbols...)
			out.Nodes = append(out.Nodes, n)
		}
	}
	for _, e := range s.Edges {
		if kept[e.Source] {
			e.Symbols = append([]string{}, e.Symbols...)
			out.Edges = append(out.Edges, e)
		}
	}
	return out
}
