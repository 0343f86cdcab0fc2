package graph

import (
	"context"
	"io"
)

// Index answers multi-hop queries over a published snapshot. The snapshot is
// loaded wholesale; every Load replaces the previous contents.
// Implementations: KuzuIndex (cgo builds), MemIndex (everywhere).
type Index interface {
	io.Closer

	// Load replaces the indexed graph with snap. Dangling edges are skipped.
	Load(ctx context.Context, snap *Snapshot) error

	// GetDependencies walks import edges from nodeID up to maxDepth hops.
	GetDependencies(ctx context.Context, nodeID string, direction Direction, maxDepth int) ([]DependencyChain, error)

	// AssessImpact computes which files import the changed files, directly
	// or transitively.
	AssessImpact(ctx context.Context, changedFiles []string) (*ImpactResult, error)

	Stats(ctx context.Context) (*GraphStats, error)
}

// liveEdges returns the snapshot edges whose endpoints both exist.
func liveEdges(snap *Snapshot) []SnapshotEdge {
	ids := make(map[string]bool, len(snap.Nodes))
	for _, n := range snap.Nodes {
		ids[n.ID] = true
	}
	out := make([]SnapshotEdge, 0, len(snap.Edges))
	for _, e := range snap.Edges {
		if ids[e.Source] && ids[e.Target] {
			out = append(out, e)
		}
	}
	return out
}

// StatsOf summarizes a snapshot without an index.
func StatsOf(snap *Snapshot) *GraphStats {
	st := &GraphStats{FileCount: len(snap.Nodes), EdgeCount: len(liveEdges(snap))}
	for _, n := range snap.Nodes {
		st.TotalLOC += n.LinesOfCode
		switch n.ChangeStatus {
		case StatusAdded:
			st.AddedFiles++
		case StatusRemoved:
			st.RemovedFiles++
		case StatusModified:
			st.ChangedFiles++
		}
	}
	return st
}
