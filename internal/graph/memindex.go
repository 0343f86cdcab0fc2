package graph

import (
	"context"
	"sync"
)

var _ Index = (*MemIndex)(nil)

// MemIndex implements Index over the loaded snapshot held in memory.
type MemIndex struct {
	mu   sync.RWMutex
	snap *Snapshot
	adj  *adjacency
}

// NewMemIndex returns an empty MemIndex.
func NewMemIndex() *MemIndex {
	return &MemIndex{snap: &Snapshot{}, adj: newAdjacency()}
}

// Load replaces the indexed snapshot.
func (m *MemIndex) Load(_ context.Context, snap *Snapshot) error {
	adj := newAdjacency()
	for _, e := range liveEdges(snap) {
		adj.add(e.Source, e.Target)
	}
	adj.seal()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = snap
	m.adj = adj
	return nil
}

// GetDependencies walks breadth-first from nodeID, up to maxDepth hops.
func (m *MemIndex) GetDependencies(_ context.Context, nodeID string, direction Direction, maxDepth int) ([]DependencyChain, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.adj.walk(nodeID, direction, maxDepth), nil
}

// AssessImpact follows import edges backwards from the changed files.
func (m *MemIndex) AssessImpact(_ context.Context, changedFiles []string) (*ImpactResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.adj.blastRadius(changedFiles, len(m.snap.Nodes)), nil
}

// Stats summarizes the indexed snapshot.
func (m *MemIndex) Stats(_ context.Context) (*GraphStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return StatsOf(m.snap), nil
}

// Close is a no-op.
func (m *MemIndex) Close() error {
	return nil
}
