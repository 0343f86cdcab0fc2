package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chainSnapshot is a -> b -> c, plus d -> b and a dangling a -> gone.
func chainSnapshot() *Snapshot {
	g := NewProjectGraph(nil)
	g.AddNode("a.ts", nil, 10, StatusAdded)
	g.AddNode("b.ts", nil, 20, StatusModified)
	g.AddNode("c.ts", nil, 30, StatusUnchanged)
	g.AddNode("d.ts", nil, 40, StatusRemoved)
	g.AddEdge("a.ts", "b.ts", []string{"B"}, StatusAdded)
	g.AddEdge("b.ts", "c.ts", []string{"C"}, StatusUnchanged)
	g.AddEdge("d.ts", "b.ts", []string{"*"}, StatusUnchanged)
	g.AddEdge("a.ts", "gone.ts", []string{"*"}, StatusAdded)
	return g.Materialize()
}

// lastNodes returns the final node of every chain.
func lastNodes(chains []DependencyChain) []string {
	out := make([]string, 0, len(chains))
	for _, c := range chains {
		out = append(out, c.Nodes[len(c.Nodes)-1])
	}
	return out
}

func newLoadedMemIndex(t *testing.T) *MemIndex {
	t.Helper()
	idx := NewMemIndex()
	require.NoError(t, idx.Load(context.Background(), chainSnapshot()))
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestMemIndex_Upstream(t *testing.T) {
	idx := newLoadedMemIndex(t)
	ctx := context.Background()

	chains, err := idx.GetDependencies(ctx, "a.ts", DirectionUpstream, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"b.ts", "c.ts"}, lastNodes(chains), "dangling target is not traversed")
	assert.Equal(t, []string{"a.ts", "b.ts", "c.ts"}, chains[1].Nodes)
	assert.Equal(t, 2, chains[1].Depth)

	chains, err = idx.GetDependencies(ctx, "a.ts", DirectionUpstream, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"b.ts"}, lastNodes(chains))
}

func TestMemIndex_Downstream(t *testing.T) {
	idx := newLoadedMemIndex(t)

	chains, err := idx.GetDependencies(context.Background(), "c.ts", DirectionDownstream, 5)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"b.ts", "a.ts", "d.ts"}, lastNodes(chains))
}

func TestMemIndex_ZeroDepth(t *testing.T) {
	idx := newLoadedMemIndex(t)
	chains, err := idx.GetDependencies(context.Background(), "a.ts", DirectionUpstream, 0)
	require.NoError(t, err)
	assert.Empty(t, chains)
}

func TestMemIndex_AssessImpact(t *testing.T) {
	idx := newLoadedMemIndex(t)

	impact, err := idx.AssessImpact(context.Background(), []string{"c.ts"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b.ts"}, impact.DirectlyAffected)
	assert.Equal(t, []string{"a.ts", "b.ts", "d.ts"}, impact.TransitivelyAffected)
	assert.InDelta(t, 0.75, impact.RiskScore, 1e-9)
}

func TestMemIndex_Stats(t *testing.T) {
	idx := newLoadedMemIndex(t)

	st, err := idx.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, st.FileCount)
	assert.Equal(t, 3, st.EdgeCount, "dangling edge excluded")
	assert.Equal(t, 1, st.AddedFiles)
	assert.Equal(t, 1, st.RemovedFiles)
	assert.Equal(t, 1, st.ChangedFiles)
	assert.Equal(t, 100, st.TotalLOC)
}

func TestMemIndex_LoadReplaces(t *testing.T) {
	idx := newLoadedMemIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Load(ctx, &Snapshot{}))
	st, err := idx.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, st.FileCount)

	chains, err := idx.GetDependencies(ctx, "a.ts", DirectionUpstream, 5)
	require.NoError(t, err)
	assert.Empty(t, chains)
}
