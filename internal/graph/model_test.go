package graph

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// snapshotNode returns the node with the given id from snap, failing the test
// if it is missing.
func snapshotNode(t *testing.T, snap *Snapshot, id string) SnapshotNode {
	t.Helper()
	n := snap.Node(id)
	require.NotNil(t, n, "node %s missing from snapshot", id)
	return *n
}

// ---------------------------------------------------------------------------
// Nodes
// ---------------------------------------------------------------------------

func TestAddNode_OverwritesInPlace(t *testing.T) {
	g := NewProjectGraph(nil)

	g.AddNode("f.ts", []Symbol{{Name: "A", Kind: SymbolKindFunction}}, 10, StatusUnchanged)
	g.AddNode("f.ts", []Symbol{{Name: "B", Kind: SymbolKindClass}}, 42, StatusModified)

	nodes, _ := g.Len()
	assert.Equal(t, 1, nodes, "re-adding a path must not duplicate the node")

	n := g.Node("f.ts")
	require.NotNil(t, n)
	assert.Equal(t, 42, n.LinesOfCode, "LOC is overwritten, not accumulated")
	assert.Equal(t, []Symbol{{Name: "B", Kind: SymbolKindClass}}, n.Symbols)
	assert.Equal(t, StatusModified, n.ChangeStatus)
}

func TestAddNode_CapsSymbols(t *testing.T) {
	g := NewProjectGraph(nil)
	var symbols []Symbol
	for i := 0; i < 20; i++ {
		symbols = append(symbols, Symbol{Name: string(rune('a' + i)), Kind: SymbolKindVariable})
	}
	n := g.AddNode("big.ts", symbols, 1, StatusUnchanged)
	assert.Len(t, n.Symbols, MaxSymbols)
	assert.Equal(t, "a", n.Symbols[0].Name, "insertion order is kept")
}

func TestAddNode_DisplayGeometry(t *testing.T) {
	g := NewProjectGraph(nil)
	short := g.AddNode("src/a.ts", nil, 1, StatusUnchanged)
	long := g.AddNode("src/a-very-long-component-name.tsx", nil, 1, StatusUnchanged)

	assert.Equal(t, minNodeWidth, short.DisplayWidth)
	assert.Greater(t, long.DisplayWidth, short.DisplayWidth)
	assert.Equal(t, short.DisplayHeight, long.DisplayHeight)
}

func TestRemoveNode_CascadesEdges(t *testing.T) {
	g := NewProjectGraph(nil)
	g.AddNode("a.ts", nil, 1, StatusUnchanged)
	g.AddNode("b.ts", nil, 1, StatusUnchanged)
	g.AddNode("c.ts", nil, 1, StatusUnchanged)
	g.AddEdge("a.ts", "b.ts", []string{"x"}, StatusUnchanged)
	g.AddEdge("b.ts", "c.ts", []string{"y"}, StatusUnchanged)
	g.AddEdge("a.ts", "c.ts", []string{"z"}, StatusUnchanged)

	assert.True(t, g.RemoveNode("b.ts"))
	assert.False(t, g.RemoveNode("b.ts"), "second removal reports absence")

	_, edges := g.Len()
	assert.Equal(t, 1, edges)
	assert.Nil(t, g.Edge("a.ts", "b.ts"))
	assert.NotNil(t, g.Edge("a.ts", "c.ts"), "unrelated edge survives and stays addressable")

	// Merging after a removal still finds the surviving edge.
	g.AddEdge("a.ts", "c.ts", []string{"w"}, StatusUnchanged)
	assert.Equal(t, []string{"z", "w"}, g.Edge("a.ts", "c.ts").Symbols)
}

func TestClear(t *testing.T) {
	g := NewProjectGraph(nil)
	g.AddNode("a.ts", nil, 1, StatusUnchanged)
	g.AddEdge("a.ts", "b.ts", []string{"*"}, StatusAdded)

	g.Clear()

	nodes, edges := g.Len()
	assert.Zero(t, nodes)
	assert.Zero(t, edges)
	assert.Nil(t, g.Edge("a.ts", "b.ts"))
}

// ---------------------------------------------------------------------------
// Edges
// ---------------------------------------------------------------------------

func TestAddEdge_MergeUpgradesButNeverDowngrades(t *testing.T) {
	g := NewProjectGraph(nil)

	g.AddEdge("A", "B", []string{"x"}, StatusUnchanged)
	g.AddEdge("A", "B", []string{"y"}, StatusAdded)

	_, edges := g.Len()
	require.Equal(t, 1, edges, "one edge per (source, target)")
	e := g.Edge("A", "B")
	assert.Equal(t, []string{"x", "y"}, e.Symbols)
	assert.Equal(t, StatusAdded, e.ChangeStatus)

	g.AddEdge("A", "B", nil, StatusUnchanged)
	assert.Equal(t, StatusAdded, e.ChangeStatus, "unchanged must not revert an added edge")
	assert.Equal(t, []string{"x", "y"}, e.Symbols)
}

func TestAddEdge_DeduplicatesSymbols(t *testing.T) {
	g := NewProjectGraph(nil)
	g.AddEdge("A", "B", []string{"x", "y", "x"}, StatusUnchanged)
	g.AddEdge("A", "B", []string{"y", "*", "z"}, StatusRemoved)

	e := g.Edge("A", "B")
	assert.Equal(t, []string{"x", "y", "*", "z"}, e.Symbols)
	assert.Equal(t, StatusRemoved, e.ChangeStatus)
}

func TestAddEdge_DirectionMatters(t *testing.T) {
	g := NewProjectGraph(nil)
	g.AddEdge("A", "B", []string{"x"}, StatusUnchanged)
	g.AddEdge("B", "A", []string{"y"}, StatusUnchanged)

	_, edges := g.Len()
	assert.Equal(t, 2, edges)
}

func TestNeighbors(t *testing.T) {
	g := NewProjectGraph(nil)
	g.AddEdge("A", "B", nil, StatusUnchanged)
	g.AddEdge("A", "C", nil, StatusUnchanged)
	g.AddEdge("D", "A", nil, StatusUnchanged)

	assert.Equal(t, []string{"B", "C"}, g.GetDependencies("A"))
	assert.Equal(t, []string{"D"}, g.GetDependents("A"))
	assert.Empty(t, g.GetDependencies("B"))
}

// ---------------------------------------------------------------------------
// Materialize
// ---------------------------------------------------------------------------

func TestMaterialize_CumulativeLOCIsOneHop(t *testing.T) {
	g := NewProjectGraph(nil)
	g.AddNode("A", nil, 50, StatusUnchanged)
	g.AddNode("B", nil, 30, StatusUnchanged)
	g.AddNode("C", nil, 20, StatusUnchanged)
	g.AddEdge("A", "B", []string{"b"}, StatusUnchanged)
	g.AddEdge("A", "C", []string{"c"}, StatusUnchanged)

	snap := g.Materialize()
	assert.Equal(t, 100, snapshotNode(t, snap, "A").CumulativeLOC)

	g.AddEdge("B", "C", []string{"c"}, StatusUnchanged)
	snap = g.Materialize()
	assert.Equal(t, 50, snapshotNode(t, snap, "B").CumulativeLOC, "B counts only itself plus C")
	assert.Equal(t, 100, snapshotNode(t, snap, "A").CumulativeLOC, "B->C does not propagate to A")
	assert.Equal(t, 20, snapshotNode(t, snap, "C").CumulativeLOC)
	assert.Equal(t, 100, g.CumulativeLOC("A"))
}

func TestMaterialize_KeepsDanglingEdges(t *testing.T) {
	g := NewProjectGraph(nil)
	g.AddNode("A", nil, 10, StatusUnchanged)
	g.AddEdge("A", "missing.ts", []string{"*"}, StatusUnchanged)

	snap := g.Materialize()
	require.Len(t, snap.Edges, 1, "dangling edges are left for the consumer")
	assert.Equal(t, 10, snapshotNode(t, snap, "A").CumulativeLOC)
}

func TestMaterialize_SnapshotFields(t *testing.T) {
	g := NewProjectGraph(func(p string) string { return "icon:" + p })
	g.AddNode("src/app/main.ts", []Symbol{{Name: "main", Kind: SymbolKindFunction, Line: 3}}, 7, StatusAdded)

	snap := g.Materialize()
	n := snapshotNode(t, snap, "src/app/main.ts")
	assert.Equal(t, "src/app/main.ts", n.Path)
	assert.Equal(t, "main.ts", n.Filename)
	assert.Equal(t, "icon:src/app/main.ts", n.Icon)
	assert.Equal(t, StatusAdded, n.ChangeStatus)
	assert.Equal(t, 7, n.LinesOfCode)
	assert.NotZero(t, n.Width)
	assert.NotZero(t, n.Height)
}

func TestMaterialize_IsAValue(t *testing.T) {
	g := NewProjectGraph(nil)
	g.AddNode("A", []Symbol{{Name: "x", Kind: SymbolKindVariable}}, 1, StatusUnchanged)
	g.AddEdge("A", "B", []string{"x"}, StatusUnchanged)

	snap := g.Materialize()
	snap.Nodes[0].Symbols[0].Name = "mutated"
	snap.Edges[0].Symbols[0] = "mutated"

	assert.Equal(t, "x", g.Node("A").Symbols[0].Name)
	assert.Equal(t, []string{"x"}, g.Edge("A", "B").Symbols)
}

func TestMaterialize_Deterministic(t *testing.T) {
	build := func() []byte {
		g := NewProjectGraph(nil)
		for _, p := range []string{"z.ts", "a.ts", "m/b.ts", "m/a.ts"} {
			g.AddNode(p, nil, len(p), StatusUnchanged)
		}
		g.AddEdge("z.ts", "a.ts", []string{"a"}, StatusUnchanged)
		g.AddEdge("m/a.ts", "m/b.ts", []string{"*"}, StatusAdded)
		out, err := json.Marshal(g.Materialize())
		require.NoError(t, err)
		return out
	}
	assert.Equal(t, string(build()), string(build()))
}
