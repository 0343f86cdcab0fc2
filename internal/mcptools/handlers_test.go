package mcptools

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/archgraph/internal/builder"
	"github.com/dusk-indust/archgraph/internal/graph"
	"github.com/dusk-indust/archgraph/internal/logging"
	"github.com/dusk-indust/archgraph/internal/navigate"
	"github.com/dusk-indust/archgraph/internal/symbols"
	"github.com/dusk-indust/archgraph/internal/workspace"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// writeFiles creates a workspace under a temp dir:
//
//	src/app.ts        -> src/greet.ts, src/app.css
//	src/util/index.ts -> src/greet.ts
func writeFiles(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"src/app.ts":        "import { greet } from './greet';\nimport './app.css';\nexport function main() {}\n",
		"src/greet.ts":      "export function greet() {}\n",
		"src/app.css":       "body {}\n",
		"src/util/index.ts": "import { greet } from '../greet';\nexport const util = 1;\n",
	}
	for rel, content := range files {
		abs := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
		require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
	}
	return root
}

func newTestGraphs(t *testing.T, root string) *builder.Service {
	t.Helper()
	disc, err := workspace.NewDiscoverer(root, workspace.DiscoverOptions{Logger: logging.Discard()})
	require.NoError(t, err)
	b, err := builder.New(builder.Options{
		Files:   disc,
		FS:      os.DirFS(disc.Root()),
		Symbols: symbols.NewTreeSitterSource(),
		Logger:  logging.Discard(),
	})
	require.NoError(t, err)
	idx := graph.NewMemIndex()
	t.Cleanup(func() { _ = idx.Close() })
	return builder.NewService(b, builder.WithIndex(idx), builder.WithLogger(logging.Discard()))
}

type fakeOpener struct {
	calls []string
	res   *navigate.Result
	err   error
}

func (f *fakeOpener) Open(_ context.Context, p, symbol string) (*navigate.Result, error) {
	f.calls = append(f.calls, p+"#"+symbol)
	return f.res, f.err
}

func newTestService(t *testing.T) *GraphService {
	t.Helper()
	return NewGraphService(newTestGraphs(t, writeFiles(t)), nil)
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestBuildGraph(t *testing.T) {
	svc := newTestService(t)

	_, out, err := svc.BuildGraph(context.Background(), nil, BuildGraphInput{})
	require.NoError(t, err)
	assert.True(t, out.Published)
	assert.Equal(t, uint64(1), out.Generation)
	assert.Equal(t, 4, out.Stats.FileCount)
	assert.Equal(t, 3, out.Stats.EdgeCount)
	assert.Equal(t, 7, out.Stats.TotalLOC)
}

func TestGetGraph(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, out, err := svc.GetGraph(ctx, nil, GetGraphInput{})
	require.NoError(t, err, "the first query builds the graph")
	require.Len(t, out.Nodes, 4)
	assert.Len(t, out.Edges, 3)

	assert.Equal(t, "src/app.css", out.Nodes[0].ID, "nodes are sorted by path")

	_, out, err = svc.GetGraph(ctx, nil, GetGraphInput{PathPrefix: "src/util"})
	require.NoError(t, err)
	require.Len(t, out.Nodes, 1)
	assert.Equal(t, "src/util/index.ts", out.Nodes[0].ID)
	assert.Equal(t, []graph.Symbol{{Name: "util", Kind: graph.SymbolKindConstant, Line: 2}}, out.Nodes[0].Symbols)
	require.Len(t, out.Edges, 1)
	assert.Equal(t, "src/greet.ts", out.Edges[0].Target)

	_, out, err = svc.GetGraph(ctx, nil, GetGraphInput{Status: "ADDED"})
	require.NoError(t, err)
	assert.Empty(t, out.Nodes, "no git repository means nothing is added")

	_, _, err = svc.GetGraph(ctx, nil, GetGraphInput{Status: "renamed"})
	assert.ErrorContains(t, err, "unknown change status")
}

func TestGetDependencies(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input GetDependenciesInput
		want  []string
	}{
		{"downstream by default", GetDependenciesInput{NodeID: "src/greet.ts"}, []string{"src/app.ts", "src/util/index.ts"}},
		{"upstream", GetDependenciesInput{NodeID: "src/app.ts", Direction: "UPSTREAM"}, []string{"src/app.css", "src/greet.ts"}},
		{"leaf", GetDependenciesInput{NodeID: "src/app.css", Direction: "upstream"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, out, err := svc.GetDependencies(ctx, nil, tt.input)
			require.NoError(t, err)
			got := make([]string, 0, len(out.Chains))
			for _, c := range out.Chains {
				got = append(got, c.Nodes[len(c.Nodes)-1])
			}
			assert.ElementsMatch(t, tt.want, got)
		})
	}

	_, _, err := svc.GetDependencies(ctx, nil, GetDependenciesInput{})
	assert.ErrorContains(t, err, "nodeId is required")
}

func TestAssessImpact(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, out, err := svc.AssessImpact(ctx, nil, AssessImpactInput{ChangedFiles: []string{"src/greet.ts"}})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"src/app.ts", "src/util/index.ts"}, out.Impact.DirectlyAffected)
	assert.InDelta(t, 0.5, out.Impact.RiskScore, 0.001)

	_, _, err = svc.AssessImpact(ctx, nil, AssessImpactInput{})
	assert.ErrorContains(t, err, "no changes", "an untracked workspace has nothing to default to")
}

func TestChangedFiles(t *testing.T) {
	g := graph.NewProjectGraph(nil)
	g.AddNode("b.ts", nil, 1, graph.StatusModified)
	g.AddNode("a.ts", nil, 1, graph.StatusAdded)
	g.AddNode("c.ts", nil, 1, graph.StatusUnchanged)
	g.AddNode("d.ts", nil, 0, graph.StatusRemoved)

	assert.Equal(t, []string{"a.ts", "b.ts", "d.ts"}, changedFiles(g.Materialize()))
	assert.Nil(t, changedFiles(nil))
}

func TestGetClusters(t *testing.T) {
	svc := newTestService(t)

	_, out, err := svc.GetClusters(context.Background(), nil, GetClustersInput{})
	require.NoError(t, err)
	require.Len(t, out.Clusters, 1)
	assert.Equal(t, "src/", out.Clusters[0].Name)
	assert.Len(t, out.Clusters[0].Members, 4)
}

func TestOpenFile(t *testing.T) {
	graphs := newTestGraphs(t, writeFiles(t))
	ctx := context.Background()

	_, _, err := NewGraphService(graphs, nil).OpenFile(ctx, nil, OpenFileInput{Path: "src/app.ts"})
	assert.ErrorContains(t, err, "not configured")

	opener := &fakeOpener{res: &navigate.Result{Path: "src/app.ts", Line: 1, Warning: "symbol not found"}}
	svc := NewGraphService(graphs, opener)

	_, out, err := svc.OpenFile(ctx, nil, OpenFileInput{Path: "src/app.ts", Symbol: "gone"})
	require.NoError(t, err)
	assert.Equal(t, OpenFileOutput{Path: "src/app.ts", Line: 1, Warning: "symbol not found"}, out)
	assert.Equal(t, []string{"src/app.ts#gone"}, opener.calls)

	opener.err = navigate.ErrFileNotFound
	_, _, err = svc.OpenFile(ctx, nil, OpenFileInput{Path: "src/deleted.ts"})
	assert.ErrorIs(t, err, navigate.ErrFileNotFound)

	_, _, err = svc.OpenFile(ctx, nil, OpenFileInput{})
	assert.ErrorContains(t, err, "path is required")
}

func TestNoIndex(t *testing.T) {
	b, err := builder.New(builder.Options{Files: emptyLister{}, FS: os.DirFS(t.TempDir()), Logger: logging.Discard()})
	require.NoError(t, err)
	svc := NewGraphService(builder.NewService(b, builder.WithLogger(logging.Discard())), nil)

	_, _, err = svc.GetDependencies(context.Background(), nil, GetDependenciesInput{NodeID: "a.ts"})
	assert.ErrorContains(t, err, "no query index")
}

type emptyLister struct{}

func (emptyLister) Files(context.Context) ([]string, error) { return nil, nil }
