package builder

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/archgraph/internal/graph"
	"github.com/dusk-indust/archgraph/internal/logging"
	"github.com/dusk-indust/archgraph/internal/symbols"
	"github.com/dusk-indust/archgraph/internal/workspace"
)

const fixtureRoot = "../../testdata/fixtures/workspace"

// TestBuild_FixtureWorkspace builds the shared fixture with the real
// discoverer and tree-sitter symbols.
func TestBuild_FixtureWorkspace(t *testing.T) {
	disc, err := workspace.NewDiscoverer(fixtureRoot, workspace.DiscoverOptions{Logger: logging.Discard()})
	require.NoError(t, err)
	src := symbols.NewTreeSitterSource()
	defer src.Close()

	b, err := New(Options{
		Files:     disc,
		FS:        os.DirFS(disc.Root()),
		Symbols:   src,
		CacheSize: 16,
		Logger:    logging.Discard(),
	})
	require.NoError(t, err)

	snap, err := b.Build(context.Background())
	require.NoError(t, err)

	ids := make([]string, 0, len(snap.Nodes))
	for _, n := range snap.Nodes {
		ids = append(ids, n.ID)
		assert.Equal(t, graph.StatusUnchanged, n.ChangeStatus, n.ID)
	}
	assert.Equal(t, []string{
		"store/item.go",
		"store/service.go",
		"web/api.ts",
		"web/app.css",
		"web/app.ts",
		"web/index.html",
	}, ids)

	edges := make([]string, 0, len(snap.Edges))
	for _, e := range snap.Edges {
		edges = append(edges, e.Source+" -> "+e.Target+" "+strings.Join(e.Symbols, ","))
	}
	assert.ElementsMatch(t, []string{
		"web/app.ts -> web/api.ts fetchItems,Item",
		"web/app.ts -> web/app.css *",
		"web/index.html -> web/app.ts *",
		"web/index.html -> web/app.css *",
	}, edges)

	svc := snap.Node("store/service.go")
	require.NotNil(t, svc)
	names := make([]string, 0, len(svc.Symbols))
	for _, s := range svc.Symbols {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"Inventory", "NewInventory", "Receive", "Count"}, names)

	app := snap.Node("web/app.ts")
	require.NotNil(t, app)
	assert.Greater(t, app.CumulativeLOC, app.LinesOfCode, "app.ts carries what it imports")
}
