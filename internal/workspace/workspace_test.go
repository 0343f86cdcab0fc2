package workspace

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/archgraph/internal/logging"
)

// writeTree creates files (relative slash paths) under root with fixed content.
func writeTree(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		p := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("x\n"), 0o644))
	}
}

// ---------------------------------------------------------------------------
// File kinds
// ---------------------------------------------------------------------------

func TestKindOf(t *testing.T) {
	tests := []struct {
		path string
		cat  Category
		icon string
		ok   bool
	}{
		{"src/app.ts", CategoryScript, "typescript", true},
		{"src/App.TSX", CategoryScript, "react-ts", true},
		{"styles/main.scss", CategoryStylesheet, "sass", true},
		{"index.html", CategoryMarkup, "html", true},
		{"cmd/main.go", CategoryOther, "go", true},
		{"Makefile", "", "", false},
		{"image.png", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			k, ok := KindOf(tt.path)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.cat, k.Category)
				assert.Equal(t, tt.icon, k.Icon)
			}
		})
	}
}

func TestIconFor_Unknown(t *testing.T) {
	assert.Equal(t, DefaultIcon, IconFor("LICENSE"))
	assert.Equal(t, CategoryOther, CategoryOf("LICENSE"))
}

func TestExtensions_AllowList(t *testing.T) {
	exts := Extensions()
	assert.GreaterOrEqual(t, len(exts), 50)
	assert.IsNonDecreasing(t, exts)
}

// ---------------------------------------------------------------------------
// Discovery
// ---------------------------------------------------------------------------

func TestDiscoverer_Files(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root,
		"src/app.ts",
		"src/util/index.ts",
		"src/styles.css",
		"index.html",
		"README.md",
		"logo.png",
		"node_modules/react/index.js",
		"dist/bundle.js",
		"generated/schema.ts",
		"src/debug.log.ts",
		"legacy/old.js",
	)
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("generated/\n*.log.ts\n"), 0o644))

	d, err := NewDiscoverer(root, DiscoverOptions{
		ExcludeDirs: []string{"legacy"},
		Logger:      logging.Discard(),
	})
	require.NoError(t, err)

	files, err := d.Files(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"README.md",
		"index.html",
		"src/app.ts",
		"src/styles.css",
		"src/util/index.ts",
	}, files)
}

func TestDiscoverer_ConfiguredPatterns(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a.ts", "a.test.ts", "fixtures/b.ts")

	d, err := NewDiscoverer(root, DiscoverOptions{Patterns: []string{"*.test.ts", "fixtures/"}})
	require.NoError(t, err)

	files, err := d.Files(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a.ts"}, files)
}

func TestDiscoverer_Cancelled(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a.ts")
	d, err := NewDiscoverer(root, DiscoverOptions{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = d.Files(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDiscoverer_NotADirectory(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "file.ts")
	_, err := NewDiscoverer(filepath.Join(root, "file.ts"), DiscoverOptions{})
	assert.Error(t, err)
}

func TestDiscoverer_RelAndAbs(t *testing.T) {
	root := t.TempDir()
	d, err := NewDiscoverer(root, DiscoverOptions{})
	require.NoError(t, err)

	rel, ok := d.Rel(d.Abs("src/a.ts"))
	require.True(t, ok)
	assert.Equal(t, "src/a.ts", rel)

	_, ok = d.Rel(filepath.Dir(d.Root()))
	assert.False(t, ok, "parent of the root is outside the workspace")
}

// ---------------------------------------------------------------------------
// Watcher
// ---------------------------------------------------------------------------

func TestWatcher_DebouncedBatch(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "src/a.ts", "node_modules/x/index.js")
	d, err := NewDiscoverer(root, DiscoverOptions{})
	require.NoError(t, err)

	batches := make(chan []string, 4)
	w, err := NewWatcher(d, 50*time.Millisecond, func(paths []string) { batches <- paths }, logging.Discard())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	writeTree(t, root, "src/a.ts", "src/b.ts", "notes.tmp")

	select {
	case got := <-batches:
		assert.Subset(t, got, []string{"src/a.ts", "src/b.ts"})
		assert.NotContains(t, got, "notes.tmp")
	case <-time.After(5 * time.Second):
		t.Fatal("no change batch delivered")
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	d, err := NewDiscoverer(t.TempDir(), DiscoverOptions{})
	require.NoError(t, err)
	w, err := NewWatcher(d, 0, nil, nil)
	require.NoError(t, err)
	w.Stop()
	w.Stop()
}
