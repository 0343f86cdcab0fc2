package imports

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve_Relative(t *testing.T) {
	r := NewResolver(ScriptExtensions, []string{
		"src/index.ts",
		"src/service.ts",
		"src/types.tsx",
		"src/data.json",
	})

	tests := []struct {
		name      string
		specifier string
		current   string
		want      string
		wantOK    bool
	}{
		{"dot-slash extension probe", "./service", "src/index.ts", "src/service.ts", true},
		{"probe order reaches tsx", "./types", "src/index.ts", "src/types.tsx", true},
		{"exact path last", "./data.json", "src/index.ts", "src/data.json", true},
		{"query suffix stripped", "./service?worker", "src/index.ts", "src/service.ts", true},
		{"not found", "./nonexistent", "src/index.ts", "", false},
		{"bare package", "react", "src/index.ts", "", false},
		{"workspace absolute", "/src/service", "src/index.ts", "", false},
		{"url", "https://cdn.example.com/x.js", "src/index.ts", "", false},
		{"escapes the workspace", "../../outside", "src/index.ts", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.Resolve(tt.current, tt.specifier)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve_ParentExtensionTier(t *testing.T) {
	r := NewResolver(ScriptExtensions, []string{"src/baz.ts", "src/baz/index.ts", "src/foo/bar.ts"})
	got, ok := r.Resolve("src/foo/bar.ts", "../baz")
	assert.True(t, ok)
	assert.Equal(t, "src/baz.ts", got, "extension probe wins over index probe")
}

func TestResolve_ParentIndexTier(t *testing.T) {
	r := NewResolver(ScriptExtensions, []string{"src/baz/index.ts", "src/foo/bar.ts"})
	got, ok := r.Resolve("src/foo/bar.ts", "../baz")
	assert.True(t, ok)
	assert.Equal(t, "src/baz/index.ts", got)
}

func TestResolve_MultipleParents(t *testing.T) {
	r := NewResolver(ScriptExtensions, []string{"lib/util.js"})
	got, ok := r.Resolve("src/a/b/c.ts", "../../../lib/util")
	assert.True(t, ok)
	assert.Equal(t, "lib/util.js", got)
}

func TestResolve_RootLevelFile(t *testing.T) {
	r := NewResolver(ScriptExtensions, []string{"a.ts", "b.ts"})
	got, ok := r.Resolve("a.ts", "./b")
	assert.True(t, ok)
	assert.Equal(t, "b.ts", got)

	_, ok = r.Resolve("a.ts", "../b")
	assert.False(t, ok, "one level above the root escapes")
}

func TestResolve_RootIndex(t *testing.T) {
	r := NewResolver(ScriptExtensions, []string{"main.ts", "index.tsx", "src/a.ts"})

	got, ok := r.Resolve("main.ts", "./")
	assert.True(t, ok)
	assert.Equal(t, "index.tsx", got)

	got, ok = r.Resolve("src/a.ts", "..")
	assert.False(t, ok, "\"..\" is not a relative specifier")
	assert.Empty(t, got)

	got, ok = r.Resolve("src/a.ts", "../")
	assert.True(t, ok)
	assert.Equal(t, "index.tsx", got)

	_, ok = NewResolver(ScriptExtensions, []string{"main.ts"}).Resolve("main.ts", "./")
	assert.False(t, ok, "no root index")

	got, ok = NewResolver(ScriptExtensions, nil).Resolve("main.ts", "./")
	assert.True(t, ok)
	assert.Equal(t, "index.ts", got)
}

func TestResolve_WithoutKnownFiles(t *testing.T) {
	r := NewResolver(ScriptExtensions, nil)

	got, ok := r.Resolve("src/foo/bar.ts", "../baz")
	assert.True(t, ok)
	assert.Equal(t, "src/baz.ts", got, "first probe candidate")

	got, ok = r.Resolve("src/app.ts", "./styles.css")
	assert.True(t, ok)
	assert.Equal(t, "src/styles.css", got, "a known extension is kept as written")

	_, ok = r.Resolve("src/app.ts", "lodash")
	assert.False(t, ok)
}

func TestIsRelative(t *testing.T) {
	assert.True(t, IsRelative("./a"))
	assert.True(t, IsRelative("../a"))
	assert.False(t, IsRelative("a"))
	assert.False(t, IsRelative("."))
	assert.False(t, IsRelative("/a"))
	assert.False(t, IsRelative(".hidden/a"))
}
