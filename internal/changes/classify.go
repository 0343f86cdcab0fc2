// Package changes derives per-file change status from version control.
package changes

import (
	"sort"

	"github.com/dusk-indust/archgraph/internal/graph"
)

// Sets holds the workspace-relative paths in each change category.
type Sets struct {
	Added    map[string]bool `json:"added"`
	Removed  map[string]bool `json:"removed"`
	Modified map[string]bool `json:"modified"`
}

// NewSets returns three empty sets.
func NewSets() Sets {
	return Sets{
		Added:    make(map[string]bool),
		Removed:  make(map[string]bool),
		Modified: make(map[string]bool),
	}
}

// Len is the total number of entries across the three sets.
func (s Sets) Len() int {
	return len(s.Added) + len(s.Removed) + len(s.Modified)
}

// RemovedPaths returns the removed set, sorted.
func (s Sets) RemovedPaths() []string {
	return sortedKeys(s.Removed)
}

// Classify returns p's status. Lookup order is added, removed, modified; the
// first hit wins, so a path wrongly present in several sets still gets a
// deterministic answer.
func Classify(p string, s Sets) graph.ChangeStatus {
	switch {
	case s.Added[p]:
		return graph.StatusAdded
	case s.Removed[p]:
		return graph.StatusRemoved
	case s.Modified[p]:
		return graph.StatusModified
	default:
		return graph.StatusUnchanged
	}
}

// Change is a raw version-control observation for one path.
type Change int

const (
	ChangeAdded Change = iota
	ChangeRemoved
	ChangeModified
	ChangeRenamed
	ChangeCopied
)

// Status maps a raw observation onto the file status lattice. Renames and
// copies count as modifications of the destination path.
func (c Change) Status() graph.ChangeStatus {
	switch c {
	case ChangeAdded:
		return graph.StatusAdded
	case ChangeRemoved:
		return graph.StatusRemoved
	default:
		return graph.StatusModified
	}
}

// Merger folds observations from several sources into Sets. The first
// observation of a path wins; feed the working tree before the index.
type Merger struct {
	sets Sets
	seen map[string]bool
}

// NewMerger returns an empty merger.
func NewMerger() *Merger {
	return &Merger{sets: NewSets(), seen: make(map[string]bool)}
}

// Observe records c for p unless p was already observed. It reports whether
// the observation was recorded.
func (m *Merger) Observe(p string, c Change) bool {
	if p == "" || m.seen[p] {
		return false
	}
	m.seen[p] = true
	switch c.Status() {
	case graph.StatusAdded:
		m.sets.Added[p] = true
	case graph.StatusRemoved:
		m.sets.Removed[p] = true
	default:
		m.sets.Modified[p] = true
	}
	return true
}

// Sets returns the merged sets. The merger must not be used afterwards.
func (m *Merger) Sets() Sets {
	return m.sets
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
