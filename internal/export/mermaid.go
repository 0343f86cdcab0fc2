package export

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/dusk-indust/archgraph/internal/graph"
)

// statusClasses styles nodes by change status. Unchanged nodes keep the
// default style.
var statusClasses = []struct {
	status graph.ChangeStatus
	def    string
}{
	{graph.StatusAdded, "fill:#d4f8d4,stroke:#2da44e"},
	{graph.StatusModified, "fill:#fff3c4,stroke:#bf8700"},
	{graph.StatusRemoved, "fill:#ffd7d5,stroke:#cf222e,stroke-dasharray:4 2"},
}

// GenerateMermaid produces a Mermaid graph TD diagram from a snapshot.
// Files are grouped by cluster; import edges become arrows labelled with
// their symbols, and added edges are drawn thick. Edges to files missing
// from the snapshot are skipped.
func GenerateMermaid(snap *graph.Snapshot) string {
	// Build node → ID mapping for Mermaid (alphanumeric only).
	nodeIDs := make(map[string]string)
	nextID := 0
	getID := func(key string) string {
		if id, ok := nodeIDs[key]; ok {
			return id
		}
		id := fmt.Sprintf("N%d", nextID)
		nextID++
		nodeIDs[key] = id
		return id
	}

	nodes := make(map[string]*graph.SnapshotNode, len(snap.Nodes))
	for i := range snap.Nodes {
		nodes[snap.Nodes[i].ID] = &snap.Nodes[i]
	}

	var sb strings.Builder
	sb.WriteString("graph TD\n")

	clustered := make(map[string]bool)
	for ci, c := range graph.ComputeClusters(snap) {
		if len(c.Members) == 0 {
			continue
		}
		sorted := make([]string, len(c.Members))
		copy(sorted, c.Members)
		sort.Strings(sorted)

		fmt.Fprintf(&sb, "  subgraph C%d[\"%.40s\"]\n", ci, c.Name)
		for _, member := range sorted {
			clustered[member] = true
			writeNode(&sb, "    ", getID(member), nodes[member])
		}
		sb.WriteString("  end\n")
	}
	for i := range snap.Nodes {
		n := &snap.Nodes[i]
		if !clustered[n.ID] {
			writeNode(&sb, "  ", getID(n.ID), n)
		}
	}

	for _, e := range snap.Edges {
		if nodes[e.Source] == nil || nodes[e.Target] == nil {
			continue
		}
		arrow := "-->"
		if e.ChangeStatus == graph.StatusAdded {
			arrow = "==>"
		}
		label := edgeLabel(e.Symbols)
		if label == "" {
			fmt.Fprintf(&sb, "  %s %s %s\n", getID(e.Source), arrow, getID(e.Target))
			continue
		}
		fmt.Fprintf(&sb, "  %s %s|\"%s\"| %s\n", getID(e.Source), arrow, label, getID(e.Target))
	}

	for _, c := range statusClasses {
		var ids []string
		for i := range snap.Nodes {
			if snap.Nodes[i].ChangeStatus == c.status {
				ids = append(ids, getID(snap.Nodes[i].ID))
			}
		}
		if len(ids) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "  classDef %s %s\n", c.status, c.def)
		fmt.Fprintf(&sb, "  class %s %s\n", strings.Join(ids, ","), c.status)
	}

	return sb.String()
}

func writeNode(sb *strings.Builder, indent, id string, n *graph.SnapshotNode) {
	if n == nil {
		return
	}
	fmt.Fprintf(sb, "%s%s[\"%s<br/>%d LOC\"]\n", indent, id, escape(shortPath(n.Path)), n.LinesOfCode)
}

// edgeLabel lists an edge's symbols, omitting the whole-module sentinel.
func edgeLabel(symbols []string) string {
	var names []string
	for _, s := range symbols {
		if s == graph.WholeModule {
			continue
		}
		names = append(names, s)
	}
	if len(names) > 3 {
		names = append(names[:3], fmt.Sprintf("+%d", len(names)-3))
	}
	return escape(strings.Join(names, ", "))
}

func escape(s string) string {
	return strings.ReplaceAll(s, `"`, "#quot;")
}

// shortPath returns the last 2 path segments for readability.
func shortPath(p string) string {
	parts := strings.Split(path.Clean(p), "/")
	if len(parts) <= 2 {
		return p
	}
	return strings.Join(parts[len(parts)-2:], "/")
}
