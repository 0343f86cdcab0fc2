// Package export renders graph snapshots for humans and other tools.
package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dusk-indust/archgraph/internal/graph"
)

// Document is the JSON export: the snapshot plus derived summaries. It
// carries no timestamps so identical inputs serialize to identical bytes.
type Document struct {
	Root     string               `json:"root,omitempty"`
	Stats    *graph.GraphStats    `json:"stats"`
	Clusters []graph.ClusterNode  `json:"clusters"`
	Nodes    []graph.SnapshotNode `json:"nodes"`
	Edges    []graph.SnapshotEdge `json:"edges"`
}

// NewDocument wraps snap with its stats and clusters.
func NewDocument(root string, snap *graph.Snapshot) *Document {
	clusters := graph.ComputeClusters(snap)
	if clusters == nil {
		clusters = []graph.ClusterNode{}
	}
	return &Document{
		Root:     root,
		Stats:    graph.StatsOf(snap),
		Clusters: clusters,
		Nodes:    snap.Nodes,
		Edges:    snap.Edges,
	}
}

// WriteJSON encodes snap as the bare {nodes, edges} snapshot consumed by the
// viewer, indented when pretty is set.
func WriteJSON(w io.Writer, snap *graph.Snapshot, pretty bool) error {
	return encode(w, snap, pretty)
}

// WriteDocument encodes the full export document.
func WriteDocument(w io.Writer, doc *Document, pretty bool) error {
	return encode(w, doc, pretty)
}

// ReadJSON decodes a snapshot written by WriteJSON or WriteDocument.
func ReadJSON(r io.Reader) (*graph.Snapshot, error) {
	var snap graph.Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Nodes == nil {
		snap.Nodes = []graph.SnapshotNode{}
	}
	if snap.Edges == nil {
		snap.Edges = []graph.SnapshotEdge{}
	}
	return &snap, nil
}

func encode(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
