//go:build cgo

package main

import "github.com/dusk-indust/archgraph/internal/graph"

// newIndex answers dependency queries with Cypher on an in-memory KuzuDB.
func newIndex() (graph.Index, error) {
	idx, err := graph.NewKuzuIndex()
	if err != nil {
		return nil, err
	}
	return idx, nil
}
