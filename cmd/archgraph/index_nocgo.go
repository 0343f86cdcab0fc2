//go:build !cgo

package main

import "github.com/dusk-indust/archgraph/internal/graph"

func newIndex() (graph.Index, error) {
	return graph.NewMemIndex(), nil
}
