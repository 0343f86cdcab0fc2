package graph

import "path"

// Layout constants shared with the viewer so node boxes fit the filename text.
const (
	charWidth    = 8
	nodePadding  = 12
	minNodeWidth = 60
	nodeHeight   = 28
)

// DisplaySize returns the box size for a node labelled with the base name of p.
func DisplaySize(p string) (width, height int) {
	width = len(path.Base(p))*charWidth + 2*nodePadding
	if width < minNodeWidth {
		width = minNodeWidth
	}
	return width, nodeHeight
}
