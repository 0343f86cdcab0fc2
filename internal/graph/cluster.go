package graph

import (
	"slices"
	"strings"
)

// ComputeClusters groups files that are connected through imports, ignoring
// edge direction. Components of a single file are dropped. Each cluster is
// named by the deepest directory its members share ("/" for the root), and
// clusters are ordered by their first member.
func ComputeClusters(snap *Snapshot) []ClusterNode {
	uf := newUnionFind(len(snap.Nodes))
	index := make(map[string]int, len(snap.Nodes))
	for i, n := range snap.Nodes {
		index[n.ID] = i
	}
	for _, e := range liveEdges(snap) {
		uf.union(index[e.Source], index[e.Target])
	}

	groups := make(map[int][]string)
	for i, n := range snap.Nodes {
		root := uf.find(i)
		groups[root] = append(groups[root], n.ID)
	}

	var clusters []ClusterNode
	for _, members := range groups {
		if len(members) < 2 {
			continue
		}
		slices.Sort(members)
		clusters = append(clusters, ClusterNode{
			Name:          commonDir(members),
			CohesionScore: cohesion(members, snap.Edges),
			Members:       members,
		})
	}
	slices.SortFunc(clusters, func(a, b ClusterNode) int {
		return strings.Compare(a.Members[0], b.Members[0])
	})
	return clusters
}

type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (u *unionFind) find(i int) int {
	for u.parent[i] != i {
		u.parent[i] = u.parent[u.parent[i]]
		i = u.parent[i]
	}
	return i
}

func (u *unionFind) union(a, b int) {
	if ra, rb := u.find(a), u.find(b); ra != rb {
		u.parent[rb] = ra
	}
}

// cohesion is the share of the members' outgoing edges that stay inside the
// group. Only dangling targets can leave a connected component.
func cohesion(members []string, edges []SnapshotEdge) float64 {
	in := make(map[string]bool, len(members))
	for _, m := range members {
		in[m] = true
	}
	var inside, all int
	for _, e := range edges {
		if !in[e.Source] {
			continue
		}
		all++
		if in[e.Target] {
			inside++
		}
	}
	if all == 0 {
		return 0
	}
	return float64(inside) / float64(all)
}

// commonDir returns the deepest directory shared by every path, with a
// trailing slash, or "/" when they share none.
func commonDir(paths []string) string {
	if len(paths) == 0 {
		return "/"
	}
	shared := dirSegments(paths[0])
	for _, p := range paths[1:] {
		segs := dirSegments(p)
		n := 0
		for n < len(shared) && n < len(segs) && shared[n] == segs[n] {
			n++
		}
		shared = shared[:n]
	}
	if len(shared) == 0 {
		return "/"
	}
	return strings.Join(shared, "/") + "/"
}

func dirSegments(p string) []string {
	i := strings.LastIndex(p, "/")
	if i < 0 {
		return nil
	}
	return strings.Split(p[:i], "/")
}
