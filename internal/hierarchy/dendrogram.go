package hierarchy

import "sort"

// Merge is one row of a dendrogram in scipy linkage form: the node IDs joined,
// the height of the join and the number of points under the new node. Points
// are 0..n-1 and the i-th merge creates node n+i.
type Merge struct {
	Left, Right int
	Distance    float64
	Size        int
}

// SingleLinkage turns spanning tree edges over n points into a single-linkage
// dendrogram. Edges are processed by ascending weight; the input is not
// modified.
func SingleLinkage(edges []Edge, n int) []Merge {
	if len(edges) == 0 {
		return nil
	}
	sorted := make([]Edge, len(edges))
	copy(sorted, edges)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Weight < sorted[j].Weight })

	uf := NewUnionFind(n)
	out := make([]Merge, 0, len(sorted))
	for _, e := range sorted {
		a, b := uf.Find(e.From), uf.Find(e.To)
		out = append(out, Merge{Left: a, Right: b, Distance: e.Weight, Size: uf.Size(a) + uf.Size(b)})
		uf.Merge(a, b)
	}
	return out
}

// Cut flattens a dendrogram over n points into k clusters by undoing the
// last k-1 merges. k is clamped to [1, n]. Labels are 0..k-1 in order of the
// lowest point index in each cluster.
func Cut(merges []Merge, n, k int) []int {
	k = max(min(k, n), 1)
	keep := max(len(merges)-(k-1), 0)
	uf := NewUnionFind(n)
	for _, m := range merges[:keep] {
		uf.Merge(uf.Find(m.Left), uf.Find(m.Right))
	}
	labels := make([]int, n)
	ids := make(map[int]int)
	for i := range labels {
		root := uf.Find(i)
		id, ok := ids[root]
		if !ok {
			id = len(ids)
			ids[root] = id
		}
		labels[i] = id
	}
	return labels
}
