// Package hierarchy builds single-linkage dendrograms from spanning trees and
// extracts flat partitions from them, either by cutting at a fixed number of
// clusters or through a condensed density hierarchy.
package hierarchy

// UnionFind is a disjoint-set forest over 2n-1 slots: points 0..n-1 plus one
// slot per merge, so dendrogram node IDs n..2n-2 can be used as set roots.
type UnionFind struct {
	parent []int
	size   []int
	next   int
}

// NewUnionFind creates a forest for n points.
func NewUnionFind(n int) *UnionFind {
	total := max(2*n-1, 1)
	uf := &UnionFind{
		parent: make([]int, total),
		size:   make([]int, total),
		next:   n,
	}
	for i := range uf.parent {
		uf.parent[i] = -1
	}
	for i := 0; i < n; i++ {
		uf.size[i] = 1
	}
	return uf
}

// Find returns the root of x, compressing the path.
func (uf *UnionFind) Find(x int) int {
	root := x
	for uf.parent[root] != -1 {
		root = uf.parent[root]
	}
	for uf.parent[x] != -1 {
		x, uf.parent[x] = uf.parent[x], root
	}
	return root
}

// Size returns the number of points in the set rooted at root.
func (uf *UnionFind) Size(root int) int { return uf.size[root] }

// Merge joins the sets rooted at a and b under a fresh node ID and returns it.
func (uf *UnionFind) Merge(a, b int) int {
	id := uf.next
	uf.next++
	uf.size[id] = uf.size[a] + uf.size[b]
	uf.parent[a] = id
	uf.parent[b] = id
	return id
}
