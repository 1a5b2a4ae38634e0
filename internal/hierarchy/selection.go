package hierarchy

import "sort"

// SelectEOM picks the flat clustering that maximises total stability
// (excess of mass). Clusters are visited bottom-up; a cluster is kept when
// its own stability is at least the best achievable by its descendants.
// The root is only eligible when allowSingle is set.
func SelectEOM(tree []Node, stability map[int]float64, allowSingle bool) map[int]bool {
	if len(tree) == 0 {
		return map[int]bool{}
	}
	root := rootOf(tree)
	children := clusterChildren(tree)

	nodes := make([]int, 0, len(stability))
	for id := range stability {
		if id != root || allowSingle {
			nodes = append(nodes, id)
		}
	}
	// IDs grow breadth-first, so descending order visits children first.
	sort.Sort(sort.Reverse(sort.IntSlice(nodes)))

	best := make(map[int]float64, len(stability))
	for id, s := range stability {
		best[id] = s
	}
	selected := make(map[int]bool)
	for _, id := range nodes {
		var sub float64
		for _, c := range children[id] {
			sub += best[c]
		}
		if len(children[id]) > 0 && sub > best[id] {
			best[id] = sub
			selected[id] = false
			continue
		}
		selected[id] = true
		for _, d := range clusterDescendants(children, id)[1:] {
			selected[d] = false
		}
	}

	out := make(map[int]bool)
	for id, ok := range selected {
		if ok {
			out[id] = true
		}
	}
	return out
}

// SelectLeaf picks the leaves of the cluster tree. With no cluster splits at
// all the root is returned as the only cluster.
func SelectLeaf(tree []Node) map[int]bool {
	out := make(map[int]bool)
	if len(tree) == 0 {
		return out
	}
	children := clusterChildren(tree)
	for _, e := range tree {
		if e.Size > 1 && len(children[e.Child]) == 0 {
			out[e.Child] = true
		}
	}
	if len(out) == 0 {
		out[rootOf(tree)] = true
	}
	return out
}

// Labels assigns every point of a condensed tree over n points to its
// nearest selected ancestor cluster, or -1 when none is selected. Cluster
// labels are numbered by ascending cluster ID.
func Labels(tree []Node, selected map[int]bool, n int) []int {
	labels := make([]int, n)
	for i := range labels {
		labels[i] = -1
	}
	if len(tree) == 0 {
		return labels
	}

	ids := make([]int, 0, len(selected))
	for id := range selected {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	index := make(map[int]int, len(ids))
	for i, id := range ids {
		index[id] = i
	}

	parent := make(map[int]int)
	for _, e := range tree {
		if e.Size > 1 {
			parent[e.Child] = e.Parent
		}
	}
	for _, e := range tree {
		if e.Size != 1 || e.Child >= n {
			continue
		}
		for c, ok := e.Parent, true; ok; c, ok = parent[c] {
			if selected[c] {
				labels[e.Child] = index[c]
				break
			}
		}
	}
	return labels
}

func clusterChildren(tree []Node) map[int][]int {
	out := make(map[int][]int)
	for _, e := range tree {
		if e.Size > 1 {
			out[e.Parent] = append(out[e.Parent], e.Child)
		}
	}
	return out
}

func clusterDescendants(children map[int][]int, id int) []int {
	out := []int{id}
	for i := 0; i < len(out); i++ {
		out = append(out, children[out[i]]...)
	}
	return out
}
