package hierarchy

import "math"

// Node is one edge of a condensed tree. A Size of 1 means Child is a point
// that fell out of Parent at density Lambda (1/distance); larger sizes mean
// Child is a cluster born at Lambda.
type Node struct {
	Parent int
	Child  int
	Lambda float64
	Size   int
}

// Condense collapses a single-linkage dendrogram over n = len(merges)+1
// points into a condensed tree in which a split only creates new clusters
// when both sides hold at least minClusterSize points. Cluster IDs start at
// n (the root) and grow in breadth-first order.
func Condense(merges []Merge, minClusterSize int) []Node {
	if len(merges) == 0 {
		return nil
	}
	n := len(merges) + 1
	root := 2 * len(merges)
	next := n + 1

	relabel := map[int]int{root: n}
	ignore := make(map[int]bool)
	var out []Node

	sizeOf := func(node int) int {
		if node < n {
			return 1
		}
		return merges[node-n].Size
	}
	dropPoints := func(sub, parent int, lambda float64) {
		for _, x := range descendants(merges, sub, n) {
			if x < n {
				out = append(out, Node{Parent: parent, Child: x, Lambda: lambda, Size: 1})
			}
			ignore[x] = true
		}
	}

	for _, node := range descendants(merges, root, n) {
		if node < n || ignore[node] {
			continue
		}
		m := merges[node-n]
		lambda := math.Inf(1)
		if m.Distance > 0 {
			lambda = 1 / m.Distance
		}
		parent := relabel[node]
		leftBig := sizeOf(m.Left) >= minClusterSize
		rightBig := sizeOf(m.Right) >= minClusterSize

		switch {
		case leftBig && rightBig:
			for _, child := range []int{m.Left, m.Right} {
				relabel[child] = next
				out = append(out, Node{Parent: parent, Child: next, Lambda: lambda, Size: sizeOf(child)})
				next++
			}
		case leftBig:
			relabel[m.Left] = parent
			dropPoints(m.Right, parent, lambda)
		case rightBig:
			relabel[m.Right] = parent
			dropPoints(m.Left, parent, lambda)
		default:
			dropPoints(m.Left, parent, lambda)
			dropPoints(m.Right, parent, lambda)
		}
	}
	return out
}

// descendants lists sub and every node below it in breadth-first order.
func descendants(merges []Merge, sub, n int) []int {
	out := []int{sub}
	for i := 0; i < len(out); i++ {
		if x := out[i]; x >= n {
			m := merges[x-n]
			out = append(out, m.Left, m.Right)
		}
	}
	return out
}

// Stability returns, per cluster of a condensed tree, the sum over its
// children of (lambda - lambda_birth) * size. The root is born at 0.
func Stability(tree []Node) map[int]float64 {
	if len(tree) == 0 {
		return nil
	}
	root := rootOf(tree)
	birth := map[int]float64{root: 0}
	for _, e := range tree {
		if e.Size > 1 {
			birth[e.Child] = e.Lambda
		}
	}
	out := make(map[int]float64)
	for _, e := range tree {
		out[e.Parent] += (e.Lambda - birth[e.Parent]) * float64(e.Size)
	}
	return out
}

func rootOf(tree []Node) int {
	root := math.MaxInt
	for _, e := range tree {
		root = min(root, e.Parent)
	}
	return root
}
