package spatial

import (
	"container/heap"
	"math"
	"sort"
)

// Neighbor is a point index together with its distance to a query.
type Neighbor struct {
	Index int
	Dist  float64
}

type kdNode struct {
	start, end int
	leaf       bool
}

// KDTree indexes points for k-nearest-neighbour and radius queries.
//
// Nodes form an implicit binary tree (children of i at 2i+1 and 2i+2); each
// node covers idx[start:end] and keeps a bounding box. Box pruning is only
// applied for metrics that decompose along axes; other metrics still get
// correct answers but visit every leaf.
type KDTree struct {
	points   [][]float64
	dims     int
	leafSize int
	metric   Metric
	idx      []int
	nodes    []kdNode
	lo, hi   [][]float64
	p        float64
	prunable bool
}

// NewKDTree builds a tree over points. The points are not copied and must not
// be modified while the tree is in use. leafSize below 1 is treated as 1.
func NewKDTree(points [][]float64, metric Metric, leafSize int) *KDTree {
	if metric == nil {
		metric = Euclidean{}
	}
	leafSize = max(leafSize, 1)
	t := &KDTree{
		points:   points,
		leafSize: leafSize,
		metric:   metric,
		idx:      make([]int, len(points)),
	}
	if len(points) > 0 {
		t.dims = len(points[0])
	}
	for i := range t.idx {
		t.idx[i] = i
	}
	t.p, t.prunable = axisExponent(metric)
	if len(points) > 0 {
		t.build(0, 0, len(points))
	}
	return t
}

// Len returns the number of indexed points.
func (t *KDTree) Len() int { return len(t.points) }

func (t *KDTree) grow(node int) {
	for node >= len(t.nodes) {
		t.nodes = append(t.nodes, kdNode{})
		t.lo = append(t.lo, nil)
		t.hi = append(t.hi, nil)
	}
}

func (t *KDTree) build(node, start, end int) {
	t.grow(node)
	lo := make([]float64, t.dims)
	hi := make([]float64, t.dims)
	for d := range lo {
		lo[d], hi[d] = math.Inf(1), math.Inf(-1)
	}
	for _, i := range t.idx[start:end] {
		for d, v := range t.points[i] {
			lo[d] = min(lo[d], v)
			hi[d] = max(hi[d], v)
		}
	}
	t.lo[node], t.hi[node] = lo, hi

	if end-start <= t.leafSize {
		t.nodes[node] = kdNode{start: start, end: end, leaf: true}
		return
	}

	// Split on the widest dimension at the median.
	split, spread := 0, -1.0
	for d := range lo {
		if s := hi[d] - lo[d]; s > spread {
			split, spread = d, s
		}
	}
	sub := t.idx[start:end]
	sort.Slice(sub, func(a, b int) bool {
		return t.points[sub[a]][split] < t.points[sub[b]][split]
	})
	mid := start + (end-start)/2

	t.nodes[node] = kdNode{start: start, end: end}
	t.build(2*node+1, start, mid)
	t.build(2*node+2, mid, end)
}

// boxDistance is a lower bound on the distance from q to any point in node.
func (t *KDTree) boxDistance(node int, q []float64) float64 {
	if !t.prunable {
		return 0
	}
	lo, hi := t.lo[node], t.hi[node]
	var acc float64
	for d, v := range q {
		var gap float64
		switch {
		case v < lo[d]:
			gap = lo[d] - v
		case v > hi[d]:
			gap = v - hi[d]
		}
		if math.IsInf(t.p, 1) {
			acc = max(acc, gap)
		} else {
			acc += math.Pow(gap, t.p)
		}
	}
	if math.IsInf(t.p, 1) {
		return acc
	}
	return math.Pow(acc, 1/t.p)
}

func (t *KDTree) valid(node int) bool {
	if node >= len(t.nodes) {
		return false
	}
	n := t.nodes[node]
	return node == 0 || n.start != n.end
}

// KNN returns the k points nearest to q sorted by ascending distance. If q is
// itself an indexed point it is included at distance 0.
func (t *KDTree) KNN(q []float64, k int) []Neighbor {
	if k <= 0 || len(t.points) == 0 {
		return nil
	}
	h := &neighborHeap{}
	t.knn(0, q, k, h)
	out := make([]Neighbor, h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(h).(Neighbor)
	}
	return out
}

func (t *KDTree) knn(node int, q []float64, k int, h *neighborHeap) {
	if !t.valid(node) {
		return
	}
	n := t.nodes[node]
	if n.leaf {
		for _, i := range t.idx[n.start:n.end] {
			d := t.metric.Distance(q, t.points[i])
			if h.Len() < k {
				heap.Push(h, Neighbor{Index: i, Dist: d})
			} else if d < (*h)[0].Dist {
				(*h)[0] = Neighbor{Index: i, Dist: d}
				heap.Fix(h, 0)
			}
		}
		return
	}

	near, far := 2*node+1, 2*node+2
	nearDist, farDist := t.childDistance(near, q), t.childDistance(far, q)
	if farDist < nearDist {
		near, far = far, near
		farDist = nearDist
	}
	t.knn(near, q, k, h)
	if h.Len() < k || farDist < (*h)[0].Dist {
		t.knn(far, q, k, h)
	}
}

func (t *KDTree) childDistance(node int, q []float64) float64 {
	if !t.valid(node) {
		return math.Inf(1)
	}
	return t.boxDistance(node, q)
}

// Radius returns the indices of every point within eps of q (inclusive),
// in ascending index order.
func (t *KDTree) Radius(q []float64, eps float64) []int {
	var out []int
	if len(t.points) > 0 {
		t.radius(0, q, eps, &out)
	}
	sort.Ints(out)
	return out
}

func (t *KDTree) radius(node int, q []float64, eps float64, out *[]int) {
	if !t.valid(node) || t.boxDistance(node, q) > eps {
		return
	}
	n := t.nodes[node]
	if n.leaf {
		for _, i := range t.idx[n.start:n.end] {
			if t.metric.Distance(q, t.points[i]) <= eps {
				*out = append(*out, i)
			}
		}
		return
	}
	t.radius(2*node+1, q, eps, out)
	t.radius(2*node+2, q, eps, out)
}

// neighborHeap is a max-heap on distance, used as a bounded queue.
type neighborHeap []Neighbor

func (h neighborHeap) Len() int           { return len(h) }
func (h neighborHeap) Less(i, j int) bool { return h[i].Dist > h[j].Dist }
func (h neighborHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *neighborHeap) Push(x any)        { *h = append(*h, x.(Neighbor)) }
func (h *neighborHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
