package hierarchy

import (
	"math"
	"testing"

	"github.com/TrevorS/clustersearch/internal/spatial"
)

func TestUnionFind(t *testing.T) {
	uf := NewUnionFind(4)
	if uf.Find(2) != 2 {
		t.Fatalf("fresh point should be its own root")
	}
	a := uf.Merge(0, 1)
	if a != 4 {
		t.Errorf("first merge id = %d, want 4", a)
	}
	b := uf.Merge(uf.Find(2), uf.Find(0))
	if b != 5 {
		t.Errorf("second merge id = %d, want 5", b)
	}
	if uf.Size(b) != 3 {
		t.Errorf("size = %d, want 3", uf.Size(b))
	}
	for _, p := range []int{0, 1, 2} {
		if uf.Find(p) != b {
			t.Errorf("Find(%d) = %d, want %d", p, uf.Find(p), b)
		}
	}
	if uf.Find(3) != 3 {
		t.Errorf("untouched point moved")
	}
}

func linePoints(xs ...float64) [][]float64 {
	out := make([][]float64, len(xs))
	for i, x := range xs {
		out[i] = []float64{x}
	}
	return out
}

func TestPrimMST(t *testing.T) {
	m := spatial.Pairwise(linePoints(0, 1, 3, 6), spatial.Euclidean{}, 1)
	edges := PrimMST(m)
	if len(edges) != 3 {
		t.Fatalf("got %d edges, want 3", len(edges))
	}
	var total float64
	for _, e := range edges {
		total += e.Weight
	}
	if total != 6 {
		t.Errorf("total weight = %v, want 6", total)
	}
	if PrimMST(spatial.Pairwise(linePoints(1), spatial.Euclidean{}, 1)) != nil {
		t.Error("single point should have no edges")
	}
}

func TestPrimMSTDisconnected(t *testing.T) {
	m := &spatial.Matrix{N: 3, Data: []float64{
		0, 1, math.Inf(1),
		1, 0, math.Inf(1),
		math.Inf(1), math.Inf(1), 0,
	}}
	edges := PrimMST(m)
	if len(edges) != 2 {
		t.Fatalf("got %d edges, want 2", len(edges))
	}
	if !math.IsInf(edges[1].Weight, 1) {
		t.Errorf("expected +Inf edge, got %v", edges[1].Weight)
	}
}

func TestSingleLinkage(t *testing.T) {
	edges := []Edge{{0, 1, 1}, {2, 3, 3}, {1, 2, 2}}
	merges := SingleLinkage(edges, 4)
	want := []Merge{
		{Left: 0, Right: 1, Distance: 1, Size: 2},
		{Left: 4, Right: 2, Distance: 2, Size: 3},
		{Left: 5, Right: 3, Distance: 3, Size: 4},
	}
	if len(merges) != len(want) {
		t.Fatalf("got %d merges, want %d", len(merges), len(want))
	}
	for i := range want {
		if merges[i] != want[i] {
			t.Errorf("merge %d = %+v, want %+v", i, merges[i], want[i])
		}
	}
	if edges[1].Weight != 3 {
		t.Error("input edges were reordered")
	}
}

func TestCut(t *testing.T) {
	m := spatial.Pairwise(linePoints(0, 0.5, 1, 10, 10.5, 30), spatial.Euclidean{}, 1)
	merges := SingleLinkage(PrimMST(m), 6)

	tests := []struct {
		k    int
		want []int
	}{
		{1, []int{0, 0, 0, 0, 0, 0}},
		{2, []int{0, 0, 0, 0, 0, 1}},
		{3, []int{0, 0, 0, 1, 1, 2}},
		{99, []int{0, 1, 2, 3, 4, 5}},
	}
	for _, tt := range tests {
		got := Cut(merges, 6, tt.k)
		for i := range tt.want {
			if got[i] != tt.want[i] {
				t.Errorf("k=%d: labels=%v want %v", tt.k, got, tt.want)
				break
			}
		}
	}
}

// twoGroups returns two tight groups of five points far apart.
func twoGroups() [][]float64 {
	return linePoints(0, 0.1, 0.2, 0.3, 0.4, 10, 10.1, 10.2, 10.3, 10.4)
}

func condensedFor(points [][]float64, minClusterSize int) []Node {
	m := spatial.Pairwise(points, spatial.Euclidean{}, 1)
	return Condense(SingleLinkage(PrimMST(m), len(points)), minClusterSize)
}

func TestCondenseTwoGroups(t *testing.T) {
	tree := condensedFor(twoGroups(), 3)

	var clusters, points int
	for _, e := range tree {
		if e.Size > 1 {
			clusters++
			if e.Parent != 10 {
				t.Errorf("cluster %d should hang from the root, got parent %d", e.Child, e.Parent)
			}
			if e.Size != 5 {
				t.Errorf("cluster size %d, want 5", e.Size)
			}
		} else {
			points++
		}
	}
	if clusters != 2 {
		t.Errorf("got %d cluster entries, want 2", clusters)
	}
	if points != 10 {
		t.Errorf("got %d point entries, want 10", points)
	}
}

func TestStability(t *testing.T) {
	tree := []Node{
		{Parent: 3, Child: 4, Lambda: 0.5, Size: 2},
		{Parent: 3, Child: 2, Lambda: 0.5, Size: 1},
		{Parent: 4, Child: 0, Lambda: 2, Size: 1},
		{Parent: 4, Child: 1, Lambda: 2, Size: 1},
	}
	s := Stability(tree)
	if got := s[3]; math.Abs(got-1.5) > 1e-12 {
		t.Errorf("root stability = %v, want 1.5", got)
	}
	if got := s[4]; math.Abs(got-3) > 1e-12 {
		t.Errorf("child stability = %v, want 3", got)
	}
	if Stability(nil) != nil {
		t.Error("empty tree should have nil stability")
	}
}

func TestSelectAndLabelTwoGroups(t *testing.T) {
	points := twoGroups()
	tree := condensedFor(points, 3)
	selected := SelectEOM(tree, Stability(tree), false)
	if len(selected) != 2 {
		t.Fatalf("EOM selected %d clusters, want 2", len(selected))
	}
	labels := Labels(tree, selected, len(points))
	for i := 1; i < 5; i++ {
		if labels[i] != labels[0] {
			t.Errorf("point %d label %d, want %d", i, labels[i], labels[0])
		}
		if labels[5+i] != labels[5] {
			t.Errorf("point %d label %d, want %d", 5+i, labels[5+i], labels[5])
		}
	}
	if labels[0] == labels[5] || labels[0] < 0 || labels[5] < 0 {
		t.Errorf("groups should get distinct non-noise labels, got %v", labels)
	}

	leaf := SelectLeaf(tree)
	if len(leaf) != 2 {
		t.Errorf("leaf selected %d clusters, want 2", len(leaf))
	}
}

func TestSelectEmpty(t *testing.T) {
	if got := SelectEOM(nil, nil, false); len(got) != 0 {
		t.Errorf("SelectEOM(nil) = %v", got)
	}
	labels := Labels(nil, nil, 3)
	for _, l := range labels {
		if l != -1 {
			t.Errorf("empty tree should label noise, got %v", labels)
		}
	}
}
